package domain

import (
	"strings"

	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
)

var tierLabels = map[forecast.Tier]string{
	forecast.TierNear: "0-6 Months",
	forecast.TierMid:  "6-18 Months",
	forecast.TierLong: "18+ Months",
}

var tierCodes = map[string]forecast.Tier{
	"0-6m":  forecast.TierNear,
	"near":  forecast.TierNear,
	"6-18m": forecast.TierMid,
	"mid":   forecast.TierMid,
	"18m+":  forecast.TierLong,
	"long":  forecast.TierLong,
}

var planStatusLabels = map[forecast.PlanStatus]string{
	forecast.PlanNotNeeded: "Not Needed",
	forecast.PlanScheduled: "Scheduled",
	forecast.PlanUrgent:    "Urgent",
}

// TierLabel returns a human-readable label for a forecast tier.
func TierLabel(tier forecast.Tier) string {
	if label, ok := tierLabels[tier]; ok {
		return label
	}

	return "Unknown"
}

// ParseTier returns the tier for a given code or alias (case-insensitive).
func ParseTier(code string) (forecast.Tier, bool) {
	tier, ok := tierCodes[strings.ToLower(strings.TrimSpace(code))]

	return tier, ok
}

// PlanStatusLabel returns a human-readable label for a production plan status.
func PlanStatusLabel(status forecast.PlanStatus) string {
	if label, ok := planStatusLabels[status]; ok {
		return label
	}

	return "Unknown"
}
