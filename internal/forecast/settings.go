package forecast

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"math"
)

const (
	DefaultVelocityAdjFactor = 0.1
	DefaultGrowthFactor      = 0.05
	DefaultLeadTimeDays      = 90
	DefaultSafetyStockWeeks  = 4
	DefaultSmoothingFactor   = 0.85
)

// Settings is the tunable configuration of a single forecast run.
type Settings struct {
	VelocityAdjFactor float64 `json:"velocity_adj_factor" mapstructure:"velocity_adj_factor"`
	GrowthFactor      float64 `json:"growth_factor" mapstructure:"growth_factor"`
	LeadTimeDays      int     `json:"lead_time_days" mapstructure:"lead_time_days"`
	SafetyStockWeeks  int     `json:"safety_stock_weeks" mapstructure:"safety_stock_weeks"`
	SmoothingFactor   float64 `json:"smoothing_factor" mapstructure:"smoothing_factor"`
}

// DefaultSettings returns the settings the spreadsheet shipped with.
func DefaultSettings() Settings {
	return Settings{
		VelocityAdjFactor: DefaultVelocityAdjFactor,
		GrowthFactor:      DefaultGrowthFactor,
		LeadTimeDays:      DefaultLeadTimeDays,
		SafetyStockWeeks:  DefaultSafetyStockWeeks,
		SmoothingFactor:   DefaultSmoothingFactor,
	}
}

// Validate checks every field and returns an *InvalidSettingsError for the
// first one out of range.
func (s Settings) Validate() error {
	checks := []struct {
		field  string
		value  float64
		ok     bool
		reason string
	}{
		{"velocity_adj_factor", s.VelocityAdjFactor, s.VelocityAdjFactor >= 0 && s.VelocityAdjFactor <= 10, "must be between 0 and 10"},
		{"growth_factor", s.GrowthFactor, s.GrowthFactor > -1 && s.GrowthFactor <= 10, "must be greater than -1 and at most 10"},
		{"lead_time_days", float64(s.LeadTimeDays), s.LeadTimeDays >= 0 && s.LeadTimeDays <= 730, "must be between 0 and 730"},
		{"safety_stock_weeks", float64(s.SafetyStockWeeks), s.SafetyStockWeeks >= 0 && s.SafetyStockWeeks <= 104, "must be between 0 and 104"},
		{"smoothing_factor", s.SmoothingFactor, s.SmoothingFactor >= 0 && s.SmoothingFactor <= 1, "must be between 0 and 1"},
	}

	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) {
			return &InvalidSettingsError{Field: c.field, Value: c.value, Reason: "must be a finite number"}
		}
		if !c.ok {
			return &InvalidSettingsError{Field: c.field, Value: c.value, Reason: c.reason}
		}
	}

	return nil
}

// LeadTimeWeeks rounds the lead time up to whole weeks.
func (s Settings) LeadTimeWeeks() int {
	return int(math.Ceil(float64(s.LeadTimeDays) / 7))
}

// Fingerprint identifies the settings snapshot a result was computed with.
func (s Settings) Fingerprint() string {
	raw := fmt.Sprintf("velocity=%.6f|growth=%.6f|lead=%d|safety=%d|smoothing=%.6f",
		s.VelocityAdjFactor, s.GrowthFactor, s.LeadTimeDays, s.SafetyStockWeeks, s.SmoothingFactor)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}
