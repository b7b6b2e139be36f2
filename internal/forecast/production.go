package forecast

import "math"

// PlanStatus classifies a production plan.
type PlanStatus string

const (
	PlanNotNeeded PlanStatus = "not_needed"
	PlanScheduled PlanStatus = "scheduled"
	PlanUrgent    PlanStatus = "urgent"
)

// Plan is how much to produce and when it has to ship. Week offsets are
// relative to the as-of week of the projection.
type Plan struct {
	ASIN   string     `json:"asin"`
	Status PlanStatus `json:"status"`
	Urgent bool       `json:"urgent"`

	RunoutOffset     int `json:"runout_offset,omitempty"`
	TargetShipOffset int `json:"target_ship_offset,omitempty"`
	TargetShipWeek   int `json:"target_ship_week,omitempty"`
	LeadTimeWeeks    int `json:"lead_time_weeks"`
	SafetyStockWeeks int `json:"safety_stock_weeks"`

	Quantity        float64 `json:"quantity"`
	CoverageDemand  float64 `json:"coverage_demand"`
	OnHandAtShip    float64 `json:"on_hand_at_ship"`
	LeadTimeDemand  float64 `json:"lead_time_demand"`
	UnitsToMake     float64 `json:"units_to_make"`
	CoverageClipped bool    `json:"coverage_clipped,omitempty"`
}

// PlanProduction derives the production plan from a DOI projection.
//
// The target ship week is the runout week minus the lead time in whole weeks
// and the safety stock weeks. The as-of week is the last completed week, so a
// target at or before it is already past: the plan is urgent and production
// is planned from now. Quantity covers demand from the
// ship week through runout plus safety stock, less inventory still on hand at
// ship time.
func PlanProduction(proj DOIProjection, settings Settings) Plan {
	plan := Plan{
		ASIN:             proj.ASIN,
		Status:           PlanNotNeeded,
		LeadTimeWeeks:    settings.LeadTimeWeeks(),
		SafetyStockWeeks: settings.SafetyStockWeeks,
	}

	plan.LeadTimeDemand = proj.CumulativeAt(plan.LeadTimeWeeks)
	plan.UnitsToMake = math.Ceil(math.Max(0, plan.LeadTimeDemand-proj.OnHand))

	if !proj.HasRunout() {
		return plan
	}

	plan.RunoutOffset = proj.RunoutOffset
	plan.TargetShipOffset = proj.RunoutOffset - plan.LeadTimeWeeks - plan.SafetyStockWeeks
	plan.TargetShipWeek = proj.AsOfWeek + plan.TargetShipOffset
	plan.Status = PlanScheduled
	if plan.TargetShipOffset <= 0 {
		plan.Status = PlanUrgent
		plan.Urgent = true
	}

	ship := plan.TargetShipOffset
	if ship < 0 {
		ship = 0
	}
	coverEnd := proj.RunoutOffset + plan.SafetyStockWeeks
	if coverEnd > len(proj.Points) {
		plan.CoverageClipped = true
	}

	shipped := proj.CumulativeAt(ship)
	plan.CoverageDemand = proj.CumulativeAt(coverEnd) - shipped
	plan.OnHandAtShip = math.Max(0, proj.OnHand-shipped)
	plan.Quantity = math.Ceil(math.Max(0, plan.CoverageDemand-plan.OnHandAtShip))

	return plan
}
