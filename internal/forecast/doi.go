package forecast

// InventorySnapshot is the on-hand inventory of a product as of a week,
// split into FBA and AWD buckets.
type InventorySnapshot struct {
	AsOfWeek         int     `json:"as_of_week"`
	FBAAvailable     float64 `json:"fba_available"`
	FBAReserved      float64 `json:"fba_reserved"`
	FBAInbound       float64 `json:"fba_inbound"`
	AWDAvailable     float64 `json:"awd_available"`
	AWDReserved      float64 `json:"awd_reserved"`
	AWDInbound       float64 `json:"awd_inbound"`
	AWDOutboundToFBA float64 `json:"awd_outbound_to_fba"`
}

// Total sums every bucket.
func (s InventorySnapshot) Total() float64 {
	return s.FBAAvailable + s.FBAReserved + s.FBAInbound +
		s.AWDAvailable + s.AWDReserved + s.AWDInbound + s.AWDOutboundToFBA
}

// RunoutStatus tells whether inventory runs out inside the forecast horizon.
type RunoutStatus string

const (
	RunoutWithinHorizon   RunoutStatus = "runout"
	NoRunoutWithinHorizon RunoutStatus = "no_runout_within_horizon"
)

// DOIPoint is the projected state at the end of one forecast week.
type DOIPoint struct {
	Week               int     `json:"week"`
	Offset             int     `json:"offset"`
	Forecast           float64 `json:"forecast"`
	CumulativeForecast float64 `json:"cumulative_forecast"`
	ProjectedInventory float64 `json:"projected_inventory"`
}

// DOIProjection is the inventory drawdown against a forecast.
type DOIProjection struct {
	ASIN     string       `json:"asin"`
	AsOfWeek int          `json:"as_of_week"`
	OnHand   float64      `json:"on_hand"`
	Points   []DOIPoint   `json:"points"`
	Status   RunoutStatus `json:"status"`

	// RunoutWeek and RunoutOffset are set only when Status is
	// RunoutWithinHorizon.
	RunoutWeek   int `json:"runout_week,omitempty"`
	RunoutOffset int `json:"runout_offset,omitempty"`

	// DaysOfInventory interpolates the runout day inside the runout week.
	// Without a runout it is the length of the horizon in days.
	DaysOfInventory float64 `json:"days_of_inventory"`
}

// HasRunout reports whether the projection found a runout week.
func (p DOIProjection) HasRunout() bool {
	return p.Status == RunoutWithinHorizon
}

// ProjectDOI projects the total inventory of snapshot against result.
func ProjectDOI(result Result, snapshot InventorySnapshot) DOIProjection {
	return ProjectDOIFrom(result, snapshot.Total())
}

// ProjectDOIFrom projects an on-hand quantity against result. The runout
// week is the first week whose projected inventory is at or below zero; the
// projection never extrapolates past the forecast.
func ProjectDOIFrom(result Result, onHand float64) DOIProjection {
	proj := DOIProjection{
		ASIN:     result.ASIN,
		AsOfWeek: result.AsOfWeek,
		OnHand:   onHand,
		Points:   make([]DOIPoint, 0, len(result.Weeks)),
		Status:   NoRunoutWithinHorizon,
	}

	cumulative := 0.0
	for _, w := range result.Weeks {
		before := onHand - cumulative
		cumulative += w.Units
		remaining := onHand - cumulative

		proj.Points = append(proj.Points, DOIPoint{
			Week:               w.Week,
			Offset:             w.Offset,
			Forecast:           w.Units,
			CumulativeForecast: cumulative,
			ProjectedInventory: remaining,
		})

		if remaining <= 0 && proj.Status == NoRunoutWithinHorizon {
			proj.Status = RunoutWithinHorizon
			proj.RunoutWeek = w.Week
			proj.RunoutOffset = w.Offset

			fraction := 0.0
			if w.Units > 0 {
				fraction = clamp01(before / w.Units)
			}
			proj.DaysOfInventory = float64(w.Offset-1)*7 + fraction*7
		}
	}

	if proj.Status == NoRunoutWithinHorizon {
		proj.DaysOfInventory = float64(len(result.Weeks) * 7)
	}

	return proj
}

// CumulativeAt returns the cumulative forecast at the end of offset. Offset
// 0 is the as-of week and offsets past the horizon return the last value.
func (p DOIProjection) CumulativeAt(offset int) float64 {
	if offset <= 0 || len(p.Points) == 0 {
		return 0
	}
	if offset > len(p.Points) {
		offset = len(p.Points)
	}
	return p.Points[offset-1].CumulativeForecast
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
