package forecast

import (
	"fmt"
	"math"
)

// Tier names the forecasting method used for a week.
type Tier string

const (
	TierNear Tier = "0-6m"
	TierMid  Tier = "6-18m"
	TierLong Tier = "18m+"
)

// Product is the sales history of one product. VineClaims, when present, are
// review-program units that are subtracted from sales before the near tier
// takes its peak.
type Product struct {
	ASIN       string       `json:"asin"`
	Sales      WeeklySeries `json:"sales"`
	VineClaims WeeklySeries `json:"vine_claims,omitempty"`
}

// Horizon is the forecast window: Weeks weeks following AsOfWeek.
type Horizon struct {
	AsOfWeek int `json:"as_of_week"`
	Weeks    int `json:"weeks"`
}

// Week is one forecasted week. Offset is 1 for the week after AsOfWeek.
type Week struct {
	Week    int     `json:"week"`
	Offset  int     `json:"offset"`
	Units   float64 `json:"units"`
	Tier    Tier    `json:"tier"`
	Clamped bool    `json:"clamped,omitempty"`
}

// Result is the forecast of one product. It is a pure function of its
// inputs and safe to cache by their fingerprint.
type Result struct {
	ASIN                string   `json:"asin"`
	AsOfWeek            int      `json:"as_of_week"`
	Weeks               []Week   `json:"weeks"`
	Settings            Settings `json:"settings"`
	SettingsFingerprint string   `json:"settings_fingerprint"`
	ClampedWeeks        int      `json:"clamped_weeks"`

	MaxUnitsWeek    float64 `json:"max_units_week"`
	WeightedAverage float64 `json:"weighted_average"`
	TrendFactor     float64 `json:"trend_factor"`
}

// TierFor returns the tier of the week offset weeks after as-of. Months are
// elapsed calendar months; a week sitting exactly on a boundary belongs to
// the lower tier.
func TierFor(offset int, opts Options) Tier {
	opts = opts.normalized()
	months := float64(offset*7) / daysPerMonth
	switch {
	case months <= opts.NearTierMonths:
		return TierNear
	case months <= opts.MidTierMonths:
		return TierMid
	default:
		return TierLong
	}
}

// Forecast produces the weekly demand forecast for product over horizon.
// Settings are assumed to be validated by the caller.
func Forecast(product Product, horizon Horizon, settings Settings, profile Profile, opts Options) (Result, error) {
	opts = opts.normalized()
	if horizon.Weeks < 0 {
		return Result{}, fmt.Errorf("forecast %s: negative horizon %d", product.ASIN, horizon.Weeks)
	}
	if profile.CycleLength <= 0 || len(profile.Index) != profile.CycleLength || len(profile.Multiplier) != profile.CycleLength {
		profile = FlatProfile(opts.CycleLength)
	}
	n := profile.CycleLength
	opts.CycleLength = n

	hist, err := newDemandHistory(product, horizon.AsOfWeek)
	if err != nil {
		return Result{}, fmt.Errorf("forecast %s: %w", product.ASIN, err)
	}

	maxUnits := hist.max(opts.MaxUnitsWindowWeeks)
	weighted := hist.linearWeightedAvg(opts.WeightedAvgWindowWeeks)
	trend := hist.trend(opts.TrendWindowWeeks, n)

	var prior []float64
	if horizon.Weeks > 0 && TierFor(horizon.Weeks, opts) == TierLong {
		prior, err = hist.priorCycleCurve(weighted, profile, settings.SmoothingFactor, opts)
		if err != nil {
			return Result{}, fmt.Errorf("forecast %s: %w", product.ASIN, err)
		}
	}

	longFactor := (1 + settings.VelocityAdjFactor*trend) * (1 + settings.GrowthFactor)

	res := Result{
		ASIN:                product.ASIN,
		AsOfWeek:            horizon.AsOfWeek,
		Weeks:               make([]Week, 0, horizon.Weeks),
		Settings:            settings,
		SettingsFingerprint: settings.Fingerprint(),
		MaxUnitsWeek:        maxUnits,
		WeightedAverage:     weighted,
		TrendFactor:         trend,
	}

	for k := 1; k <= horizon.Weeks; k++ {
		w := horizon.AsOfWeek + k
		c := CycleWeek(w, n)
		tier := TierFor(k, opts)

		var units float64
		switch tier {
		case TierNear:
			units = maxUnits * profile.Index[c]
		case TierMid:
			units = weighted * profile.Multiplier[c]
		case TierLong:
			units = prior[c] * longFactor
		}

		clamped := false
		if units < 0 || math.IsNaN(units) {
			units = 0
			clamped = true
			res.ClampedWeeks++
		}

		res.Weeks = append(res.Weeks, Week{
			Week:    w,
			Offset:  k,
			Units:   units,
			Tier:    tier,
			Clamped: clamped,
		})
	}

	return res, nil
}

// demandHistory is vine-adjusted weekly demand up to and including asOf.
type demandHistory struct {
	start  int
	asOf   int
	values []float64
}

func newDemandHistory(p Product, asOf int) (demandHistory, error) {
	start, sales, err := p.Sales.Through(asOf).Dense()
	if err != nil {
		return demandHistory{}, fmt.Errorf("sales: %w", err)
	}
	vineStart, vine, err := p.VineClaims.Through(asOf).Dense()
	if err != nil {
		return demandHistory{}, fmt.Errorf("vine claims: %w", err)
	}

	adjusted := make([]float64, len(sales))
	for i, v := range sales {
		if j := start + i - vineStart; j >= 0 && j < len(vine) {
			v -= vine[j]
		}
		adjusted[i] = math.Max(0, v)
	}

	if len(sales) == 0 {
		start = asOf + 1
	}
	return demandHistory{start: start, asOf: asOf, values: adjusted}, nil
}

// at returns demand for week w; weeks after the last observation are zero.
func (h demandHistory) at(w int) float64 {
	i := w - h.start
	if i < 0 || i >= len(h.values) {
		return 0
	}
	return h.values[i]
}

// window returns the first week of the trailing window of size weeks ending
// at last, clipped to the start of the history.
func (h demandHistory) window(last, size int) int {
	first := last - size + 1
	if first < h.start {
		first = h.start
	}
	return first
}

func (h demandHistory) max(size int) float64 {
	peak := 0.0
	for w := h.window(h.asOf, size); w <= h.asOf; w++ {
		peak = math.Max(peak, h.at(w))
	}
	return peak
}

// linearWeightedAvg weights the oldest week of the window 1 and each newer
// week one more than the previous.
func (h demandHistory) linearWeightedAvg(size int) float64 {
	sum, weights := 0.0, 0.0
	weight := 1.0
	for w := h.window(h.asOf, size); w <= h.asOf; w++ {
		sum += h.at(w) * weight
		weights += weight
		weight++
	}
	if weights == 0 {
		return 0
	}
	return sum / weights
}

func (h demandHistory) mean(first, last int) (float64, bool) {
	if first < h.start {
		first = h.start
	}
	if last < first {
		return 0, false
	}
	sum := 0.0
	for w := first; w <= last; w++ {
		sum += h.at(w)
	}
	return sum / float64(last-first+1), true
}

// trend compares the last size weeks with the same weeks one cycle earlier.
// It is 0 when there is no comparable prior period.
func (h demandHistory) trend(size, cycle int) float64 {
	recent, ok := h.mean(h.asOf-size+1, h.asOf)
	if !ok {
		return 0
	}
	prior, ok := h.mean(h.asOf-size+1-cycle, h.asOf-cycle)
	if !ok || prior <= 0 {
		return 0
	}
	return recent/prior - 1
}

// priorCycleCurve returns the rolling-averaged curve of the last full cycle
// of demand, indexed by cycle week. Without a full cycle it falls back to the
// weighted average shaped by the seasonality multiplier.
func (h demandHistory) priorCycleCurve(weighted float64, profile Profile, smoothing float64, opts Options) ([]float64, error) {
	n := opts.CycleLength
	first := h.asOf - n + 1
	if first < h.start {
		curve := make([]float64, n)
		for c := range curve {
			curve[c] = weighted * profile.Multiplier[c]
		}
		return curve, nil
	}

	last := make(WeeklySeries, 0, n)
	for w := first; w <= h.asOf; w++ {
		last = append(last, WeekPoint{Week: w, Value: h.at(w)})
	}

	opts.LookbackCycles = 1
	p, err := ComputeSeasonality(last, smoothing, opts)
	if err != nil {
		return nil, err
	}
	return p.Smoothed, nil
}
