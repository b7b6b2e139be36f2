package forecast

// Options holds the smoothing windows and trailing-window lengths that were
// tuned against the spreadsheet output.
type Options struct {
	CycleLength    int
	LookbackCycles int // 0 uses every cycle in the history
	OffsetWindow   int

	// RollingKernel is the weighted moving-average kernel of the rolling
	// step. Its half-width is trimmed by the smoothing factor.
	RollingKernel []float64

	MaxUnitsWindowWeeks    int
	WeightedAvgWindowWeeks int
	TrendWindowWeeks       int

	NearTierMonths float64
	MidTierMonths  float64
}

const (
	DefaultCycleLength            = 52
	DefaultOffsetWindow           = 3
	DefaultMaxUnitsWindowWeeks    = 12
	DefaultWeightedAvgWindowWeeks = 26
	DefaultTrendWindowWeeks       = 8
	DefaultNearTierMonths         = 6
	DefaultMidTierMonths          = 18

	daysPerMonth = 365.25 / 12
)

// DefaultRollingKernel is the 11-week weighting used by the spreadsheet's
// final smooth column.
var DefaultRollingKernel = []float64{1, 2, 4, 7, 11, 13, 11, 7, 4, 2, 1}

func DefaultOptions() Options {
	return Options{
		CycleLength:            DefaultCycleLength,
		OffsetWindow:           DefaultOffsetWindow,
		RollingKernel:          DefaultRollingKernel,
		MaxUnitsWindowWeeks:    DefaultMaxUnitsWindowWeeks,
		WeightedAvgWindowWeeks: DefaultWeightedAvgWindowWeeks,
		TrendWindowWeeks:       DefaultTrendWindowWeeks,
		NearTierMonths:         DefaultNearTierMonths,
		MidTierMonths:          DefaultMidTierMonths,
	}
}

// normalized fills zero fields with their defaults.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.CycleLength <= 0 {
		o.CycleLength = d.CycleLength
	}
	if o.LookbackCycles < 0 {
		o.LookbackCycles = 0
	}
	if o.OffsetWindow <= 0 {
		o.OffsetWindow = d.OffsetWindow
	}
	if len(o.RollingKernel) == 0 {
		o.RollingKernel = d.RollingKernel
	}
	if o.MaxUnitsWindowWeeks <= 0 {
		o.MaxUnitsWindowWeeks = d.MaxUnitsWindowWeeks
	}
	if o.WeightedAvgWindowWeeks <= 0 {
		o.WeightedAvgWindowWeeks = d.WeightedAvgWindowWeeks
	}
	if o.TrendWindowWeeks <= 0 {
		o.TrendWindowWeeks = d.TrendWindowWeeks
	}
	if o.NearTierMonths <= 0 {
		o.NearTierMonths = d.NearTierMonths
	}
	if o.MidTierMonths <= o.NearTierMonths {
		o.MidTierMonths = d.MidTierMonths
	}
	return o
}

// rollingHalfWidth trims the kernel by the smoothing factor: 1 keeps the
// full kernel, 0 disables the rolling pass.
func (o Options) rollingHalfWidth(smoothingFactor float64) int {
	full := len(o.RollingKernel) / 2
	hw := int(smoothingFactor*float64(full) + 0.5)
	if hw < 0 {
		hw = 0
	}
	if hw > full {
		hw = full
	}
	return hw
}
