package forecast

import (
	"fmt"
	"math"
)

// Profile is the seasonality of one product over a cycle of weeks. Index,
// Multiplier and Smoothed are indexed by cycle week (see CycleWeek).
type Profile struct {
	CycleLength int       `json:"cycle_length"`
	Index       []float64 `json:"seasonality_index"`
	Multiplier  []float64 `json:"seasonality_multiplier"`

	// Smoothed is the rolling-averaged curve, in the units of the input.
	Smoothed []float64 `json:"smoothed"`

	Fallback       bool   `json:"fallback"`
	FallbackReason string `json:"fallback_reason,omitempty"`
	Overridden     bool   `json:"overridden"`
}

// FlatProfile returns a profile with every index and multiplier equal to 1.
func FlatProfile(n int) Profile {
	if n <= 0 {
		n = DefaultCycleLength
	}
	p := Profile{
		CycleLength: n,
		Index:       make([]float64, n),
		Multiplier:  make([]float64, n),
		Smoothed:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p.Index[i] = 1
		p.Multiplier[i] = 1
	}
	return p
}

func fallbackProfile(n int, reason error) Profile {
	p := FlatProfile(n)
	p.Fallback = true
	p.FallbackReason = reason.Error()
	return p
}

// ComputeSeasonality derives a seasonality profile from a weekly signal
// (search volume or units sold). The smoothing factor trims the width of the
// rolling pass.
//
// History shorter than one cycle, or carrying no signal, yields a flat
// profile with Fallback set instead of an error. The returned error is only
// non-nil for malformed series.
func ComputeSeasonality(history WeeklySeries, smoothingFactor float64, opts Options) (Profile, error) {
	opts = opts.normalized()
	n := opts.CycleLength

	start, values, err := history.Dense()
	if err != nil {
		return Profile{}, fmt.Errorf("compute seasonality: %w", err)
	}

	if len(values) < n {
		return fallbackProfile(n, &InsufficientHistoryError{Weeks: len(values), CycleLength: n}), nil
	}

	envelope := peakEnvelope(start, values, n, opts.LookbackCycles)
	offset := circularMean(envelope, opts.OffsetWindow/2)
	rolling := circularWeighted(offset, opts.RollingKernel, opts.rollingHalfWidth(smoothingFactor))

	peak, mean := 0.0, 0.0
	for _, v := range rolling {
		if v > peak {
			peak = v
		}
		mean += v
	}
	mean /= float64(n)

	if peak <= 0 || mean <= 0 {
		return fallbackProfile(n, fmt.Errorf("history has no positive signal")), nil
	}

	p := Profile{
		CycleLength: n,
		Index:       make([]float64, n),
		Multiplier:  make([]float64, n),
		Smoothed:    rolling,
	}
	for c, v := range rolling {
		p.Index[c] = v / peak
		p.Multiplier[c] = v / mean
	}

	return p, nil
}

// ProfileFromIndex builds a profile from a hand-entered index, which is the
// only supported way to edit a derived profile. Multipliers are recomputed
// so they average to one.
func ProfileFromIndex(index []float64) (Profile, error) {
	n := len(index)
	if n == 0 {
		return Profile{}, fmt.Errorf("seasonality override: empty index")
	}

	peak, sum := 0.0, 0.0
	for i, v := range index {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Profile{}, fmt.Errorf("seasonality override: index[%d]=%g outside [0,1]", i, v)
		}
		if v > peak {
			peak = v
		}
		sum += v
	}
	if peak == 0 {
		return Profile{}, fmt.Errorf("seasonality override: index is all zero")
	}

	mean := sum / float64(n)
	p := Profile{
		CycleLength: n,
		Index:       make([]float64, n),
		Multiplier:  make([]float64, n),
		Smoothed:    make([]float64, n),
		Overridden:  true,
	}
	for i, v := range index {
		p.Index[i] = v / peak
		p.Multiplier[i] = v / mean
		p.Smoothed[i] = v
	}

	return p, nil
}

// peakEnvelope takes, for each cycle week, the maximum value seen at that
// position over the most recent lookback cycles (all when lookback is 0).
func peakEnvelope(start int, values []float64, n, lookback int) []float64 {
	first := 0
	if lookback > 0 && len(values) > lookback*n {
		first = len(values) - lookback*n
	}

	// The envelope starts at zero, so negative weeks (net returns) never lower it.
	env := make([]float64, n)
	for i := first; i < len(values); i++ {
		c := CycleWeek(start+i, n)
		if values[i] > env[c] {
			env[c] = values[i]
		}
	}
	return env
}

// circularMean averages each position with its halfWidth neighbours on both
// sides, wrapping at the cycle boundary.
func circularMean(values []float64, halfWidth int) []float64 {
	n := len(values)
	out := make([]float64, n)
	for i := range values {
		sum := 0.0
		for k := -halfWidth; k <= halfWidth; k++ {
			sum += values[CycleWeek(i+k, n)]
		}
		out[i] = sum / float64(2*halfWidth+1)
	}
	return out
}

// circularWeighted applies the centre 2*halfWidth+1 weights of kernel as a
// wrapping weighted moving average.
func circularWeighted(values, kernel []float64, halfWidth int) []float64 {
	n := len(values)
	center := len(kernel) / 2
	out := make([]float64, n)
	for i := range values {
		sum, weights := 0.0, 0.0
		for k := -halfWidth; k <= halfWidth; k++ {
			w := kernel[center+k]
			sum += values[CycleWeek(i+k, n)] * w
			weights += w
		}
		if weights > 0 {
			out[i] = sum / weights
		} else {
			out[i] = values[i]
		}
	}
	return out
}
