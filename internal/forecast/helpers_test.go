package forecast

import "math"

const tolerance = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}

// constantSeries returns weeks first..first+n-1 all carrying value.
func constantSeries(first, n int, value float64) WeeklySeries {
	s := make(WeeklySeries, n)
	for i := range s {
		s[i] = WeekPoint{Week: first + i, Value: value}
	}
	return s
}

// resultOf builds a forecast result with the given weekly units starting at
// offset 1 after asOf.
func resultOf(asOf int, units ...float64) Result {
	r := Result{ASIN: "B000TEST", AsOfWeek: asOf}
	for i, u := range units {
		r.Weeks = append(r.Weeks, Week{Week: asOf + i + 1, Offset: i + 1, Units: u, Tier: TierNear})
	}
	return r
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
