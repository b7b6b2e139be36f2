package forecast

import (
	"fmt"
	"time"
)

// weekEpoch is the Monday every week index is counted from.
var weekEpoch = time.Date(1970, time.January, 5, 0, 0, 0, 0, time.UTC)

// WeekOf maps a calendar date to its absolute week index. Any day of the same
// Monday-to-Sunday week maps to the same index.
func WeekOf(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(weekEpoch).Hours() / 24)
	if days < 0 {
		return -((-days + 6) / 7)
	}
	return days / 7
}

// WeekStart returns the Monday that starts week index w.
func WeekStart(w int) time.Time {
	return weekEpoch.AddDate(0, 0, w*7)
}

// WeekEnd returns the Sunday that ends week index w.
func WeekEnd(w int) time.Time {
	return WeekStart(w).AddDate(0, 0, 6)
}

// CycleWeek returns the position of week w inside a cycle of length n.
func CycleWeek(w, n int) int {
	c := w % n
	if c < 0 {
		c += n
	}
	return c
}

// WeekPoint is one observation of a weekly series.
type WeekPoint struct {
	Week  int     `json:"week"`
	Value float64 `json:"value"`
}

// WeeklySeries is an ordered sequence of weekly observations.
type WeeklySeries []WeekPoint

// Dense returns the series as a start week plus one value per week, filling
// missing weeks with zero. Weeks must be strictly increasing.
func (s WeeklySeries) Dense() (int, []float64, error) {
	if len(s) == 0 {
		return 0, nil, nil
	}

	for i := 1; i < len(s); i++ {
		if s[i].Week <= s[i-1].Week {
			return 0, nil, fmt.Errorf("weekly series not strictly increasing at week %d (previous %d)", s[i].Week, s[i-1].Week)
		}
	}

	start := s[0].Week
	values := make([]float64, s[len(s)-1].Week-start+1)
	for _, p := range s {
		values[p.Week-start] = p.Value
	}

	return start, values, nil
}

// Through returns the points with Week <= last.
func (s WeeklySeries) Through(last int) WeeklySeries {
	n := 0
	for n < len(s) && s[n].Week <= last {
		n++
	}
	return s[:n]
}

// Span reports the number of weeks covered from the first to the last point.
func (s WeeklySeries) Span() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Week - s[0].Week + 1
}
