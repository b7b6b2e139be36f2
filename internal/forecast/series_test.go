package forecast

import (
	"testing"
	"time"
)

func TestWeekOf(t *testing.T) {
	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, time.March, 10, 23, 0, 0, 0, time.UTC)
	nextMonday := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)

	if WeekOf(monday) != WeekOf(sunday) {
		t.Fatalf("expected monday and sunday in the same week, got %d and %d", WeekOf(monday), WeekOf(sunday))
	}
	if WeekOf(nextMonday) != WeekOf(monday)+1 {
		t.Fatalf("expected next monday to be the following week")
	}
	if got := WeekStart(WeekOf(sunday)); !got.Equal(monday) {
		t.Errorf("expected week start %s, got %s", monday, got)
	}
	if got := WeekEnd(WeekOf(monday)); got.Weekday() != time.Sunday {
		t.Errorf("expected week end on sunday, got %s", got.Weekday())
	}
	if WeekOf(weekEpoch) != 0 {
		t.Errorf("expected epoch week 0, got %d", WeekOf(weekEpoch))
	}
	if got := WeekOf(weekEpoch.AddDate(0, 0, -1)); got != -1 {
		t.Errorf("expected week -1 before the epoch, got %d", got)
	}
}

func TestCycleWeek(t *testing.T) {
	cases := []struct{ week, n, want int }{
		{0, 52, 0},
		{51, 52, 51},
		{52, 52, 0},
		{-1, 52, 51},
		{105, 52, 1},
	}
	for _, tc := range cases {
		if got := CycleWeek(tc.week, tc.n); got != tc.want {
			t.Errorf("CycleWeek(%d, %d) = %d, want %d", tc.week, tc.n, got, tc.want)
		}
	}
}

func TestWeeklySeries_DenseFillsGaps(t *testing.T) {
	s := WeeklySeries{{Week: 10, Value: 5}, {Week: 13, Value: 7}}

	start, values, err := s.Dense()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 10 {
		t.Fatalf("expected start 10, got %d", start)
	}
	want := []float64{5, 0, 0, 7}
	if len(values) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(values))
	}
	for i := range want {
		if values[i] != want[i] {
			t.Errorf("values[%d] = %g, want %g", i, values[i], want[i])
		}
	}
}

func TestWeeklySeries_DenseRejectsUnordered(t *testing.T) {
	cases := map[string]WeeklySeries{
		"duplicate":  {{Week: 1, Value: 1}, {Week: 1, Value: 2}},
		"decreasing": {{Week: 3, Value: 1}, {Week: 2, Value: 2}},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := s.Dense(); err == nil {
				t.Fatal("expected error for unordered series")
			}
		})
	}
}

func TestWeeklySeries_Through(t *testing.T) {
	s := constantSeries(0, 10, 1)
	if got := len(s.Through(4)); got != 5 {
		t.Errorf("expected 5 points through week 4, got %d", got)
	}
	if got := len(s.Through(-1)); got != 0 {
		t.Errorf("expected no points through week -1, got %d", got)
	}
	if got := s.Span(); got != 10 {
		t.Errorf("expected span 10, got %d", got)
	}
}
