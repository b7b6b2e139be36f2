package forecast

import "testing"

func TestProjectDOI_FlatScenario(t *testing.T) {
	res := resultOf(51, repeat(100, 26)...)

	proj := ProjectDOIFrom(res, 1000)
	if proj.Status != RunoutWithinHorizon {
		t.Fatalf("expected runout, got %s", proj.Status)
	}
	if proj.RunoutOffset != 10 {
		t.Fatalf("expected runout at week 10, got %d", proj.RunoutOffset)
	}
	if proj.RunoutWeek != 61 {
		t.Errorf("expected absolute runout week 61, got %d", proj.RunoutWeek)
	}
	if !almostEqual(proj.DaysOfInventory, 70) {
		t.Errorf("expected 70 days of inventory, got %g", proj.DaysOfInventory)
	}
	if got := proj.Points[9].CumulativeForecast; !almostEqual(got, 1000) {
		t.Errorf("expected cumulative 1000 at week 10, got %g", got)
	}
}

func TestProjectDOI_CumulativeNeverDecreases(t *testing.T) {
	res := resultOf(0, 5, 0, 12, 3, 0, 40, 1)
	proj := ProjectDOIFrom(res, 50)

	for i := 1; i < len(proj.Points); i++ {
		if proj.Points[i].CumulativeForecast < proj.Points[i-1].CumulativeForecast {
			t.Fatalf("cumulative forecast decreased at offset %d", proj.Points[i].Offset)
		}
		if proj.Points[i].ProjectedInventory > proj.Points[i-1].ProjectedInventory {
			t.Fatalf("projected inventory increased at offset %d", proj.Points[i].Offset)
		}
	}
}

func TestProjectDOI_RunoutIsFirstQualifyingWeek(t *testing.T) {
	res := resultOf(0, 40, 40, 40, 40, 40)
	proj := ProjectDOIFrom(res, 100)

	if proj.RunoutOffset != 3 {
		t.Fatalf("expected runout at offset 3, got %d", proj.RunoutOffset)
	}
	// 20 units left at the start of week 3 against 40 forecast: half a week.
	if !almostEqual(proj.DaysOfInventory, 17.5) {
		t.Errorf("expected 17.5 days, got %g", proj.DaysOfInventory)
	}
}

func TestProjectDOI_NoRunoutWithinHorizon(t *testing.T) {
	res := resultOf(0, repeat(10, 12)...)
	proj := ProjectDOIFrom(res, 1000)

	if proj.Status != NoRunoutWithinHorizon {
		t.Fatalf("expected no runout, got %s", proj.Status)
	}
	if proj.HasRunout() || proj.RunoutOffset != 0 {
		t.Errorf("expected no runout week, got %d", proj.RunoutOffset)
	}
	if proj.DaysOfInventory != 84 {
		t.Errorf("expected days of inventory to equal the horizon, got %g", proj.DaysOfInventory)
	}
}

func TestProjectDOI_EmptyInventoryRunsOutImmediately(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(0, 10, 10), 0)
	if proj.RunoutOffset != 1 || proj.DaysOfInventory != 0 {
		t.Errorf("expected runout at offset 1 with 0 days, got %d and %g", proj.RunoutOffset, proj.DaysOfInventory)
	}
}

func TestProjectDOI_UsesSnapshotTotal(t *testing.T) {
	snapshot := InventorySnapshot{
		FBAAvailable:     100,
		FBAReserved:      20,
		FBAInbound:       30,
		AWDAvailable:     400,
		AWDReserved:      10,
		AWDInbound:       40,
		AWDOutboundToFBA: 400,
	}
	if snapshot.Total() != 1000 {
		t.Fatalf("expected total 1000, got %g", snapshot.Total())
	}

	proj := ProjectDOI(resultOf(51, repeat(100, 26)...), snapshot)
	if proj.OnHand != 1000 || proj.RunoutOffset != 10 {
		t.Errorf("expected on hand 1000 and runout 10, got %g and %d", proj.OnHand, proj.RunoutOffset)
	}
}

func TestDOIProjection_CumulativeAt(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(0, 1, 2, 3), 100)

	cases := []struct {
		offset int
		want   float64
	}{
		{-1, 0}, {0, 0}, {1, 1}, {3, 6}, {10, 6},
	}
	for _, tc := range cases {
		if got := proj.CumulativeAt(tc.offset); got != tc.want {
			t.Errorf("CumulativeAt(%d) = %g, want %g", tc.offset, got, tc.want)
		}
	}
}
