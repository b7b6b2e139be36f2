package forecast

import "testing"

func TestPlanProduction_UrgentScenario(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(51, repeat(100, 26)...), 1000)

	plan := PlanProduction(proj, DefaultSettings())
	if plan.LeadTimeWeeks != 13 {
		t.Fatalf("expected 13 lead time weeks, got %d", plan.LeadTimeWeeks)
	}
	if plan.TargetShipOffset != -7 {
		t.Fatalf("expected target ship week -7, got %d", plan.TargetShipOffset)
	}
	if !plan.Urgent || plan.Status != PlanUrgent {
		t.Fatalf("expected urgent plan, got %s", plan.Status)
	}
	// Cover through week 14 from now: 1400 demand less 1000 on hand.
	if plan.Quantity != 400 {
		t.Errorf("expected quantity 400, got %g", plan.Quantity)
	}
	if plan.TargetShipWeek != 44 {
		t.Errorf("expected absolute target ship week 44, got %d", plan.TargetShipWeek)
	}
}

func TestPlanProduction_ShipInAsOfWeekIsUrgent(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(100, repeat(100, 30)...), 1700)

	plan := PlanProduction(proj, DefaultSettings())
	if plan.RunoutOffset != 17 {
		t.Fatalf("expected runout offset 17, got %d", plan.RunoutOffset)
	}
	if plan.TargetShipOffset != 0 || plan.TargetShipWeek != 100 {
		t.Fatalf("expected ship offset 0 in week 100, got %d in week %d", plan.TargetShipOffset, plan.TargetShipWeek)
	}
	if !plan.Urgent || plan.Status != PlanUrgent {
		t.Errorf("expected urgent plan for a ship week already past, got %s", plan.Status)
	}
	// Cover through week 21: 2100 demand less 1700 on hand.
	if plan.Quantity != 400 {
		t.Errorf("expected quantity 400, got %g", plan.Quantity)
	}
}

func TestPlanProduction_ShipNextWeekIsScheduled(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(100, repeat(100, 30)...), 1800)

	plan := PlanProduction(proj, DefaultSettings())
	if plan.TargetShipOffset != 1 {
		t.Fatalf("expected ship offset 1, got %d", plan.TargetShipOffset)
	}
	if plan.Urgent || plan.Status != PlanScheduled {
		t.Errorf("expected scheduled plan, got %s", plan.Status)
	}
}

func TestPlanProduction_Scheduled(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(0, repeat(10, 52)...), 400)
	settings := DefaultSettings()
	settings.LeadTimeDays = 14

	plan := PlanProduction(proj, settings)
	if plan.Urgent || plan.Status != PlanScheduled {
		t.Fatalf("expected scheduled plan, got %s", plan.Status)
	}
	if plan.RunoutOffset != 40 || plan.TargetShipOffset != 34 {
		t.Fatalf("expected runout 40 and ship 34, got %d and %d", plan.RunoutOffset, plan.TargetShipOffset)
	}
	if plan.OnHandAtShip != 60 {
		t.Errorf("expected 60 on hand at ship time, got %g", plan.OnHandAtShip)
	}
	if plan.CoverageDemand != 100 {
		t.Errorf("expected coverage demand 100, got %g", plan.CoverageDemand)
	}
	if plan.Quantity != 40 {
		t.Errorf("expected quantity 40, got %g", plan.Quantity)
	}
}

func TestPlanProduction_NoRunout(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(0, repeat(10, 20)...), 10000)

	plan := PlanProduction(proj, DefaultSettings())
	if plan.Status != PlanNotNeeded || plan.Urgent {
		t.Fatalf("expected plan not needed, got %s", plan.Status)
	}
	if plan.Quantity != 0 || plan.UnitsToMake != 0 {
		t.Errorf("expected nothing to make, got %g and %g", plan.Quantity, plan.UnitsToMake)
	}
}

func TestPlanProduction_CoverageClippedToHorizon(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(0, repeat(10, 6)...), 45)
	settings := DefaultSettings()
	settings.LeadTimeDays = 0

	plan := PlanProduction(proj, settings)
	if !plan.CoverageClipped {
		t.Fatal("expected coverage to be clipped at the horizon")
	}
	// Runout at week 5, cover through week 9 but only 6 weeks exist.
	if plan.TargetShipOffset != 1 {
		t.Fatalf("expected ship offset 1, got %d", plan.TargetShipOffset)
	}
	if plan.Quantity != 15 {
		t.Errorf("expected quantity 15, got %g", plan.Quantity)
	}
}

func TestPlanProduction_UnitsToMakeOverLeadTime(t *testing.T) {
	proj := ProjectDOIFrom(resultOf(0, repeat(25, 20)...), 100)
	settings := DefaultSettings()
	settings.LeadTimeDays = 56

	plan := PlanProduction(proj, settings)
	if plan.LeadTimeDemand != 200 {
		t.Fatalf("expected lead time demand 200, got %g", plan.LeadTimeDemand)
	}
	if plan.UnitsToMake != 100 {
		t.Errorf("expected 100 units to make, got %g", plan.UnitsToMake)
	}
}
