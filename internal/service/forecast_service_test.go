package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/cache"
	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository/memory"
)

// Wednesday; the as-of week is the week ending Sunday 2024-06-02.
var testNow = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

type mapForecastCache struct {
	mu      sync.Mutex
	reports map[string]*domain.ForecastReport
	sets    int
}

func newMapForecastCache() *mapForecastCache {
	return &mapForecastCache{reports: make(map[string]*domain.ForecastReport)}
}

func (c *mapForecastCache) GetReport(ctx context.Context, asin, fingerprint string) (*domain.ForecastReport, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[asin+":"+fingerprint]
	return r, ok, nil
}

func (c *mapForecastCache) SetReport(ctx context.Context, asin, fingerprint string, report *domain.ForecastReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.reports[asin+":"+fingerprint] = report
	return nil
}

func (c *mapForecastCache) InvalidateProduct(ctx context.Context, asin string) error {
	return c.InvalidateAll(ctx)
}

func (c *mapForecastCache) InvalidateAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = make(map[string]*domain.ForecastReport)
	return nil
}

// seedProduct stores two years of flat weekly sales and an inventory
// snapshot split between FBA and AWD.
func seedProduct(t *testing.T, store *memory.Store, asin string, weeklyUnits, fba, awd float64) {
	t.Helper()
	ctx := context.Background()

	if err := store.UpsertProduct(ctx, domain.Product{ASIN: asin, Name: "Product " + asin}); err != nil {
		t.Fatalf("Failed to upsert product: %v", err)
	}

	asOf := forecast.WeekOf(testNow) - 1
	var rows []domain.UnitsSold
	for w := asOf - 103; w <= asOf; w++ {
		rows = append(rows, domain.UnitsSold{ASIN: asin, WeekEnd: forecast.WeekEnd(w), Units: weeklyUnits})
	}
	if err := store.UpsertUnitsSold(ctx, rows); err != nil {
		t.Fatalf("Failed to upsert units: %v", err)
	}

	inv := domain.Inventory{
		ASIN:         asin,
		SnapshotDate: forecast.WeekEnd(asOf),
		FBAAvailable: fba,
		AWDAvailable: awd,
	}
	if err := store.UpsertInventory(ctx, inv); err != nil {
		t.Fatalf("Failed to upsert inventory: %v", err)
	}
}

func newTestService(store *memory.Store, fc cache.ForecastCache) *ForecastService {
	cfg := config.ForecastConfig{
		Defaults:     forecast.DefaultSettings(),
		Options:      forecast.DefaultOptions(),
		HorizonWeeks: 52,
		Workers:      2,
	}
	svc := NewForecastService(store.Repositories(), fc, nil, cfg)
	return svc.WithClock(func() time.Time { return testNow })
}

func TestForecastService_GetReport(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "B001", 10, 60, 40)
	svc := newTestService(store, nil)

	report, err := svc.GetReport(context.Background(), "B001", 0)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}

	if report.AsOfWeek != forecast.WeekOf(testNow)-1 {
		t.Errorf("Expected as-of week %d, got %d", forecast.WeekOf(testNow)-1, report.AsOfWeek)
	}
	if report.Source != domain.SourceSales {
		t.Errorf("Expected seasonality from sales, got %q", report.Source)
	}
	if len(report.Forecast.Weeks) != 52 {
		t.Fatalf("Expected 52 forecast weeks, got %d", len(report.Forecast.Weeks))
	}
	for _, w := range report.Forecast.Weeks {
		if math.Abs(w.Units-10) > 1e-9 {
			t.Fatalf("Expected 10 units in week %d, got %v", w.Offset, w.Units)
		}
	}

	if !report.DOI.HasRunout() || report.DOI.RunoutOffset != 10 {
		t.Errorf("Expected total runout at offset 10, got %+v", report.DOI.Status)
	}
	if math.Abs(report.DOI.DaysOfInventory-70) > 1e-9 {
		t.Errorf("Expected 70 days of inventory, got %v", report.DOI.DaysOfInventory)
	}
	if report.FBADOI.RunoutOffset != 6 {
		t.Errorf("Expected FBA runout at offset 6, got %d", report.FBADOI.RunoutOffset)
	}

	plan := report.Plan
	if plan.Status != forecast.PlanUrgent || !plan.Urgent {
		t.Errorf("Expected urgent plan, got %s", plan.Status)
	}
	if plan.TargetShipOffset != -7 {
		t.Errorf("Expected target ship offset -7, got %d", plan.TargetShipOffset)
	}
	if plan.Quantity != 40 {
		t.Errorf("Expected quantity 40, got %v", plan.Quantity)
	}
}

func TestForecastService_GetReportErrors(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "B001", 10, 60, 40)
	svc := newTestService(store, nil)
	ctx := context.Background()

	if _, err := svc.GetReport(ctx, "missing", 0); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := svc.GetReport(ctx, "B001", MaxHorizonWeeks+1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestForecastService_GetReportWithoutInventory(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	if err := store.UpsertProduct(ctx, domain.Product{ASIN: "B009"}); err != nil {
		t.Fatalf("Failed to upsert product: %v", err)
	}
	svc := newTestService(store, nil)

	report, err := svc.GetReport(ctx, "B009", 8)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if !report.Seasonality.Fallback {
		t.Errorf("Expected flat fallback seasonality without history")
	}
	if report.Inventory != nil {
		t.Errorf("Expected no inventory, got %+v", report.Inventory)
	}
	// Zero demand against zero stock runs out immediately.
	if !report.DOI.HasRunout() || report.DOI.RunoutOffset != 1 {
		t.Errorf("Expected runout at offset 1, got %+v", report.DOI)
	}
}

func TestForecastService_ReportIsCachedByInputs(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "B001", 10, 60, 40)
	fc := newMapForecastCache()
	svc := newTestService(store, fc)
	ctx := context.Background()

	first, err := svc.GetReport(ctx, "B001", 0)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	second, err := svc.GetReport(ctx, "B001", 0)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if first != second {
		t.Errorf("Expected second call to be served from cache")
	}
	if fc.sets != 1 {
		t.Errorf("Expected 1 cache write, got %d", fc.sets)
	}

	// New inventory changes the inputs and therefore the key.
	asOf := forecast.WeekOf(testNow) - 1
	if err := store.UpsertInventory(ctx, domain.Inventory{ASIN: "B001", SnapshotDate: forecast.WeekEnd(asOf), FBAAvailable: 500}); err != nil {
		t.Fatalf("Failed to upsert inventory: %v", err)
	}
	third, err := svc.GetReport(ctx, "B001", 0)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if third == first {
		t.Errorf("Expected a fresh report after inventory changed")
	}
	if third.DOI.OnHand != 500 {
		t.Errorf("Expected on hand 500, got %v", third.DOI.OnHand)
	}
}

func TestForecastService_Settings(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	got, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if got.Settings != forecast.DefaultSettings() {
		t.Errorf("Expected default settings, got %+v", got.Settings)
	}

	bad := forecast.DefaultSettings()
	bad.SmoothingFactor = 1.5
	_, err = svc.UpdateSettings(ctx, bad)
	var invalid *forecast.InvalidSettingsError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidSettingsError, got %v", err)
	}
	if invalid.Field != "smoothing_factor" {
		t.Errorf("Expected smoothing_factor to be rejected, got %s", invalid.Field)
	}

	good := forecast.DefaultSettings()
	good.LeadTimeDays = 30
	updated, err := svc.UpdateSettings(ctx, good)
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if updated.Settings.LeadTimeDays != 30 {
		t.Errorf("Expected lead time 30, got %d", updated.Settings.LeadTimeDays)
	}

	got, _ = svc.GetSettings(ctx)
	if got.Settings != good {
		t.Errorf("Expected stored settings %+v, got %+v", good, got.Settings)
	}
}

func TestForecastService_SeasonalityOverride(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "B001", 10, 60, 40)
	svc := newTestService(store, nil)
	ctx := context.Background()

	if _, err := svc.OverrideSeasonality(ctx, "B001", []float64{1, 0.5}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for short index, got %v", err)
	}

	index := make([]float64, forecast.DefaultCycleLength)
	for i := range index {
		index[i] = 0.5
	}
	index[10] = 1
	if _, err := svc.OverrideSeasonality(ctx, "B001", index); err != nil {
		t.Fatalf("OverrideSeasonality failed: %v", err)
	}

	rec, err := svc.GetSeasonality(ctx, "B001")
	if err != nil {
		t.Fatalf("GetSeasonality failed: %v", err)
	}
	if rec.Source != domain.SourceOverride || !rec.Profile.Overridden {
		t.Errorf("Expected override to be in effect, got source %q", rec.Source)
	}
	if rec.Profile.Index[10] != 1 || rec.Profile.Index[0] != 0.5 {
		t.Errorf("Expected override index to be kept, got %v", rec.Profile.Index[:11])
	}

	// Recompute drops the override.
	rec, err = svc.RecomputeSeasonality(ctx, "B001")
	if err != nil {
		t.Fatalf("RecomputeSeasonality failed: %v", err)
	}
	if rec.Profile.Overridden || rec.Source != domain.SourceSales {
		t.Errorf("Expected derived profile after recompute, got %q", rec.Source)
	}

	if _, err := svc.RecomputeSeasonality(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestForecastService_SeasonalityPrefersSearchVolume(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "B001", 10, 60, 40)
	ctx := context.Background()

	asOf := forecast.WeekOf(testNow) - 1
	var rows []domain.SearchVolume
	for w := asOf - 51; w <= asOf; w++ {
		volume := 100.0
		if forecast.CycleWeek(w, forecast.DefaultCycleLength) == 20 {
			volume = 1000
		}
		rows = append(rows, domain.SearchVolume{ASIN: "B001", WeekEnd: forecast.WeekEnd(w), Volume: volume})
	}
	if err := store.UpsertSearchVolume(ctx, rows); err != nil {
		t.Fatalf("Failed to upsert search volume: %v", err)
	}

	svc := newTestService(store, nil)
	rec, err := svc.GetSeasonality(ctx, "B001")
	if err != nil {
		t.Fatalf("GetSeasonality failed: %v", err)
	}
	if rec.Source != domain.SourceSearchVolume {
		t.Fatalf("Expected search volume source, got %q", rec.Source)
	}
	if rec.Profile.Index[20] != 1 {
		t.Errorf("Expected peak at cycle week 20, got %v", rec.Profile.Index[20])
	}
}

func TestForecastService_RecomputeAll(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "B001", 10, 60, 40)
	seedProduct(t, store, "B002", 5, 1000, 0)
	svc := newTestService(store, nil)
	svc.newID = func() string { return "run-fixed" }
	ctx := context.Background()

	summary, err := svc.RecomputeAll(ctx)
	if err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}
	if summary.RunID != "run-fixed" {
		t.Errorf("Expected run id run-fixed, got %s", summary.RunID)
	}
	if summary.Products != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("Unexpected summary %+v", summary)
	}

	run, records, err := svc.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if run.ID != "run-fixed" || run.AsOfWeek != forecast.WeekOf(testNow)-1 {
		t.Errorf("Unexpected run %+v", run)
	}
	if len(records) != 2*52 {
		t.Errorf("Expected %d records, got %d", 2*52, len(records))
	}

	rec, err := store.GetSeasonality(ctx, "B002")
	if err != nil {
		t.Fatalf("Expected recompute to persist seasonality: %v", err)
	}
	if rec.Source != domain.SourceSales {
		t.Errorf("Expected sales seasonality, got %q", rec.Source)
	}
}

func TestForecastService_Dashboard(t *testing.T) {
	store := memory.NewStore()
	seedProduct(t, store, "B001", 10, 60, 40)
	seedProduct(t, store, "B002", 5, 1000, 0)
	svc := newTestService(store, nil)

	summary, err := svc.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if summary.ProductCount != 2 || len(summary.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(summary.Rows))
	}

	first, second := summary.Rows[0], summary.Rows[1]
	if first.ASIN != "B001" || second.ASIN != "B002" {
		t.Fatalf("Expected rows in product order, got %s, %s", first.ASIN, second.ASIN)
	}
	if first.RunoutDate == nil || !first.Urgent {
		t.Errorf("Expected B001 to run out urgently, got %+v", first)
	}
	if first.PlanStatusLabel != "Urgent" {
		t.Errorf("Expected Urgent label, got %q", first.PlanStatusLabel)
	}
	// 1000 units at 5 a week outlast a 52 week horizon.
	if second.RunoutDate != nil || second.PlanStatus != string(forecast.PlanNotNeeded) {
		t.Errorf("Expected B002 to have no runout, got %+v", second)
	}
	if summary.RunoutCount != 1 || summary.UrgentCount != 1 {
		t.Errorf("Expected 1 runout and 1 urgent, got %d and %d", summary.RunoutCount, summary.UrgentCount)
	}
}
