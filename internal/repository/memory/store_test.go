package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_ProductUpsertKeepsExistingFields(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if err := store.UpsertProduct(ctx, domain.Product{ASIN: "B001", Name: "Mug", SKU: "MUG-1"}); err != nil {
		t.Fatalf("Failed to upsert product: %v", err)
	}
	if err := store.UpsertProduct(ctx, domain.Product{ASIN: "B001", Brand: "Acme"}); err != nil {
		t.Fatalf("Failed to upsert product: %v", err)
	}

	p, err := store.GetProduct(ctx, "B001")
	if err != nil {
		t.Fatalf("Failed to get product: %v", err)
	}
	if p.Name != "Mug" || p.SKU != "MUG-1" || p.Brand != "Acme" {
		t.Errorf("Expected merged product, got %+v", p)
	}

	if _, err := store.GetProduct(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStore_UnitsSoldBecomeWeeklySeries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	// 2024-01-07 and 2024-01-06 fall in the same Monday-Sunday week.
	rows := []domain.UnitsSold{
		{ASIN: "B001", WeekEnd: date(2024, 1, 14), Units: 5},
		{ASIN: "B001", WeekEnd: date(2024, 1, 7), Units: 3},
		{ASIN: "B001", WeekEnd: date(2024, 1, 6), Units: 2},
		{ASIN: "B002", WeekEnd: date(2024, 1, 7), Units: 100},
	}
	if err := store.UpsertUnitsSold(ctx, rows); err != nil {
		t.Fatalf("Failed to upsert units: %v", err)
	}

	series, err := store.GetUnitsSold(ctx, "B001")
	if err != nil {
		t.Fatalf("Failed to get units: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("Expected 2 weeks, got %d: %+v", len(series), series)
	}

	first := forecast.WeekOf(date(2024, 1, 7))
	if series[0].Week != first || series[0].Value != 5 {
		t.Errorf("Expected week %d with 5 units, got %+v", first, series[0])
	}
	if series[1].Week != first+1 || series[1].Value != 5 {
		t.Errorf("Expected week %d with 5 units, got %+v", first+1, series[1])
	}
}

func TestStore_LatestInventory(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	for _, inv := range []domain.Inventory{
		{ASIN: "B001", SnapshotDate: date(2024, 3, 1), FBAAvailable: 10},
		{ASIN: "B001", SnapshotDate: date(2024, 3, 8), FBAAvailable: 20},
		{ASIN: "B001", SnapshotDate: date(2024, 3, 15), FBAAvailable: 30},
	} {
		if err := store.UpsertInventory(ctx, inv); err != nil {
			t.Fatalf("Failed to upsert inventory: %v", err)
		}
	}

	tests := []struct {
		name     string
		asOf     time.Time
		expected float64
		notFound bool
	}{
		{name: "after all snapshots", asOf: date(2024, 4, 1), expected: 30},
		{name: "between snapshots", asOf: date(2024, 3, 10), expected: 20},
		{name: "on snapshot date", asOf: date(2024, 3, 1), expected: 10},
		{name: "before first snapshot", asOf: date(2024, 2, 1), notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := store.GetLatestInventory(ctx, "B001", tt.asOf)
			if tt.notFound {
				if !errors.Is(err, repository.ErrNotFound) {
					t.Fatalf("Expected ErrNotFound, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to get inventory: %v", err)
			}
			if inv.FBAAvailable != tt.expected {
				t.Errorf("Expected %v available, got %v", tt.expected, inv.FBAAvailable)
			}
		})
	}
}

func TestStore_ForecastRuns(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	if _, err := store.GetLatestRun(ctx); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on empty store, got %v", err)
	}

	run := domain.ForecastRun{ID: "run-1", AsOfWeek: 2800}
	records := []domain.ForecastRecord{
		{RunID: "run-1", ASIN: "B001", Offset: 1, Units: 4},
		{RunID: "run-1", ASIN: "B002", Offset: 1, Units: 7},
	}
	if err := store.SaveForecastRun(ctx, run, records); err != nil {
		t.Fatalf("Failed to save run: %v", err)
	}
	if err := store.SaveForecastRun(ctx, run, records); err == nil {
		t.Errorf("Expected duplicate run id to be rejected")
	}

	latest, err := store.GetLatestRun(ctx)
	if err != nil {
		t.Fatalf("Failed to get latest run: %v", err)
	}
	if latest.ID != "run-1" {
		t.Errorf("Expected run-1, got %s", latest.ID)
	}

	got, _ := store.GetRunRecords(ctx, "run-1", "B002")
	if len(got) != 1 || got[0].Units != 7 {
		t.Errorf("Expected the B002 record, got %+v", got)
	}
	all, _ := store.GetRunRecords(ctx, "run-1", "")
	if len(all) != 2 {
		t.Errorf("Expected 2 records, got %d", len(all))
	}
}
