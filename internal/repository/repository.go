package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, asin string) (*domain.Product, error)
}

// SalesRepository returns weekly series keyed by week index. Rows whose
// week-end dates fall in the same week are summed.
type SalesRepository interface {
	GetUnitsSold(ctx context.Context, asin string) (forecast.WeeklySeries, error)
	GetVineClaims(ctx context.Context, asin string) (forecast.WeeklySeries, error)
	GetSearchVolume(ctx context.Context, asin string) (forecast.WeeklySeries, error)
}

type InventoryRepository interface {
	// GetLatestInventory returns the most recent snapshot on or before asOf.
	GetLatestInventory(ctx context.Context, asin string, asOf time.Time) (*domain.Inventory, error)
}

type SeasonalityRepository interface {
	GetSeasonality(ctx context.Context, asin string) (*domain.SeasonalityRecord, error)
	SaveSeasonality(ctx context.Context, rec domain.SeasonalityRecord) error
}

type SettingsRepository interface {
	GetSettings(ctx context.Context, name string) (*domain.ForecastSetting, error)
	SaveSettings(ctx context.Context, setting domain.ForecastSetting) error
}

type ForecastRepository interface {
	SaveForecastRun(ctx context.Context, run domain.ForecastRun, records []domain.ForecastRecord) error
	GetLatestRun(ctx context.Context) (*domain.ForecastRun, error)
	GetRunRecords(ctx context.Context, runID, asin string) ([]domain.ForecastRecord, error)
}

// Ingester is the write side used by the import tooling.
type Ingester interface {
	UpsertProduct(ctx context.Context, p domain.Product) error
	UpsertUnitsSold(ctx context.Context, rows []domain.UnitsSold) error
	UpsertVineClaims(ctx context.Context, rows []domain.VineClaim) error
	UpsertSearchVolume(ctx context.Context, rows []domain.SearchVolume) error
	UpsertInventory(ctx context.Context, inv domain.Inventory) error
}

// Repositories groups every read repository the forecast service needs.
type Repositories struct {
	Products    ProductRepository
	Sales       SalesRepository
	Inventory   InventoryRepository
	Seasonality SeasonalityRepository
	Settings    SettingsRepository
	Forecasts   ForecastRepository
}

type weekValue struct {
	WeekEnd time.Time `db:"week_end"`
	Value   float64   `db:"value"`
}

// toSeries maps week-end ordered rows onto week indexes.
func toSeries(rows []weekValue) forecast.WeeklySeries {
	series := make(forecast.WeeklySeries, 0, len(rows))
	for _, r := range rows {
		w := forecast.WeekOf(r.WeekEnd)
		if n := len(series); n > 0 && series[n-1].Week == w {
			series[n-1].Value += r.Value
			continue
		}
		series = append(series, forecast.WeekPoint{Week: w, Value: r.Value})
	}
	return series
}

// ToSeries is toSeries for callers holding plain week-end/value pairs.
func ToSeries(weekEnds []time.Time, values []float64) forecast.WeeklySeries {
	rows := make([]weekValue, len(weekEnds))
	for i := range weekEnds {
		rows[i] = weekValue{WeekEnd: weekEnds[i], Value: values[i]}
	}
	return toSeries(rows)
}
