// Package memory keeps every repository in process memory. It backs the
// "memory" database driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
)

// Store implements every repository interface over maps.
type Store struct {
	mu sync.RWMutex

	products     map[string]domain.Product
	unitsSold    map[string]map[time.Time]float64
	vineClaims   map[string]map[time.Time]float64
	searchVolume map[string]map[time.Time]float64
	inventory    map[string][]domain.Inventory
	seasonality  map[string]domain.SeasonalityRecord
	settings     map[string]domain.ForecastSetting
	runs         []domain.ForecastRun
	records      map[string][]domain.ForecastRecord

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		products:     make(map[string]domain.Product),
		unitsSold:    make(map[string]map[time.Time]float64),
		vineClaims:   make(map[string]map[time.Time]float64),
		searchVolume: make(map[string]map[time.Time]float64),
		inventory:    make(map[string][]domain.Inventory),
		seasonality:  make(map[string]domain.SeasonalityRecord),
		settings:     make(map[string]domain.ForecastSetting),
		records:      make(map[string][]domain.ForecastRecord),
		now:          time.Now,
	}
}

// Verify interface compliance
var (
	_ repository.ProductRepository     = (*Store)(nil)
	_ repository.SalesRepository       = (*Store)(nil)
	_ repository.InventoryRepository   = (*Store)(nil)
	_ repository.SeasonalityRepository = (*Store)(nil)
	_ repository.SettingsRepository    = (*Store)(nil)
	_ repository.ForecastRepository    = (*Store)(nil)
	_ repository.Ingester              = (*Store)(nil)
)

// Repositories returns the store behind every read interface.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		Products:    s,
		Sales:       s,
		Inventory:   s,
		Seasonality: s,
		Settings:    s,
		Forecasts:   s,
	}
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ASIN < products[j].ASIN })
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, asin string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[asin]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", asin, repository.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) GetUnitsSold(ctx context.Context, asin string) (forecast.WeeklySeries, error) {
	return s.weekly(s.unitsSold, asin), nil
}

func (s *Store) GetVineClaims(ctx context.Context, asin string) (forecast.WeeklySeries, error) {
	return s.weekly(s.vineClaims, asin), nil
}

func (s *Store) GetSearchVolume(ctx context.Context, asin string) (forecast.WeeklySeries, error) {
	return s.weekly(s.searchVolume, asin), nil
}

func (s *Store) weekly(table map[string]map[time.Time]float64, asin string) forecast.WeeklySeries {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := table[asin]
	weekEnds := make([]time.Time, 0, len(rows))
	for d := range rows {
		weekEnds = append(weekEnds, d)
	}
	sort.Slice(weekEnds, func(i, j int) bool { return weekEnds[i].Before(weekEnds[j]) })

	values := make([]float64, len(weekEnds))
	for i, d := range weekEnds {
		values[i] = rows[d]
	}
	return repository.ToSeries(weekEnds, values)
}

func (s *Store) GetLatestInventory(ctx context.Context, asin string, asOf time.Time) (*domain.Inventory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Inventory
	for i := range s.inventory[asin] {
		inv := s.inventory[asin][i]
		if inv.SnapshotDate.After(asOf) {
			continue
		}
		if latest == nil || inv.SnapshotDate.After(latest.SnapshotDate) {
			latest = &inv
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("inventory for %s: %w", asin, repository.ErrNotFound)
	}
	return latest, nil
}

func (s *Store) GetSeasonality(ctx context.Context, asin string) (*domain.SeasonalityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.seasonality[asin]
	if !ok {
		return nil, fmt.Errorf("seasonality for %s: %w", asin, repository.ErrNotFound)
	}
	return &rec, nil
}

func (s *Store) SaveSeasonality(ctx context.Context, rec domain.SeasonalityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.UpdatedAt = s.now()
	s.seasonality[rec.ASIN] = rec
	return nil
}

func (s *Store) GetSettings(ctx context.Context, name string) (*domain.ForecastSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[name]
	if !ok {
		return nil, fmt.Errorf("settings %q: %w", name, repository.ErrNotFound)
	}
	return &setting, nil
}

func (s *Store) SaveSettings(ctx context.Context, setting domain.ForecastSetting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	setting.UpdatedAt = s.now()
	s.settings[setting.Name] = setting
	return nil
}

func (s *Store) SaveForecastRun(ctx context.Context, run domain.ForecastRun, records []domain.ForecastRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.runs {
		if existing.ID == run.ID {
			return fmt.Errorf("forecast run %s already exists", run.ID)
		}
	}
	s.runs = append(s.runs, run)
	s.records[run.ID] = append([]domain.ForecastRecord(nil), records...)
	return nil
}

func (s *Store) GetLatestRun(ctx context.Context) (*domain.ForecastRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return nil, fmt.Errorf("forecast run: %w", repository.ErrNotFound)
	}
	latest := s.runs[len(s.runs)-1]
	return &latest, nil
}

func (s *Store) GetRunRecords(ctx context.Context, runID, asin string) ([]domain.ForecastRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ForecastRecord
	for _, rec := range s.records[runID] {
		if asin == "" || rec.ASIN == asin {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) UpsertProduct(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.products[p.ASIN]; ok {
		p.CreatedAt = existing.CreatedAt
		if p.SKU == "" {
			p.SKU = existing.SKU
		}
		if p.Name == "" {
			p.Name = existing.Name
		}
		if p.Brand == "" {
			p.Brand = existing.Brand
		}
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ASIN] = p
	return nil
}

func (s *Store) UpsertUnitsSold(ctx context.Context, rows []domain.UnitsSold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		put(s.unitsSold, r.ASIN, r.WeekEnd, r.Units)
	}
	return nil
}

func (s *Store) UpsertVineClaims(ctx context.Context, rows []domain.VineClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		put(s.vineClaims, r.ASIN, r.WeekEnd, r.Units)
	}
	return nil
}

func (s *Store) UpsertSearchVolume(ctx context.Context, rows []domain.SearchVolume) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range rows {
		put(s.searchVolume, r.ASIN, r.WeekEnd, r.Volume)
	}
	return nil
}

func (s *Store) UpsertInventory(ctx context.Context, inv domain.Inventory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv.SnapshotDate = day(inv.SnapshotDate)
	snapshots := s.inventory[inv.ASIN]
	for i := range snapshots {
		if snapshots[i].SnapshotDate.Equal(inv.SnapshotDate) {
			snapshots[i] = inv
			return nil
		}
	}
	s.inventory[inv.ASIN] = append(snapshots, inv)
	return nil
}

func put(table map[string]map[time.Time]float64, asin string, weekEnd time.Time, value float64) {
	rows, ok := table[asin]
	if !ok {
		rows = make(map[time.Time]float64)
		table[asin] = rows
	}
	rows[day(weekEnd)] = value
}

// day truncates to a UTC calendar date, matching a DATE column.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
