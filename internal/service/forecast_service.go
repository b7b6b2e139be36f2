package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/cache"
	"github.com/andresuchdata/autoforecast/backend-go/internal/config"
	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHorizonWeeks = 104
	MaxHorizonWeeks     = 520
)

type ForecastService struct {
	repos     repository.Repositories
	cache     cache.ForecastCache
	dashboard cache.DashboardSummaryCache

	defaults     forecast.Settings
	opts         forecast.Options
	horizonWeeks int
	workers      int

	now   func() time.Time
	newID func() string
}

func NewForecastService(repos repository.Repositories, forecastCache cache.ForecastCache, dashboardCache cache.DashboardSummaryCache, cfg config.ForecastConfig) *ForecastService {
	if forecastCache == nil {
		forecastCache = cache.NewNoopForecastCache()
	}
	if dashboardCache == nil {
		dashboardCache = cache.NewNoopDashboardCache()
	}
	if cfg.HorizonWeeks <= 0 {
		cfg.HorizonWeeks = defaultHorizonWeeks
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Defaults == (forecast.Settings{}) {
		cfg.Defaults = forecast.DefaultSettings()
	}
	if cfg.Options.CycleLength == 0 {
		cfg.Options = forecast.DefaultOptions()
	}

	return &ForecastService{
		repos:        repos,
		cache:        forecastCache,
		dashboard:    dashboardCache,
		defaults:     cfg.Defaults,
		opts:         cfg.Options,
		horizonWeeks: cfg.HorizonWeeks,
		workers:      cfg.Workers,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// WithClock replaces the wall clock; the as-of week is derived from it.
func (s *ForecastService) WithClock(now func() time.Time) *ForecastService {
	s.now = now
	return s
}

// AsOfWeek is the last completed week.
func (s *ForecastService) AsOfWeek() int {
	return forecast.WeekOf(s.now()) - 1
}

func (s *ForecastService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repos.Products.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = make([]domain.Product, 0)
	}
	return products, nil
}

// GetSettings returns the stored default settings, falling back to the
// configured defaults when none were saved.
func (s *ForecastService) GetSettings(ctx context.Context) (domain.ForecastSetting, error) {
	stored, err := s.repos.Settings.GetSettings(ctx, domain.DefaultSettingsName)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ForecastSetting{Name: domain.DefaultSettingsName, Settings: s.defaults}, nil
	}
	if err != nil {
		return domain.ForecastSetting{}, err
	}
	return *stored, nil
}

// UpdateSettings validates and stores settings. Invalid settings are
// rejected with *forecast.InvalidSettingsError.
func (s *ForecastService) UpdateSettings(ctx context.Context, settings forecast.Settings) (domain.ForecastSetting, error) {
	if err := settings.Validate(); err != nil {
		return domain.ForecastSetting{}, err
	}

	setting := domain.ForecastSetting{Name: domain.DefaultSettingsName, Settings: settings}
	if err := s.repos.Settings.SaveSettings(ctx, setting); err != nil {
		return domain.ForecastSetting{}, err
	}
	s.invalidateAll(ctx)

	log.Info().
		Str("fingerprint", settings.Fingerprint()).
		Msg("forecast: settings updated")

	return s.GetSettings(ctx)
}

// GetSeasonality returns the profile forecasts currently use for asin.
func (s *ForecastService) GetSeasonality(ctx context.Context, asin string) (domain.SeasonalityRecord, error) {
	if _, err := s.repos.Products.GetProduct(ctx, asin); err != nil {
		return domain.SeasonalityRecord{}, err
	}
	settings, err := s.activeSettings(ctx)
	if err != nil {
		return domain.SeasonalityRecord{}, err
	}
	return s.seasonality(ctx, asin, settings, s.AsOfWeek())
}

// RecomputeSeasonality derives the profile from history again and stores
// it, discarding any override.
func (s *ForecastService) RecomputeSeasonality(ctx context.Context, asin string) (domain.SeasonalityRecord, error) {
	if _, err := s.repos.Products.GetProduct(ctx, asin); err != nil {
		return domain.SeasonalityRecord{}, err
	}
	settings, err := s.activeSettings(ctx)
	if err != nil {
		return domain.SeasonalityRecord{}, err
	}

	rec, err := s.computeSeasonality(ctx, asin, settings, s.AsOfWeek())
	if err != nil {
		return domain.SeasonalityRecord{}, err
	}
	if err := s.repos.Seasonality.SaveSeasonality(ctx, rec); err != nil {
		return domain.SeasonalityRecord{}, err
	}
	s.invalidateProduct(ctx, asin)

	return rec, nil
}

// OverrideSeasonality replaces the derived profile with a hand-edited index.
func (s *ForecastService) OverrideSeasonality(ctx context.Context, asin string, index []float64) (domain.SeasonalityRecord, error) {
	if _, err := s.repos.Products.GetProduct(ctx, asin); err != nil {
		return domain.SeasonalityRecord{}, err
	}
	if len(index) != s.opts.CycleLength {
		return domain.SeasonalityRecord{}, fmt.Errorf("%w: index has %d weeks, want %d", ErrInvalidInput, len(index), s.opts.CycleLength)
	}

	profile, err := forecast.ProfileFromIndex(index)
	if err != nil {
		return domain.SeasonalityRecord{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	rec := domain.SeasonalityRecord{ASIN: asin, Source: domain.SourceOverride, Profile: profile}
	if err := s.repos.Seasonality.SaveSeasonality(ctx, rec); err != nil {
		return domain.SeasonalityRecord{}, err
	}
	s.invalidateProduct(ctx, asin)

	log.Info().Str("asin", asin).Msg("forecast: seasonality overridden")
	return rec, nil
}

// GetReport runs the whole pipeline for one product: seasonality, forecast,
// DOI on total and FBA inventory, and the production plan.
func (s *ForecastService) GetReport(ctx context.Context, asin string, weeks int) (*domain.ForecastReport, error) {
	if weeks <= 0 {
		weeks = s.horizonWeeks
	}
	if weeks > MaxHorizonWeeks {
		return nil, fmt.Errorf("%w: horizon %d exceeds %d weeks", ErrInvalidInput, weeks, MaxHorizonWeeks)
	}

	settings, err := s.activeSettings(ctx)
	if err != nil {
		return nil, err
	}

	in, err := s.loadInputs(ctx, asin, settings, s.AsOfWeek())
	if err != nil {
		return nil, err
	}

	fingerprint, err := cache.Fingerprint(asin, in.asOfWeek, weeks, settings, s.opts, in.sales, in.vine, in.seasonality.Source, in.seasonality.Profile, in.inventory)
	if err != nil {
		return nil, err
	}

	if report, ok, err := s.cache.GetReport(ctx, asin, fingerprint); err == nil && ok {
		return report, nil
	} else if err != nil {
		log.Warn().Err(err).Str("asin", asin).Msg("forecast: cache get report failed")
	}

	report, err := s.buildReport(in, weeks, settings)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetReport(ctx, asin, fingerprint, report); err != nil {
		log.Warn().Err(err).Str("asin", asin).Msg("forecast: cache set report failed")
	}

	return report, nil
}

// Dashboard computes every product's row in parallel.
func (s *ForecastService) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	settings, err := s.activeSettings(ctx)
	if err != nil {
		return nil, err
	}
	asOf := s.AsOfWeek()

	if summary, ok, err := s.dashboard.GetSummary(ctx, asOf, settings.Fingerprint()); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get dashboard failed")
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.DashboardRow, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, p := range products {
		g.Go(func() error {
			rows[i] = domain.DashboardRow{ASIN: p.ASIN, Name: p.Name}

			report, err := s.GetReport(gctx, p.ASIN, s.horizonWeeks)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Str("asin", p.ASIN).Msg("forecast: dashboard row failed")
				rows[i].Error = err.Error()
				return nil
			}

			rows[i] = dashboardRow(p, report)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &domain.DashboardSummary{
		AsOfWeek:     asOf,
		AsOfDate:     forecast.WeekEnd(asOf),
		Rows:         rows,
		ProductCount: len(rows),
		GeneratedAt:  s.now(),
	}
	for _, row := range rows {
		if row.RunoutDate != nil {
			summary.RunoutCount++
		}
		if row.Urgent {
			summary.UrgentCount++
		}
	}

	if err := s.dashboard.SetSummary(ctx, asOf, settings.Fingerprint(), summary); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set dashboard failed")
	}

	return summary, nil
}

// RecomputeAll recomputes seasonality and forecasts for every product and
// persists the forecasts as one run. A product that fails is reported in
// the summary and left out of the run.
func (s *ForecastService) RecomputeAll(ctx context.Context) (*domain.RecomputeSummary, error) {
	settings, err := s.activeSettings(ctx)
	if err != nil {
		return nil, err
	}

	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	asOf := s.AsOfWeek()
	summary := &domain.RecomputeSummary{
		RunID:     s.newID(),
		AsOfWeek:  asOf,
		Products:  len(products),
		Errors:    make(map[string]string),
		StartedAt: s.now(),
	}

	var (
		mu      sync.Mutex
		records []domain.ForecastRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, p := range products {
		asin := p.ASIN
		g.Go(func() error {
			result, err := s.recomputeProduct(gctx, asin, settings, asOf)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Error().Err(err).Str("asin", asin).Msg("forecast: recompute failed")
				summary.Failed++
				summary.Errors[asin] = err.Error()
				return nil
			}

			summary.Succeeded++
			summary.ClampedWeeks += result.ClampedWeeks
			records = append(records, toRecords(summary.RunID, result)...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	run := domain.ForecastRun{
		ID:                  summary.RunID,
		AsOfWeek:            asOf,
		SettingsFingerprint: settings.Fingerprint(),
		CreatedAt:           summary.StartedAt,
	}
	if err := s.repos.Forecasts.SaveForecastRun(ctx, run, records); err != nil {
		return nil, fmt.Errorf("save forecast run: %w", err)
	}

	s.invalidateAll(ctx)
	summary.FinishedAt = s.now()
	if len(summary.Errors) == 0 {
		summary.Errors = nil
	}

	log.Info().
		Str("run_id", summary.RunID).
		Int("products", summary.Products).
		Int("failed", summary.Failed).
		Int("clamped_weeks", summary.ClampedWeeks).
		Dur("took", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("forecast: recompute finished")

	return summary, nil
}

// LatestRun returns the most recent persisted run and its records.
func (s *ForecastService) LatestRun(ctx context.Context) (*domain.ForecastRun, []domain.ForecastRecord, error) {
	run, err := s.repos.Forecasts.GetLatestRun(ctx)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.repos.Forecasts.GetRunRecords(ctx, run.ID, "")
	if err != nil {
		return nil, nil, err
	}
	return run, records, nil
}

func (s *ForecastService) recomputeProduct(ctx context.Context, asin string, settings forecast.Settings, asOf int) (forecast.Result, error) {
	in, err := s.loadInputs(ctx, asin, settings, asOf)
	if err != nil {
		return forecast.Result{}, err
	}

	if !in.seasonality.Profile.Overridden {
		if err := s.repos.Seasonality.SaveSeasonality(ctx, in.seasonality); err != nil {
			return forecast.Result{}, err
		}
	}

	report, err := s.buildReport(in, s.horizonWeeks, settings)
	if err != nil {
		return forecast.Result{}, err
	}
	return report.Forecast, nil
}

// activeSettings returns stored settings that are safe to hand to the engine.
func (s *ForecastService) activeSettings(ctx context.Context) (forecast.Settings, error) {
	setting, err := s.GetSettings(ctx)
	if err != nil {
		return forecast.Settings{}, err
	}
	if err := setting.Settings.Validate(); err != nil {
		return forecast.Settings{}, err
	}
	return setting.Settings, nil
}

func (s *ForecastService) invalidateProduct(ctx context.Context, asin string) {
	if err := s.cache.InvalidateProduct(ctx, asin); err != nil {
		log.Warn().Err(err).Str("asin", asin).Msg("forecast: cache invalidate product failed")
	}
	if err := s.dashboard.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidate dashboard failed")
	}
}

func (s *ForecastService) invalidateAll(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidate failed")
	}
	if err := s.dashboard.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("forecast: cache invalidate dashboard failed")
	}
}

func toRecords(runID string, result forecast.Result) []domain.ForecastRecord {
	records := make([]domain.ForecastRecord, len(result.Weeks))
	for i, w := range result.Weeks {
		records[i] = domain.ForecastRecord{
			RunID:   runID,
			ASIN:    result.ASIN,
			WeekEnd: forecast.WeekEnd(w.Week),
			Offset:  w.Offset,
			Units:   w.Units,
			Tier:    string(w.Tier),
			Clamped: w.Clamped,
		}
	}
	return records
}

func dashboardRow(p domain.Product, report *domain.ForecastReport) domain.DashboardRow {
	row := domain.DashboardRow{
		ASIN:               p.ASIN,
		Name:               p.Name,
		OnHand:             report.DOI.OnHand,
		FBAOnHand:          report.FBADOI.OnHand,
		DaysOfInventory:    report.DOI.DaysOfInventory,
		FBADaysOfInventory: report.FBADOI.DaysOfInventory,
		PlanStatus:         string(report.Plan.Status),
		PlanStatusLabel:    domain.PlanStatusLabel(report.Plan.Status),
		Urgent:             report.Plan.Urgent,
		UnitsToMake:        report.Plan.UnitsToMake,
		ProductionQuantity: report.Plan.Quantity,
	}
	if report.DOI.HasRunout() {
		runout := forecast.WeekEnd(report.DOI.RunoutWeek)
		row.RunoutDate = &runout
	}
	if report.Plan.Status != forecast.PlanNotNeeded {
		ship := forecast.WeekEnd(report.Plan.TargetShipWeek)
		row.TargetShipDate = &ship
	}
	return row
}
