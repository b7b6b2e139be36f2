package service

import (
	"context"
	"errors"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
	"github.com/rs/zerolog/log"
)

// inputs is everything the engine reads for one product.
type inputs struct {
	product     domain.Product
	asOfWeek    int
	sales       forecast.WeeklySeries
	vine        forecast.WeeklySeries
	seasonality domain.SeasonalityRecord
	inventory   *domain.Inventory
}

func (s *ForecastService) loadInputs(ctx context.Context, asin string, settings forecast.Settings, asOf int) (inputs, error) {
	product, err := s.repos.Products.GetProduct(ctx, asin)
	if err != nil {
		return inputs{}, err
	}

	sales, err := s.repos.Sales.GetUnitsSold(ctx, asin)
	if err != nil {
		return inputs{}, err
	}
	vine, err := s.repos.Sales.GetVineClaims(ctx, asin)
	if err != nil {
		return inputs{}, err
	}

	season, err := s.seasonality(ctx, asin, settings, asOf)
	if err != nil {
		return inputs{}, err
	}

	inv, err := s.repos.Inventory.GetLatestInventory(ctx, asin, forecast.WeekEnd(asOf))
	if errors.Is(err, repository.ErrNotFound) {
		inv = nil
	} else if err != nil {
		return inputs{}, err
	}

	return inputs{
		product:     *product,
		asOfWeek:    asOf,
		sales:       sales.Through(asOf),
		vine:        vine.Through(asOf),
		seasonality: season,
		inventory:   inv,
	}, nil
}

// seasonality prefers a stored override, otherwise derives the profile
// from current history so it follows newly imported data.
func (s *ForecastService) seasonality(ctx context.Context, asin string, settings forecast.Settings, asOf int) (domain.SeasonalityRecord, error) {
	stored, err := s.repos.Seasonality.GetSeasonality(ctx, asin)
	switch {
	case err == nil && stored.Profile.Overridden:
		return *stored, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return domain.SeasonalityRecord{}, err
	}
	return s.computeSeasonality(ctx, asin, settings, asOf)
}

// computeSeasonality uses search volume when it spans a full cycle, since
// it is free of stockouts, and sales otherwise.
func (s *ForecastService) computeSeasonality(ctx context.Context, asin string, settings forecast.Settings, asOf int) (domain.SeasonalityRecord, error) {
	search, err := s.repos.Sales.GetSearchVolume(ctx, asin)
	if err != nil {
		return domain.SeasonalityRecord{}, err
	}

	source := domain.SourceSearchVolume
	history := search.Through(asOf)
	if history.Span() < s.opts.CycleLength {
		sales, err := s.repos.Sales.GetUnitsSold(ctx, asin)
		if err != nil {
			return domain.SeasonalityRecord{}, err
		}
		source = domain.SourceSales
		history = sales.Through(asOf)
	}

	profile, err := forecast.ComputeSeasonality(history, settings.SmoothingFactor, s.opts)
	if err != nil {
		return domain.SeasonalityRecord{}, err
	}
	if profile.Fallback {
		log.Debug().
			Str("asin", asin).
			Str("source", source).
			Str("reason", profile.FallbackReason).
			Msg("forecast: flat seasonality")
	}

	return domain.SeasonalityRecord{
		ASIN:      asin,
		Source:    source,
		Profile:   profile,
		UpdatedAt: s.now(),
	}, nil
}

func (s *ForecastService) buildReport(in inputs, weeks int, settings forecast.Settings) (*domain.ForecastReport, error) {
	product := forecast.Product{
		ASIN:       in.product.ASIN,
		Sales:      in.sales,
		VineClaims: in.vine,
	}
	horizon := forecast.Horizon{AsOfWeek: in.asOfWeek, Weeks: weeks}

	result, err := forecast.Forecast(product, horizon, settings, in.seasonality.Profile, s.opts)
	if err != nil {
		return nil, err
	}
	if result.ClampedWeeks > 0 {
		log.Warn().
			Str("asin", in.product.ASIN).
			Int("clamped_weeks", result.ClampedWeeks).
			Msg("forecast: negative weeks clamped to zero")
	}

	var snapshot forecast.InventorySnapshot
	fbaOnHand := 0.0
	if in.inventory != nil {
		snapshot = in.inventory.ToSnapshot()
		fbaOnHand = in.inventory.FBAOnHand()
	}

	doi := forecast.ProjectDOI(result, snapshot)

	return &domain.ForecastReport{
		Product:     in.product,
		AsOfWeek:    in.asOfWeek,
		AsOfDate:    forecast.WeekEnd(in.asOfWeek),
		Source:      in.seasonality.Source,
		Seasonality: in.seasonality.Profile,
		Forecast:    result,
		Inventory:   in.inventory,
		DOI:         doi,
		FBADOI:      forecast.ProjectDOIFrom(result, fbaOnHand),
		Plan:        forecast.PlanProduction(doi, settings),
		GeneratedAt: s.now(),
	}, nil
}
