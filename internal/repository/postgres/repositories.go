package postgres

import "github.com/andresuchdata/autoforecast/backend-go/internal/repository"

// NewRepositories wires every sqlx-backed repository onto db.
func NewRepositories(db *DB) repository.Repositories {
	return repository.Repositories{
		Products:    repository.NewProductRepository(db.DB),
		Sales:       repository.NewSalesRepository(db.DB),
		Inventory:   repository.NewInventoryRepository(db.DB),
		Seasonality: repository.NewSeasonalityRepository(db.DB),
		Settings:    repository.NewSettingsRepository(db.DB),
		Forecasts:   NewForecastRepository(db),
	}
}
