// backend-go/internal/repository/settings_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/jmoiron/sqlx"
)

type settingsRepository struct {
	db *sqlx.DB
}

type settingsRow struct {
	Name              string    `db:"name"`
	VelocityAdjFactor float64   `db:"velocity_adj_factor"`
	GrowthFactor      float64   `db:"growth_factor"`
	LeadTimeDays      int       `db:"lead_time_days"`
	SafetyStockWeeks  int       `db:"safety_stock_weeks"`
	SmoothingFactor   float64   `db:"smoothing_factor"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func NewSettingsRepository(db *sqlx.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetSettings(ctx context.Context, name string) (*domain.ForecastSetting, error) {
	query := `
		SELECT name, velocity_adj_factor, growth_factor, lead_time_days,
			safety_stock_weeks, smoothing_factor, updated_at
		FROM forecast_settings
		WHERE name = $1
	`

	var row settingsRow
	if err := r.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("settings %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("error getting settings %q: %w", name, err)
	}

	return &domain.ForecastSetting{
		Name: row.Name,
		Settings: forecast.Settings{
			VelocityAdjFactor: row.VelocityAdjFactor,
			GrowthFactor:      row.GrowthFactor,
			LeadTimeDays:      row.LeadTimeDays,
			SafetyStockWeeks:  row.SafetyStockWeeks,
			SmoothingFactor:   row.SmoothingFactor,
		},
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *settingsRepository) SaveSettings(ctx context.Context, setting domain.ForecastSetting) error {
	query := `
		INSERT INTO forecast_settings (
			name, velocity_adj_factor, growth_factor, lead_time_days,
			safety_stock_weeks, smoothing_factor, updated_at
		)
		VALUES (:name, :velocity_adj_factor, :growth_factor, :lead_time_days,
			:safety_stock_weeks, :smoothing_factor, NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			velocity_adj_factor = EXCLUDED.velocity_adj_factor,
			growth_factor = EXCLUDED.growth_factor,
			lead_time_days = EXCLUDED.lead_time_days,
			safety_stock_weeks = EXCLUDED.safety_stock_weeks,
			smoothing_factor = EXCLUDED.smoothing_factor,
			updated_at = NOW()
	`

	s := setting.Settings
	row := settingsRow{
		Name:              setting.Name,
		VelocityAdjFactor: s.VelocityAdjFactor,
		GrowthFactor:      s.GrowthFactor,
		LeadTimeDays:      s.LeadTimeDays,
		SafetyStockWeeks:  s.SafetyStockWeeks,
		SmoothingFactor:   s.SmoothingFactor,
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("error saving settings %q: %w", setting.Name, err)
	}

	return nil
}
