// backend-go/internal/repository/postgres/forecast_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/repository"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) repository.ForecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) SaveForecastRun(ctx context.Context, run domain.ForecastRun, records []domain.ForecastRecord) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO forecast_runs (id, as_of_week, settings_fingerprint, created_at)
			VALUES ($1, $2, $3, $4)
		`, run.ID, run.AsOfWeek, run.SettingsFingerprint, run.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert forecast run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO forecast_results (
				run_id, asin, week_end, week_offset, units, tier, clamped
			) VALUES ($1, $2, $3::date, $4, $5, $6, $7)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			_, err := stmt.ExecContext(ctx,
				run.ID,
				rec.ASIN,
				rec.WeekEnd,
				rec.Offset,
				rec.Units,
				rec.Tier,
				rec.Clamped,
			)
			if err != nil {
				return fmt.Errorf("failed to insert forecast for %s: %w", rec.ASIN, err)
			}
		}

		return nil
	})
}

func (r *forecastRepository) GetLatestRun(ctx context.Context) (*domain.ForecastRun, error) {
	query := `
		SELECT id, as_of_week, settings_fingerprint, created_at
		FROM forecast_runs
		ORDER BY created_at DESC
		LIMIT 1
	`

	var run domain.ForecastRun
	if err := r.db.GetContext(ctx, &run, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("forecast run: %w", repository.ErrNotFound)
		}
		return nil, fmt.Errorf("error getting latest forecast run: %w", err)
	}

	return &run, nil
}

func (r *forecastRepository) GetRunRecords(ctx context.Context, runID, asin string) ([]domain.ForecastRecord, error) {
	query := `
		SELECT run_id, asin, week_end, week_offset, units, tier, clamped
		FROM forecast_results
		WHERE run_id = $1 AND ($2 = '' OR asin = $2)
		ORDER BY asin, week_offset
	`

	var records []domain.ForecastRecord
	if err := r.db.SelectContext(ctx, &records, query, runID, asin); err != nil {
		return nil, fmt.Errorf("error getting forecast results: %w", err)
	}

	return records, nil
}
