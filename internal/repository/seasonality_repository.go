// backend-go/internal/repository/seasonality_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

type seasonalityRepository struct {
	db *sqlx.DB
}

type seasonalityRow struct {
	ASIN      string    `db:"asin"`
	Source    string    `db:"source"`
	Profile   []byte    `db:"profile"`
	UpdatedAt time.Time `db:"updated_at"`
}

func NewSeasonalityRepository(db *sqlx.DB) SeasonalityRepository {
	return &seasonalityRepository{db: db}
}

func (r *seasonalityRepository) GetSeasonality(ctx context.Context, asin string) (*domain.SeasonalityRecord, error) {
	query := `
		SELECT asin, source, profile, updated_at
		FROM seasonality_profiles
		WHERE asin = $1
	`

	var row seasonalityRow
	if err := r.db.GetContext(ctx, &row, query, asin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("seasonality for %s: %w", asin, ErrNotFound)
		}
		return nil, fmt.Errorf("error getting seasonality for %s: %w", asin, err)
	}

	var profile forecast.Profile
	if err := json.Unmarshal(row.Profile, &profile); err != nil {
		return nil, fmt.Errorf("decode seasonality for %s: %w", asin, err)
	}

	return &domain.SeasonalityRecord{
		ASIN:      row.ASIN,
		Source:    row.Source,
		Profile:   profile,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (r *seasonalityRepository) SaveSeasonality(ctx context.Context, rec domain.SeasonalityRecord) error {
	payload, err := json.Marshal(rec.Profile)
	if err != nil {
		return fmt.Errorf("encode seasonality for %s: %w", rec.ASIN, err)
	}

	query := `
		INSERT INTO seasonality_profiles (asin, source, profile, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (asin)
		DO UPDATE SET source = EXCLUDED.source, profile = EXCLUDED.profile, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, rec.ASIN, rec.Source, payload); err != nil {
		return fmt.Errorf("error saving seasonality for %s: %w", rec.ASIN, err)
	}

	return nil
}
