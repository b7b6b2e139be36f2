// backend-go/internal/repository/sales_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/andresuchdata/autoforecast/backend-go/internal/forecast"
	"github.com/jmoiron/sqlx"
)

type salesRepository struct {
	db *sqlx.DB
}

func NewSalesRepository(db *sqlx.DB) SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) GetUnitsSold(ctx context.Context, asin string) (forecast.WeeklySeries, error) {
	return r.weekly(ctx, "units_sold", "units", asin)
}

func (r *salesRepository) GetVineClaims(ctx context.Context, asin string) (forecast.WeeklySeries, error) {
	return r.weekly(ctx, "vine_claims", "units", asin)
}

func (r *salesRepository) GetSearchVolume(ctx context.Context, asin string) (forecast.WeeklySeries, error) {
	return r.weekly(ctx, "search_volume", "volume", asin)
}

// table and column are never user input.
func (r *salesRepository) weekly(ctx context.Context, table, column, asin string) (forecast.WeeklySeries, error) {
	query := fmt.Sprintf(`
		SELECT week_end, SUM(%s) AS value
		FROM %s
		WHERE asin = $1
		GROUP BY week_end
		ORDER BY week_end
	`, column, table)

	var rows []weekValue
	if err := r.db.SelectContext(ctx, &rows, query, asin); err != nil {
		return nil, fmt.Errorf("error getting %s for %s: %w", table, asin, err)
	}

	return toSeries(rows), nil
}
