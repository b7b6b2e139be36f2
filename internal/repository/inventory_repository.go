// backend-go/internal/repository/inventory_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

type inventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetLatestInventory(ctx context.Context, asin string, asOf time.Time) (*domain.Inventory, error) {
	query := `
		SELECT
			asin, snapshot_date,
			fba_available, fba_reserved, fba_inbound,
			awd_available, awd_reserved, awd_inbound, awd_outbound_to_fba
		FROM inventory_snapshots
		WHERE asin = $1 AND snapshot_date <= $2::date
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var inv domain.Inventory
	if err := r.db.GetContext(ctx, &inv, query, asin, asOf); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("inventory for %s: %w", asin, ErrNotFound)
		}
		return nil, fmt.Errorf("error getting inventory for %s: %w", asin, err)
	}

	return &inv, nil
}
