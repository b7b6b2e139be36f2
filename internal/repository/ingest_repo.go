package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
)

// IngestRepository writes imported rows. It runs on a plain *sql.DB so the
// seed tool can hand it a pgx stdlib connection.
type IngestRepository struct {
	db *sql.DB
}

func NewIngestRepository(db *sql.DB) *IngestRepository {
	return &IngestRepository{db: db}
}

var _ Ingester = (*IngestRepository)(nil)

func (r *IngestRepository) UpsertProduct(ctx context.Context, p domain.Product) error {
	query := `
		INSERT INTO products (asin, sku, name, brand, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (asin)
		DO UPDATE SET
			sku = COALESCE(NULLIF(EXCLUDED.sku, ''), products.sku),
			name = COALESCE(NULLIF(EXCLUDED.name, ''), products.name),
			brand = COALESCE(NULLIF(EXCLUDED.brand, ''), products.brand),
			updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, p.ASIN, p.SKU, p.Name, p.Brand); err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ASIN, err)
	}
	return nil
}

func (r *IngestRepository) UpsertUnitsSold(ctx context.Context, rows []domain.UnitsSold) error {
	weekly := make([]weeklyRow, len(rows))
	for i, row := range rows {
		weekly[i] = weeklyRow{row.ASIN, row.WeekEnd, row.Units}
	}
	return r.upsertWeekly(ctx, "units_sold", "units", weekly)
}

func (r *IngestRepository) UpsertVineClaims(ctx context.Context, rows []domain.VineClaim) error {
	weekly := make([]weeklyRow, len(rows))
	for i, row := range rows {
		weekly[i] = weeklyRow{row.ASIN, row.WeekEnd, row.Units}
	}
	return r.upsertWeekly(ctx, "vine_claims", "units", weekly)
}

func (r *IngestRepository) UpsertSearchVolume(ctx context.Context, rows []domain.SearchVolume) error {
	weekly := make([]weeklyRow, len(rows))
	for i, row := range rows {
		weekly[i] = weeklyRow{row.ASIN, row.WeekEnd, row.Volume}
	}
	return r.upsertWeekly(ctx, "search_volume", "volume", weekly)
}

func (r *IngestRepository) UpsertInventory(ctx context.Context, inv domain.Inventory) error {
	query := `
		INSERT INTO inventory_snapshots (
			asin, snapshot_date,
			fba_available, fba_reserved, fba_inbound,
			awd_available, awd_reserved, awd_inbound, awd_outbound_to_fba
		)
		VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (asin, snapshot_date)
		DO UPDATE SET
			fba_available = EXCLUDED.fba_available,
			fba_reserved = EXCLUDED.fba_reserved,
			fba_inbound = EXCLUDED.fba_inbound,
			awd_available = EXCLUDED.awd_available,
			awd_reserved = EXCLUDED.awd_reserved,
			awd_inbound = EXCLUDED.awd_inbound,
			awd_outbound_to_fba = EXCLUDED.awd_outbound_to_fba
	`
	_, err := r.db.ExecContext(ctx, query,
		inv.ASIN,
		inv.SnapshotDate,
		inv.FBAAvailable,
		inv.FBAReserved,
		inv.FBAInbound,
		inv.AWDAvailable,
		inv.AWDReserved,
		inv.AWDInbound,
		inv.AWDOutboundToFBA,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert inventory for %s: %w", inv.ASIN, err)
	}
	return nil
}

type weeklyRow struct {
	asin    string
	weekEnd time.Time
	value   float64
}

func (r *IngestRepository) upsertWeekly(ctx context.Context, table, column string, rows []weeklyRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin %s import: %w", table, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %[1]s (asin, week_end, %[2]s)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (asin, week_end)
		DO UPDATE SET %[2]s = EXCLUDED.%[2]s
	`, table, column))
	if err != nil {
		return fmt.Errorf("failed to prepare %s upsert: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.asin, row.weekEnd, row.value); err != nil {
			return fmt.Errorf("failed to upsert %s for %s: %w", table, row.asin, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s import: %w", table, err)
	}
	return nil
}
