// backend-go/internal/repository/product_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/autoforecast/backend-go/internal/domain"
	"github.com/jmoiron/sqlx"
)

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT asin, sku, name, brand, created_at, updated_at
		FROM products
		ORDER BY asin
	`

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	return products, nil
}

func (r *productRepository) GetProduct(ctx context.Context, asin string) (*domain.Product, error) {
	query := `
		SELECT asin, sku, name, brand, created_at, updated_at
		FROM products
		WHERE asin = $1
	`

	var product domain.Product
	if err := r.db.GetContext(ctx, &product, query, asin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s: %w", asin, ErrNotFound)
		}
		return nil, fmt.Errorf("error getting product %s: %w", asin, err)
	}

	return &product, nil
}
