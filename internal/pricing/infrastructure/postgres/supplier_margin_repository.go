package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
)

const defaultSupplierMarginsTable = "supplier_margins"

// SupplierMarginRepository is a Postgres implementation of
// pricing.SupplierMarginRepository, mirroring SpotPriceRepository's
// load-upsert-write pattern.
type SupplierMarginRepository struct {
	db    *sql.DB
	table string
}

// SupplierMarginOption configures a SupplierMarginRepository.
type SupplierMarginOption func(*SupplierMarginRepository)

// WithSupplierMarginsTable overrides the default table name.
func WithSupplierMarginsTable(table string) SupplierMarginOption {
	return func(r *SupplierMarginRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewSupplierMarginRepository constructs a SupplierMarginRepository.
func NewSupplierMarginRepository(db *sql.DB, opts ...SupplierMarginOption) *SupplierMarginRepository {
	repo := &SupplierMarginRepository{db: db, table: defaultSupplierMarginsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *SupplierMarginRepository) Upsert(ctx context.Context, margins []pricing.SupplierMargin) (int, int, error) {
	if len(margins) == 0 {
		return 0, 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	products := map[primitives.ID]bool{}
	for _, m := range margins {
		products[m.SupplierProductID] = true
	}
	var existing []pricing.SupplierMargin
	for productID := range products {
		query := fmt.Sprintf(`SELECT supplier_product_id, valid_from, price_dkk_per_kwh FROM %s WHERE supplier_product_id = $1`, r.table)
		rows, err := tx.QueryContext(ctx, query, productID.String())
		if err != nil {
			return 0, 0, err
		}
		for rows.Next() {
			var id string
			var m pricing.SupplierMargin
			if err := rows.Scan(&id, &m.ValidFrom, &m.PriceDkkPerKwh); err != nil {
				rows.Close()
				return 0, 0, err
			}
			m.SupplierProductID = primitives.ID(id)
			existing = append(existing, m)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, 0, err
		}
		rows.Close()
	}

	result, inserted, updated := pricing.UpsertSupplierMargins(existing, margins)

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (supplier_product_id, valid_from, price_dkk_per_kwh)
VALUES ($1, $2, $3)
ON CONFLICT (supplier_product_id, valid_from) DO UPDATE SET price_dkk_per_kwh = EXCLUDED.price_dkk_per_kwh`, r.table)
	for _, m := range result {
		if _, err := tx.ExecContext(ctx, upsertQuery, m.SupplierProductID.String(), m.ValidFrom, m.PriceDkkPerKwh); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func (r *SupplierMarginRepository) ActiveFor(ctx context.Context, supplierProductIDs []primitives.ID, at time.Time) ([]pricing.SupplierMargin, error) {
	if len(supplierProductIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(supplierProductIDs))
	args := make([]any, 0, len(supplierProductIDs)+1)
	for i, id := range supplierProductIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args = append(args, id.String())
	}
	query := fmt.Sprintf(`SELECT supplier_product_id, valid_from, price_dkk_per_kwh FROM %s WHERE supplier_product_id IN (%s)`, r.table, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []pricing.SupplierMargin
	for rows.Next() {
		var id string
		var m pricing.SupplierMargin
		if err := rows.Scan(&id, &m.ValidFrom, &m.PriceDkkPerKwh); err != nil {
			return nil, err
		}
		m.SupplierProductID = primitives.ID(id)
		all = append(all, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pricing.ActiveMargins(all, at), nil
}
