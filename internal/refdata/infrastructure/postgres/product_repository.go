package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
)

const (
	defaultProductsTable    = "supplier_products"
	defaultAssignmentsTable = "supply_product_periods"
)

// ProductRepository is a Postgres implementation for supplier products and
// their supply assignment periods.
type ProductRepository struct {
	db              *sql.DB
	productsTable   string
	assignmentTable string
}

// ProductOption configures a ProductRepository.
type ProductOption func(*ProductRepository)

// WithProductsTable overrides the products table name.
func WithProductsTable(table string) ProductOption {
	return func(r *ProductRepository) {
		if table != "" {
			r.productsTable = table
		}
	}
}

// NewProductRepository constructs a repository.
func NewProductRepository(db *sql.DB, opts ...ProductOption) *ProductRepository {
	repo := &ProductRepository{db: db, productsTable: defaultProductsTable, assignmentTable: defaultAssignmentsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// FindByID loads a supplier product, or nil if not found.
func (r *ProductRepository) FindByID(ctx context.Context, id primitives.ID) (*refdata.SupplierProduct, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("product repo: nil db")
	}
	query := fmt.Sprintf(`SELECT id, supplier_identity_id, name, pricing_model, is_active FROM %s WHERE id = $1 LIMIT 1`, r.productsTable)

	var product refdata.SupplierProduct
	var id2, supplierID, name, model string
	if err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&id2, &supplierID, &name, &model, &product.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	product.ID = primitives.ID(id2)
	product.SupplierIdentityID = primitives.ID(supplierID)
	product.Name = name
	product.PricingModel = primitives.PricingModel(model)
	return &product, nil
}

// Save upserts a supplier product.
func (r *ProductRepository) Save(ctx context.Context, product *refdata.SupplierProduct) error {
	if r == nil || r.db == nil {
		return errors.New("product repo: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, supplier_identity_id, name, pricing_model, is_active)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (supplier_identity_id, name) DO UPDATE SET pricing_model = EXCLUDED.pricing_model, is_active = EXCLUDED.is_active`, r.productsTable)
	_, err := r.db.ExecContext(ctx, query, product.ID.String(), product.SupplierIdentityID.String(), product.Name, string(product.PricingModel), product.IsActive)
	return err
}

// ActiveAssignments returns product-period assignments for a supply active
// at `at`.
func (r *ProductRepository) ActiveAssignments(ctx context.Context, supplyID primitives.ID, at time.Time) ([]refdata.SupplyProductPeriod, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("product repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, supply_id, supplier_product_id, period_start, period_end
FROM %s
WHERE supply_id = $1 AND period_start <= $2 AND (period_end IS NULL OR period_end > $2)`, r.assignmentTable)

	rows, err := r.db.QueryContext(ctx, query, supplyID.String(), at.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []refdata.SupplyProductPeriod
	for rows.Next() {
		var id, supply, productID string
		var start time.Time
		var end sql.NullTime
		if err := rows.Scan(&id, &supply, &productID, &start, &end); err != nil {
			return nil, err
		}
		var period primitives.Period
		if end.Valid {
			period, err = primitives.NewPeriod(start, end.Time)
			if err != nil {
				return nil, err
			}
		} else {
			period = primitives.OpenEndedPeriod(start)
		}
		result = append(result, refdata.SupplyProductPeriod{
			ID:                primitives.ID(id),
			SupplyID:          primitives.ID(supply),
			SupplierProductID: primitives.ID(productID),
			Period:            period,
		})
	}
	return result, rows.Err()
}

// SaveAssignment inserts a supply-product assignment period.
func (r *ProductRepository) SaveAssignment(ctx context.Context, assignment *refdata.SupplyProductPeriod) error {
	if r == nil || r.db == nil {
		return errors.New("product repo: nil db")
	}
	var end any
	if !assignment.Period.IsOpenEnded() {
		end = assignment.Period.End
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, supply_id, supplier_product_id, period_start, period_end)
VALUES ($1, $2, $3, $4, $5)`, r.assignmentTable)
	_, err := r.db.ExecContext(ctx, query, assignment.ID.String(), assignment.SupplyID.String(), assignment.SupplierProductID.String(), assignment.Period.Start, end)
	return err
}
