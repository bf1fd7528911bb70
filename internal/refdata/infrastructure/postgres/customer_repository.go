package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
)

const defaultCustomersTable = "customers"

// CustomerRepository is a Postgres implementation for customers.
type CustomerRepository struct {
	db    *sql.DB
	table string
}

// CustomerOption configures a CustomerRepository.
type CustomerOption func(*CustomerRepository)

// WithCustomerTable overrides the default table name.
func WithCustomerTable(table string) CustomerOption {
	return func(r *CustomerRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewCustomerRepository constructs a repository.
func NewCustomerRepository(db *sql.DB, opts ...CustomerOption) *CustomerRepository {
	repo := &CustomerRepository{db: db, table: defaultCustomersTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// FindByID loads a customer by id, or nil if not found.
func (r *CustomerRepository) FindByID(ctx context.Context, id primitives.ID) (*refdata.Customer, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("customer repo: nil db")
	}
	query := fmt.Sprintf(`SELECT id, name, cpr, cvr, supplier_identity_id FROM %s WHERE id = $1 LIMIT 1`, r.table)

	var id2, name, supplierID string
	var cpr, cvr sql.NullString
	if err := r.db.QueryRowContext(ctx, query, id.String()).Scan(&id2, &name, &cpr, &cvr, &supplierID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	customer := refdata.Customer{
		ID:                 primitives.ID(id2),
		Name:               name,
		SupplierIdentityID: primitives.ID(supplierID),
	}
	if cpr.Valid {
		v := primitives.Cpr(cpr.String)
		customer.Cpr = &v
	}
	if cvr.Valid {
		v := primitives.Cvr(cvr.String)
		customer.Cvr = &v
	}
	return &customer, nil
}

// Save upserts a customer.
func (r *CustomerRepository) Save(ctx context.Context, customer *refdata.Customer) error {
	if r == nil || r.db == nil {
		return errors.New("customer repo: nil db")
	}
	if customer == nil {
		return errors.New("customer repo: nil customer")
	}
	var cpr, cvr any
	if customer.Cpr != nil {
		cpr = customer.Cpr.String()
	}
	if customer.Cvr != nil {
		cvr = customer.Cvr.String()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, name, cpr, cvr, supplier_identity_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, cpr = EXCLUDED.cpr, cvr = EXCLUDED.cvr`, r.table)
	_, err := r.db.ExecContext(ctx, query, customer.ID.String(), customer.Name, cpr, cvr, customer.SupplierIdentityID.String())
	return err
}
