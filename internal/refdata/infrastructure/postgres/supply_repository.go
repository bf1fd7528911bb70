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

const defaultSuppliesTable = "supplies"

// SupplyRepository is a Postgres implementation for supplies.
type SupplyRepository struct {
	db    *sql.DB
	table string
}

// SupplyOption configures a SupplyRepository.
type SupplyOption func(*SupplyRepository)

// WithSupplyTable overrides the default table name.
func WithSupplyTable(table string) SupplyOption {
	return func(r *SupplyRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewSupplyRepository constructs a repository.
func NewSupplyRepository(db *sql.DB, opts ...SupplyOption) *SupplyRepository {
	repo := &SupplyRepository{db: db, table: defaultSuppliesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// FindCurrentByMeteringPoint loads the supply covering `at` for a metering
// point, or nil if none is open.
func (r *SupplyRepository) FindCurrentByMeteringPoint(ctx context.Context, meteringPointID primitives.ID, at time.Time) (*refdata.Supply, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("supply repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, metering_point_id, customer_id, period_start, period_end
FROM %s
WHERE metering_point_id = $1 AND period_start <= $2 AND (period_end IS NULL OR period_end > $2)
LIMIT 1`, r.table)

	var id, mpID, customerID string
	var start time.Time
	var end sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, meteringPointID.String(), at.UTC()).Scan(&id, &mpID, &customerID, &start, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	supply := refdata.Supply{
		ID:              primitives.ID(id),
		MeteringPointID: primitives.ID(mpID),
		CustomerID:      primitives.ID(customerID),
	}
	if end.Valid {
		period, err := primitives.NewPeriod(start, end.Time)
		if err != nil {
			return nil, err
		}
		supply.SupplyPeriod = period
	} else {
		supply.SupplyPeriod = primitives.OpenEndedPeriod(start)
	}
	return &supply, nil
}

// Save upserts a supply.
func (r *SupplyRepository) Save(ctx context.Context, supply *refdata.Supply) error {
	if r == nil || r.db == nil {
		return errors.New("supply repo: nil db")
	}
	if supply == nil {
		return errors.New("supply repo: nil supply")
	}
	var end any
	if !supply.SupplyPeriod.IsOpenEnded() {
		end = supply.SupplyPeriod.End
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, metering_point_id, customer_id, period_start, period_end)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET period_end = EXCLUDED.period_end`, r.table)

	_, err := r.db.ExecContext(ctx, query, supply.ID.String(), supply.MeteringPointID.String(), supply.CustomerID.String(), supply.SupplyPeriod.Start, end)
	return err
}
