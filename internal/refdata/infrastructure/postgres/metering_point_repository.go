// Package postgres implements refdata.MeteringPointRepository and its
// siblings atop database/sql + pgx, grounded on
// station_repository.go (bittertea97-microgrid-cloud
// internal/masterdata/infrastructure/postgres).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
)

const defaultMeteringPointsTable = "metering_points"

// MeteringPointRepository is a Postgres implementation for metering points.
type MeteringPointRepository struct {
	db    *sql.DB
	table string
}

// Option configures a repository.
type Option func(*MeteringPointRepository)

// WithMeteringPointTable overrides the default table name.
func WithMeteringPointTable(table string) Option {
	return func(r *MeteringPointRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewMeteringPointRepository constructs a repository.
func NewMeteringPointRepository(db *sql.DB, opts ...Option) *MeteringPointRepository {
	repo := &MeteringPointRepository{db: db, table: defaultMeteringPointsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// FindByGsrn loads a metering point by its GSRN, or nil if not found.
func (r *MeteringPointRepository) FindByGsrn(ctx context.Context, gsrn primitives.Gsrn) (*refdata.MeteringPoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("metering point repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, gsrn, type, category, settlement_method, resolution, grid_area, grid_company_gln, connection_state, has_active_supply, parent_gsrn
FROM %s
WHERE gsrn = $1
LIMIT 1`, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, query, gsrn.String()))
}

// FindByID loads a metering point by its identifier, or nil if not found.
func (r *MeteringPointRepository) FindByID(ctx context.Context, id primitives.ID) (*refdata.MeteringPoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("metering point repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, gsrn, type, category, settlement_method, resolution, grid_area, grid_company_gln, connection_state, has_active_supply, parent_gsrn
FROM %s
WHERE id = $1
LIMIT 1`, r.table)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id.String()))
}

func (r *MeteringPointRepository) scanOne(row *sql.Row) (*refdata.MeteringPoint, error) {
	var mp refdata.MeteringPoint
	var id, gsrn, mpType, category, method, resolution, gridArea, gridGln, connState string
	var parentGsrn sql.NullString
	if err := row.Scan(&id, &gsrn, &mpType, &category, &method, &resolution, &gridArea, &gridGln, &connState, &mp.HasActiveSupply, &parentGsrn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	mp.ID = primitives.ID(id)
	mp.Gsrn = primitives.Gsrn(gsrn)
	mp.Type = primitives.MeteringPointType(mpType)
	mp.Category = category
	mp.SettlementMethod = primitives.SettlementMethod(method)
	mp.Resolution = primitives.Resolution(resolution)
	mp.GridArea = gridArea
	mp.GridCompanyGln = primitives.GlnNumber(gridGln)
	mp.ConnectionState = primitives.ConnectionState(connState)
	if parentGsrn.Valid {
		g := primitives.Gsrn(parentGsrn.String)
		mp.ParentGsrn = &g
	}
	return &mp, nil
}

// Save upserts a metering point keyed by GSRN.
func (r *MeteringPointRepository) Save(ctx context.Context, mp *refdata.MeteringPoint) error {
	if r == nil || r.db == nil {
		return errors.New("metering point repo: nil db")
	}
	if mp == nil {
		return errors.New("metering point repo: nil metering point")
	}
	var parentGsrn any
	if mp.ParentGsrn != nil {
		parentGsrn = mp.ParentGsrn.String()
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, gsrn, type, category, settlement_method, resolution, grid_area, grid_company_gln, connection_state, has_active_supply, parent_gsrn)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (gsrn) DO UPDATE SET
	category = EXCLUDED.category,
	settlement_method = EXCLUDED.settlement_method,
	resolution = EXCLUDED.resolution,
	grid_area = EXCLUDED.grid_area,
	grid_company_gln = EXCLUDED.grid_company_gln,
	connection_state = EXCLUDED.connection_state,
	has_active_supply = EXCLUDED.has_active_supply,
	parent_gsrn = EXCLUDED.parent_gsrn`, r.table)

	_, err := r.db.ExecContext(ctx, query,
		mp.ID.String(), mp.Gsrn.String(), string(mp.Type), mp.Category, string(mp.SettlementMethod),
		string(mp.Resolution), mp.GridArea, mp.GridCompanyGln.String(), string(mp.ConnectionState),
		mp.HasActiveSupply, parentGsrn,
	)
	return err
}
