// Package postgres implements the pricing domain's repository interfaces
// atop database/sql + pgx, grounded on
// internal/masterdata/infrastructure/postgres repositories and the
// backend/internal/settlement/infrastructure/pricing tariff/fixed-price
// providers (bittertea97-microgrid-cloud, read for reference only, not
// copied).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
)

const defaultPricesTable = "prices"
const defaultPricePointsTable = "price_points"

// PriceRepository is a Postgres implementation of pricing.Repository.
type PriceRepository struct {
	db          *sql.DB
	table       string
	pointsTable string
}

// Option configures a PriceRepository.
type Option func(*PriceRepository)

// WithPricesTable overrides the prices table name.
func WithPricesTable(table string) Option {
	return func(r *PriceRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithPricePointsTable overrides the price_points table name.
func WithPricePointsTable(table string) Option {
	return func(r *PriceRepository) {
		if table != "" {
			r.pointsTable = table
		}
	}
}

// NewPriceRepository constructs a PriceRepository.
func NewPriceRepository(db *sql.DB, opts ...Option) *PriceRepository {
	repo := &PriceRepository{db: db, table: defaultPricesTable, pointsTable: defaultPricePointsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *PriceRepository) FindByChargeID(ctx context.Context, chargeID string, ownerGln primitives.GlnNumber) (*pricing.Price, error) {
	query := fmt.Sprintf(`
SELECT id, charge_id, owner_gln, type, description, valid_from, valid_to, vat_exempt, is_tax, is_pass_through, category, price_resolution
FROM %s
WHERE charge_id = $1 AND owner_gln = $2
LIMIT 1`, r.table)
	row := r.db.QueryRowContext(ctx, query, chargeID, ownerGln.String())
	price, err := r.scanOne(ctx, row)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, pricing.ErrPriceNotFound
	}
	return price, nil
}

func (r *PriceRepository) FindByID(ctx context.Context, id primitives.ID) (*pricing.Price, error) {
	query := fmt.Sprintf(`
SELECT id, charge_id, owner_gln, type, description, valid_from, valid_to, vat_exempt, is_tax, is_pass_through, category, price_resolution
FROM %s
WHERE id = $1
LIMIT 1`, r.table)
	row := r.db.QueryRowContext(ctx, query, id.String())
	price, err := r.scanOne(ctx, row)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return nil, pricing.ErrPriceNotFound
	}
	return price, nil
}

func (r *PriceRepository) scanOne(ctx context.Context, row *sql.Row) (*pricing.Price, error) {
	var id, chargeID, ownerGln, priceType, description, category string
	var validFrom time.Time
	var validTo sql.NullTime
	var vatExempt, isTax, isPassThrough bool
	var resolution sql.NullString
	if err := row.Scan(&id, &chargeID, &ownerGln, &priceType, &description, &validFrom, &validTo, &vatExempt, &isTax, &isPassThrough, &category, &resolution); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var period primitives.Period
	var err error
	if validTo.Valid {
		period, err = primitives.NewPeriod(validFrom, validTo.Time)
	} else {
		period = primitives.OpenEndedPeriod(validFrom)
	}
	if err != nil {
		return nil, err
	}

	price := pricing.Price{
		ID:             primitives.ID(id),
		ChargeID:       chargeID,
		OwnerGln:       primitives.GlnNumber(ownerGln),
		Type:           primitives.PriceType(priceType),
		Description:    description,
		ValidityPeriod: period,
		VatExempt:      vatExempt,
		IsTax:          isTax,
		IsPassThrough:  isPassThrough,
		Category:       primitives.PriceCategory(category),
	}
	if resolution.Valid {
		res := primitives.Resolution(resolution.String)
		price.PriceResolution = &res
	}

	points, err := r.loadPoints(ctx, price.ID)
	if err != nil {
		return nil, err
	}
	price.PricePoints = points
	return &price, nil
}

func (r *PriceRepository) loadPoints(ctx context.Context, priceID primitives.ID) ([]pricing.PricePoint, error) {
	query := fmt.Sprintf(`SELECT price_id, ts, value FROM %s WHERE price_id = $1 ORDER BY ts ASC`, r.pointsTable)
	rows, err := r.db.QueryContext(ctx, query, priceID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []pricing.PricePoint
	for rows.Next() {
		var id string
		var ts time.Time
		var value float64
		if err := rows.Scan(&id, &ts, &value); err != nil {
			return nil, err
		}
		points = append(points, pricing.PricePoint{PriceID: primitives.ID(id), Timestamp: ts, Price: value})
	}
	return points, rows.Err()
}

// Save upserts the Price row and replaces its price_points rows in a
// single transaction.
func (r *PriceRepository) Save(ctx context.Context, price *pricing.Price) error {
	if price == nil {
		return errors.New("price repo: nil price")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var validTo any
	if !price.ValidityPeriod.IsOpenEnded() {
		validTo = price.ValidityPeriod.End
	}
	var resolution any
	if price.PriceResolution != nil {
		resolution = string(*price.PriceResolution)
	}

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (id, charge_id, owner_gln, type, description, valid_from, valid_to, vat_exempt, is_tax, is_pass_through, category, price_resolution)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	description = EXCLUDED.description,
	type = EXCLUDED.type,
	valid_from = EXCLUDED.valid_from,
	valid_to = EXCLUDED.valid_to,
	vat_exempt = EXCLUDED.vat_exempt,
	is_tax = EXCLUDED.is_tax,
	is_pass_through = EXCLUDED.is_pass_through,
	category = EXCLUDED.category,
	price_resolution = EXCLUDED.price_resolution`, r.table)

	if _, err := tx.ExecContext(ctx, upsertQuery,
		price.ID.String(), price.ChargeID, price.OwnerGln.String(), string(price.Type), price.Description,
		price.ValidityPeriod.Start, validTo, price.VatExempt, price.IsTax, price.IsPassThrough,
		string(price.Category), resolution,
	); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE price_id = $1`, r.pointsTable)
	if _, err := tx.ExecContext(ctx, deleteQuery, price.ID.String()); err != nil {
		return err
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (price_id, ts, value) VALUES ($1, $2, $3)`, r.pointsTable)
	for _, point := range price.PricePoints {
		if _, err := tx.ExecContext(ctx, insertQuery, price.ID.String(), point.Timestamp, point.Price); err != nil {
			return err
		}
	}

	return tx.Commit()
}
