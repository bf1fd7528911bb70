package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
)

const defaultSpotPricesTable = "spot_prices"

// SpotPriceRepository is a Postgres implementation of
// pricing.SpotPriceRepository. Upsert loads the existing rows for the
// incoming timestamps' areas, applies pricing.UpsertSpotPrices in memory,
// and writes the result back with one upsert per row inside a single
// transaction, so the
// pure-upsert semantics tested in the domain package carry through to
// storage unchanged.
type SpotPriceRepository struct {
	db    *sql.DB
	table string
}

// SpotPriceOption configures a SpotPriceRepository.
type SpotPriceOption func(*SpotPriceRepository)

// WithSpotPricesTable overrides the default table name.
func WithSpotPricesTable(table string) SpotPriceOption {
	return func(r *SpotPriceRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewSpotPriceRepository constructs a SpotPriceRepository.
func NewSpotPriceRepository(db *sql.DB, opts ...SpotPriceOption) *SpotPriceRepository {
	repo := &SpotPriceRepository{db: db, table: defaultSpotPricesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *SpotPriceRepository) Upsert(ctx context.Context, points []pricing.SpotPrice) (int, int, error) {
	if len(points) == 0 {
		return 0, 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	areas := map[pricing.PriceArea]bool{}
	for _, p := range points {
		areas[p.PriceArea] = true
	}
	var existing []pricing.SpotPrice
	for area := range areas {
		query := fmt.Sprintf(`SELECT price_area, ts, price_dkk_per_kwh FROM %s WHERE price_area = $1`, r.table)
		rows, err := tx.QueryContext(ctx, query, string(area))
		if err != nil {
			return 0, 0, err
		}
		for rows.Next() {
			var a string
			var sp pricing.SpotPrice
			if err := rows.Scan(&a, &sp.Timestamp, &sp.PriceDkkPerKwh); err != nil {
				rows.Close()
				return 0, 0, err
			}
			sp.PriceArea = pricing.PriceArea(a)
			existing = append(existing, sp)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, 0, err
		}
		rows.Close()
	}

	result, inserted, updated := pricing.UpsertSpotPrices(existing, points)

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (price_area, ts, price_dkk_per_kwh)
VALUES ($1, $2, $3)
ON CONFLICT (price_area, ts) DO UPDATE SET price_dkk_per_kwh = EXCLUDED.price_dkk_per_kwh`, r.table)
	for _, sp := range result {
		if _, err := tx.ExecContext(ctx, upsertQuery, string(sp.PriceArea), sp.Timestamp, sp.PriceDkkPerKwh); err != nil {
			return 0, 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return inserted, updated, nil
}

func (r *SpotPriceRepository) ForPeriod(ctx context.Context, area pricing.PriceArea, period primitives.Period) ([]pricing.SpotPrice, error) {
	query := fmt.Sprintf(`SELECT price_area, ts, price_dkk_per_kwh FROM %s WHERE price_area = $1 AND ts >= $2`, r.table)
	args := []any{string(area), period.Start}
	if !period.IsOpenEnded() {
		query += ` AND ts < $3`
		args = append(args, period.End)
	}
	query += ` ORDER BY ts ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pricing.SpotPrice
	for rows.Next() {
		var a string
		var sp pricing.SpotPrice
		if err := rows.Scan(&a, &sp.Timestamp, &sp.PriceDkkPerKwh); err != nil {
			return nil, err
		}
		sp.PriceArea = pricing.PriceArea(a)
		result = append(result, sp)
	}
	return result, rows.Err()
}
