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

const defaultPriceLinksTable = "price_links"

// LinkRepository is a Postgres implementation of pricing.LinkRepository.
type LinkRepository struct {
	db    *sql.DB
	table string
}

// LinkOption configures a LinkRepository.
type LinkOption func(*LinkRepository)

// WithLinksTable overrides the default table name.
func WithLinksTable(table string) LinkOption {
	return func(r *LinkRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewLinkRepository constructs a LinkRepository.
func NewLinkRepository(db *sql.DB, opts ...LinkOption) *LinkRepository {
	repo := &LinkRepository{db: db, table: defaultPriceLinksTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ActiveLinks returns every link covering `at` for the given metering
// point (spec.md §4.5.1 completeness check).
func (r *LinkRepository) ActiveLinks(ctx context.Context, meteringPointID primitives.ID, at time.Time) ([]pricing.PriceLink, error) {
	query := fmt.Sprintf(`
SELECT id, metering_point_id, price_id, link_from, link_to
FROM %s
WHERE metering_point_id = $1 AND link_from <= $2 AND (link_to IS NULL OR link_to > $2)`, r.table)
	rows, err := r.db.QueryContext(ctx, query, meteringPointID.String(), at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []pricing.PriceLink
	for rows.Next() {
		var id, mpID, priceID string
		var linkFrom time.Time
		var linkTo sql.NullTime
		if err := rows.Scan(&id, &mpID, &priceID, &linkFrom, &linkTo); err != nil {
			return nil, err
		}
		var period primitives.Period
		var perr error
		if linkTo.Valid {
			period, perr = primitives.NewPeriod(linkFrom, linkTo.Time)
		} else {
			period = primitives.OpenEndedPeriod(linkFrom)
		}
		if perr != nil {
			return nil, perr
		}
		links = append(links, pricing.PriceLink{
			ID:              primitives.ID(id),
			MeteringPointID: primitives.ID(mpID),
			PriceID:         primitives.ID(priceID),
			LinkPeriod:      period,
		})
	}
	return links, rows.Err()
}

// Save upserts a price link.
func (r *LinkRepository) Save(ctx context.Context, link *pricing.PriceLink) error {
	if link == nil {
		return errors.New("link repo: nil link")
	}
	var linkTo any
	if !link.LinkPeriod.IsOpenEnded() {
		linkTo = link.LinkPeriod.End
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, metering_point_id, price_id, link_from, link_to)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET link_from = EXCLUDED.link_from, link_to = EXCLUDED.link_to`, r.table)
	_, err := r.db.ExecContext(ctx, query, link.ID.String(), link.MeteringPointID.String(), link.PriceID.String(), link.LinkPeriod.Start, linkTo)
	return err
}
