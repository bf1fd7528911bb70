// Package postgres implements reconciliation.WholesaleSettlementRepository
// and reconciliation.ResultRepository atop database/sql + pgx, grounded on
// this system's predecessor's internal/settlement/infrastructure/postgres/statement_repository.go
// (aggregate + child-row transactional save/load) generalized to the
// WholesaleSettlement/ReconciliationResult shapes.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/reconciliation/domain"
)

const (
	defaultWholesaleSettlementsTable     = "wholesale_settlements"
	defaultWholesaleSettlementLinesTable = "wholesale_settlement_lines"
)

// WholesaleSettlementRepository is a Postgres implementation of
// reconciliation.WholesaleSettlementRepository.
type WholesaleSettlementRepository struct {
	db         *sql.DB
	table      string
	linesTable string
}

// Option configures a WholesaleSettlementRepository.
type Option func(*WholesaleSettlementRepository)

// WithWholesaleSettlementsTable overrides the wholesale_settlements table name.
func WithWholesaleSettlementsTable(table string) Option {
	return func(r *WholesaleSettlementRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithWholesaleSettlementLinesTable overrides the wholesale_settlement_lines table name.
func WithWholesaleSettlementLinesTable(table string) Option {
	return func(r *WholesaleSettlementRepository) {
		if table != "" {
			r.linesTable = table
		}
	}
}

// NewWholesaleSettlementRepository constructs a WholesaleSettlementRepository.
func NewWholesaleSettlementRepository(db *sql.DB, opts ...Option) *WholesaleSettlementRepository {
	repo := &WholesaleSettlementRepository{db: db, table: defaultWholesaleSettlementsTable, linesTable: defaultWholesaleSettlementLinesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// LatestFor returns the wholesale settlement for (gridArea, period) with
// the most recent ReceivedAt.
func (r *WholesaleSettlementRepository) LatestFor(ctx context.Context, gridArea string, period primitives.Period) (*reconciliation.WholesaleSettlement, error) {
	var periodEnd any
	if !period.IsOpenEnded() {
		periodEnd = period.End
	}
	query := fmt.Sprintf(`
SELECT id, grid_area, period_start, period_end, received_at
FROM %s
WHERE grid_area = $1 AND period_start = $2 AND period_end IS NOT DISTINCT FROM $3
ORDER BY received_at DESC
LIMIT 1`, r.table)
	row := r.db.QueryRowContext(ctx, query, gridArea, period.Start, periodEnd)

	var id, area string
	var periodStart time.Time
	var periodEndCol sql.NullTime
	var receivedAt time.Time
	if err := row.Scan(&id, &area, &periodStart, &periodEndCol, &receivedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var p primitives.Period
	var err error
	if periodEndCol.Valid {
		p, err = primitives.NewPeriod(periodStart, periodEndCol.Time)
	} else {
		p = primitives.OpenEndedPeriod(periodStart)
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.loadLines(ctx, primitives.ID(id))
	if err != nil {
		return nil, err
	}

	w := reconciliation.NewWholesaleSettlement(primitives.ID(id), area, p, lines, receivedAt)
	return &w, nil
}

func (r *WholesaleSettlementRepository) loadLines(ctx context.Context, wholesaleSettlementID primitives.ID) ([]reconciliation.WholesaleSettlementLine, error) {
	query := fmt.Sprintf(`SELECT description, amount, currency FROM %s WHERE wholesale_settlement_id = $1 ORDER BY ordinal ASC`, r.linesTable)
	rows, err := r.db.QueryContext(ctx, query, wholesaleSettlementID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []reconciliation.WholesaleSettlementLine
	for rows.Next() {
		var description, currency string
		var amount float64
		if err := rows.Scan(&description, &amount, &currency); err != nil {
			return nil, err
		}
		lines = append(lines, reconciliation.WholesaleSettlementLine{
			Description: description,
			Amount:      primitives.NewMoney(decimalOf(amount), currency),
		})
	}
	return lines, rows.Err()
}

// Save upserts a wholesale settlement and replaces its lines within a
// single transaction, mirroring settlement.SettlementRepository.Save's
// aggregate + child-row pattern.
func (r *WholesaleSettlementRepository) Save(ctx context.Context, w *reconciliation.WholesaleSettlement) error {
	if w == nil {
		return errors.New("wholesale settlement repo: nil settlement")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var periodEnd any
	if !w.Period.IsOpenEnded() {
		periodEnd = w.Period.End
	}

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (id, grid_area, period_start, period_end, received_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (id) DO UPDATE SET received_at = EXCLUDED.received_at`, r.table)
	if _, err := tx.ExecContext(ctx, upsertQuery, w.ID.String(), w.GridArea, w.Period.Start, periodEnd, w.ReceivedAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE wholesale_settlement_id = $1`, r.linesTable), w.ID.String()); err != nil {
		return err
	}

	insertLineQuery := fmt.Sprintf(`
INSERT INTO %s (wholesale_settlement_id, ordinal, description, amount, currency)
VALUES ($1,$2,$3,$4,$5)`, r.linesTable)
	for i, line := range w.Lines {
		if _, err := tx.ExecContext(ctx, insertLineQuery, w.ID.String(), i, line.Description, floatOf(line.Amount.Amount()), line.Amount.Currency()); err != nil {
			return err
		}
	}

	return tx.Commit()
}
