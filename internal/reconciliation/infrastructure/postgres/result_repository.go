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
	defaultResultsTable    = "reconciliation_results"
	defaultLineDeltasTable = "reconciliation_line_deltas"
)

// ResultRepository is a Postgres implementation of
// reconciliation.ResultRepository.
type ResultRepository struct {
	db         *sql.DB
	table      string
	deltaTable string
}

// ResultOption configures a ResultRepository.
type ResultOption func(*ResultRepository)

// WithResultsTable overrides the reconciliation_results table name.
func WithResultsTable(table string) ResultOption {
	return func(r *ResultRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithLineDeltasTable overrides the reconciliation_line_deltas table name.
func WithLineDeltasTable(table string) ResultOption {
	return func(r *ResultRepository) {
		if table != "" {
			r.deltaTable = table
		}
	}
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sql.DB, opts ...ResultOption) *ResultRepository {
	repo := &ResultRepository{db: db, table: defaultResultsTable, deltaTable: defaultLineDeltasTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const resultColumns = `id, grid_area, period_start, period_end, our_total, hub_total, currency, difference_amount, difference_percent, status, computed_at`

func (r *ResultRepository) FindByID(ctx context.Context, id primitives.ID) (*reconciliation.ReconciliationResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 LIMIT 1`, resultColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, id.String())
	return r.scanOne(ctx, row)
}

func (r *ResultRepository) FindLatestFor(ctx context.Context, gridArea string, period primitives.Period) (*reconciliation.ReconciliationResult, error) {
	var periodEnd any
	if !period.IsOpenEnded() {
		periodEnd = period.End
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE grid_area = $1 AND period_start = $2 AND period_end IS NOT DISTINCT FROM $3
ORDER BY computed_at DESC
LIMIT 1`, resultColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, gridArea, period.Start, periodEnd)
	return r.scanOne(ctx, row)
}

func (r *ResultRepository) scanOne(ctx context.Context, row *sql.Row) (*reconciliation.ReconciliationResult, error) {
	var id, gridArea, currency, status string
	var periodStart time.Time
	var periodEndCol sql.NullTime
	var ourTotal, hubTotal, differenceAmount float64
	var differencePercent float64
	var computedAt time.Time

	if err := row.Scan(&id, &gridArea, &periodStart, &periodEndCol, &ourTotal, &hubTotal, &currency,
		&differenceAmount, &differencePercent, &status, &computedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var period primitives.Period
	var err error
	if periodEndCol.Valid {
		period, err = primitives.NewPeriod(periodStart, periodEndCol.Time)
	} else {
		period = primitives.OpenEndedPeriod(periodStart)
	}
	if err != nil {
		return nil, err
	}

	deltas, err := r.loadDeltas(ctx, primitives.ID(id), currency)
	if err != nil {
		return nil, err
	}

	result := reconciliation.ReconciliationResult{
		ID:                primitives.ID(id),
		GridArea:          gridArea,
		Period:            period,
		OurTotal:          primitives.NewMoney(decimalOf(ourTotal), currency),
		HubTotal:          primitives.NewMoney(decimalOf(hubTotal), currency),
		DifferenceAmount:  primitives.NewMoney(decimalOf(differenceAmount), currency),
		DifferencePercent: differencePercent,
		Status:            reconciliation.Status(status),
		LineDeltas:        deltas,
		ComputedAt:        computedAt,
	}
	return &result, nil
}

func (r *ResultRepository) loadDeltas(ctx context.Context, resultID primitives.ID, currency string) ([]reconciliation.LineDelta, error) {
	query := fmt.Sprintf(`SELECT description, our_amount, hub_amount, delta FROM %s WHERE result_id = $1 ORDER BY ordinal ASC`, r.deltaTable)
	rows, err := r.db.QueryContext(ctx, query, resultID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deltas []reconciliation.LineDelta
	for rows.Next() {
		var description string
		var ourAmount, hubAmount, delta float64
		if err := rows.Scan(&description, &ourAmount, &hubAmount, &delta); err != nil {
			return nil, err
		}
		deltas = append(deltas, reconciliation.LineDelta{
			Description: description,
			OurAmount:   primitives.NewMoney(decimalOf(ourAmount), currency),
			HubAmount:   primitives.NewMoney(decimalOf(hubAmount), currency),
			Delta:       primitives.NewMoney(decimalOf(delta), currency),
		})
	}
	return deltas, rows.Err()
}

// Save persists a reconciliation result and its line deltas within a
// single transaction.
func (r *ResultRepository) Save(ctx context.Context, result *reconciliation.ReconciliationResult) error {
	if result == nil {
		return errors.New("reconciliation result repo: nil result")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var periodEnd any
	if !result.Period.IsOpenEnded() {
		periodEnd = result.Period.End
	}

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (id, grid_area, period_start, period_end, our_total, hub_total, currency, difference_amount, difference_percent, status, computed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET
	our_total = EXCLUDED.our_total,
	hub_total = EXCLUDED.hub_total,
	difference_amount = EXCLUDED.difference_amount,
	difference_percent = EXCLUDED.difference_percent,
	status = EXCLUDED.status,
	computed_at = EXCLUDED.computed_at`, r.table)
	if _, err := tx.ExecContext(ctx, upsertQuery,
		result.ID.String(), result.GridArea, result.Period.Start, periodEnd,
		floatOf(result.OurTotal.Amount()), floatOf(result.HubTotal.Amount()), result.OurTotal.Currency(),
		floatOf(result.DifferenceAmount.Amount()), result.DifferencePercent, string(result.Status), result.ComputedAt,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE result_id = $1`, r.deltaTable), result.ID.String()); err != nil {
		return err
	}

	insertDeltaQuery := fmt.Sprintf(`
INSERT INTO %s (result_id, ordinal, description, our_amount, hub_amount, delta)
VALUES ($1,$2,$3,$4,$5,$6)`, r.deltaTable)
	for i, d := range result.LineDeltas {
		if _, err := tx.ExecContext(ctx, insertDeltaQuery, result.ID.String(), i, d.Description,
			floatOf(d.OurAmount.Amount()), floatOf(d.HubAmount.Amount()), floatOf(d.Delta.Amount())); err != nil {
			return err
		}
	}

	return tx.Commit()
}
