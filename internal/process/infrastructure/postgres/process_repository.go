// Package postgres implements process.Repository atop database/sql +
// pgx, grounded on internal/commands/infrastructure/postgres
// CommandRepository (idempotency-key lookup, status-keyed row) and the
// transactional delete-then-reinsert pattern used across this module's
// other aggregate+child-rows repositories for the append-only
// transitions log.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/process/domain"
)

const (
	defaultProcessesTable   = "brs_processes"
	defaultTransitionsTable = "brs_process_transitions"
)

// Repository is a Postgres implementation of process.Repository.
type Repository struct {
	db               *sql.DB
	table            string
	transitionsTable string
}

// Option configures a Repository.
type Option func(*Repository)

// WithProcessesTable overrides the default table name.
func WithProcessesTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithTransitionsTable overrides the default transitions table name.
func WithTransitionsTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.transitionsTable = table
		}
	}
}

// NewRepository constructs a Repository.
func NewRepository(db *sql.DB, opts ...Option) *Repository {
	repo := &Repository{db: db, table: defaultProcessesTable, transitionsTable: defaultTransitionsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const processColumns = `id, brs_code, role, metering_point_id, idempotency_key, state, transaction_id, effective_date, reason, created_at`

func (r *Repository) FindByID(ctx context.Context, id primitives.ID) (*process.BrsProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 LIMIT 1`, processColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, id.String())
	return r.scanOne(ctx, row)
}

func (r *Repository) FindByIdempotencyKey(ctx context.Context, code process.BrsCode, idempotencyKey string) (*process.BrsProcess, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE brs_code = $1 AND idempotency_key = $2 LIMIT 1`, processColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, string(code), idempotencyKey)
	return r.scanOne(ctx, row)
}

func (r *Repository) scanOne(ctx context.Context, row *sql.Row) (*process.BrsProcess, error) {
	var id, brsCode, role, meteringPointID, idempotencyKey, state, reason string
	var transactionID sql.NullString
	var effectiveDate sql.NullTime
	var createdAt time.Time

	if err := row.Scan(&id, &brsCode, &role, &meteringPointID, &idempotencyKey, &state, &transactionID, &effectiveDate, &reason, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	p := process.BrsProcess{
		ID:              primitives.ID(id),
		BrsCode:         process.BrsCode(brsCode),
		Role:            process.Role(role),
		MeteringPointID: primitives.ID(meteringPointID),
		IdempotencyKey:  idempotencyKey,
		State:           process.State(state),
		Reason:          reason,
		CreatedAt:       createdAt,
	}
	if transactionID.Valid {
		p.TransactionID = &transactionID.String
	}
	if effectiveDate.Valid {
		p.EffectiveDate = &effectiveDate.Time
	}

	transitions, err := r.loadTransitions(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Transitions = transitions
	return &p, nil
}

func (r *Repository) loadTransitions(ctx context.Context, processID primitives.ID) ([]process.ProcessTransition, error) {
	query := fmt.Sprintf(`SELECT from_state, to_state, reason, occurred_at FROM %s WHERE process_id = $1 ORDER BY ordinal ASC`, r.transitionsTable)
	rows, err := r.db.QueryContext(ctx, query, processID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []process.ProcessTransition
	for rows.Next() {
		var fromState, toState, reason string
		var occurredAt time.Time
		if err := rows.Scan(&fromState, &toState, &reason, &occurredAt); err != nil {
			return nil, err
		}
		transitions = append(transitions, process.ProcessTransition{
			FromState:  process.State(fromState),
			ToState:    process.State(toState),
			Reason:     reason,
			OccurredAt: occurredAt,
		})
	}
	return transitions, rows.Err()
}

// Save upserts a process row and replaces its transition log in a single
// transaction (the log is append-only in-memory; the repository
// re-persists the full slice, matching the rest of this module's
// aggregate+child-rows save pattern).
func (r *Repository) Save(ctx context.Context, p *process.BrsProcess) error {
	if p == nil {
		return errors.New("process repo: nil process")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var effectiveDate any
	if p.EffectiveDate != nil {
		effectiveDate = *p.EffectiveDate
	}
	var transactionID any
	if p.TransactionID != nil {
		transactionID = *p.TransactionID
	}

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (id, brs_code, role, metering_point_id, idempotency_key, state, transaction_id, effective_date, reason, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE SET
	state = EXCLUDED.state,
	transaction_id = EXCLUDED.transaction_id,
	effective_date = EXCLUDED.effective_date,
	reason = EXCLUDED.reason`, r.table)

	if _, err := tx.ExecContext(ctx, upsertQuery,
		p.ID.String(), string(p.BrsCode), string(p.Role), p.MeteringPointID.String(), p.IdempotencyKey,
		string(p.State), transactionID, effectiveDate, p.Reason, p.CreatedAt,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE process_id = $1`, r.transitionsTable), p.ID.String()); err != nil {
		return err
	}

	insertTransitionQuery := fmt.Sprintf(`
INSERT INTO %s (process_id, ordinal, from_state, to_state, reason, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6)`, r.transitionsTable)
	for i, t := range p.Transitions {
		if _, err := tx.ExecContext(ctx, insertTransitionQuery, p.ID.String(), i, string(t.FromState), string(t.ToState), t.Reason, t.OccurredAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}
