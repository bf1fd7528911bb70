package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

const defaultSettlementIssuesTable = "settlement_issues"

// IssueRepository is a Postgres implementation of settlement.IssueRepository.
type IssueRepository struct {
	db    *sql.DB
	table string
}

// IssueOption configures an IssueRepository.
type IssueOption func(*IssueRepository)

// WithSettlementIssuesTable overrides the default table name.
func WithSettlementIssuesTable(table string) IssueOption {
	return func(r *IssueRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewIssueRepository constructs an IssueRepository.
func NewIssueRepository(db *sql.DB, opts ...IssueOption) *IssueRepository {
	repo := &IssueRepository{db: db, table: defaultSettlementIssuesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *IssueRepository) FindOpen(ctx context.Context, meteringPointID primitives.ID, period primitives.Period, issueType settlement.IssueType) (*settlement.SettlementIssue, error) {
	query := fmt.Sprintf(`
SELECT id, metering_point_id, period_start, period_end, time_series_id, time_series_version, issue_type, message, details, status, opened_at
FROM %s
WHERE metering_point_id = $1 AND period_start = $2 AND issue_type = $3 AND status = $4
LIMIT 1`, r.table)
	row := r.db.QueryRowContext(ctx, query, meteringPointID.String(), period.Start, string(issueType), string(primitives.IssueOpen))
	return r.scanOne(row)
}

func (r *IssueRepository) ListOpenForPeriod(ctx context.Context, meteringPointID primitives.ID, period primitives.Period) ([]settlement.SettlementIssue, error) {
	query := fmt.Sprintf(`
SELECT id, metering_point_id, period_start, period_end, time_series_id, time_series_version, issue_type, message, details, status, opened_at
FROM %s
WHERE metering_point_id = $1 AND period_start = $2 AND status = $3
ORDER BY opened_at ASC`, r.table)
	rows, err := r.db.QueryContext(ctx, query, meteringPointID.String(), period.Start, string(primitives.IssueOpen))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []settlement.SettlementIssue
	for rows.Next() {
		issue, err := scanIssueRow(rows)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return issues, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *IssueRepository) scanOne(row *sql.Row) (*settlement.SettlementIssue, error) {
	issue, err := scanIssueRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return issue, nil
}

func scanIssueRow(row rowScanner) (*settlement.SettlementIssue, error) {
	var id, mpID, tsID, issueType, message, details, status string
	var periodStart time.Time
	var periodEnd sql.NullTime
	var tsVersion int
	var openedAt time.Time
	if err := row.Scan(&id, &mpID, &periodStart, &periodEnd, &tsID, &tsVersion, &issueType, &message, &details, &status, &openedAt); err != nil {
		return nil, err
	}

	var period primitives.Period
	var err error
	if periodEnd.Valid {
		period, err = primitives.NewPeriod(periodStart, periodEnd.Time)
	} else {
		period = primitives.OpenEndedPeriod(periodStart)
	}
	if err != nil {
		return nil, err
	}

	return &settlement.SettlementIssue{
		ID:                id2(id),
		MeteringPointID:   id2(mpID),
		Period:            period,
		TimeSeriesID:      id2(tsID),
		TimeSeriesVersion: tsVersion,
		IssueType:         settlement.IssueType(issueType),
		Message:           message,
		Details:           details,
		Status:            primitives.SettlementIssueStatus(status),
		OpenedAt:          openedAt,
	}, nil
}

// Save upserts a settlement issue, keyed by its unique id.
func (r *IssueRepository) Save(ctx context.Context, issue *settlement.SettlementIssue) error {
	if issue == nil {
		return errors.New("settlement issue repo: nil issue")
	}
	var periodEnd any
	if !issue.Period.IsOpenEnded() {
		periodEnd = issue.Period.End
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, metering_point_id, period_start, period_end, time_series_id, time_series_version, issue_type, message, details, status, opened_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		issue.ID.String(), issue.MeteringPointID.String(), issue.Period.Start, periodEnd,
		issue.TimeSeriesID.String(), issue.TimeSeriesVersion, string(issue.IssueType), issue.Message, issue.Details,
		string(issue.Status), issue.OpenedAt,
	)
	return err
}
