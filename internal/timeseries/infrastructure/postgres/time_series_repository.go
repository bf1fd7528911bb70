// Package postgres implements timeseries.Repository atop database/sql +
// pgx, grounded on
// internal/analytics/infrastructure/postgres/statistic_repository.go
// (period-keyed aggregate load/save shape) and
// internal/refdata/infrastructure/postgres's functional-options
// constructor pattern.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/timeseries/domain"
)

const defaultSeriesTable = "time_series"
const defaultObservationsTable = "observations"

// Repository is a Postgres implementation of timeseries.Repository.
type Repository struct {
	db              *sql.DB
	seriesTable     string
	observationsTable string
}

// Option configures a Repository.
type Option func(*Repository)

// WithSeriesTable overrides the time_series table name.
func WithSeriesTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.seriesTable = table
		}
	}
}

// WithObservationsTable overrides the observations table name.
func WithObservationsTable(table string) Option {
	return func(r *Repository) {
		if table != "" {
			r.observationsTable = table
		}
	}
}

// NewRepository constructs a Repository.
func NewRepository(db *sql.DB, opts ...Option) *Repository {
	repo := &Repository{db: db, seriesTable: defaultSeriesTable, observationsTable: defaultObservationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

func (r *Repository) FindLatest(ctx context.Context, meteringPointID primitives.ID, period primitives.Period) (*timeseries.TimeSeries, error) {
	query := fmt.Sprintf(`
SELECT id, metering_point_id, period_start, period_end, resolution, version, is_latest, transaction_id, received_at
FROM %s
WHERE metering_point_id = $1 AND period_start = $2 AND is_latest = true
LIMIT 1`, r.seriesTable)
	row := r.db.QueryRowContext(ctx, query, meteringPointID.String(), period.Start)
	return r.scanOne(ctx, row)
}

func (r *Repository) FindByID(ctx context.Context, id primitives.ID) (*timeseries.TimeSeries, error) {
	query := fmt.Sprintf(`
SELECT id, metering_point_id, period_start, period_end, resolution, version, is_latest, transaction_id, received_at
FROM %s
WHERE id = $1
LIMIT 1`, r.seriesTable)
	row := r.db.QueryRowContext(ctx, query, id.String())
	return r.scanOne(ctx, row)
}

func (r *Repository) scanOne(ctx context.Context, row *sql.Row) (*timeseries.TimeSeries, error) {
	var id, mpID, resolution string
	var periodStart time.Time
	var periodEnd sql.NullTime
	var version int
	var isLatest bool
	var transactionID sql.NullString
	var receivedAt time.Time
	if err := row.Scan(&id, &mpID, &periodStart, &periodEnd, &resolution, &version, &isLatest, &transactionID, &receivedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
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

	series := timeseries.TimeSeries{
		ID:              primitives.ID(id),
		MeteringPointID: primitives.ID(mpID),
		Period:          period,
		Resolution:      primitives.Resolution(resolution),
		Version:         version,
		IsLatest:        isLatest,
		ReceivedAt:      receivedAt,
	}
	if transactionID.Valid {
		tid := transactionID.String
		series.TransactionID = &tid
	}

	observations, err := r.loadObservations(ctx, series.ID)
	if err != nil {
		return nil, err
	}
	series.Observations = observations
	return &series, nil
}

func (r *Repository) loadObservations(ctx context.Context, seriesID primitives.ID) ([]timeseries.Observation, error) {
	query := fmt.Sprintf(`SELECT time_series_id, ts, quantity_kwh, quality FROM %s WHERE time_series_id = $1 ORDER BY ts ASC`, r.observationsTable)
	rows, err := r.db.QueryContext(ctx, query, seriesID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var observations []timeseries.Observation
	for rows.Next() {
		var tsID, quality string
		var ts time.Time
		var quantity float64
		if err := rows.Scan(&tsID, &ts, &quantity, &quality); err != nil {
			return nil, err
		}
		observations = append(observations, timeseries.Observation{
			TimeSeriesID: primitives.ID(tsID),
			Timestamp:    ts,
			Quantity:     primitives.KWh(quantity),
			Quality:      primitives.QuantityQuality(quality),
		})
	}
	return observations, rows.Err()
}

// Save upserts the series row and replaces its observations.
func (r *Repository) Save(ctx context.Context, series *timeseries.TimeSeries) error {
	if series == nil {
		return errors.New("timeseries repo: nil series")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var periodEnd any
	if !series.Period.IsOpenEnded() {
		periodEnd = series.Period.End
	}
	var transactionID any
	if series.TransactionID != nil {
		transactionID = *series.TransactionID
	}

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (id, metering_point_id, period_start, period_end, resolution, version, is_latest, transaction_id, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET is_latest = EXCLUDED.is_latest, version = EXCLUDED.version`, r.seriesTable)
	if _, err := tx.ExecContext(ctx, upsertQuery,
		series.ID.String(), series.MeteringPointID.String(), series.Period.Start, periodEnd,
		string(series.Resolution), series.Version, series.IsLatest, transactionID, series.ReceivedAt,
	); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE time_series_id = $1`, r.observationsTable)
	if _, err := tx.ExecContext(ctx, deleteQuery, series.ID.String()); err != nil {
		return err
	}

	insertQuery := fmt.Sprintf(`INSERT INTO %s (time_series_id, ts, quantity_kwh, quality) VALUES ($1, $2, $3, $4)`, r.observationsTable)
	for _, obs := range series.Observations {
		if _, err := tx.ExecContext(ctx, insertQuery, series.ID.String(), obs.Timestamp, obs.Quantity.Float64(), string(obs.Quality)); err != nil {
			return err
		}
	}

	return tx.Commit()
}
