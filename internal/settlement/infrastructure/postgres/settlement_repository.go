// Package postgres implements settlement.Repository and
// settlement.IssueRepository atop database/sql + pgx, grounded on the
// original internal/settlement/infrastructure/postgres/statement_repository.go
// (versioned-aggregate load/save, transactional item writes, sequence
// allocation) generalized to the Settlement/SettlementLine/SettlementIssue
// shapes.
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

const (
	defaultSettlementsTable     = "settlements"
	defaultSettlementLinesTable = "settlement_lines"
)

// SettlementRepository is a Postgres implementation of settlement.Repository.
type SettlementRepository struct {
	db         *sql.DB
	table      string
	linesTable string
}

// Option configures a SettlementRepository.
type Option func(*SettlementRepository)

// WithSettlementsTable overrides the settlements table name.
func WithSettlementsTable(table string) Option {
	return func(r *SettlementRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithSettlementLinesTable overrides the settlement_lines table name.
func WithSettlementLinesTable(table string) Option {
	return func(r *SettlementRepository) {
		if table != "" {
			r.linesTable = table
		}
	}
}

// NewSettlementRepository constructs a SettlementRepository.
func NewSettlementRepository(db *sql.DB, opts ...Option) *SettlementRepository {
	repo := &SettlementRepository{db: db, table: defaultSettlementsTable, linesTable: defaultSettlementLinesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// FindByMeteringPointAndPeriod enforces the uniqueness key
// (MeteringPointId, SettlementPeriod.Start, SettlementPeriod.End,
// IsCorrection) from spec.md §5.
func (r *SettlementRepository) FindByMeteringPointAndPeriod(ctx context.Context, meteringPointID primitives.ID, period primitives.Period, isCorrection bool) (*settlement.Settlement, error) {
	var periodEnd any
	if !period.IsOpenEnded() {
		periodEnd = period.End
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE metering_point_id = $1 AND settlement_period_start = $2 AND settlement_period_end IS NOT DISTINCT FROM $3 AND is_correction = $4
LIMIT 1`, settlementColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, meteringPointID.String(), period.Start, periodEnd, isCorrection)
	return r.scanOne(ctx, row)
}

func (r *SettlementRepository) FindByID(ctx context.Context, id primitives.ID) (*settlement.Settlement, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 LIMIT 1`, settlementColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, id.String())
	return r.scanOne(ctx, row)
}

const settlementColumns = `id, metering_point_id, supply_id, settlement_period_start, settlement_period_end,
	time_series_id, time_series_version, total_energy_kwh, total_amount, currency, status,
	is_correction, previous_settlement_id, document_number, calculated_at, invoiced_at,
	external_invoice_reference, migrated_hourly_json`

func (r *SettlementRepository) scanOne(ctx context.Context, row *sql.Row) (*settlement.Settlement, error) {
	var id, mpID, supplyID, tsID, currency, status string
	var periodStart time.Time
	var periodEnd sql.NullTime
	var tsVersion int
	var totalEnergy, totalAmount float64
	var isCorrection bool
	var previousSettlementID, externalRef, migratedJSON sql.NullString
	var documentNumber int
	var calculatedAt time.Time
	var invoicedAt sql.NullTime

	if err := row.Scan(&id, &mpID, &supplyID, &periodStart, &periodEnd, &tsID, &tsVersion, &totalEnergy, &totalAmount,
		&currency, &status, &isCorrection, &previousSettlementID, &documentNumber, &calculatedAt, &invoicedAt,
		&externalRef, &migratedJSON); err != nil {
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

	s := settlement.Settlement{
		ID:                id2(id),
		MeteringPointID:   id2(mpID),
		SupplyID:          id2(supplyID),
		SettlementPeriod:  period,
		TimeSeriesID:      id2(tsID),
		TimeSeriesVersion: tsVersion,
		TotalEnergy:       primitives.KWh(totalEnergy),
		TotalAmount:       primitives.NewMoney(decimalOf(totalAmount), currency),
		Status:            primitives.SettlementStatus(status),
		IsCorrection:      isCorrection,
		DocumentNumber:    documentNumber,
		CalculatedAt:      calculatedAt,
	}
	if previousSettlementID.Valid {
		pid := id2(previousSettlementID.String)
		s.PreviousSettlementID = &pid
	}
	if invoicedAt.Valid {
		t := invoicedAt.Time
		s.InvoicedAt = &t
	}
	if externalRef.Valid {
		ref := externalRef.String
		s.ExternalInvoiceReference = &ref
	}
	if migratedJSON.Valid {
		j := migratedJSON.String
		s.MigratedHourlyJSON = &j
	}

	lines, err := r.loadLines(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Lines = lines
	return &s, nil
}

func (r *SettlementRepository) loadLines(ctx context.Context, settlementID primitives.ID) ([]settlement.SettlementLine, error) {
	query := fmt.Sprintf(`SELECT source, price_id, description, quantity_kwh, unit_price, amount, currency FROM %s WHERE settlement_id = $1 ORDER BY ordinal ASC`, r.linesTable)
	rows, err := r.db.QueryContext(ctx, query, settlementID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []settlement.SettlementLine
	for rows.Next() {
		var source, description, currency string
		var priceID sql.NullString
		var quantity, unitPrice, amount float64
		if err := rows.Scan(&source, &priceID, &description, &quantity, &unitPrice, &amount, &currency); err != nil {
			return nil, err
		}
		line := settlement.SettlementLine{
			Source:      primitives.SettlementLineSource(source),
			Description: description,
			Quantity:    primitives.KWh(quantity),
			UnitPrice:   unitPrice,
			Amount:      primitives.NewMoney(decimalOf(amount), currency),
		}
		if priceID.Valid {
			pid := id2(priceID.String)
			line.PriceID = &pid
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// ListForGridAreaAndPeriod joins against metering_points to find every
// settlement for the grid area whose period matches exactly, for
// reconciliation against the hub's wholesale settlement (spec.md §4.8).
func (r *SettlementRepository) ListForGridAreaAndPeriod(ctx context.Context, gridArea string, period primitives.Period) ([]settlement.Settlement, error) {
	var periodEnd any
	if !period.IsOpenEnded() {
		periodEnd = period.End
	}
	query := fmt.Sprintf(`
SELECT s.id
FROM %s s
JOIN metering_points mp ON mp.id = s.metering_point_id
WHERE mp.grid_area = $1 AND s.settlement_period_start = $2 AND s.settlement_period_end IS NOT DISTINCT FROM $3
ORDER BY s.id ASC`, r.table)
	rows, err := r.db.QueryContext(ctx, query, gridArea, period.Start, periodEnd)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	settlements := make([]settlement.Settlement, 0, len(ids))
	for _, id := range ids {
		s, err := r.FindByID(ctx, id2(id))
		if err != nil {
			return nil, err
		}
		if s != nil {
			settlements = append(settlements, *s)
		}
	}
	return settlements, nil
}

const defaultTimeSeriesTable = "time_series"

// ListDueForSettlement joins the latest time series per metering point
// against any existing non-correction settlement for the same period,
// returning a work item when the period is closed and either no
// settlement exists yet or the series has been revised to a higher
// version (spec.md §5 "Settlement scheduler").
func (r *SettlementRepository) ListDueForSettlement(ctx context.Context, asOf time.Time, limit int) ([]settlement.DueWork, error) {
	query := fmt.Sprintf(`
SELECT ts.metering_point_id, ts.period_start, ts.period_end, ts.id, ts.version, s.id
FROM %s ts
LEFT JOIN %s s ON s.metering_point_id = ts.metering_point_id
	AND s.settlement_period_start = ts.period_start
	AND s.settlement_period_end IS NOT DISTINCT FROM ts.period_end
	AND s.is_correction = false
WHERE ts.is_latest = true AND ts.period_end IS NOT NULL AND ts.period_end <= $1
	AND (s.id IS NULL OR s.time_series_version < ts.version)
ORDER BY ts.metering_point_id ASC
LIMIT $2`, defaultTimeSeriesTable, r.table)

	rows, err := r.db.QueryContext(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []settlement.DueWork
	for rows.Next() {
		var mpID, tsID string
		var periodStart, periodEnd time.Time
		var tsVersion int
		var existingSettlementID sql.NullString
		if err := rows.Scan(&mpID, &periodStart, &periodEnd, &tsID, &tsVersion, &existingSettlementID); err != nil {
			return nil, err
		}
		period, err := primitives.NewPeriod(periodStart, periodEnd)
		if err != nil {
			return nil, err
		}
		work := settlement.DueWork{
			MeteringPointID:   id2(mpID),
			Period:            period,
			TimeSeriesID:      id2(tsID),
			TimeSeriesVersion: tsVersion,
		}
		if existingSettlementID.Valid {
			id := id2(existingSettlementID.String)
			work.ExistingSettlementID = &id
		}
		due = append(due, work)
	}
	return due, rows.Err()
}

// NextDocumentNumber allocates the next invoice document number from a
// Postgres sequence.
func (r *SettlementRepository) NextDocumentNumber(ctx context.Context) (int, error) {
	var next int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('settlement_document_number_seq')`).Scan(&next); err != nil {
		return 0, err
	}
	return int(next), nil
}

// Save upserts a settlement row and replaces its lines in a single
// transaction.
func (r *SettlementRepository) Save(ctx context.Context, s *settlement.Settlement) error {
	if s == nil {
		return errors.New("settlement repo: nil settlement")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var periodEnd any
	if !s.SettlementPeriod.IsOpenEnded() {
		periodEnd = s.SettlementPeriod.End
	}
	var previousSettlementID, externalRef, migratedJSON any
	if s.PreviousSettlementID != nil {
		previousSettlementID = s.PreviousSettlementID.String()
	}
	if s.ExternalInvoiceReference != nil {
		externalRef = *s.ExternalInvoiceReference
	}
	if s.MigratedHourlyJSON != nil {
		migratedJSON = *s.MigratedHourlyJSON
	}
	var invoicedAt any
	if s.InvoicedAt != nil {
		invoicedAt = *s.InvoicedAt
	}

	upsertQuery := fmt.Sprintf(`
INSERT INTO %s (id, metering_point_id, supply_id, settlement_period_start, settlement_period_end,
	time_series_id, time_series_version, total_energy_kwh, total_amount, currency, status,
	is_correction, previous_settlement_id, document_number, calculated_at, invoiced_at,
	external_invoice_reference, migrated_hourly_json)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	total_energy_kwh = EXCLUDED.total_energy_kwh,
	total_amount = EXCLUDED.total_amount,
	document_number = EXCLUDED.document_number,
	invoiced_at = EXCLUDED.invoiced_at,
	external_invoice_reference = EXCLUDED.external_invoice_reference,
	migrated_hourly_json = EXCLUDED.migrated_hourly_json`, r.table)

	if _, err := tx.ExecContext(ctx, upsertQuery,
		s.ID.String(), s.MeteringPointID.String(), s.SupplyID.String(), s.SettlementPeriod.Start, periodEnd,
		s.TimeSeriesID.String(), s.TimeSeriesVersion, s.TotalEnergy.Float64(), floatOf(s.TotalAmount.Amount()), s.TotalAmount.Currency(),
		string(s.Status), s.IsCorrection, previousSettlementID, s.DocumentNumber, s.CalculatedAt, invoicedAt,
		externalRef, migratedJSON,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE settlement_id = $1`, r.linesTable), s.ID.String()); err != nil {
		return err
	}

	insertLineQuery := fmt.Sprintf(`
INSERT INTO %s (settlement_id, ordinal, source, price_id, description, quantity_kwh, unit_price, amount, currency)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, r.linesTable)
	for i, line := range s.Lines {
		var priceID any
		if line.PriceID != nil {
			priceID = line.PriceID.String()
		}
		if _, err := tx.ExecContext(ctx, insertLineQuery, s.ID.String(), i, string(line.Source), priceID, line.Description,
			line.Quantity.Float64(), line.UnitPrice, floatOf(line.Amount.Amount()), line.Amount.Currency()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func id2(s string) primitives.ID { return primitives.ID(s) }
