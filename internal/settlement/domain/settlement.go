package settlement

import (
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// SettlementLine is one rated component of a Settlement's invoice total
// (spec.md §3.2, §4.3).
type SettlementLine struct {
	Source      primitives.SettlementLineSource
	PriceID     *primitives.ID
	Description string
	Quantity    primitives.EnergyQuantity
	UnitPrice   float64
	Amount      primitives.Money
}

// lineKey identifies a line for correction matching (spec.md §4.4: "keyed
// by (Source, PriceId)").
type lineKey struct {
	source  primitives.SettlementLineSource
	priceID primitives.ID
}

func keyOf(l SettlementLine) lineKey {
	var id primitives.ID
	if l.PriceID != nil {
		id = *l.PriceID
	}
	return lineKey{source: l.Source, priceID: id}
}

// Settlement is the invoiced amount for a metering point's supply over a
// period, computed from a specific time series version (spec.md §3.2).
type Settlement struct {
	ID                       primitives.ID
	MeteringPointID          primitives.ID
	SupplyID                 primitives.ID
	SettlementPeriod         primitives.Period
	TimeSeriesID             primitives.ID
	TimeSeriesVersion        int
	TotalEnergy              primitives.EnergyQuantity
	TotalAmount              primitives.Money
	Status                   primitives.SettlementStatus
	IsCorrection             bool
	PreviousSettlementID     *primitives.ID
	Lines                    []SettlementLine
	DocumentNumber           int
	CalculatedAt             time.Time
	InvoicedAt               *time.Time
	ExternalInvoiceReference *string
	MigratedHourlyJSON       *string
}

// New constructs a plain (non-correction) Settlement in status
// Calculated from its computed lines. TotalAmount is the sum of the
// already-rounded line amounts (spec.md §4.3 "Ordering and tie-breaks").
func New(meteringPointID, supplyID primitives.ID, period primitives.Period, timeSeriesID primitives.ID, timeSeriesVersion int, totalEnergy primitives.EnergyQuantity, lines []SettlementLine, currency string, calculatedAt time.Time) (*Settlement, error) {
	total, err := sumLines(lines, currency)
	if err != nil {
		return nil, err
	}
	return &Settlement{
		ID:                primitives.NewID(),
		MeteringPointID:   meteringPointID,
		SupplyID:          supplyID,
		SettlementPeriod:  period,
		TimeSeriesID:      timeSeriesID,
		TimeSeriesVersion: timeSeriesVersion,
		TotalEnergy:       totalEnergy,
		TotalAmount:       total,
		Status:            primitives.SettlementCalculated,
		Lines:             lines,
		CalculatedAt:      calculatedAt,
	}, nil
}

// CreateCorrection constructs a correction Settlement chained off a
// previously invoiced Settlement (spec.md §4.4 step 2).
func CreateCorrection(meteringPointID, supplyID primitives.ID, period primitives.Period, timeSeriesID primitives.ID, timeSeriesVersion int, deltaEnergy primitives.EnergyQuantity, previousSettlementID primitives.ID, lines []SettlementLine, currency string, calculatedAt time.Time) (*Settlement, error) {
	if previousSettlementID.EmptyID() {
		return nil, ErrCorrectionRequiresPrevious
	}
	total, err := sumLines(lines, currency)
	if err != nil {
		return nil, err
	}
	return &Settlement{
		ID:                   primitives.NewID(),
		MeteringPointID:      meteringPointID,
		SupplyID:             supplyID,
		SettlementPeriod:     period,
		TimeSeriesID:         timeSeriesID,
		TimeSeriesVersion:    timeSeriesVersion,
		TotalEnergy:          deltaEnergy,
		TotalAmount:          total,
		Status:               primitives.SettlementCalculated,
		IsCorrection:         true,
		PreviousSettlementID: &previousSettlementID,
		Lines:                lines,
		CalculatedAt:         calculatedAt,
	}, nil
}

func sumLines(lines []SettlementLine, currency string) (primitives.Money, error) {
	amounts := make([]primitives.Money, len(lines))
	for i, l := range lines {
		amounts[i] = l.Amount
	}
	return primitives.SumMoney(currency, amounts...)
}

// MarkInvoiced transitions Calculated -> Invoiced, the only forward step
// the scheduler takes once the validator has no open blocking issues
// (spec.md §4.5). Status progression is monotonic (spec.md §3.2).
func (s *Settlement) MarkInvoiced(documentNumber int, at time.Time, externalReference *string) error {
	if s.Status != primitives.SettlementCalculated {
		return ErrInvalidStatusTransition
	}
	s.Status = primitives.SettlementInvoiced
	s.DocumentNumber = documentNumber
	s.InvoicedAt = &at
	s.ExternalInvoiceReference = externalReference
	return nil
}

// MarkAdjusted transitions Invoiced -> Adjusted when a correction has
// been filed against this settlement.
func (s *Settlement) MarkAdjusted() error {
	if s.Status != primitives.SettlementInvoiced {
		return ErrInvalidStatusTransition
	}
	s.Status = primitives.SettlementAdjusted
	return nil
}

// DocumentID renders the invoice document identifier WO-YYYY-NNNNN
// (spec.md §6).
func (s *Settlement) DocumentID() string {
	return fmt.Sprintf("WO-%04d-%05d", s.CalculatedAt.Year(), s.DocumentNumber)
}

// LineByKey finds the line matching (Source, PriceID) among lines,
// mirroring the correction engine's matching rule (spec.md §4.4 step 3).
func LineByKey(lines []SettlementLine, source primitives.SettlementLineSource, priceID *primitives.ID) (SettlementLine, bool) {
	target := SettlementLine{Source: source, PriceID: priceID}
	wanted := keyOf(target)
	for _, l := range lines {
		if keyOf(l) == wanted {
			return l, true
		}
	}
	return SettlementLine{}, false
}
