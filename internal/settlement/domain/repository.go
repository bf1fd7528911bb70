package settlement

import (
	"context"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Repository persists Settlement aggregates.
type Repository interface {
	// FindByMeteringPointAndPeriod returns the current (non-superseded by
	// a later correction chain head) Settlement for a (meteringPointID,
	// period, isCorrection) triple, or nil if none exists. Enforces the
	// uniqueness key from spec.md §5 "Locking discipline".
	FindByMeteringPointAndPeriod(ctx context.Context, meteringPointID primitives.ID, period primitives.Period, isCorrection bool) (*Settlement, error)
	FindByID(ctx context.Context, id primitives.ID) (*Settlement, error)
	// NextDocumentNumber allocates the next invoice document number.
	NextDocumentNumber(ctx context.Context) (int, error)
	Save(ctx context.Context, s *Settlement) error
	// ListForGridAreaAndPeriod returns every Settlement (joined through its
	// metering point's grid area) covering the given period, used by
	// reconciliation to aggregate our side of the comparison (spec.md §4.8).
	ListForGridAreaAndPeriod(ctx context.Context, gridArea string, period primitives.Period) ([]Settlement, error)
	// ListDueForSettlement finds the settlement scheduler's work items
	// (spec.md §5 "Settlement scheduler"): metering points whose latest
	// time series covers a completed period for which no non-correction
	// Settlement exists yet, or whose latest series version is ahead of
	// the one the existing settlement was calculated from (a correction
	// is due). Ordered for stable, serialised-per-metering-point pickup.
	ListDueForSettlement(ctx context.Context, asOf time.Time, limit int) ([]DueWork, error)
}

// DueWork is one settlement-scheduler work item: a metering point whose
// latest time series needs a Settlement calculated or recalculated.
type DueWork struct {
	MeteringPointID   primitives.ID
	Period            primitives.Period
	TimeSeriesID      primitives.ID
	TimeSeriesVersion int
	// ExistingSettlementID is set when a prior, lower-version Settlement
	// exists for this (meteringPointId, period) — the new one must be
	// filed as a correction against it.
	ExistingSettlementID *primitives.ID
}

// IssueRepository persists SettlementIssue records.
type IssueRepository interface {
	FindOpen(ctx context.Context, meteringPointID primitives.ID, period primitives.Period, issueType IssueType) (*SettlementIssue, error)
	ListOpenForPeriod(ctx context.Context, meteringPointID primitives.ID, period primitives.Period) ([]SettlementIssue, error)
	Save(ctx context.Context, issue *SettlementIssue) error
}
