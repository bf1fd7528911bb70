package settlement

import (
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// IssueType enumerates the validator/calculator-raised blocker kinds
// (spec.md §4.3, §4.5).
type IssueType string

const (
	IssueMissingCategory    IssueType = "MissingPriceCategory"
	IssueMissingPricePoint  IssueType = "MissingPricePoint"
	IssueMissingSpotPrices  IssueType = "MissingSpotPrices"
)

// SettlementIssue records a blocking or informational problem found for
// a metering point's settlement period (spec.md §3.2). At most one Open
// issue may exist per (MeteringPointID, Period, IssueType).
type SettlementIssue struct {
	ID                primitives.ID
	MeteringPointID   primitives.ID
	Period            primitives.Period
	TimeSeriesID       primitives.ID
	TimeSeriesVersion  int
	IssueType         IssueType
	Message           string
	Details           string
	Status            primitives.SettlementIssueStatus
	OpenedAt          time.Time
}

// OpenIssue constructs a new issue in status Open.
func OpenIssue(meteringPointID primitives.ID, period primitives.Period, timeSeriesID primitives.ID, timeSeriesVersion int, issueType IssueType, message, details string, openedAt time.Time) SettlementIssue {
	return SettlementIssue{
		ID:                primitives.NewID(),
		MeteringPointID:   meteringPointID,
		Period:            period,
		TimeSeriesID:      timeSeriesID,
		TimeSeriesVersion: timeSeriesVersion,
		IssueType:         issueType,
		Message:           message,
		Details:           details,
		Status:            primitives.IssueOpen,
		OpenedAt:          openedAt,
	}
}

// Resolve transitions an Open issue to Resolved.
func (i *SettlementIssue) Resolve() error {
	if i.Status != primitives.IssueOpen {
		return ErrIssueNotOpen
	}
	i.Status = primitives.IssueResolved
	return nil
}

// Dismiss transitions an Open issue to Dismissed.
func (i *SettlementIssue) Dismiss() error {
	if i.Status != primitives.IssueOpen {
		return ErrIssueNotOpen
	}
	i.Status = primitives.IssueDismissed
	return nil
}
