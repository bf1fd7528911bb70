// Package settlement is the core of the system: it computes invoiced
// amounts from a metering point's time series and regulated/spot/margin
// prices, and re-derives deltas when a time series is revised (spec.md
// §4.3-§4.5). Grounded on
// internal/settlement/{domain,application,infrastructure/postgres}
// (read for its versioned-aggregate, status-lifecycle, snapshot/freeze
// style) and
// internal/analytics/domain/statistic.DailyRollupService (completion
// bookkeeping, sentinel errors, Clock injection) for the application
// service shape.
package settlement

import "errors"

var (
	ErrEmptyTimeSeries       = errors.New("settlement: time series has no observations")
	ErrInvalidSettlementPeriod = errors.New("settlement: invalid settlement period")
	ErrNotFound              = errors.New("settlement: not found")
	ErrInvalidStatusTransition = errors.New("settlement: invalid status transition")
	ErrCorrectionRequiresPrevious = errors.New("settlement: correction requires previousSettlementId")
	ErrAlreadyExists         = errors.New("settlement: settlement already exists for this (metering point, period)")
	ErrIssueNotOpen          = errors.New("settlement: issue is not open")
	ErrNoActiveSupply        = errors.New("settlement: no active supply for metering point at period start")
)
