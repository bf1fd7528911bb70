// Package timeseries stores versioned observation streams per metering
// point and period, and supersedes old versions on revision (spec.md
// §4.2). Grounded on internal/telemetry/domain.Measurement
// (raw point storage shape) and
// internal/analytics/domain/statistic.DailyRollupService (completion /
// supersession bookkeeping style, sentinel-error package).
package timeseries

import "errors"

var (
	ErrInvalidVersion       = errors.New("timeseries: version must be >= 1")
	ErrDuplicateObservation = errors.New("timeseries: duplicate observation timestamp")
	ErrTimestampOutOfPeriod = errors.New("timeseries: observation timestamp outside series period")
	ErrMisalignedTimestamp  = errors.New("timeseries: observation timestamp not aligned to resolution")
	ErrAlreadySuperseded    = errors.New("timeseries: series already superseded")
	ErrSeriesNotFound       = errors.New("timeseries: series not found")
	ErrEmptyTimeSeries      = errors.New("timeseries: no observations")
)
