package timeseries

import (
	"sort"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Observation is a single dated, quality-flagged reading within a
// TimeSeries (spec.md §3.2).
type Observation struct {
	TimeSeriesID primitives.ID
	Timestamp    time.Time
	Quantity     primitives.EnergyQuantity
	Quality      primitives.QuantityQuality
}

// TimeSeries is a versioned observation stream for a metering point over
// a period. At most one series per (MeteringPointID, Period) may have
// IsLatest = true (spec.md §4.2).
type TimeSeries struct {
	ID              primitives.ID
	MeteringPointID primitives.ID
	Period          primitives.Period
	Resolution      primitives.Resolution
	Version         int
	IsLatest        bool
	TransactionID   *string
	ReceivedAt      time.Time
	Observations    []Observation
}

// Create constructs a new, latest TimeSeries with no observations.
// Version must be >= 1 (spec.md §4.2).
func Create(meteringPointID primitives.ID, period primitives.Period, resolution primitives.Resolution, version int, transactionID *string, receivedAt time.Time) (TimeSeries, error) {
	if version < 1 {
		return TimeSeries{}, ErrInvalidVersion
	}
	return TimeSeries{
		ID:              primitives.NewID(),
		MeteringPointID: meteringPointID,
		Period:          period,
		Resolution:      resolution,
		Version:         version,
		IsLatest:        true,
		TransactionID:   transactionID,
		ReceivedAt:      receivedAt,
	}, nil
}

// AddObservation appends a reading, rejecting a duplicate timestamp or
// one outside the series' period or not aligned to its resolution
// bucket start (spec.md §4.2).
func (ts *TimeSeries) AddObservation(timestamp time.Time, qty primitives.EnergyQuantity, quality primitives.QuantityQuality) error {
	timestamp = timestamp.UTC()
	if !ts.Period.Contains(timestamp) {
		return ErrTimestampOutOfPeriod
	}
	if !alignedToResolution(timestamp, ts.Resolution) {
		return ErrMisalignedTimestamp
	}
	for _, existing := range ts.Observations {
		if existing.Timestamp.Equal(timestamp) {
			return ErrDuplicateObservation
		}
	}
	ts.Observations = append(ts.Observations, Observation{
		TimeSeriesID: ts.ID,
		Timestamp:    timestamp,
		Quantity:     qty,
		Quality:      quality,
	})
	sort.Slice(ts.Observations, func(i, j int) bool {
		return ts.Observations[i].Timestamp.Before(ts.Observations[j].Timestamp)
	})
	return nil
}

// Supersede marks the series as no longer latest. Irreversible.
func (ts *TimeSeries) Supersede() error {
	if !ts.IsLatest {
		return ErrAlreadySuperseded
	}
	ts.IsLatest = false
	return nil
}

func alignedToResolution(t time.Time, resolution primitives.Resolution) bool {
	switch resolution {
	case primitives.ResolutionPT1H:
		return t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	case primitives.ResolutionPT15M:
		return t.Minute()%15 == 0 && t.Second() == 0 && t.Nanosecond() == 0
	case primitives.ResolutionP1D:
		return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	case primitives.ResolutionP1M:
		return t.Day() == 1 && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
	default:
		return true
	}
}

// AggregateHourly truncates observation timestamps down to hour
// boundaries and sums energy per bucket, the one aggregation rule
// settlement is allowed to apply when reconciling sub-hourly data
// against an hourly series (spec.md §4.2).
func AggregateHourly(observations []Observation) []Observation {
	type bucket struct {
		ts  time.Time
		sum primitives.EnergyQuantity
	}
	order := make([]time.Time, 0)
	byHour := make(map[time.Time]*bucket)
	for _, obs := range observations {
		hour := obs.Timestamp.Truncate(time.Hour)
		b, ok := byHour[hour]
		if !ok {
			b = &bucket{ts: hour, sum: primitives.ZeroEnergy()}
			byHour[hour] = b
			order = append(order, hour)
		}
		b.sum = b.sum.Add(obs.Quantity)
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })
	result := make([]Observation, 0, len(order))
	for _, hour := range order {
		b := byHour[hour]
		result = append(result, Observation{Timestamp: b.ts, Quantity: b.sum, Quality: primitives.QualityCalculated})
	}
	return result
}
