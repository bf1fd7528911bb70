package timeseries

import (
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

func newHourlySeries(t *testing.T, start time.Time) TimeSeries {
	t.Helper()
	period, err := primitives.NewPeriod(start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series, err := Create(primitives.NewID(), period, primitives.ResolutionPT1H, 1, nil, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return series
}

func TestAddObservation_RejectsDuplicateTimestamp(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := newHourlySeries(t, start)
	if err := series.AddObservation(start, primitives.KWh(1), primitives.QualityMeasured); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := series.AddObservation(start, primitives.KWh(2), primitives.QualityMeasured); err != ErrDuplicateObservation {
		t.Fatalf("expected ErrDuplicateObservation, got %v", err)
	}
}

func TestAddObservation_RejectsOutsidePeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := newHourlySeries(t, start)
	if err := series.AddObservation(start.Add(-time.Hour), primitives.KWh(1), primitives.QualityMeasured); err != ErrTimestampOutOfPeriod {
		t.Fatalf("expected ErrTimestampOutOfPeriod, got %v", err)
	}
}

func TestAddObservation_RejectsMisalignedTimestamp(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := newHourlySeries(t, start)
	if err := series.AddObservation(start.Add(30*time.Minute), primitives.KWh(1), primitives.QualityMeasured); err != ErrMisalignedTimestamp {
		t.Fatalf("expected ErrMisalignedTimestamp, got %v", err)
	}
}

func TestSupersede_Irreversible(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := newHourlySeries(t, start)
	if err := series.Supersede(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.IsLatest {
		t.Fatalf("expected IsLatest = false after supersede")
	}
	if err := series.Supersede(); err != ErrAlreadySuperseded {
		t.Fatalf("expected ErrAlreadySuperseded, got %v", err)
	}
}

func TestAggregateHourly_TruncatesAndSums(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	observations := []Observation{
		{Timestamp: start, Quantity: primitives.KWh(0.1), Quality: primitives.QualityMeasured},
		{Timestamp: start.Add(15 * time.Minute), Quantity: primitives.KWh(0.2), Quality: primitives.QualityMeasured},
		{Timestamp: start.Add(30 * time.Minute), Quantity: primitives.KWh(0.3), Quality: primitives.QualityMeasured},
		{Timestamp: start.Add(45 * time.Minute), Quantity: primitives.KWh(0.4), Quality: primitives.QualityMeasured},
		{Timestamp: start.Add(time.Hour), Quantity: primitives.KWh(0.5), Quality: primitives.QualityMeasured},
	}
	buckets := AggregateHourly(observations)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 hourly buckets, got %d", len(buckets))
	}
	if buckets[0].Quantity.String() != "1.000" {
		t.Fatalf("expected first bucket sum 1.000, got %s", buckets[0].Quantity.String())
	}
	if buckets[1].Quantity.String() != "0.500" {
		t.Fatalf("expected second bucket sum 0.500, got %s", buckets[1].Quantity.String())
	}
}
