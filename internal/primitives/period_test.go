package primitives

import (
	"testing"
	"time"
)

func TestNewPeriod_EndBeforeStart(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)
	if _, err := NewPeriod(start, end); err != ErrInvalidPeriod {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestPeriod_Contains_HalfOpen(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	p, err := NewPeriod(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Contains(start) {
		t.Fatalf("expected Contains(start) = true")
	}
	if p.Contains(end) {
		t.Fatalf("expected Contains(end) = false (half-open)")
	}
	if !p.Contains(end.Add(-time.Nanosecond)) {
		t.Fatalf("expected Contains(end-1ns) = true")
	}
}

func TestPeriod_Overlaps_Symmetric(t *testing.T) {
	a, _ := NewPeriod(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	b, _ := NewPeriod(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if a.Overlaps(b) != b.Overlaps(a) {
		t.Fatalf("overlap should be symmetric")
	}
	if !a.Overlaps(b) {
		t.Fatalf("expected overlap")
	}
	c := OpenEndedPeriod(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	if a.Overlaps(c) {
		t.Fatalf("expected no overlap with period starting exactly at a's end")
	}
}

func TestPeriod_Days_OpenEndedFallsBackTo30(t *testing.T) {
	p := OpenEndedPeriod(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if p.Days() != 30 {
		t.Fatalf("expected fallback of 30 days, got %d", p.Days())
	}
}
