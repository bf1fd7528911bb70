package primitives

import "time"

// copenhagen is loaded once for display-only civil-time grouping
// (spec.md §3.1: "Danish civil time is used only for display grouping").
var copenhagen *time.Location

func init() {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		loc = time.UTC
	}
	copenhagen = loc
}

// Period is a half-open time range [Start, End). End is optional: a zero
// End means open-ended.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod validates and constructs a closed or open-ended Period. A zero
// end is treated as open-ended; otherwise End must be strictly after Start.
func NewPeriod(start, end time.Time) (Period, error) {
	if start.IsZero() {
		return Period{}, ErrInvalidPeriod
	}
	start = start.UTC()
	if end.IsZero() {
		return Period{Start: start}, nil
	}
	end = end.UTC()
	if !end.After(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// OpenEndedPeriod constructs a Period with no end.
func OpenEndedPeriod(start time.Time) Period {
	return Period{Start: start.UTC()}
}

// IsOpenEnded reports whether the period has no end.
func (p Period) IsOpenEnded() bool { return p.End.IsZero() }

// Contains reports half-open membership: Start <= t < End, or Start <= t
// when open-ended.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	if t.Before(p.Start) {
		return false
	}
	if p.IsOpenEnded() {
		return true
	}
	return t.Before(p.End)
}

// Overlaps reports whether two periods share any instant. Symmetric.
func (p Period) Overlaps(other Period) bool {
	return p.Start.Before(other.effectiveEnd()) && other.Start.Before(p.effectiveEnd())
}

func (p Period) effectiveEnd() time.Time {
	if p.IsOpenEnded() {
		return maxTime
	}
	return p.End
}

var maxTime = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

// ClosedAt returns a new Period with End set to t, closing an open-ended
// period (e.g. ending a Supply at an effective date).
func (p Period) ClosedAt(t time.Time) (Period, error) {
	return NewPeriod(p.Start, t)
}

// Duration returns End-Start. For an open-ended period the result is
// undefined (zero) since there is no fixed duration.
func (p Period) Duration() time.Duration {
	if p.IsOpenEnded() {
		return 0
	}
	return p.End.Sub(p.Start)
}

// Days returns the whole number of days spanned by a closed period. Per
// spec.md §4.3, open-ended periods fall back to 30.
func (p Period) Days() int {
	if p.IsOpenEnded() {
		return 30
	}
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// InCopenhagen projects t into Europe/Copenhagen civil time for display
// grouping only; never used for storage or comparison.
func InCopenhagen(t time.Time) time.Time {
	return t.In(copenhagen)
}
