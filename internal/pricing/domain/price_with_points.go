package pricing

import (
	"sort"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// PriceWithPoints is the temporal lookup helper over a Price's immutable,
// timestamp-sorted points (spec.md §4.1). An optional pointsCutoff freezes
// the rate to what was effective when a migrated settlement was originally
// billed: points at or after the cutoff are ignored.
type PriceWithPoints struct {
	price        Price
	points       []PricePoint
	pointsCutoff *time.Time
}

// NewPriceWithPoints constructs the lookup helper from a Price and an
// optional cutoff.
func NewPriceWithPoints(price Price, pointsCutoff *time.Time) PriceWithPoints {
	points := make([]PricePoint, 0, len(price.PricePoints))
	for _, pt := range price.PricePoints {
		if pointsCutoff != nil && !pt.Timestamp.Before(*pointsCutoff) {
			continue
		}
		points = append(points, pt)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Timestamp.Before(points[j].Timestamp) })
	return PriceWithPoints{price: price, points: points, pointsCutoff: pointsCutoff}
}

// Price returns the underlying Price metadata.
func (l PriceWithPoints) Price() Price { return l.price }

// GetPriceAt returns the effective rate at t, or (0, false) if none exists.
// Subscription prices always return the first point regardless of t;
// Tariff/Fee prices return the latest point with Timestamp <= t.
func (l PriceWithPoints) GetPriceAt(t time.Time) (float64, bool) {
	if len(l.points) == 0 {
		return 0, false
	}
	if l.price.Type == primitives.PriceTypeSubscription {
		return l.points[0].Price, true
	}
	t = t.UTC()
	idx := sort.Search(len(l.points), func(i int) bool {
		return l.points[i].Timestamp.After(t)
	})
	if idx == 0 {
		return 0, false
	}
	return l.points[idx-1].Price, true
}

// GetAveragePriceInHour averages the value of all points within
// [hourStart, hourStart+1h); falls back to GetPriceAt(hourStart) when none
// fall in that window.
func (l PriceWithPoints) GetAveragePriceInHour(hourStart time.Time) (float64, bool) {
	hourStart = hourStart.UTC()
	hourEnd := hourStart.Add(time.Hour)
	sum := 0.0
	count := 0
	for _, pt := range l.points {
		if !pt.Timestamp.Before(hourStart) && pt.Timestamp.Before(hourEnd) {
			sum += pt.Price
			count++
		}
	}
	if count == 0 {
		return l.GetPriceAt(hourStart)
	}
	return sum / float64(count), true
}
