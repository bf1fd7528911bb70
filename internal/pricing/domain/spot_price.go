package pricing

import "time"

// PriceArea is a Nordpool spot-price bidding area.
type PriceArea string

const (
	AreaDK1 PriceArea = "DK1"
	AreaDK2 PriceArea = "DK2"
)

// SpotPrice is the Nordpool day-ahead hourly price for an area (spec.md
// §3.2).
type SpotPrice struct {
	PriceArea     PriceArea
	Timestamp     time.Time
	PriceDkkPerKwh float64
}

type spotKey struct {
	area PriceArea
	ts   int64
}

// UpsertSpotPrices applies a pure upsert over an existing slice: for each
// incoming point, replace the value of an existing (area, timestamp) entry
// or append a new one. Returns the resulting slice plus inserted/updated
// counts. Idempotent: applying the same input twice yields
// (inserted: n, updated: 0) then (inserted: 0, updated: n) with the same
// final state (spec.md §4.1, §8).
func UpsertSpotPrices(existing []SpotPrice, incoming []SpotPrice) ([]SpotPrice, int, int) {
	index := make(map[spotKey]int, len(existing))
	result := make([]SpotPrice, len(existing))
	copy(result, existing)
	for i, sp := range result {
		index[spotKey{sp.PriceArea, sp.Timestamp.UTC().UnixNano()}] = i
	}

	inserted, updated := 0, 0
	for _, sp := range incoming {
		sp.Timestamp = sp.Timestamp.UTC()
		key := spotKey{sp.PriceArea, sp.Timestamp.UnixNano()}
		if idx, ok := index[key]; ok {
			if result[idx].PriceDkkPerKwh != sp.PriceDkkPerKwh {
				result[idx].PriceDkkPerKwh = sp.PriceDkkPerKwh
			}
			updated++
			continue
		}
		index[key] = len(result)
		result = append(result, sp)
		inserted++
	}
	return result, inserted, updated
}
