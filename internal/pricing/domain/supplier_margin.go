package pricing

import (
	"sort"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// SupplierMargin is the retailer's own per-kWh markup for a product,
// step-function over time (spec.md §3.2).
type SupplierMargin struct {
	SupplierProductID primitives.ID
	ValidFrom          time.Time
	PriceDkkPerKwh     float64
}

type marginKey struct {
	productID primitives.ID
	validFrom int64
}

// UpsertSupplierMargins mirrors UpsertSpotPrices' pure-upsert semantics,
// keyed by (SupplierProductID, ValidFrom).
func UpsertSupplierMargins(existing []SupplierMargin, incoming []SupplierMargin) ([]SupplierMargin, int, int) {
	index := make(map[marginKey]int, len(existing))
	result := make([]SupplierMargin, len(existing))
	copy(result, existing)
	for i, m := range result {
		index[marginKey{m.SupplierProductID, m.ValidFrom.UTC().UnixNano()}] = i
	}

	inserted, updated := 0, 0
	for _, m := range incoming {
		m.ValidFrom = m.ValidFrom.UTC()
		key := marginKey{m.SupplierProductID, m.ValidFrom.UnixNano()}
		if idx, ok := index[key]; ok {
			result[idx].PriceDkkPerKwh = m.PriceDkkPerKwh
			updated++
			continue
		}
		index[key] = len(result)
		result = append(result, m)
		inserted++
	}
	return result, inserted, updated
}

// ActiveMargins returns, for each distinct SupplierProductID present in
// margins, the step-function value effective at `at` (the latest
// ValidFrom <= at). Products with no effective margin at `at` are omitted.
func ActiveMargins(margins []SupplierMargin, at time.Time) []SupplierMargin {
	at = at.UTC()
	byProduct := make(map[primitives.ID][]SupplierMargin)
	for _, m := range margins {
		byProduct[m.SupplierProductID] = append(byProduct[m.SupplierProductID], m)
	}
	var result []SupplierMargin
	for _, series := range byProduct {
		sort.Slice(series, func(i, j int) bool { return series[i].ValidFrom.Before(series[j].ValidFrom) })
		var best *SupplierMargin
		for i := range series {
			if series[i].ValidFrom.After(at) {
				break
			}
			best = &series[i]
		}
		if best != nil {
			result = append(result, *best)
		}
	}
	return result
}
