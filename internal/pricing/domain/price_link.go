package pricing

import "github.com/dkenergy/dh-settlement/internal/primitives"

// PriceLink assigns a Price to a specific metering point for a validity
// period (spec.md §3.2). At most one open link may exist per
// (meteringPoint, price).
type PriceLink struct {
	ID              primitives.ID
	MeteringPointID primitives.ID
	PriceID         primitives.ID
	LinkPeriod      primitives.Period
}

// NewPriceLink constructs a PriceLink (BRS-037 / D17, or migration).
func NewPriceLink(meteringPointID, priceID primitives.ID, period primitives.Period) PriceLink {
	return PriceLink{
		ID:              primitives.NewID(),
		MeteringPointID: meteringPointID,
		PriceID:         priceID,
		LinkPeriod:      period,
	}
}
