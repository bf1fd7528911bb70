// Package pricing models regulated charge metadata and their timestamped
// price points (spec.md §3.2, §4.1). Grounded on
// pricing.TariffProvider/FixedPriceProvider (bittertea97-microgrid-cloud
// backend/internal/settlement/infrastructure/pricing), generalised from a
// single per-station rate lookup to the full DataHub charge/price-point/
// price-link/spot-price/supplier-margin model.
package pricing

import "errors"

var (
	ErrEmptyChargeID    = errors.New("pricing: empty charge id")
	ErrEmptyOwnerGln     = errors.New("pricing: empty owner gln")
	ErrDuplicatePrice    = errors.New("pricing: duplicate charge id for owner")
	ErrDuplicatePoint    = errors.New("pricing: duplicate price point timestamp")
	ErrPriceNotFound     = errors.New("pricing: price not found")
	ErrNoPricePoint      = errors.New("pricing: no price point effective at timestamp")
	ErrInvalidPoints     = errors.New("pricing: invalid replacement points")
)
