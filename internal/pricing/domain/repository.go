package pricing

import (
	"context"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Repository persists Price aggregates (charge metadata + price points).
type Repository interface {
	FindByChargeID(ctx context.Context, chargeID string, ownerGln primitives.GlnNumber) (*Price, error)
	FindByID(ctx context.Context, id primitives.ID) (*Price, error)
	Save(ctx context.Context, price *Price) error
}

// LinkRepository persists PriceLink assignments.
type LinkRepository interface {
	ActiveLinks(ctx context.Context, meteringPointID primitives.ID, at time.Time) ([]PriceLink, error)
	Save(ctx context.Context, link *PriceLink) error
}

// SpotPriceRepository persists spot prices with pure-upsert semantics.
type SpotPriceRepository interface {
	Upsert(ctx context.Context, points []SpotPrice) (inserted, updated int, err error)
	ForPeriod(ctx context.Context, area PriceArea, period primitives.Period) ([]SpotPrice, error)
}

// SupplierMarginRepository persists supplier margins with pure-upsert
// semantics.
type SupplierMarginRepository interface {
	Upsert(ctx context.Context, margins []SupplierMargin) (inserted, updated int, err error)
	ActiveFor(ctx context.Context, supplierProductIDs []primitives.ID, at time.Time) ([]SupplierMargin, error)
}
