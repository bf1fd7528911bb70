package reconciliation

import (
	"context"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// WholesaleSettlementRepository persists hub wholesale settlements
// ingested via BRS-027.
type WholesaleSettlementRepository interface {
	Save(ctx context.Context, w *WholesaleSettlement) error
	// LatestFor returns the wholesale settlement for the given grid area
	// and period with the most recent ReceivedAt, or nil if none exists.
	LatestFor(ctx context.Context, gridArea string, period primitives.Period) (*WholesaleSettlement, error)
}

// ResultRepository persists computed reconciliation results.
type ResultRepository interface {
	Save(ctx context.Context, r *ReconciliationResult) error
	FindByID(ctx context.Context, id primitives.ID) (*ReconciliationResult, error)
	FindLatestFor(ctx context.Context, gridArea string, period primitives.Period) (*ReconciliationResult, error)
}
