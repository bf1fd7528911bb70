package reconciliation

import (
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// WholesaleSettlementLine is one line of the hub's wholesale settlement,
// mirroring settlement.SettlementLine's shape so the two can be compared
// line-for-line by Description.
type WholesaleSettlementLine struct {
	Description string
	Amount      primitives.Money
}

// WholesaleSettlement is the hub's settlement for a grid area and period,
// ingested verbatim via BRS-027 (spec.md §3.2: "pass-through of external
// data"). We never recompute it; we only compare our own settlement
// against it.
type WholesaleSettlement struct {
	ID         primitives.ID
	GridArea   string
	Period     primitives.Period
	Lines      []WholesaleSettlementLine
	ReceivedAt time.Time
}

// NewWholesaleSettlement constructs a WholesaleSettlement as received
// from the hub.
func NewWholesaleSettlement(id primitives.ID, gridArea string, period primitives.Period, lines []WholesaleSettlementLine, receivedAt time.Time) WholesaleSettlement {
	return WholesaleSettlement{
		ID:         id,
		GridArea:   gridArea,
		Period:     period,
		Lines:      append([]WholesaleSettlementLine(nil), lines...),
		ReceivedAt: receivedAt,
	}
}

// Total sums the wholesale settlement's lines. Lines are assumed to
// share a currency (DKK); a mismatch is a data error from the hub and is
// reported rather than silently dropped.
func (w WholesaleSettlement) Total() (primitives.Money, error) {
	amounts := make([]primitives.Money, len(w.Lines))
	for i, line := range w.Lines {
		amounts[i] = line.Amount
	}
	if len(amounts) == 0 {
		return primitives.ZeroMoney("DKK"), nil
	}
	return primitives.SumMoney(amounts[0].Currency(), amounts...)
}
