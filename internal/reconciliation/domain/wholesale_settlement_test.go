package reconciliation

import (
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

func TestWholesaleSettlement_TotalSumsLines(t *testing.T) {
	period, err := primitives.NewPeriod(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w := NewWholesaleSettlement(primitives.NewID(), "DK1", period, []WholesaleSettlementLine{
		{Description: "Spot price", Amount: primitives.DKK(1000)},
		{Description: "Net tariff", Amount: primitives.DKK(250.5)},
	}, time.Now())

	total, err := w.Total()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.String() != "DKK 1250.50" {
		t.Fatalf("expected DKK 1250.50, got %s", total.String())
	}
}

func TestWholesaleSettlement_TotalOfEmptyLinesIsZero(t *testing.T) {
	period := primitives.OpenEndedPeriod(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	w := NewWholesaleSettlement(primitives.NewID(), "DK1", period, nil, time.Now())

	total, err := w.Total()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !total.IsZero() {
		t.Fatalf("expected zero total, got %s", total.String())
	}
}
