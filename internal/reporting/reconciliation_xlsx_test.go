package reporting

import (
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/reconciliation/domain"
)

func TestBuildReconciliationXLSX_ProducesNonEmptyWorkbook(t *testing.T) {
	period, err := primitives.NewPeriod(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := &reconciliation.ReconciliationResult{
		ID:                primitives.NewID(),
		GridArea:          "DK1",
		Period:            period,
		OurTotal:          primitives.DKK(1000),
		HubTotal:          primitives.DKK(1000),
		DifferenceAmount:  primitives.DKK(0),
		DifferencePercent: 0,
		Status:            reconciliation.StatusBalanced,
		LineDeltas: []reconciliation.LineDelta{
			{Description: "Spot price", OurAmount: primitives.DKK(1000), HubAmount: primitives.DKK(1000), Delta: primitives.DKK(0)},
		},
		ComputedAt: time.Now(),
	}

	out, err := BuildReconciliationXLSX(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty XLSX bytes")
	}
}
