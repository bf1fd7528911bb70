package reporting

import (
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

func TestBuildInvoicePDF_ProducesNonEmptyPDF(t *testing.T) {
	period, err := primitives.NewPeriod(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := []settlement.SettlementLine{
		{Source: primitives.SourceSpotPrice, Description: "Spot price", Quantity: primitives.KWh(100), Amount: primitives.DKK(250)},
	}
	s, err := settlement.New(primitives.NewID(), primitives.NewID(), period, primitives.NewID(), 1, primitives.KWh(100), lines, "DKK", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.DocumentNumber = 7

	out, err := BuildInvoicePDF(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected non-empty PDF bytes")
	}
}
