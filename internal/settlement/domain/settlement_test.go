package settlement

import (
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

func mustPeriod(t *testing.T, start, end time.Time) primitives.Period {
	t.Helper()
	p, err := primitives.NewPeriod(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func line(source primitives.SettlementLineSource, description string, amount float64) SettlementLine {
	return SettlementLine{Source: source, Description: description, Quantity: primitives.KWh(1), UnitPrice: 1, Amount: primitives.DKK(amount)}
}

func TestNew_SumsLinesIntoTotalAmount(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period := mustPeriod(t, start, start.AddDate(0, 1, 0))
	lines := []SettlementLine{
		line(primitives.SourceDataHubCharge, "Nettarif", 100.00),
		line(primitives.SourceSpotPrice, "Spotpris", 50.50),
	}

	s, err := New(primitives.NewID(), primitives.NewID(), period, primitives.NewID(), 1, primitives.KWh(744), lines, "DKK", start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != primitives.SettlementCalculated {
		t.Fatalf("expected status Calculated, got %s", s.Status)
	}
	if s.TotalAmount.String() != "DKK 150.50" {
		t.Fatalf("expected total DKK 150.50, got %s", s.TotalAmount.String())
	}
	if s.IsCorrection {
		t.Fatalf("expected IsCorrection false for a plain settlement")
	}
}

func TestCreateCorrection_RejectsEmptyPreviousSettlement(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period := mustPeriod(t, start, start.AddDate(0, 1, 0))

	_, err := CreateCorrection(primitives.NewID(), primitives.NewID(), period, primitives.NewID(), 2, primitives.KWh(-10), primitives.ID(""), nil, "DKK", start)
	if err != ErrCorrectionRequiresPrevious {
		t.Fatalf("expected ErrCorrectionRequiresPrevious, got %v", err)
	}
}

func TestCreateCorrection_SetsIsCorrectionAndPreviousID(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period := mustPeriod(t, start, start.AddDate(0, 1, 0))
	previous := primitives.NewID()

	s, err := CreateCorrection(primitives.NewID(), primitives.NewID(), period, primitives.NewID(), 2, primitives.KWh(-10), previous, nil, "DKK", start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.IsCorrection {
		t.Fatalf("expected IsCorrection true")
	}
	if s.PreviousSettlementID == nil || *s.PreviousSettlementID != previous {
		t.Fatalf("expected PreviousSettlementID %v, got %v", previous, s.PreviousSettlementID)
	}
	if s.TotalEnergy.String() != "-10.000" {
		t.Fatalf("expected delta energy -10.000, got %s", s.TotalEnergy.String())
	}
}

func TestMarkInvoiced_RequiresCalculatedStatus(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period := mustPeriod(t, start, start.AddDate(0, 1, 0))
	s, err := New(primitives.NewID(), primitives.NewID(), period, primitives.NewID(), 1, primitives.KWh(1), nil, "DKK", start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ref := "ext-123"
	if err := s.MarkInvoiced(7, start, &ref); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != primitives.SettlementInvoiced {
		t.Fatalf("expected status Invoiced, got %s", s.Status)
	}
	if s.DocumentID() != "WO-2026-00007" {
		t.Fatalf("expected document id WO-2026-00007, got %s", s.DocumentID())
	}

	if err := s.MarkInvoiced(8, start, nil); err != ErrInvalidStatusTransition {
		t.Fatalf("expected ErrInvalidStatusTransition on double invoice, got %v", err)
	}
}

func TestMarkAdjusted_RequiresInvoicedStatus(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period := mustPeriod(t, start, start.AddDate(0, 1, 0))
	s, err := New(primitives.NewID(), primitives.NewID(), period, primitives.NewID(), 1, primitives.KWh(1), nil, "DKK", start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := s.MarkAdjusted(); err != ErrInvalidStatusTransition {
		t.Fatalf("expected ErrInvalidStatusTransition before invoicing, got %v", err)
	}

	if err := s.MarkInvoiced(1, start, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.MarkAdjusted(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Status != primitives.SettlementAdjusted {
		t.Fatalf("expected status Adjusted, got %s", s.Status)
	}
}

func TestLineByKey_MatchesOnSourceAndPriceID(t *testing.T) {
	priceA := primitives.NewID()
	priceB := primitives.NewID()
	lines := []SettlementLine{
		{Source: primitives.SourceDataHubCharge, PriceID: &priceA, Description: "Nettarif"},
		{Source: primitives.SourceDataHubCharge, PriceID: &priceB, Description: "Elafgift"},
	}

	got, ok := LineByKey(lines, primitives.SourceDataHubCharge, &priceA)
	if !ok || got.Description != "Nettarif" {
		t.Fatalf("expected to find Nettarif line, got %+v (ok=%v)", got, ok)
	}

	_, ok = LineByKey(lines, primitives.SourceSpotPrice, &priceA)
	if ok {
		t.Fatalf("expected no match for a different source")
	}
}
