package application

import (
	"context"
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/reconciliation/domain"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

type fakeSettlementLister struct {
	settlements []settlement.Settlement
}

func (f *fakeSettlementLister) ListForGridAreaAndPeriod(ctx context.Context, gridArea string, period primitives.Period) ([]settlement.Settlement, error) {
	return f.settlements, nil
}

type fakeWholesaleRepo struct {
	latest *reconciliation.WholesaleSettlement
}

func (f *fakeWholesaleRepo) Save(ctx context.Context, w *reconciliation.WholesaleSettlement) error {
	f.latest = w
	return nil
}

func (f *fakeWholesaleRepo) LatestFor(ctx context.Context, gridArea string, period primitives.Period) (*reconciliation.WholesaleSettlement, error) {
	return f.latest, nil
}

type fakeResultRepo struct {
	saved *reconciliation.ReconciliationResult
}

func (f *fakeResultRepo) Save(ctx context.Context, r *reconciliation.ReconciliationResult) error {
	f.saved = r
	return nil
}

func (f *fakeResultRepo) FindByID(ctx context.Context, id primitives.ID) (*reconciliation.ReconciliationResult, error) {
	if f.saved != nil && f.saved.ID == id {
		return f.saved, nil
	}
	return nil, nil
}

func (f *fakeResultRepo) FindLatestFor(ctx context.Context, gridArea string, period primitives.Period) (*reconciliation.ReconciliationResult, error) {
	return f.saved, nil
}

func mustTestPeriod(t *testing.T) primitives.Period {
	t.Helper()
	p, err := primitives.NewPeriod(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestReconcile_MatchingTotalsAreBalanced(t *testing.T) {
	period := mustTestPeriod(t)
	ours := &fakeSettlementLister{settlements: []settlement.Settlement{
		{Lines: []settlement.SettlementLine{
			{Description: "Spot price", Amount: primitives.DKK(1000)},
			{Description: "Net tariff", Amount: primitives.DKK(200)},
		}},
	}}
	hub := &fakeWholesaleRepo{latest: func() *reconciliation.WholesaleSettlement {
		w := reconciliation.NewWholesaleSettlement(primitives.NewID(), "DK1", period, []reconciliation.WholesaleSettlementLine{
			{Description: "Spot price", Amount: primitives.DKK(1000)},
			{Description: "Net tariff", Amount: primitives.DKK(200)},
		}, time.Now())
		return &w
	}()}
	results := &fakeResultRepo{}

	agg := NewAggregator(ours, hub, results)
	result, err := agg.Reconcile(context.Background(), "DK1", period, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != reconciliation.StatusBalanced {
		t.Fatalf("expected Balanced, got %v", result.Status)
	}
	if results.saved == nil {
		t.Fatalf("expected result to be saved")
	}
}

func TestReconcile_DivergingTotalsAreDeviating(t *testing.T) {
	period := mustTestPeriod(t)
	ours := &fakeSettlementLister{settlements: []settlement.Settlement{
		{Lines: []settlement.SettlementLine{
			{Description: "Spot price", Amount: primitives.DKK(1000)},
		}},
	}}
	hub := &fakeWholesaleRepo{latest: func() *reconciliation.WholesaleSettlement {
		w := reconciliation.NewWholesaleSettlement(primitives.NewID(), "DK1", period, []reconciliation.WholesaleSettlementLine{
			{Description: "Spot price", Amount: primitives.DKK(1100)},
		}, time.Now())
		return &w
	}()}
	results := &fakeResultRepo{}

	agg := NewAggregator(ours, hub, results)
	result, err := agg.Reconcile(context.Background(), "DK1", period, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != reconciliation.StatusDeviating {
		t.Fatalf("expected Deviating, got %v", result.Status)
	}
	if len(result.LineDeltas) != 1 {
		t.Fatalf("expected 1 line delta, got %d", len(result.LineDeltas))
	}
}

func TestReconcile_MissingWholesaleSettlementFails(t *testing.T) {
	period := mustTestPeriod(t)
	ours := &fakeSettlementLister{}
	hub := &fakeWholesaleRepo{}
	results := &fakeResultRepo{}

	agg := NewAggregator(ours, hub, results)
	_, err := agg.Reconcile(context.Background(), "DK1", period, time.Now())
	if err != reconciliation.ErrNoWholesaleSettlement {
		t.Fatalf("expected ErrNoWholesaleSettlement, got %v", err)
	}
}
