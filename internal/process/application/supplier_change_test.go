package application

import (
	"context"
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/process/domain"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
)

type fakeProcessRepo struct {
	byID  map[primitives.ID]*process.BrsProcess
	byKey map[string]*process.BrsProcess
}

func newFakeProcessRepo() *fakeProcessRepo {
	return &fakeProcessRepo{byID: map[primitives.ID]*process.BrsProcess{}, byKey: map[string]*process.BrsProcess{}}
}

func (r *fakeProcessRepo) FindByID(ctx context.Context, id primitives.ID) (*process.BrsProcess, error) {
	return r.byID[id], nil
}

func (r *fakeProcessRepo) FindByIdempotencyKey(ctx context.Context, code process.BrsCode, idempotencyKey string) (*process.BrsProcess, error) {
	return r.byKey[string(code)+"|"+idempotencyKey], nil
}

func (r *fakeProcessRepo) Save(ctx context.Context, p *process.BrsProcess) error {
	cp := *p
	r.byID[p.ID] = &cp
	r.byKey[string(p.BrsCode)+"|"+p.IdempotencyKey] = &cp
	return nil
}

type fakeSupplyRepo struct {
	bySupply map[primitives.ID]*refdata.Supply
}

func newFakeSupplyRepo() *fakeSupplyRepo {
	return &fakeSupplyRepo{bySupply: map[primitives.ID]*refdata.Supply{}}
}

func (r *fakeSupplyRepo) FindCurrentByMeteringPoint(ctx context.Context, meteringPointID primitives.ID, at time.Time) (*refdata.Supply, error) {
	for _, s := range r.bySupply {
		if s.MeteringPointID == meteringPointID && s.IsActiveAt(at) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSupplyRepo) Save(ctx context.Context, supply *refdata.Supply) error {
	cp := *supply
	r.bySupply[supply.ID] = &cp
	return nil
}

func TestInitiateSupplierChange_RequiresExactlyOneOfCprCvr(t *testing.T) {
	h, err := NewSupplierChangeHandler(newFakeProcessRepo(), newFakeSupplyRepo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cpr, err := primitives.NewCpr("0101901234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cvr, err := primitives.NewCvr("12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = h.InitiateSupplierChange(context.Background(), primitives.NewID(), "idem", &cpr, &cvr, time.Now())
	if err != refdata.ErrCustomerIdentity {
		t.Fatalf("expected ErrCustomerIdentity when both cpr and cvr set, got %v", err)
	}

	_, err = h.InitiateSupplierChange(context.Background(), primitives.NewID(), "idem", nil, nil, time.Now())
	if err != refdata.ErrCustomerIdentity {
		t.Fatalf("expected ErrCustomerIdentity when neither cpr nor cvr set, got %v", err)
	}
}

func TestInitiateSupplierChange_IsIdempotentOnKey(t *testing.T) {
	processes := newFakeProcessRepo()
	h, err := NewSupplierChangeHandler(processes, newFakeSupplyRepo())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cpr, err := primitives.NewCpr("0101901234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mpID := primitives.NewID()

	first, err := h.InitiateSupplierChange(context.Background(), mpID, "idem-dup", &cpr, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := h.InitiateSupplierChange(context.Background(), mpID, "idem-dup", &cpr, nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected idempotent replay to return the same process, got %s vs %s", first.ID, second.ID)
	}
}

func TestSupplierChangeFullFlow_EndsIncumbentAndCreatesNewSupply(t *testing.T) {
	processes := newFakeProcessRepo()
	supplies := newFakeSupplyRepo()
	h, err := NewSupplierChangeHandler(processes, supplies)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mpID := primitives.NewID()
	oldCustomer := primitives.NewID()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	effectiveDate := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	incumbent := refdata.NewSupply(mpID, oldCustomer, start)
	if err := supplies.Save(context.Background(), &incumbent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cpr, err := primitives.NewCpr("0101901234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := h.InitiateSupplierChange(context.Background(), mpID, "idem-flow", &cpr, nil, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err = h.HandleConfirmation(context.Background(), p.ID, "txn-1", effectiveDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State != process.StateConfirmed {
		t.Fatalf("expected state Confirmed, got %s", p.State)
	}

	newCustomer := primitives.NewID()
	newSupply, err := h.ExecuteSupplierChange(context.Background(), p, newCustomer, effectiveDate, effectiveDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State != process.StateCompleted {
		t.Fatalf("expected state Completed, got %s", p.State)
	}
	if newSupply.CustomerID != newCustomer {
		t.Fatalf("expected new supply for the new customer")
	}

	reloaded := supplies.bySupply[incumbent.ID]
	if reloaded.IsActiveAt(effectiveDate) {
		t.Fatalf("expected incumbent supply to have ended at the effective date")
	}
}
