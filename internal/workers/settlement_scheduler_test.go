package workers

import (
	"context"
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/pricing/infrastructure/memory"
	"github.com/dkenergy/dh-settlement/internal/primitives"
	refdata "github.com/dkenergy/dh-settlement/internal/refdata/domain"
	"github.com/dkenergy/dh-settlement/internal/settlement/application"
	settlement "github.com/dkenergy/dh-settlement/internal/settlement/domain"
	timeseries "github.com/dkenergy/dh-settlement/internal/timeseries/domain"
)

type fakeMeteringPointRepo struct {
	byID map[primitives.ID]*refdata.MeteringPoint
}

func (r *fakeMeteringPointRepo) FindByGsrn(_ context.Context, gsrn primitives.Gsrn) (*refdata.MeteringPoint, error) {
	for _, mp := range r.byID {
		if mp.Gsrn == gsrn {
			return mp, nil
		}
	}
	return nil, nil
}

func (r *fakeMeteringPointRepo) FindByID(_ context.Context, id primitives.ID) (*refdata.MeteringPoint, error) {
	return r.byID[id], nil
}

func (r *fakeMeteringPointRepo) Save(_ context.Context, mp *refdata.MeteringPoint) error {
	r.byID[mp.ID] = mp
	return nil
}

type fakeSupplyRepo struct {
	bySupply map[primitives.ID]*refdata.Supply
}

func (r *fakeSupplyRepo) FindCurrentByMeteringPoint(_ context.Context, meteringPointID primitives.ID, at time.Time) (*refdata.Supply, error) {
	for _, s := range r.bySupply {
		if s.MeteringPointID == meteringPointID && s.IsActiveAt(at) {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSupplyRepo) Save(_ context.Context, s *refdata.Supply) error {
	r.bySupply[s.ID] = s
	return nil
}

type fakeSupplierProductRepo struct {
	byID        map[primitives.ID]*refdata.SupplierProduct
	assignments map[primitives.ID][]refdata.SupplyProductPeriod
}

func (r *fakeSupplierProductRepo) FindByID(_ context.Context, id primitives.ID) (*refdata.SupplierProduct, error) {
	return r.byID[id], nil
}

func (r *fakeSupplierProductRepo) Save(_ context.Context, p *refdata.SupplierProduct) error {
	r.byID[p.ID] = p
	return nil
}

func (r *fakeSupplierProductRepo) ActiveAssignments(_ context.Context, supplyID primitives.ID, at time.Time) ([]refdata.SupplyProductPeriod, error) {
	var result []refdata.SupplyProductPeriod
	for _, a := range r.assignments[supplyID] {
		if a.Period.Contains(at) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *fakeSupplierProductRepo) SaveAssignment(_ context.Context, a *refdata.SupplyProductPeriod) error {
	r.assignments[a.SupplyID] = append(r.assignments[a.SupplyID], *a)
	return nil
}

type fakeTimeSeriesRepo struct {
	latest map[primitives.ID]*timeseries.TimeSeries
}

func (r *fakeTimeSeriesRepo) FindLatest(_ context.Context, meteringPointID primitives.ID, _ primitives.Period) (*timeseries.TimeSeries, error) {
	return r.latest[meteringPointID], nil
}

func (r *fakeTimeSeriesRepo) FindByID(_ context.Context, id primitives.ID) (*timeseries.TimeSeries, error) {
	for _, ts := range r.latest {
		if ts.ID == id {
			return ts, nil
		}
	}
	return nil, nil
}

func (r *fakeTimeSeriesRepo) Save(_ context.Context, ts *timeseries.TimeSeries) error {
	r.latest[ts.MeteringPointID] = ts
	return nil
}

type fakeSettlementRepo struct {
	byID map[primitives.ID]*settlement.Settlement
	due  []settlement.DueWork
}

func (r *fakeSettlementRepo) FindByMeteringPointAndPeriod(_ context.Context, meteringPointID primitives.ID, period primitives.Period, isCorrection bool) (*settlement.Settlement, error) {
	for _, s := range r.byID {
		if s.MeteringPointID == meteringPointID && s.SettlementPeriod == period && s.IsCorrection == isCorrection {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeSettlementRepo) FindByID(_ context.Context, id primitives.ID) (*settlement.Settlement, error) {
	return r.byID[id], nil
}

func (r *fakeSettlementRepo) NextDocumentNumber(_ context.Context) (int, error) {
	return len(r.byID) + 1, nil
}

func (r *fakeSettlementRepo) Save(_ context.Context, s *settlement.Settlement) error {
	r.byID[s.ID] = s
	return nil
}

func (r *fakeSettlementRepo) ListForGridAreaAndPeriod(_ context.Context, gridArea string, period primitives.Period) ([]settlement.Settlement, error) {
	return nil, nil
}

func (r *fakeSettlementRepo) ListDueForSettlement(_ context.Context, _ time.Time, limit int) ([]settlement.DueWork, error) {
	if limit < len(r.due) {
		return r.due[:limit], nil
	}
	return r.due, nil
}

type fakeIssueRepo struct {
	open map[primitives.ID]*settlement.SettlementIssue
}

func (r *fakeIssueRepo) FindOpen(_ context.Context, meteringPointID primitives.ID, period primitives.Period, issueType settlement.IssueType) (*settlement.SettlementIssue, error) {
	for _, issue := range r.open {
		if issue.MeteringPointID == meteringPointID && issue.Period == period && issue.IssueType == issueType {
			return issue, nil
		}
	}
	return nil, nil
}

func (r *fakeIssueRepo) ListOpenForPeriod(_ context.Context, meteringPointID primitives.ID, period primitives.Period) ([]settlement.SettlementIssue, error) {
	var result []settlement.SettlementIssue
	for _, issue := range r.open {
		if issue.MeteringPointID == meteringPointID && issue.Period == period {
			result = append(result, *issue)
		}
	}
	return result, nil
}

func (r *fakeIssueRepo) Save(_ context.Context, issue *settlement.SettlementIssue) error {
	r.open[issue.ID] = issue
	return nil
}

// scheduledFixture builds a metering point, an active supply on a fixed
// product, and a one-observation hourly time series for period, wired
// through a real memory pricing Store so ContextLoader exercises the
// actual Links()/Spots()/Margins() facades rather than further fakes.
func scheduledFixture(t *testing.T, period primitives.Period) (*SettlementScheduler, primitives.ID, primitives.ID) {
	t.Helper()

	mpID := primitives.NewID()
	mp := &refdata.MeteringPoint{
		ID:         mpID,
		Gsrn:       primitives.Gsrn("571234567890123456"),
		Type:       primitives.MeteringPointConsumption,
		Resolution: primitives.ResolutionPT1H,
		GridArea:   "DK1",
	}

	supply := &refdata.Supply{
		ID:              primitives.NewID(),
		MeteringPointID: mpID,
		CustomerID:      primitives.NewID(),
		SupplyPeriod:    primitives.OpenEndedPeriod(period.Start.AddDate(0, -1, 0)),
	}

	product, err := refdata.NewSupplierProduct(primitives.NewID(), "Fastpris", primitives.PricingModelFixed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assignment := refdata.NewSupplyProductPeriod(supply.ID, product.ID, primitives.OpenEndedPeriod(period.Start.AddDate(0, -1, 0)))

	series, err := timeseries.Create(mpID, period, primitives.ResolutionPT1H, 1, nil, period.Start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := series.AddObservation(period.Start, primitives.KWh(10), primitives.QualityMeasured); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prices := memory.New()
	if _, _, err := prices.Margins().Upsert(context.Background(), []pricing.SupplierMargin{
		{SupplierProductID: product.ID, ValidFrom: period.Start.AddDate(0, -1, 0), PriceDkkPerKwh: 0.2},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loader := &application.ContextLoader{
		MeteringPoints:   &fakeMeteringPointRepo{byID: map[primitives.ID]*refdata.MeteringPoint{mpID: mp}},
		Supplies:         &fakeSupplyRepo{bySupply: map[primitives.ID]*refdata.Supply{supply.ID: supply}},
		SupplierProducts: &fakeSupplierProductRepo{
			byID:        map[primitives.ID]*refdata.SupplierProduct{product.ID: &product},
			assignments: map[primitives.ID][]refdata.SupplyProductPeriod{supply.ID: {assignment}},
		},
		PriceLinks:      prices.Links(),
		Prices:          prices,
		SpotPrices:      prices.Spots(),
		SupplierMargins: prices.Margins(),
		TimeSeries:      &fakeTimeSeriesRepo{latest: map[primitives.ID]*timeseries.TimeSeries{mpID: &series}},
	}

	scheduler := &SettlementScheduler{
		Settlements: &fakeSettlementRepo{byID: make(map[primitives.ID]*settlement.Settlement)},
		Issues:      &fakeIssueRepo{open: make(map[primitives.ID]*settlement.SettlementIssue)},
		Context:     loader,
		BatchSize:   10,
	}
	return scheduler, mpID, series.ID
}

func TestSettlementScheduler_TickCalculatesAndSavesNewSettlement(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	period, err := primitives.NewPeriod(now.AddDate(0, 0, -1), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scheduler, mpID, seriesID := scheduledFixture(t, period)
	repo := scheduler.Settlements.(*fakeSettlementRepo)
	repo.due = []settlement.DueWork{{
		MeteringPointID:   mpID,
		Period:            period,
		TimeSeriesID:      seriesID,
		TimeSeriesVersion: 1,
	}}

	if err := scheduler.Tick(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.byID) != 1 {
		t.Fatalf("expected exactly one settlement saved, got %d", len(repo.byID))
	}
	for _, s := range repo.byID {
		if s.IsCorrection {
			t.Fatalf("expected a fresh settlement, not a correction")
		}
		if s.TotalAmount.IsZero() {
			t.Fatalf("expected a non-zero settlement total for a fixed-price product")
		}
	}
}

// TestSettlementScheduler_TickOpensOneIssuePerMissingCategory mirrors
// spec.md §8 scenario 3: a metering point with no price links at all is
// missing every one of the seven required categories, and each one
// must surface as its own open SettlementIssue rather than colliding
// onto a single row.
func TestSettlementScheduler_TickOpensOneIssuePerMissingCategory(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	period, err := primitives.NewPeriod(now.AddDate(0, 0, -1), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scheduler, mpID, seriesID := scheduledFixture(t, period)
	repo := scheduler.Settlements.(*fakeSettlementRepo)
	repo.due = []settlement.DueWork{{
		MeteringPointID:   mpID,
		Period:            period,
		TimeSeriesID:      seriesID,
		TimeSeriesVersion: 1,
	}}

	if err := scheduler.Tick(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	issues := scheduler.Issues.(*fakeIssueRepo)
	seen := make(map[settlement.IssueType]bool)
	for _, issue := range issues.open {
		if issue.MeteringPointID != mpID {
			continue
		}
		if seen[issue.IssueType] {
			t.Fatalf("duplicate issue type persisted: %s", issue.IssueType)
		}
		seen[issue.IssueType] = true
	}
	if len(seen) != len(primitives.RequiredPriceCategories) {
		t.Fatalf("expected %d distinct missing-category issues, got %d", len(primitives.RequiredPriceCategories), len(seen))
	}
}

func TestSettlementScheduler_TickFilesCorrectionAgainstExistingSettlement(t *testing.T) {
	now := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	period, err := primitives.NewPeriod(now.AddDate(0, 0, -1), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	scheduler, mpID, seriesID := scheduledFixture(t, period)
	repo := scheduler.Settlements.(*fakeSettlementRepo)

	original, err := settlement.New(mpID, primitives.NewID(), period, seriesID, 1, primitives.KWh(5), []settlement.SettlementLine{{
		Source:      primitives.SourceSupplierMargin,
		Description: "Elpris (fast)",
		Quantity:    primitives.KWh(5),
		UnitPrice:   0.2,
		Amount:      primitives.DKK(1),
	}}, "DKK", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.byID[original.ID] = original

	existingID := original.ID
	repo.due = []settlement.DueWork{{
		MeteringPointID:      mpID,
		Period:               period,
		TimeSeriesID:         seriesID,
		TimeSeriesVersion:    2,
		ExistingSettlementID: &existingID,
	}}

	if err := scheduler.Tick(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var correction *settlement.Settlement
	for _, s := range repo.byID {
		if s.IsCorrection {
			correction = s
		}
	}
	if correction == nil {
		t.Fatalf("expected a correction settlement to be saved")
	}
	if correction.PreviousSettlementID == nil || *correction.PreviousSettlementID != original.ID {
		t.Fatalf("expected correction to reference the original settlement")
	}
}
