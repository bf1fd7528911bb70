package workers

import (
	"context"
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/pricing/infrastructure/memory"
)

type fakeSpotFetcher struct {
	points []pricing.SpotPrice
	err    error
}

func (f *fakeSpotFetcher) FetchDay(_ context.Context, _ pricing.PriceArea, _ time.Time) ([]pricing.SpotPrice, error) {
	return f.points, f.err
}

func TestSpotPriceFetcher_FetchNowUpsertsIntoRepository(t *testing.T) {
	day := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeSpotFetcher{points: []pricing.SpotPrice{
		{PriceArea: pricing.AreaDK1, Timestamp: day, PriceDkkPerKwh: 0.5},
		{PriceArea: pricing.AreaDK1, Timestamp: day.Add(time.Hour), PriceDkkPerKwh: 0.6},
	}}
	store := memory.New()

	worker := &SpotPriceFetcher{
		Fetcher: fetcher,
		Spots:   store.Spots(),
		Areas:   []pricing.PriceArea{pricing.AreaDK1},
	}

	inserted, updated, err := worker.FetchNow(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 2 || updated != 0 {
		t.Fatalf("expected (2, 0) on first fetch, got (%d, %d)", inserted, updated)
	}

	inserted, updated, err = worker.FetchNow(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted != 0 || updated != 2 {
		t.Fatalf("expected (0, 2) on re-fetch (idempotent upsert), got (%d, %d)", inserted, updated)
	}
}
