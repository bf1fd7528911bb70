package pricing

import (
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

func mustGln(t *testing.T) primitives.GlnNumber {
	t.Helper()
	gln, err := primitives.NewGln("5790000432752")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return gln
}

func TestGetPriceAt_Tariff_StepFunction(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	price, err := Create("4001", mustGln(t), primitives.PriceTypeTariff, "Nettarif", primitives.OpenEndedPeriod(t1), false, nil, false, false, primitives.CategoryNettarif)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = price.AddPricePoint(t1, 1)
	_ = price.AddPricePoint(t2, 2)
	_ = price.AddPricePoint(t3, 3)

	lookup := NewPriceWithPoints(price, nil)

	cases := []struct {
		at   time.Time
		want float64
		ok   bool
	}{
		{t1.Add(-time.Minute), 0, false},
		{t1, 1, true},
		{t2.Add(-time.Minute), 1, true},
		{t2, 2, true},
		{t3, 3, true},
		{t3.Add(24 * time.Hour), 3, true},
	}
	for _, c := range cases {
		got, ok := lookup.GetPriceAt(c.at)
		if ok != c.ok || got != c.want {
			t.Fatalf("GetPriceAt(%v) = (%v, %v), want (%v, %v)", c.at, got, ok, c.want, c.ok)
		}
	}
}

func TestGetPriceAt_Subscription_AlwaysFirstPoint(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	price, err := Create("4002", mustGln(t), primitives.PriceTypeSubscription, "Abonnement", primitives.OpenEndedPeriod(t1), false, nil, false, false, primitives.CategoryNettarif)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = price.AddPricePoint(t1, 21.56)
	lookup := NewPriceWithPoints(price, nil)

	for _, at := range []time.Time{t1.Add(-time.Hour), t1, t1.Add(365 * 24 * time.Hour)} {
		got, ok := lookup.GetPriceAt(at)
		if !ok || got != 21.56 {
			t.Fatalf("GetPriceAt(%v) = (%v, %v), want (21.56, true)", at, got, ok)
		}
	}
}

func TestGetAveragePriceInHour(t *testing.T) {
	hour := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	price, err := Create("spot", mustGln(t), primitives.PriceTypeTariff, "Spot", primitives.OpenEndedPeriod(hour), false, nil, false, false, primitives.CategorySpotPris)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	values := []float64{0.40, 0.42, 0.44, 0.46}
	for i, v := range values {
		_ = price.AddPricePoint(hour.Add(time.Duration(i)*15*time.Minute), v)
	}
	lookup := NewPriceWithPoints(price, nil)
	got, ok := lookup.GetAveragePriceInHour(hour)
	if !ok {
		t.Fatalf("expected ok = true")
	}
	if got < 0.4299999 || got > 0.4300001 {
		t.Fatalf("expected average ~0.43, got %v", got)
	}
}

func TestPointsCutoff_FreezesMigratedRate(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	price, err := Create("4003", mustGln(t), primitives.PriceTypeTariff, "Nettarif", primitives.OpenEndedPeriod(t1), false, nil, false, false, primitives.CategoryNettarif)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = price.AddPricePoint(t1, 1)
	_ = price.AddPricePoint(t2, 2)

	cutoff := t2
	lookup := NewPriceWithPoints(price, &cutoff)
	got, ok := lookup.GetPriceAt(t2.Add(time.Hour))
	if !ok || got != 1 {
		t.Fatalf("expected frozen rate 1, got (%v, %v)", got, ok)
	}
}
