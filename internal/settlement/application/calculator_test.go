package application

import (
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/timeseries/domain"
)

func mustGln(t *testing.T) primitives.GlnNumber {
	t.Helper()
	gln, err := primitives.NewGln("5790000432752")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return gln
}

func flatTariffLookup(t *testing.T, chargeID, description string, category primitives.PriceCategory, rate float64, from time.Time) pricing.PriceWithPoints {
	t.Helper()
	price, err := pricing.Create(chargeID, mustGln(t), primitives.PriceTypeTariff, description, primitives.OpenEndedPeriod(from), false, nil, false, false, category)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := price.AddPricePoint(from, rate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return pricing.NewPriceWithPoints(price, nil)
}

func subscriptionLookup(t *testing.T, chargeID, description string, rate float64, from time.Time) pricing.PriceWithPoints {
	t.Helper()
	price, err := pricing.Create(chargeID, mustGln(t), primitives.PriceTypeSubscription, description, primitives.OpenEndedPeriod(from), false, nil, false, false, primitives.CategoryNettarif)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := price.AddPricePoint(from, rate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return pricing.NewPriceWithPoints(price, nil)
}

func nominalSeries(t *testing.T, start time.Time, scale float64) timeseries.TimeSeries {
	t.Helper()
	end := start.AddDate(0, 1, 0)
	period, err := primitives.NewPeriod(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series, err := timeseries.Create(primitives.NewID(), period, primitives.ResolutionPT1H, 1, nil, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hours := int(end.Sub(start).Hours())
	for i := 0; i < hours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		if err := series.AddObservation(ts, primitives.KWh(1*scale), primitives.QualityMeasured); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	return series
}

func nominalInput(t *testing.T, series timeseries.TimeSeries) CalculationInput {
	t.Helper()
	start := series.Period.Start
	prices := []pricing.PriceWithPoints{
		flatTariffLookup(t, "nettarif", "Nettarif", primitives.CategoryNettarif, 0.40, start),
		flatTariffLookup(t, "systemtarif", "Systemtarif", primitives.CategorySystemtarif, 0.054, start),
		flatTariffLookup(t, "transmissionstarif", "Transmissionstarif", primitives.CategoryTransmissionstarif, 0.049, start),
		flatTariffLookup(t, "elafgift", "Elafgift", primitives.CategoryElafgift, 0.761, start),
		flatTariffLookup(t, "balancetarif", "Balancetarif", primitives.CategoryBalancetarif, 0.00229, start),
		subscriptionLookup(t, "abonnement", "Net abonnement", 21.56, start),
	}

	var spots []SpotPoint
	for i := 0; i < int(series.Period.End.Sub(start).Hours()); i++ {
		spots = append(spots, SpotPoint{Timestamp: start.Add(time.Duration(i) * time.Hour), PriceDkkPerKwh: 0.50})
	}

	return CalculationInput{
		TimeSeries:    series,
		SupplyID:      primitives.NewID(),
		DatahubPrices: prices,
		SpotPrices:    spots,
		ActiveMargins: []Margin{{Name: "base", PriceDkkPerKwh: 0.15}},
		PricingModel:  primitives.PricingModelSpotAddon,
		CalculatedAt:  start,
	}
}

func TestCalculate_NominalSettlement(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := nominalSeries(t, start, 1)
	in := nominalInput(t, series)

	result, err := Calculate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TotalEnergy.String() != "744.000" {
		t.Fatalf("expected total energy 744.000, got %s", result.TotalEnergy.String())
	}
	if len(result.Lines) != 8 {
		t.Fatalf("expected 8 lines (6 datahub + spot + margin), got %d", len(result.Lines))
	}

	wantAmounts := map[string]string{
		"Nettarif":           "DKK 297.60",
		"Systemtarif":        "DKK 40.18",
		"Transmissionstarif": "DKK 36.46",
		"Elafgift":           "DKK 566.18",
		"Balancetarif":       "DKK 1.70",
		"Net abonnement":     "DKK 668.36",
		"Spotpris":           "DKK 372.00",
		"Leverandørtillæg":   "DKK 111.60",
	}
	for _, line := range result.Lines {
		want, ok := wantAmounts[line.Description]
		if !ok {
			t.Fatalf("unexpected line description %q", line.Description)
		}
		if line.Amount.String() != want {
			t.Fatalf("line %q: expected amount %s, got %s", line.Description, want, line.Amount.String())
		}
	}
}

func TestCalculate_IsDeterministic(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := nominalSeries(t, start, 1)
	in := nominalInput(t, series)

	first, err := Calculate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Calculate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.TotalAmount.String() != second.TotalAmount.String() {
		t.Fatalf("expected deterministic total amount, got %s vs %s", first.TotalAmount.String(), second.TotalAmount.String())
	}
	for i := range first.Lines {
		if first.Lines[i].Amount.String() != second.Lines[i].Amount.String() {
			t.Fatalf("expected deterministic line %d amount", i)
		}
	}
}

func TestCalculate_EmptyTimeSeriesFails(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	period, err := primitives.NewPeriod(start, start.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series, err := timeseries.Create(primitives.NewID(), period, primitives.ResolutionPT1H, 1, nil, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Calculate(CalculationInput{TimeSeries: series, PricingModel: primitives.PricingModelSpotAddon, CalculatedAt: start})
	if err == nil {
		t.Fatalf("expected error for empty time series")
	}
}

func TestCalculate_SpotAveragingOverQuarterHours(t *testing.T) {
	hour := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	period, err := primitives.NewPeriod(hour, hour.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	series, err := timeseries.Create(primitives.NewID(), period, primitives.ResolutionPT1H, 1, nil, hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := series.AddObservation(hour, primitives.KWh(1), primitives.QualityMeasured); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spots := []SpotPoint{
		{Timestamp: hour, PriceDkkPerKwh: 0.40},
		{Timestamp: hour.Add(15 * time.Minute), PriceDkkPerKwh: 0.42},
		{Timestamp: hour.Add(30 * time.Minute), PriceDkkPerKwh: 0.44},
		{Timestamp: hour.Add(45 * time.Minute), PriceDkkPerKwh: 0.46},
	}

	result, err := Calculate(CalculationInput{
		TimeSeries:   series,
		SpotPrices:   spots,
		PricingModel: primitives.PricingModelSpotAddon,
		CalculatedAt: hour,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Lines) != 1 {
		t.Fatalf("expected 1 spot line (no margins), got %d", len(result.Lines))
	}
	if result.Lines[0].Amount.String() != "DKK 0.43" {
		t.Fatalf("expected spot line amount DKK 0.43, got %s", result.Lines[0].Amount.String())
	}
}

func TestCalculateCorrection_IdenticalSeriesYieldsZero(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	series := nominalSeries(t, start, 1)
	in := nominalInput(t, series)

	original, err := Calculate(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	original.Status = primitives.SettlementInvoiced

	correction, err := CalculateCorrection(in, *original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !correction.TotalAmount.IsZero() {
		t.Fatalf("expected zero total amount, got %s", correction.TotalAmount.String())
	}
	if len(correction.Lines) != 0 {
		t.Fatalf("expected no correction lines, got %d", len(correction.Lines))
	}
}

func TestCalculateCorrection_ScaledSeriesProducesProportionalDelta(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	originalSeries := nominalSeries(t, start, 1)
	originalInput := nominalInput(t, originalSeries)
	original, err := Calculate(originalInput)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	original.Status = primitives.SettlementInvoiced

	scaledSeries := nominalSeries(t, start, 0.9)
	scaledInput := nominalInput(t, scaledSeries)

	correction, err := CalculateCorrection(scaledInput, *original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if correction.TotalEnergy.String() != "-74.400" {
		t.Fatalf("expected delta energy -74.400, got %s", correction.TotalEnergy.String())
	}
}
