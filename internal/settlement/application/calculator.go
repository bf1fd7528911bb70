// Package application implements the settlement calculator, correction
// engine, and validator (spec.md §4.3-§4.5) — the heart of the system.
// Grounded on
// internal/settlement/application/day_settlement_app_service.go for the
// overall shape (loop over dated buckets, accumulate energy and amount,
// a pure calculation core separate from persistence) generalized from a
// flat per-day rate lookup to multi-source settlement line generation.
package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
	"github.com/dkenergy/dh-settlement/internal/timeseries/domain"
)

// decimalFromFloat wraps a computed float64 amount for Money
// construction; the float precision loss it might carry is bounded by
// Money's own 2 dp banker's rounding at construction (spec.md §9).
func decimalFromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

const currencyDKK = "DKK"

// SpotPoint is a single Nordpool spot-price reading for the period,
// independent of the pricing package's storage shape so the calculator
// stays free of any repository dependency (spec.md §4.3's "pure,
// single-threaded, no I/O" calculator).
type SpotPoint struct {
	Timestamp      time.Time
	PriceDkkPerKwh float64
}

// Margin is one supplier-margin component contributing to the combined
// per-kWh addon rate (spec.md §4.3 "activeMargins").
type Margin struct {
	Name           string
	PriceDkkPerKwh float64
}

// CalculationInput bundles everything the calculator needs, all already
// resolved by the caller (no I/O inside Calculate).
type CalculationInput struct {
	TimeSeries    timeseries.TimeSeries
	SupplyID      primitives.ID
	DatahubPrices []pricing.PriceWithPoints
	SpotPrices    []SpotPoint
	ActiveMargins []Margin
	PricingModel  primitives.PricingModel
	CalculatedAt  time.Time
}

// Calculate emits a Settlement with the minimum number of lines required
// to reproduce the invoice total exactly (spec.md §4.3).
func Calculate(in CalculationInput) (*settlement.Settlement, error) {
	if len(in.TimeSeries.Observations) == 0 {
		return nil, settlement.ErrEmptyTimeSeries
	}

	observations := sortedObservations(in.TimeSeries.Observations)

	var lines []settlement.SettlementLine
	for _, price := range in.DatahubPrices {
		line := datahubLine(price, observations, in.TimeSeries.Resolution, in.TimeSeries.Period)
		if line != nil {
			lines = append(lines, *line)
		}
	}

	electricityLines := electricityLines(observations, in.TimeSeries.Resolution, in.SpotPrices, in.ActiveMargins, in.PricingModel, totalEnergy(observations))
	lines = append(lines, electricityLines...)

	return settlement.New(in.TimeSeries.MeteringPointID, in.SupplyID, in.TimeSeries.Period, in.TimeSeries.ID, in.TimeSeries.Version, totalEnergy(observations), lines, currencyDKK, in.CalculatedAt)
}

func sortedObservations(observations []timeseries.Observation) []timeseries.Observation {
	sorted := make([]timeseries.Observation, len(observations))
	copy(sorted, observations)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Timestamp.Before(sorted[j-1].Timestamp); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return sorted
}

func totalEnergy(observations []timeseries.Observation) primitives.EnergyQuantity {
	total := primitives.ZeroEnergy()
	for _, o := range observations {
		total = total.Add(o.Quantity)
	}
	return total
}

// datahubLine produces one line for a linked regulated price, following
// its Tariff/Subscription/Fee shape (spec.md §4.3 step 1).
func datahubLine(price pricing.PriceWithPoints, observations []timeseries.Observation, tsResolution primitives.Resolution, period primitives.Period) *settlement.SettlementLine {
	meta := price.Price()
	priceID := meta.ID
	switch meta.Type {
	case primitives.PriceTypeFee:
		return nil
	case primitives.PriceTypeSubscription:
		days := period.Days()
		dailyRate, ok := price.GetPriceAt(period.Start)
		if !ok {
			dailyRate = 0
		}
		amount := primitives.NewMoney(decimalFromFloat(float64(days)*dailyRate), currencyDKK)
		return &settlement.SettlementLine{
			Source:      primitives.SourceDataHubCharge,
			PriceID:     &priceID,
			Description: meta.Description,
			Quantity:    primitives.KWh(float64(days)),
			UnitPrice:   dailyRate,
			Amount:      amount,
		}
	default: // Tariff
		qtySum := primitives.ZeroEnergy()
		amountSum := 0.0
		for _, o := range observations {
			rate, ok := tariffRate(price, o.Timestamp, tsResolution, meta.PriceResolution)
			if !ok {
				continue
			}
			qtySum = qtySum.Add(o.Quantity)
			amountSum += o.Quantity.Float64() * rate
		}
		unitPrice := 0.0
		if !qtySum.IsZero() {
			unitPrice = amountSum / qtySum.Float64()
		}
		return &settlement.SettlementLine{
			Source:      primitives.SourceDataHubCharge,
			PriceID:     &priceID,
			Description: meta.Description,
			Quantity:    qtySum,
			UnitPrice:   unitPrice,
			Amount:      primitives.NewMoney(decimalFromFloat(amountSum), currencyDKK),
		}
	}
}

// tariffRate resolves a Tariff price's rate for one observation, averaging
// over the hour when the series is hourly but the price is quarter-hourly
// (spec.md §4.3 step 1).
func tariffRate(price pricing.PriceWithPoints, at time.Time, tsResolution primitives.Resolution, priceResolution *primitives.Resolution) (float64, bool) {
	if tsResolution == primitives.ResolutionPT1H && priceResolution != nil && *priceResolution == primitives.ResolutionPT15M {
		return price.GetAveragePriceInHour(at)
	}
	return price.GetPriceAt(at)
}

// electricityLines emits the Spot/Margin line(s) per the selected pricing
// model (spec.md §4.3 step 2).
func electricityLines(observations []timeseries.Observation, tsResolution primitives.Resolution, spotPrices []SpotPoint, margins []Margin, model primitives.PricingModel, total primitives.EnergyQuantity) []settlement.SettlementLine {
	combinedMargin := 0.0
	for _, m := range margins {
		combinedMargin += m.PriceDkkPerKwh
	}

	if model == primitives.PricingModelFixed {
		return []settlement.SettlementLine{{
			Source:      primitives.SourceSupplierMargin,
			Description: "Elpris (fast)",
			Quantity:    total,
			UnitPrice:   combinedMargin,
			Amount:      primitives.NewMoney(decimalFromFloat(total.Float64()*combinedMargin), currencyDKK),
		}}
	}

	spotIndex := indexSpotPrices(spotPrices)
	spotAmount := 0.0
	for _, o := range observations {
		rate, ok := spotRate(spotIndex, o.Timestamp, tsResolution)
		if !ok {
			continue
		}
		spotAmount += o.Quantity.Float64() * rate
	}

	lines := []settlement.SettlementLine{{
		Source:      primitives.SourceSpotPrice,
		Description: "Spotpris",
		Quantity:    total,
		UnitPrice:   safeDiv(spotAmount, total.Float64()),
		Amount:      primitives.NewMoney(decimalFromFloat(spotAmount), currencyDKK),
	}}
	if len(margins) > 0 {
		lines = append(lines, settlement.SettlementLine{
			Source:      primitives.SourceSupplierMargin,
			Description: "Leverandørtillæg",
			Quantity:    total,
			UnitPrice:   combinedMargin,
			Amount:      primitives.NewMoney(decimalFromFloat(total.Float64()*combinedMargin), currencyDKK),
		})
	}
	return lines
}

func indexSpotPrices(points []SpotPoint) map[int64]float64 {
	index := make(map[int64]float64, len(points))
	for _, p := range points {
		index[p.Timestamp.UTC().Unix()] = p.PriceDkkPerKwh
	}
	return index
}

// spotRate resolves the spot rate for one observation. When the series is
// hourly, it averages the four quarter-hour spots within the hour,
// treating missing quarters as zero and uncounted (spec.md §4.3 step 2).
func spotRate(index map[int64]float64, at time.Time, tsResolution primitives.Resolution) (float64, bool) {
	if tsResolution != primitives.ResolutionPT1H {
		rate, ok := index[at.UTC().Unix()]
		return rate, ok
	}
	sum := 0.0
	count := 0
	for q := 0; q < 4; q++ {
		ts := at.UTC().Add(time.Duration(q) * 15 * time.Minute)
		if rate, ok := index[ts.Unix()]; ok {
			sum += rate
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
