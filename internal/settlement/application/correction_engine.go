package application

import (
	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

// CalculateCorrection computes a delta Settlement against a previously
// invoiced one, using a newer time series version (spec.md §4.4). The
// new full calculation is never persisted itself; only the per-line
// deltas are (step 3).
func CalculateCorrection(in CalculationInput, original settlement.Settlement) (*settlement.Settlement, error) {
	fullNew, err := Calculate(in)
	if err != nil {
		return nil, err
	}

	deltaEnergy := fullNew.TotalEnergy.Sub(original.TotalEnergy)

	var correctionLines []settlement.SettlementLine
	for _, newLine := range fullNew.Lines {
		originalLine, found := settlement.LineByKey(original.Lines, newLine.Source, newLine.PriceID)

		deltaAmount, err := newLine.Amount.Sub(zeroIfMissing(originalLine, found))
		if err != nil {
			return nil, err
		}
		if deltaAmount.IsZero() {
			continue
		}
		deltaQty := newLine.Quantity.Sub(quantityOrZero(originalLine, found))

		effectiveUnitPrice := newLine.UnitPrice
		if !deltaQty.IsZero() {
			effectiveUnitPrice = deltaAmount.Amount().InexactFloat64() / deltaQty.Float64()
		}

		correctionLines = append(correctionLines, settlement.SettlementLine{
			Source:      newLine.Source,
			PriceID:     newLine.PriceID,
			Description: newLine.Description + " (justering)",
			Quantity:    deltaQty,
			UnitPrice:   effectiveUnitPrice,
			Amount:      primitives.MulRate(deltaQty, decimalFromFloat(effectiveUnitPrice), currencyDKK),
		})
	}

	return settlement.CreateCorrection(
		fullNew.MeteringPointID,
		fullNew.SupplyID,
		fullNew.SettlementPeriod,
		fullNew.TimeSeriesID,
		fullNew.TimeSeriesVersion,
		deltaEnergy,
		original.ID,
		correctionLines,
		currencyDKK,
		in.CalculatedAt,
	)
}

func zeroIfMissing(line settlement.SettlementLine, found bool) primitives.Money {
	if !found {
		return primitives.ZeroMoney(currencyDKK)
	}
	return line.Amount
}

func quantityOrZero(line settlement.SettlementLine, found bool) primitives.EnergyQuantity {
	if !found {
		return primitives.ZeroEnergy()
	}
	return line.Quantity
}
