package application

import (
	"context"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
	"github.com/dkenergy/dh-settlement/internal/timeseries/domain"
)

// ContextLoader assembles a CalculationInput for one metering
// point/period pair from the refdata, pricing, and timeseries
// repositories, keeping Calculate itself free of any repository
// dependency (SPEC_FULL.md §9 "ORM-driven inclusion graphs -> explicit
// fetch plans": LoadPricingContext(mpId, periodStart, periodEnd) ->
// (supply, datahubPrices, spotPrices, margins, timeSeries)).
type ContextLoader struct {
	MeteringPoints   refdata.MeteringPointRepository
	Supplies         refdata.SupplyRepository
	SupplierProducts refdata.SupplierProductRepository
	PriceLinks       pricing.LinkRepository
	Prices           pricing.Repository
	SpotPrices       pricing.SpotPriceRepository
	SupplierMargins  pricing.SupplierMarginRepository
	TimeSeries       timeseries.Repository
}

// Load fetches every piece of context Calculate needs for
// (meteringPointID, period), evaluated as of asOf (normally the series'
// ReceivedAt or "now").
func (l *ContextLoader) Load(ctx context.Context, meteringPointID primitives.ID, period primitives.Period, asOf time.Time) (CalculationInput, error) {
	mp, err := l.MeteringPoints.FindByID(ctx, meteringPointID)
	if err != nil {
		return CalculationInput{}, err
	}
	if mp == nil {
		return CalculationInput{}, refdata.ErrNotFound
	}

	series, err := l.TimeSeries.FindLatest(ctx, meteringPointID, period)
	if err != nil {
		return CalculationInput{}, err
	}
	if series == nil {
		return CalculationInput{}, settlement.ErrEmptyTimeSeries
	}

	supply, err := l.Supplies.FindCurrentByMeteringPoint(ctx, meteringPointID, period.Start)
	if err != nil {
		return CalculationInput{}, err
	}
	if supply == nil {
		return CalculationInput{}, settlement.ErrNoActiveSupply
	}

	assignments, err := l.SupplierProducts.ActiveAssignments(ctx, supply.ID, period.Start)
	if err != nil {
		return CalculationInput{}, err
	}
	var model primitives.PricingModel
	var productIDs []primitives.ID
	for _, assignment := range assignments {
		product, err := l.SupplierProducts.FindByID(ctx, assignment.SupplierProductID)
		if err != nil {
			return CalculationInput{}, err
		}
		if product == nil || !product.IsActive {
			continue
		}
		productIDs = append(productIDs, product.ID)
		if model == "" {
			model = product.PricingModel
		}
	}

	links, err := l.PriceLinks.ActiveLinks(ctx, meteringPointID, period.Start)
	if err != nil {
		return CalculationInput{}, err
	}
	datahubPrices := make([]pricing.PriceWithPoints, 0, len(links))
	for _, link := range links {
		price, err := l.Prices.FindByID(ctx, link.PriceID)
		if err != nil {
			return CalculationInput{}, err
		}
		if price == nil {
			continue
		}
		datahubPrices = append(datahubPrices, pricing.NewPriceWithPoints(*price, nil))
	}

	spots, err := l.SpotPrices.ForPeriod(ctx, pricing.PriceArea(mp.GridArea), period)
	if err != nil {
		return CalculationInput{}, err
	}
	spotPoints := make([]SpotPoint, 0, len(spots))
	for _, sp := range spots {
		spotPoints = append(spotPoints, SpotPoint{Timestamp: sp.Timestamp, PriceDkkPerKwh: sp.PriceDkkPerKwh})
	}

	var margins []Margin
	if len(productIDs) > 0 {
		all, err := l.SupplierMargins.ActiveFor(ctx, productIDs, period.Start)
		if err != nil {
			return CalculationInput{}, err
		}
		for _, m := range pricing.ActiveMargins(all, period.Start) {
			margins = append(margins, Margin{Name: "Margin", PriceDkkPerKwh: m.PriceDkkPerKwh})
		}
	}

	return CalculationInput{
		TimeSeries:    *series,
		SupplyID:      supply.ID,
		DatahubPrices: datahubPrices,
		SpotPrices:    spotPoints,
		ActiveMargins: margins,
		PricingModel:  model,
		CalculatedAt:  asOf,
	}, nil
}
