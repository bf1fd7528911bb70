// Package application implements the reconciliation aggregator: it sums
// our settlement lines by description, compares the grand total and
// each line against the hub's wholesale settlement for the same grid
// area and period, and records a Balanced or Deviating result (spec.md
// §4.8). Grounded on internal/alarms/application/service.go
// (Service.HandleTelemetryReceived: evaluate an incoming fact against a
// stored reference, persist an outcome, optionally notify), generalized
// from a single telemetry reading crossing a rule threshold to a set of
// settlement lines compared against a wholesale settlement.
package application

import (
	"context"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/reconciliation/domain"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

// SettlementLister is the subset of settlement.Repository the aggregator
// needs: every settlement for a grid area and period, so their lines can
// be summed by description.
type SettlementLister interface {
	ListForGridAreaAndPeriod(ctx context.Context, gridArea string, period primitives.Period) ([]settlement.Settlement, error)
}

// Aggregator reconciles our settlements against the hub's wholesale
// settlement.
type Aggregator struct {
	settlements SettlementLister
	wholesale   reconciliation.WholesaleSettlementRepository
	results     reconciliation.ResultRepository
}

// NewAggregator constructs an Aggregator.
func NewAggregator(settlements SettlementLister, wholesale reconciliation.WholesaleSettlementRepository, results reconciliation.ResultRepository) *Aggregator {
	return &Aggregator{settlements: settlements, wholesale: wholesale, results: results}
}

// Reconcile sums our settlement lines by description, compares against
// the hub's latest wholesale settlement for the same grid area and
// period, and persists the result.
func (a *Aggregator) Reconcile(ctx context.Context, gridArea string, period primitives.Period, now time.Time) (*reconciliation.ReconciliationResult, error) {
	ours, err := a.settlements.ListForGridAreaAndPeriod(ctx, gridArea, period)
	if err != nil {
		return nil, err
	}

	hub, err := a.wholesale.LatestFor(ctx, gridArea, period)
	if err != nil {
		return nil, err
	}
	if hub == nil {
		return nil, reconciliation.ErrNoWholesaleSettlement
	}

	ourTotals := sumByDescription(ours)
	hubTotals := make(map[string]primitives.Money, len(hub.Lines))
	for _, line := range hub.Lines {
		hubTotals[line.Description] = line.Amount
	}

	descriptions := make(map[string]struct{}, len(ourTotals)+len(hubTotals))
	for d := range ourTotals {
		descriptions[d] = struct{}{}
	}
	for d := range hubTotals {
		descriptions[d] = struct{}{}
	}

	currency := "DKK"
	var lineDeltas []reconciliation.LineDelta
	ourTotal := primitives.ZeroMoney(currency)
	hubTotal := primitives.ZeroMoney(currency)
	for description := range descriptions {
		ourAmount, ok := ourTotals[description]
		if !ok {
			ourAmount = primitives.ZeroMoney(currency)
		}
		hubAmount, ok := hubTotals[description]
		if !ok {
			hubAmount = primitives.ZeroMoney(currency)
		}
		delta, err := ourAmount.Sub(hubAmount)
		if err != nil {
			return nil, err
		}
		lineDeltas = append(lineDeltas, reconciliation.LineDelta{
			Description: description,
			OurAmount:   ourAmount,
			HubAmount:   hubAmount,
			Delta:       delta,
		})
		if ourTotal, err = ourTotal.Add(ourAmount); err != nil {
			return nil, err
		}
		if hubTotal, err = hubTotal.Add(hubAmount); err != nil {
			return nil, err
		}
	}

	differenceAmount, err := ourTotal.Sub(hubTotal)
	if err != nil {
		return nil, err
	}
	differencePercent := percentDifference(differenceAmount, hubTotal)

	result := &reconciliation.ReconciliationResult{
		ID:                primitives.NewID(),
		GridArea:          gridArea,
		Period:            period,
		OurTotal:          ourTotal,
		HubTotal:          hubTotal,
		DifferenceAmount:  differenceAmount,
		DifferencePercent: differencePercent,
		Status:            reconciliation.Classify(differencePercent),
		LineDeltas:        lineDeltas,
		ComputedAt:        now,
	}

	if err := a.results.Save(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func sumByDescription(settlements []settlement.Settlement) map[string]primitives.Money {
	totals := make(map[string]primitives.Money)
	for _, s := range settlements {
		for _, line := range s.Lines {
			current, ok := totals[line.Description]
			if !ok {
				current = primitives.ZeroMoney(line.Amount.Currency())
			}
			sum, err := current.Add(line.Amount)
			if err != nil {
				continue
			}
			totals[line.Description] = sum
		}
	}
	return totals
}

// percentDifference expresses differenceAmount as a percentage of
// hubTotal. A zero hub total with a nonzero difference is reported as a
// full deviation rather than dividing by zero.
func percentDifference(differenceAmount, hubTotal primitives.Money) float64 {
	hub, _ := hubTotal.Amount().Float64()
	diff, _ := differenceAmount.Amount().Float64()
	if hub == 0 {
		if diff == 0 {
			return 0
		}
		return 100
	}
	return (diff / hub) * 100
}
