package reconciliation

import (
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Status is the outcome of comparing our settlement total against the
// hub's wholesale settlement total for a grid area and period.
type Status string

const (
	StatusBalanced  Status = "Balanced"
	StatusDeviating Status = "Deviating"
)

// deviationThresholdPercent is the maximum absolute percentage
// difference between our total and the hub's total still considered
// Balanced (spec.md §4.8: "Status is Balanced if |DifferencePercent| <=
// 0.5%, else Deviating").
const deviationThresholdPercent = 0.5

// LineDelta compares one description's amount between our settlements
// and the hub's wholesale settlement.
type LineDelta struct {
	Description string
	OurAmount   primitives.Money
	HubAmount   primitives.Money
	Delta       primitives.Money
}

// ReconciliationResult is the outcome of reconciling our settlements
// against the hub's wholesale settlement for one grid area and period
// (spec.md §4.8).
type ReconciliationResult struct {
	ID                primitives.ID
	GridArea          string
	Period            primitives.Period
	OurTotal          primitives.Money
	HubTotal          primitives.Money
	DifferenceAmount  primitives.Money
	DifferencePercent float64
	Status            Status
	LineDeltas        []LineDelta
	ComputedAt        time.Time
}

// Classify derives the Balanced/Deviating status from a difference
// percent, as an absolute value against deviationThresholdPercent.
func Classify(differencePercent float64) Status {
	p := differencePercent
	if p < 0 {
		p = -p
	}
	if p <= deviationThresholdPercent {
		return StatusBalanced
	}
	return StatusDeviating
}
