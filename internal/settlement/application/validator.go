package application

import (
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// LinkedPrice pairs an active PriceLink's resolved price with the
// lookup helper the category/point checks need (spec.md §4.5).
type LinkedPrice struct {
	Category primitives.PriceCategory
	Lookup   pricing.PriceWithPoints
}

// ValidateCompleteness runs the two completeness checks spec.md §4.5
// requires before a Calculated settlement may be marked Invoiced,
// returning one issue description per problem found (empty = no
// issues). The calculator itself still runs regardless of these
// results (spec.md §4.5: "the calculator runs regardless").
func ValidateCompleteness(links []LinkedPrice, periodStart time.Time) []Issue {
	var issues []Issue

	covered := make(map[primitives.PriceCategory]bool, len(links))
	for _, link := range links {
		covered[link.Category] = true
	}
	for _, required := range primitives.RequiredPriceCategories {
		if !covered[required] {
			issues = append(issues, Issue{
				Type:     IssueTypeMissingCategory,
				Category: required,
				Message:  fmt.Sprintf("missing required price category: %s", required),
			})
		}
	}

	for _, link := range links {
		if _, ok := link.Lookup.GetPriceAt(periodStart); !ok {
			issues = append(issues, Issue{
				Type:     IssueTypeMissingPricePoint,
				Category: link.Category,
				ChargeID: link.Lookup.Price().ChargeID,
				Message:  fmt.Sprintf("no resolvable price point at period start for charge %q (%s)", link.Lookup.Price().ChargeID, link.Category),
			})
		}
	}

	return issues
}

// IssueType enumerates the two completeness-check failure kinds the
// validator can raise.
type IssueType string

const (
	IssueTypeMissingCategory   IssueType = "MissingPriceCategory"
	IssueTypeMissingPricePoint IssueType = "MissingPricePoint"
)

// Issue is a single completeness-check finding, independent of the
// settlement domain's persisted SettlementIssue shape so the validator
// itself performs no I/O. Category (and ChargeID, for a missing price
// point) identify which specific thing is missing, since two distinct
// missing categories or charges are two distinct issues, not one.
type Issue struct {
	Type     IssueType
	Category primitives.PriceCategory
	ChargeID string
	Message  string
}
