package application

import (
	"strings"
	"testing"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
)

func linkedPrice(t *testing.T, category primitives.PriceCategory, from time.Time) LinkedPrice {
	t.Helper()
	price, err := pricing.Create("charge-"+string(category), mustGln(t), primitives.PriceTypeTariff, string(category), primitives.OpenEndedPeriod(from), false, nil, false, false, category)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := price.AddPricePoint(from, 1.0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return LinkedPrice{Category: category, Lookup: pricing.NewPriceWithPoints(price, nil)}
}

// TestValidateCompleteness_SixOfSevenCategoriesYieldsOneMissingCategoryIssue
// mirrors spec.md §8's Validator property: active links covering six of
// the seven required categories produce exactly one SettlementIssue for
// the missing one (the scenario names Elafgift specifically).
func TestValidateCompleteness_SixOfSevenCategoriesYieldsOneMissingCategoryIssue(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var links []LinkedPrice
	for _, category := range primitives.RequiredPriceCategories {
		if category == primitives.CategoryElafgift {
			continue
		}
		links = append(links, linkedPrice(t, category, start))
	}

	issues := ValidateCompleteness(links, start)
	if len(issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d: %+v", len(issues), issues)
	}
	if issues[0].Type != IssueTypeMissingCategory {
		t.Fatalf("expected IssueTypeMissingCategory, got %s", issues[0].Type)
	}
	if !strings.Contains(issues[0].Message, string(primitives.CategoryElafgift)) {
		t.Fatalf("expected message to mention Elafgift, got %q", issues[0].Message)
	}
}

func TestValidateCompleteness_AllCategoriesCoveredYieldsNoIssues(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var links []LinkedPrice
	for _, category := range primitives.RequiredPriceCategories {
		links = append(links, linkedPrice(t, category, start))
	}

	issues := ValidateCompleteness(links, start)
	if len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateCompleteness_UnresolvablePricePointYieldsIssue(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	afterStart := start.AddDate(0, 0, 1)

	var links []LinkedPrice
	for _, category := range primitives.RequiredPriceCategories {
		links = append(links, linkedPrice(t, category, afterStart))
	}

	issues := ValidateCompleteness(links, start)
	missingPoints := 0
	for _, issue := range issues {
		if issue.Type == IssueTypeMissingPricePoint {
			missingPoints++
		}
	}
	if missingPoints != len(primitives.RequiredPriceCategories) {
		t.Fatalf("expected every link to report a missing price point before its first point, got %d", missingPoints)
	}
}
