// Package workers holds the system's four background goroutines
// (spec.md §5 "Workers and cadences"): SettlementScheduler,
// InboxDispatcher, OutboxSender, and SpotPriceFetcher. Each is a small
// struct holding its dependencies and a cadence, started from
// cmd/settleworkerd/main.go with a time.NewTicker, doing one bounded
// unit of work per tick and logging errors rather than panicking —
// grounded on own main.go ticker goroutine
// ("strategyEngine.Tick" on a time.NewTicker(time.Minute), looping
// `for tick := range ticker.C`). Workers carry no business logic of
// their own; they only call into the application packages.
package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dkenergy/dh-settlement/internal/observability/metrics"
	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/settlement/application"
	"github.com/dkenergy/dh-settlement/internal/settlement/domain"
)

// SettlementScheduler picks metering points due for a settlement or
// correction and calculates+persists them (spec.md §5 "Settlement
// scheduler", every 30s). The scheduler itself makes no locking
// decisions, and the Settlements repository's upsert conflicts on the
// settlement id only, so no uniqueness key on metering point and period
// rejects a second settlement for the same pair.
type SettlementScheduler struct {
	Settlements settlement.Repository
	Issues      settlement.IssueRepository
	Context     *application.ContextLoader
	BatchSize   int
	Logger      *log.Logger
}

// Tick runs one scheduling pass as of now: finds due work, calculates
// each item, and persists the result. Errors on individual work items
// are logged and do not stop the pass (spec.md §7 "workers log and
// either retry or quarantine").
func (s *SettlementScheduler) Tick(ctx context.Context, now time.Time) error {
	limit := s.BatchSize
	if limit <= 0 {
		limit = 50
	}
	due, err := s.Settlements.ListDueForSettlement(ctx, now, limit)
	if err != nil {
		return err
	}
	for _, work := range due {
		if err := s.processOne(ctx, work, now); err != nil {
			s.logf("settlement scheduler: metering point %s: %v", work.MeteringPointID, err)
			metrics.ObserveSettlementCalculate(metrics.ResultError, 0)
			continue
		}
	}
	return nil
}

func (s *SettlementScheduler) processOne(ctx context.Context, work settlement.DueWork, now time.Time) error {
	start := now
	in, err := s.Context.Load(ctx, work.MeteringPointID, work.Period, now)
	if err != nil {
		return err
	}

	if err := s.validateCompleteness(ctx, in); err != nil {
		return err
	}

	var result *settlement.Settlement
	if work.ExistingSettlementID != nil {
		original, err := s.Settlements.FindByID(ctx, *work.ExistingSettlementID)
		if err != nil {
			return err
		}
		if original == nil {
			return settlement.ErrNotFound
		}
		result, err = application.CalculateCorrection(in, *original)
		if err != nil {
			return err
		}
		metrics.IncCorrection(metrics.ResultSuccess)
	} else {
		result, err = application.Calculate(in)
		if err != nil {
			return err
		}
	}

	if s.flagsMissingSpotPrices(result) {
		if err := s.openMissingSpotPricesIssue(ctx, result); err != nil {
			return err
		}
	}

	if err := s.Settlements.Save(ctx, result); err != nil {
		return err
	}
	metrics.ObserveSettlementCalculate(metrics.ResultSuccess, time.Since(start))
	return nil
}

// flagsMissingSpotPrices reports whether the calculated settlement has
// a zero-amount spot line, surfaced as a SettlementIssue by the
// scheduler rather than by the calculator itself (spec.md §4.3
// "Missing spot data ... is surfaced as a SettlementIssue of kind
// MissingSpotPrices by the scheduler, not by the calculator").
func (s *SettlementScheduler) flagsMissingSpotPrices(result *settlement.Settlement) bool {
	for _, line := range result.Lines {
		if line.Source == primitives.SourceSpotPrice && line.Amount.IsZero() {
			return true
		}
	}
	return false
}

func (s *SettlementScheduler) openMissingSpotPricesIssue(ctx context.Context, result *settlement.Settlement) error {
	if s.Issues == nil {
		return nil
	}
	existing, err := s.Issues.FindOpen(ctx, result.MeteringPointID, result.SettlementPeriod, settlement.IssueMissingSpotPrices)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	issue := settlement.OpenIssue(result.MeteringPointID, result.SettlementPeriod, result.TimeSeriesID, result.TimeSeriesVersion,
		settlement.IssueMissingSpotPrices, "spot price line has zero amount", "", result.CalculatedAt)
	return s.Issues.Save(ctx, &issue)
}

// validateCompleteness runs the two completeness checks (spec.md §4.5)
// before calculation and opens one SettlementIssue per finding. The
// calculator still runs regardless of what this finds (spec.md §4.5:
// "the calculator runs regardless").
func (s *SettlementScheduler) validateCompleteness(ctx context.Context, in application.CalculationInput) error {
	if s.Issues == nil {
		return nil
	}
	links := make([]application.LinkedPrice, 0, len(in.DatahubPrices))
	for _, price := range in.DatahubPrices {
		links = append(links, application.LinkedPrice{Category: price.Price().Category, Lookup: price})
	}
	for _, issue := range application.ValidateCompleteness(links, in.TimeSeries.Period.Start) {
		if err := s.openCompletenessIssue(ctx, in, issue); err != nil {
			return err
		}
	}
	return nil
}

// openCompletenessIssue persists one validator finding. IssueType folds
// in the missing category (or charge, for a missing price point) since
// SettlementIssue is otherwise unique only per (mp, period, issueType)
// while Open — without this, two missing categories would collide onto
// a single row (spec.md §4.5, scenario 3).
func (s *SettlementScheduler) openCompletenessIssue(ctx context.Context, in application.CalculationInput, issue application.Issue) error {
	issueType := settlement.IssueType(fmt.Sprintf("%s:%s", completenessBaseIssueType(issue.Type), completenessIssueIdentity(issue)))
	existing, err := s.Issues.FindOpen(ctx, in.TimeSeries.MeteringPointID, in.TimeSeries.Period, issueType)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	opened := settlement.OpenIssue(in.TimeSeries.MeteringPointID, in.TimeSeries.Period, in.TimeSeries.ID, in.TimeSeries.Version,
		issueType, issue.Message, "", in.CalculatedAt)
	return s.Issues.Save(ctx, &opened)
}

func completenessBaseIssueType(t application.IssueType) settlement.IssueType {
	switch t {
	case application.IssueTypeMissingCategory:
		return settlement.IssueMissingCategory
	case application.IssueTypeMissingPricePoint:
		return settlement.IssueMissingPricePoint
	default:
		return settlement.IssueType(t)
	}
}

func completenessIssueIdentity(issue application.Issue) string {
	if issue.Type == application.IssueTypeMissingPricePoint {
		return issue.ChargeID
	}
	return string(issue.Category)
}

func (s *SettlementScheduler) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// Run starts the scheduler's ticker loop; it blocks until ctx is
// cancelled.
func (s *SettlementScheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			if err := s.Tick(ctx, tick.UTC()); err != nil {
				s.logf("settlement scheduler tick error: %v", err)
			}
		}
	}
}
