package workers

import (
	"context"
	"log"
	"time"

	messagingapp "github.com/dkenergy/dh-settlement/internal/messaging/application"
	"github.com/dkenergy/dh-settlement/internal/observability/metrics"
)

// OutboxSender dispatches due outbound RSM envelopes on the same
// one-second cadence as InboxDispatcher (spec.md §5 "Outbox sender").
type OutboxSender struct {
	Outbox    *messagingapp.OutboxService
	BatchSize int
	Logger    *log.Logger
}

// Tick sends every unsent, due message.
func (s *OutboxSender) Tick(ctx context.Context, now time.Time) error {
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}
	sent, failed, err := s.Outbox.DispatchPending(ctx, limit, now)
	if err != nil {
		return err
	}
	for i := 0; i < sent; i++ {
		metrics.IncOutboxSent(metrics.ResultSuccess)
	}
	for i := 0; i < failed; i++ {
		metrics.IncOutboxSent(metrics.ResultError)
	}
	return nil
}

func (s *OutboxSender) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// Run starts the sender's ticker loop; it blocks until ctx is
// cancelled.
func (s *OutboxSender) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			if err := s.Tick(ctx, tick.UTC()); err != nil {
				s.logf("outbox sender tick error: %v", err)
			}
		}
	}
}
