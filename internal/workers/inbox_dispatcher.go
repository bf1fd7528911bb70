package workers

import (
	"context"
	"log"
	"time"

	messagingapp "github.com/dkenergy/dh-settlement/internal/messaging/application"
	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
	"github.com/dkenergy/dh-settlement/internal/observability/metrics"
)

// InboxDispatcher routes unprocessed inbox messages to a handler keyed
// by BusinessProcess every second (spec.md §5 "Inbox dispatcher"). The
// routing table is supplied by main.go, one entry per wired BRS/RSM
// handler; an unrecognised BusinessProcess is itself a handling error so
// it counts toward the message's retry/back-off bookkeeping rather than
// being silently dropped.
type InboxDispatcher struct {
	Inbox     *messagingapp.InboxService
	Routes    map[string]messagingapp.HandlerFunc
	BatchSize int
	Logger    *log.Logger
}

// Tick hands every unprocessed message to its route, marking it
// Processed or Failed.
func (d *InboxDispatcher) Tick(ctx context.Context, now time.Time) error {
	limit := d.BatchSize
	if limit <= 0 {
		limit = 100
	}
	processed, failed, err := d.Inbox.ProcessPending(ctx, limit, now, d.route)
	if err != nil {
		return err
	}
	for i := 0; i < processed; i++ {
		metrics.IncInboxProcessed(metrics.ResultSuccess)
	}
	for i := 0; i < failed; i++ {
		metrics.IncInboxProcessed(metrics.ResultError)
	}
	return nil
}

func (d *InboxDispatcher) route(ctx context.Context, msg messaging.InboxMessage) error {
	handle, ok := d.Routes[msg.BusinessProcess]
	if !ok {
		return messaging.ErrUnknownCodingScheme
	}
	return handle(ctx, msg)
}

func (d *InboxDispatcher) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

// Run starts the dispatcher's ticker loop; it blocks until ctx is
// cancelled.
func (d *InboxDispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			if err := d.Tick(ctx, tick.UTC()); err != nil {
				d.logf("inbox dispatcher tick error: %v", err)
			}
		}
	}
}
