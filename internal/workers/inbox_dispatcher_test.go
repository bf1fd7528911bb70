package workers

import (
	"context"
	"testing"
	"time"

	messagingapp "github.com/dkenergy/dh-settlement/internal/messaging/application"
	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

type fakeInboxRepo struct {
	byID map[string]*messaging.InboxMessage
}

func newFakeInboxRepo() *fakeInboxRepo {
	return &fakeInboxRepo{byID: make(map[string]*messaging.InboxMessage)}
}

func (r *fakeInboxRepo) FindByMessageID(_ context.Context, messageID string) (*messaging.InboxMessage, error) {
	return r.byID[messageID], nil
}

func (r *fakeInboxRepo) Save(_ context.Context, msg *messaging.InboxMessage) error {
	cp := *msg
	r.byID[msg.MessageID] = &cp
	return nil
}

func (r *fakeInboxRepo) ListUnprocessed(_ context.Context, limit int) ([]messaging.InboxMessage, error) {
	var result []messaging.InboxMessage
	for _, msg := range r.byID {
		if !msg.IsProcessed {
			result = append(result, *msg)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func TestInboxDispatcher_RoutesByBusinessProcessAndMarksProcessed(t *testing.T) {
	repo := newFakeInboxRepo()
	msg := messaging.NewInboxMessage("mrid-1", "RequestChangeOfSupplier_MarketDocument", "E03", "5790000432752", "5790000432769", []byte("{}"), time.Now())
	if err := repo.Save(context.Background(), &msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inbox, err := messagingapp.NewInboxService(repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var routed bool
	dispatcher := &InboxDispatcher{
		Inbox: inbox,
		Routes: map[string]messagingapp.HandlerFunc{
			"E03": func(_ context.Context, _ messaging.InboxMessage) error {
				routed = true
				return nil
			},
		},
	}

	if err := dispatcher.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !routed {
		t.Fatalf("expected the E03 route to run")
	}
	stored := repo.byID["mrid-1"]
	if stored == nil || !stored.IsProcessed {
		t.Fatalf("expected message to be marked processed")
	}
}

func TestInboxDispatcher_UnknownBusinessProcessCountsAsFailure(t *testing.T) {
	repo := newFakeInboxRepo()
	msg := messaging.NewInboxMessage("mrid-2", "Unknown_MarketDocument", "ZZ", "5790000432752", "5790000432769", []byte("{}"), time.Now())
	if err := repo.Save(context.Background(), &msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inbox, err := messagingapp.NewInboxService(repo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dispatcher := &InboxDispatcher{Inbox: inbox, Routes: map[string]messagingapp.HandlerFunc{}}

	if err := dispatcher.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored := repo.byID["mrid-2"]
	if stored == nil || stored.IsProcessed {
		t.Fatalf("expected message to remain unprocessed")
	}
	if stored.ProcessingAttempts != 1 {
		t.Fatalf("expected one processing attempt, got %d", stored.ProcessingAttempts)
	}
}
