package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	messagingapp "github.com/dkenergy/dh-settlement/internal/messaging/application"
	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

type fakeOutboxRepo struct {
	byID map[string]*messaging.OutboxMessage
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{byID: make(map[string]*messaging.OutboxMessage)}
}

func (r *fakeOutboxRepo) FindByMessageID(_ context.Context, messageID string) (*messaging.OutboxMessage, error) {
	return r.byID[messageID], nil
}

func (r *fakeOutboxRepo) Save(_ context.Context, msg *messaging.OutboxMessage) error {
	cp := *msg
	r.byID[msg.MessageID] = &cp
	return nil
}

func (r *fakeOutboxRepo) ListUnsent(_ context.Context, limit int) ([]messaging.OutboxMessage, error) {
	var result []messaging.OutboxMessage
	for _, msg := range r.byID {
		if !msg.IsSent {
			result = append(result, *msg)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

type fakeSender struct {
	shouldFail map[string]bool
}

func (s *fakeSender) Send(_ context.Context, msg messaging.OutboxMessage) ([]byte, error) {
	if s.shouldFail[msg.MessageID] {
		return nil, errors.New("hub unreachable")
	}
	return []byte(`{"status":"ok"}`), nil
}

func TestOutboxSender_SendsDueMessagesAndRecordsFailures(t *testing.T) {
	repo := newFakeOutboxRepo()
	ok := messaging.NewOutboxMessage("mrid-1", "Doc", "E03", "5790000432752", "5790000432769", []byte("{}"), nil)
	failing := messaging.NewOutboxMessage("mrid-2", "Doc", "E03", "5790000432752", "5790000432769", []byte("{}"), nil)
	if err := repo.Save(context.Background(), &ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Save(context.Background(), &failing); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sender := &fakeSender{shouldFail: map[string]bool{"mrid-2": true}}
	outboxSvc, err := messagingapp.NewOutboxService(repo, sender)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	worker := &OutboxSender{Outbox: outboxSvc}
	if err := worker.Tick(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !repo.byID["mrid-1"].IsSent {
		t.Fatalf("expected mrid-1 to be sent")
	}
	if repo.byID["mrid-2"].IsSent {
		t.Fatalf("expected mrid-2 to remain unsent")
	}
	if repo.byID["mrid-2"].SendAttempts != 1 {
		t.Fatalf("expected one send attempt for mrid-2, got %d", repo.byID["mrid-2"].SendAttempts)
	}
}
