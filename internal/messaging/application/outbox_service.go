package application

import (
	"context"
	"errors"
	"time"

	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

// Sender ships an envelope's bytes to the hub and returns its raw
// response (or an error on transport failure). Implemented by
// internal/messaging/infrastructure/datahub.Client.
type Sender interface {
	Send(ctx context.Context, msg messaging.OutboxMessage) (response []byte, err error)
}

// OutboxService enqueues handler-created outbox messages and dispatches
// them, grounded on eventing.Publisher (write to outbox,
// then trigger dispatch) / OutboxStore ListPending-MarkSent-MarkFailed
// cycle.
type OutboxService struct {
	repo   messaging.OutboxRepository
	sender Sender
}

// NewOutboxService constructs an OutboxService.
func NewOutboxService(repo messaging.OutboxRepository, sender Sender) (*OutboxService, error) {
	if repo == nil {
		return nil, errors.New("messaging: nil outbox repository")
	}
	if sender == nil {
		return nil, errors.New("messaging: nil sender")
	}
	return &OutboxService{repo: repo, sender: sender}, nil
}

// Enqueue persists a handler-built envelope for later dispatch.
func (s *OutboxService) Enqueue(ctx context.Context, env messaging.ParsedEnvelope, raw []byte, scheduledFor *time.Time) (*messaging.OutboxMessage, error) {
	msg := messaging.NewOutboxMessage(env.MRID, env.DocumentName, env.ProcessTypeCode, env.SenderGln, env.ReceiverGln, raw, scheduledFor)
	if err := s.repo.Save(ctx, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DispatchPending sends every unsent, due message through Sender,
// marking each sent on success or recording the send error (with
// SendAttempts incremented) on failure.
func (s *OutboxService) DispatchPending(ctx context.Context, limit int, now time.Time) (sent, failed int, err error) {
	pending, err := s.repo.ListUnsent(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	for i := range pending {
		msg := pending[i]
		if msg.ScheduledFor != nil && msg.ScheduledFor.After(now) {
			continue
		}
		response, sendErr := s.sender.Send(ctx, msg)
		if sendErr != nil {
			msg.MarkSendFailed(sendErr.Error())
			if err := s.repo.Save(ctx, &msg); err != nil {
				return sent, failed, err
			}
			failed++
			continue
		}
		msg.MarkSent(now, response)
		if err := s.repo.Save(ctx, &msg); err != nil {
			return sent, failed, err
		}
		sent++
	}
	return sent, failed, nil
}

// ResetForRetry clears a not-yet-sent message's SendError so the next
// DispatchPending pass retries it (spec.md §4.6.3).
func (s *OutboxService) ResetForRetry(ctx context.Context, messageID string) error {
	msg, err := s.repo.FindByMessageID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return messaging.ErrNotFound
	}
	if err := msg.ResetForRetry(); err != nil {
		return err
	}
	return s.repo.Save(ctx, msg)
}
