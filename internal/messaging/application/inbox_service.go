// Package application implements inbox receipt and outbox dispatch atop
// the messaging domain, grounded on
// internal/eventing.Publisher / Dispatcher split (outbox write +
// separately triggered dispatch) generalized from an in-process event
// bus to the external RSM hub transport.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

// InboxService records inbound RSM envelopes idempotently on MessageID
// (spec.md §4.6.3) and hands unprocessed ones to a caller-supplied
// handler.
type InboxService struct {
	repo messaging.InboxRepository
}

// NewInboxService constructs an InboxService.
func NewInboxService(repo messaging.InboxRepository) (*InboxService, error) {
	if repo == nil {
		return nil, errors.New("messaging: nil inbox repository")
	}
	return &InboxService{repo: repo}, nil
}

// Receive stores env as a new InboxMessage unless MessageID was already
// seen, in which case the existing (possibly already-processed) message
// is returned unchanged — re-delivery is a no-op.
func (s *InboxService) Receive(ctx context.Context, env messaging.ParsedEnvelope, raw []byte, receivedAt time.Time) (*messaging.InboxMessage, error) {
	existing, err := s.repo.FindByMessageID(ctx, env.MRID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	msg := messaging.NewInboxMessage(env.MRID, env.DocumentName, env.ProcessTypeCode, env.SenderGln, env.ReceiverGln, raw, receivedAt)
	if err := s.repo.Save(ctx, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// HandlerFunc processes one unprocessed inbox message's payload.
type HandlerFunc func(ctx context.Context, msg messaging.InboxMessage) error

// ProcessPending runs handle over every unprocessed message, marking
// each Processed on success or Failed (with the attempt counter bumped)
// on error, so a later retry pass can pick it back up.
func (s *InboxService) ProcessPending(ctx context.Context, limit int, at time.Time, handle HandlerFunc) (processed, failed int, err error) {
	pending, err := s.repo.ListUnprocessed(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	for i := range pending {
		msg := pending[i]
		if handleErr := handle(ctx, msg); handleErr != nil {
			msg.MarkFailed(handleErr.Error())
			if err := s.repo.Save(ctx, &msg); err != nil {
				return processed, failed, err
			}
			failed++
			continue
		}
		msg.MarkProcessed(at)
		if err := s.repo.Save(ctx, &msg); err != nil {
			return processed, failed, err
		}
		processed++
	}
	return processed, failed, nil
}
