package messaging

import "time"

// OutboxMessage is an RSM envelope this supplier is shipping to the hub,
// symmetric to InboxMessage with send-side bookkeeping (spec.md §3.2):
// "created by handlers; sent by dispatcher".
type OutboxMessage struct {
	MessageID     string
	DocumentType  string
	BusinessProcess string
	SenderGln     string
	ReceiverGln   string
	Payload       []byte
	ScheduledFor  *time.Time
	IsSent        bool
	SentAt        *time.Time
	SendAttempts  int
	Response      []byte
	SendError     *string
}

// NewOutboxMessage constructs an unsent outbox message.
func NewOutboxMessage(messageID, documentType, businessProcess, senderGln, receiverGln string, payload []byte, scheduledFor *time.Time) OutboxMessage {
	return OutboxMessage{
		MessageID:       messageID,
		DocumentType:    documentType,
		BusinessProcess: businessProcess,
		SenderGln:       senderGln,
		ReceiverGln:     receiverGln,
		Payload:         payload,
		ScheduledFor:    scheduledFor,
	}
}

// MarkSent records a successful delivery; sent implies SentAt is set
// (spec.md §3.2).
func (m *OutboxMessage) MarkSent(at time.Time, response []byte) {
	m.IsSent = true
	m.SentAt = &at
	m.Response = response
	m.SendError = nil
}

// MarkSendFailed increments SendAttempts and records the error, leaving
// IsSent false so the dispatcher retries it.
func (m *OutboxMessage) MarkSendFailed(errMsg string) {
	m.SendAttempts++
	m.SendError = &errMsg
}

// ResetForRetry clears SendError while keeping SendAttempts, only
// permitted when the message has not yet been sent (spec.md §4.6.3:
// "clears SendError, keeps SendAttempts; only permitted when IsSent =
// false").
func (m *OutboxMessage) ResetForRetry() error {
	if m.IsSent {
		return ErrCannotResetSentOutbox
	}
	m.SendError = nil
	return nil
}
