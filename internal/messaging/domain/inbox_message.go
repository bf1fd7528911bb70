package messaging

import "time"

// InboxMessage is an RSM envelope received from the hub, tracked through
// processing (spec.md §3.2): "received -> (processed | error with
// retry)".
type InboxMessage struct {
	MessageID          string
	DocumentType       string
	BusinessProcess    string
	SenderGln          string
	ReceiverGln        string
	Payload            []byte
	ReceivedAt         time.Time
	IsProcessed        bool
	ProcessedAt        *time.Time
	ProcessingError    *string
	ProcessingAttempts int
}

// NewInboxMessage records a freshly received envelope, unprocessed.
func NewInboxMessage(messageID, documentType, businessProcess, senderGln, receiverGln string, payload []byte, receivedAt time.Time) InboxMessage {
	return InboxMessage{
		MessageID:       messageID,
		DocumentType:    documentType,
		BusinessProcess: businessProcess,
		SenderGln:       senderGln,
		ReceiverGln:     receiverGln,
		Payload:         payload,
		ReceivedAt:      receivedAt,
	}
}

// MarkProcessed records successful processing. Calling it on an
// already-processed message is a no-op, matching spec.md §4.6.3's
// inbox-is-idempotent-on-MessageId rule: re-delivery of the same
// envelope must be a no-op after processing.
func (m *InboxMessage) MarkProcessed(at time.Time) {
	if m.IsProcessed {
		return
	}
	m.IsProcessed = true
	m.ProcessedAt = &at
	m.ProcessingError = nil
}

// MarkFailed records a processing failure and increments the attempt
// counter, leaving IsProcessed false so the dispatcher retries it.
func (m *InboxMessage) MarkFailed(errMsg string) {
	m.ProcessingAttempts++
	m.ProcessingError = &errMsg
}
