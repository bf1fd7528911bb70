package messaging

import "context"

// InboxRepository persists inbound RSM messages, keyed on MessageID to
// enforce spec.md §4.6.3's idempotent-on-MessageId re-delivery rule.
type InboxRepository interface {
	FindByMessageID(ctx context.Context, messageID string) (*InboxMessage, error)
	Save(ctx context.Context, msg *InboxMessage) error
	ListUnprocessed(ctx context.Context, limit int) ([]InboxMessage, error)
}

// OutboxRepository persists outbound RSM messages awaiting dispatch.
type OutboxRepository interface {
	FindByMessageID(ctx context.Context, messageID string) (*OutboxMessage, error)
	Save(ctx context.Context, msg *OutboxMessage) error
	ListUnsent(ctx context.Context, limit int) ([]OutboxMessage, error)
}
