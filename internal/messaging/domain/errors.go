// Package messaging implements InboxMessage, OutboxMessage, and the CIM
// envelope builder/parser (spec.md §4.7), grounded on
// internal/eventing package (envelope.go's BuildEnvelope DSL shape,
// outbox_bus.go's Publisher/OutboxWriter split, and the Postgres
// pending/sent/failed outbox lifecycle in
// infrastructure/postgres/outbox_store.go) generalized from a generic
// internal event bus to the CIM/RSM market-message wire format DataHub
// requires.
package messaging

import "errors"

var (
	ErrDuplicateMessageID   = errors.New("messaging: message id already received")
	ErrAlreadyProcessed     = errors.New("messaging: inbox message already processed")
	ErrCannotResetSentOutbox = errors.New("messaging: cannot reset an already-sent outbox message")
	ErrNotFound             = errors.New("messaging: not found")
	ErrUnknownCodingScheme  = errors.New("messaging: unknown coding scheme")
)
