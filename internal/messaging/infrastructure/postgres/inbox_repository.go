// Package postgres implements messaging.InboxRepository and
// messaging.OutboxRepository atop database/sql + pgx, grounded on the
// original internal/eventing/infrastructure/postgres/outbox_store.go
// (ON CONFLICT DO NOTHING dedup insert, status-filtered ListPending,
// MarkSent/MarkFailed) generalized to the InboxMessage/OutboxMessage
// shapes spec.md §3.2 defines.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

const defaultInboxTable = "inbox_messages"

// InboxRepository is a Postgres implementation of messaging.InboxRepository.
type InboxRepository struct {
	db    *sql.DB
	table string
}

// InboxOption configures an InboxRepository.
type InboxOption func(*InboxRepository)

// WithInboxTable overrides the default table name.
func WithInboxTable(table string) InboxOption {
	return func(r *InboxRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewInboxRepository constructs an InboxRepository.
func NewInboxRepository(db *sql.DB, opts ...InboxOption) *InboxRepository {
	repo := &InboxRepository{db: db, table: defaultInboxTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const inboxColumns = `message_id, document_type, business_process, sender_gln, receiver_gln, payload, received_at, is_processed, processed_at, processing_error, processing_attempts`

func (r *InboxRepository) FindByMessageID(ctx context.Context, messageID string) (*messaging.InboxMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE message_id = $1 LIMIT 1`, inboxColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, messageID)
	msg, err := scanInboxRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

func (r *InboxRepository) ListUnprocessed(ctx context.Context, limit int) ([]messaging.InboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE is_processed = false ORDER BY received_at ASC LIMIT $1`, inboxColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []messaging.InboxMessage
	for rows.Next() {
		msg, err := scanInboxRows(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

type inboxScanner interface {
	Scan(dest ...any) error
}

func scanInboxRow(row *sql.Row) (*messaging.InboxMessage, error) {
	return scanInbox(row)
}

func scanInboxRows(rows *sql.Rows) (*messaging.InboxMessage, error) {
	return scanInbox(rows)
}

func scanInbox(row inboxScanner) (*messaging.InboxMessage, error) {
	var messageID, documentType, businessProcess, senderGln, receiverGln string
	var payload []byte
	var receivedAt time.Time
	var isProcessed bool
	var processedAt sql.NullTime
	var processingError sql.NullString
	var processingAttempts int

	if err := row.Scan(&messageID, &documentType, &businessProcess, &senderGln, &receiverGln, &payload,
		&receivedAt, &isProcessed, &processedAt, &processingError, &processingAttempts); err != nil {
		return nil, err
	}

	msg := messaging.InboxMessage{
		MessageID:          messageID,
		DocumentType:       documentType,
		BusinessProcess:    businessProcess,
		SenderGln:          senderGln,
		ReceiverGln:        receiverGln,
		Payload:            payload,
		ReceivedAt:         receivedAt,
		IsProcessed:        isProcessed,
		ProcessingAttempts: processingAttempts,
	}
	if processedAt.Valid {
		t := processedAt.Time
		msg.ProcessedAt = &t
	}
	if processingError.Valid {
		e := processingError.String
		msg.ProcessingError = &e
	}
	return &msg, nil
}

// Save upserts an inbox message, keyed by its unique MessageID — the
// idempotent-on-MessageId dedup point (spec.md §4.6.3).
func (r *InboxRepository) Save(ctx context.Context, msg *messaging.InboxMessage) error {
	if msg == nil {
		return errors.New("inbox repo: nil message")
	}
	var processedAt, processingError any
	if msg.ProcessedAt != nil {
		processedAt = *msg.ProcessedAt
	}
	if msg.ProcessingError != nil {
		processingError = *msg.ProcessingError
	}
	query := fmt.Sprintf(`
INSERT INTO %s (message_id, document_type, business_process, sender_gln, receiver_gln, payload, received_at, is_processed, processed_at, processing_error, processing_attempts)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (message_id) DO UPDATE SET
	is_processed = EXCLUDED.is_processed,
	processed_at = EXCLUDED.processed_at,
	processing_error = EXCLUDED.processing_error,
	processing_attempts = EXCLUDED.processing_attempts`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		msg.MessageID, msg.DocumentType, msg.BusinessProcess, msg.SenderGln, msg.ReceiverGln, msg.Payload,
		msg.ReceivedAt, msg.IsProcessed, processedAt, processingError, msg.ProcessingAttempts,
	)
	return err
}
