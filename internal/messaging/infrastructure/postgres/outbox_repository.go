package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

const defaultOutboxTable = "outbox_messages"

// OutboxRepository is a Postgres implementation of messaging.OutboxRepository.
type OutboxRepository struct {
	db    *sql.DB
	table string
}

// OutboxOption configures an OutboxRepository.
type OutboxOption func(*OutboxRepository)

// WithOutboxTable overrides the default table name.
func WithOutboxTable(table string) OutboxOption {
	return func(r *OutboxRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// NewOutboxRepository constructs an OutboxRepository.
func NewOutboxRepository(db *sql.DB, opts ...OutboxOption) *OutboxRepository {
	repo := &OutboxRepository{db: db, table: defaultOutboxTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const outboxColumns = `message_id, document_type, business_process, sender_gln, receiver_gln, payload, scheduled_for, is_sent, sent_at, send_attempts, response, send_error`

func (r *OutboxRepository) FindByMessageID(ctx context.Context, messageID string) (*messaging.OutboxMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE message_id = $1 LIMIT 1`, outboxColumns, r.table)
	row := r.db.QueryRowContext(ctx, query, messageID)
	msg, err := scanOutboxRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

func (r *OutboxRepository) ListUnsent(ctx context.Context, limit int) ([]messaging.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE is_sent = false ORDER BY message_id ASC LIMIT $1`, outboxColumns, r.table)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []messaging.OutboxMessage
	for rows.Next() {
		msg, err := scanOutboxRows(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func scanOutboxRow(row *sql.Row) (*messaging.OutboxMessage, error) {
	return scanOutbox(row)
}

func scanOutboxRows(rows *sql.Rows) (*messaging.OutboxMessage, error) {
	return scanOutbox(rows)
}

func scanOutbox(row inboxScanner) (*messaging.OutboxMessage, error) {
	var messageID, documentType, businessProcess, senderGln, receiverGln string
	var payload, response []byte
	var scheduledFor sql.NullTime
	var isSent bool
	var sentAt sql.NullTime
	var sendAttempts int
	var sendError sql.NullString

	if err := row.Scan(&messageID, &documentType, &businessProcess, &senderGln, &receiverGln, &payload,
		&scheduledFor, &isSent, &sentAt, &sendAttempts, &response, &sendError); err != nil {
		return nil, err
	}

	msg := messaging.OutboxMessage{
		MessageID:       messageID,
		DocumentType:    documentType,
		BusinessProcess: businessProcess,
		SenderGln:       senderGln,
		ReceiverGln:     receiverGln,
		Payload:         payload,
		IsSent:          isSent,
		SendAttempts:    sendAttempts,
		Response:        response,
	}
	if scheduledFor.Valid {
		t := scheduledFor.Time
		msg.ScheduledFor = &t
	}
	if sentAt.Valid {
		t := sentAt.Time
		msg.SentAt = &t
	}
	if sendError.Valid {
		e := sendError.String
		msg.SendError = &e
	}
	return &msg, nil
}

// Save upserts an outbox message, keyed by its unique MessageID.
func (r *OutboxRepository) Save(ctx context.Context, msg *messaging.OutboxMessage) error {
	if msg == nil {
		return errors.New("outbox repo: nil message")
	}
	var scheduledFor, sentAt, sendError any
	if msg.ScheduledFor != nil {
		scheduledFor = *msg.ScheduledFor
	}
	if msg.SentAt != nil {
		sentAt = *msg.SentAt
	}
	if msg.SendError != nil {
		sendError = *msg.SendError
	}
	query := fmt.Sprintf(`
INSERT INTO %s (message_id, document_type, business_process, sender_gln, receiver_gln, payload, scheduled_for, is_sent, sent_at, send_attempts, response, send_error)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (message_id) DO UPDATE SET
	is_sent = EXCLUDED.is_sent,
	sent_at = EXCLUDED.sent_at,
	send_attempts = EXCLUDED.send_attempts,
	response = EXCLUDED.response,
	send_error = EXCLUDED.send_error`, r.table)
	_, err := r.db.ExecContext(ctx, query,
		msg.MessageID, msg.DocumentType, msg.BusinessProcess, msg.SenderGln, msg.ReceiverGln, msg.Payload,
		scheduledFor, msg.IsSent, sentAt, msg.SendAttempts, msg.Response, sendError,
	)
	return err
}
