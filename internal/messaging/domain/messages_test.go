package messaging

import (
	"testing"
	"time"
)

func TestInboxMessage_MarkProcessedIsANoOpOnReplay(t *testing.T) {
	msg := NewInboxMessage("mrid-1", "Doc", "E03", "5790000432752", "5790000432769", []byte("{}"), time.Now())
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	msg.MarkProcessed(first)
	msg.MarkProcessed(second)

	if msg.ProcessedAt == nil || !msg.ProcessedAt.Equal(first) {
		t.Fatalf("expected ProcessedAt to stay at the first processing time, got %v", msg.ProcessedAt)
	}
}

func TestInboxMessage_MarkFailedIncrementsAttempts(t *testing.T) {
	msg := NewInboxMessage("mrid-2", "Doc", "E03", "5790000432752", "5790000432769", []byte("{}"), time.Now())
	msg.MarkFailed("transient error")
	msg.MarkFailed("transient error again")

	if msg.ProcessingAttempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", msg.ProcessingAttempts)
	}
	if msg.IsProcessed {
		t.Fatalf("expected IsProcessed to remain false after failures")
	}
}

func TestOutboxMessage_ResetForRetry_RejectsAlreadySent(t *testing.T) {
	msg := NewOutboxMessage("mrid-3", "Doc", "E03", "5790000432752", "5790000432769", []byte("{}"), nil)
	msg.MarkSent(time.Now(), nil)

	if err := msg.ResetForRetry(); err != ErrCannotResetSentOutbox {
		t.Fatalf("expected ErrCannotResetSentOutbox, got %v", err)
	}
}

func TestOutboxMessage_ResetForRetry_ClearsErrorKeepsAttempts(t *testing.T) {
	msg := NewOutboxMessage("mrid-4", "Doc", "E03", "5790000432752", "5790000432769", []byte("{}"), nil)
	msg.MarkSendFailed("connection refused")
	msg.MarkSendFailed("connection refused again")

	if err := msg.ResetForRetry(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.SendError != nil {
		t.Fatalf("expected SendError cleared, got %v", msg.SendError)
	}
	if msg.SendAttempts != 2 {
		t.Fatalf("expected SendAttempts kept at 2, got %d", msg.SendAttempts)
	}
}
