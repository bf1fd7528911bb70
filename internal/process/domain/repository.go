package process

import (
	"context"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Repository persists BrsProcess instances, keyed for lookup both by id
// and by the idempotency key the handler used to create it (spec.md
// §4.6.3: "Inbox is idempotent on MessageId; re-delivery ... must be a
// no-op after processing" — handlers apply the same rule on their own
// idempotency key before creating a new process).
type Repository interface {
	FindByID(ctx context.Context, id primitives.ID) (*BrsProcess, error)
	FindByIdempotencyKey(ctx context.Context, code BrsCode, idempotencyKey string) (*BrsProcess, error)
	Save(ctx context.Context, p *BrsProcess) error
}
