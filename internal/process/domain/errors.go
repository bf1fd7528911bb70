// Package process implements BrsProcess, the append-only state machine
// shared by every BRS-### handler (spec.md §4.6), grounded on the
// original internal/commands/{domain,application} (status lifecycle,
// idempotency-key dedup, event publication on creation) generalized from
// a single device-command status enum to a per-BrsCode transition table.
package process

import "errors"

var (
	ErrUnknownBrsCode          = errors.New("process: unknown brs code")
	ErrInvalidTransition       = errors.New("process: transition not permitted by this process's state machine")
	ErrAlreadyExists           = errors.New("process: already exists for this idempotency key")
	ErrNotFound                = errors.New("process: not found")
	ErrOutsideCorrectionWindow = errors.New("process: outside the correction window")
	ErrWrongRole               = errors.New("process: handler invoked for the wrong role")
)
