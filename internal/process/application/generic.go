package application

import (
	"context"
	"errors"
	"time"

	"github.com/dkenergy/dh-settlement/internal/apperr"
	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/process/domain"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
)

// correctionWindow is the 60-day limit spec.md §4.6.3 places on BRS-003
// and BRS-011 reversals.
const correctionWindow = 60 * 24 * time.Hour

// RequestResponseHandler implements the initiator-only request/response
// shape shared by BRS-002, -005, -010, -015, -023, -024, -025, -027,
// -034, -038, -039, -041 (spec.md §4.6): "emit RSM envelope to hub, mark
// process Submitted, then react to Confirm/Reject/Data inbound messages
// by transitioning to Confirmed|Rejected|DataReceived|Completed."
type RequestResponseHandler struct {
	processes process.Repository
}

// NewRequestResponseHandler constructs a RequestResponseHandler.
func NewRequestResponseHandler(processes process.Repository) (*RequestResponseHandler, error) {
	if processes == nil {
		return nil, errors.New("process: nil process repository")
	}
	return &RequestResponseHandler{processes: processes}, nil
}

// Initiate creates the process and immediately marks it Submitted, since
// the initiator always emits its RSM envelope at creation time.
func (h *RequestResponseHandler) Initiate(ctx context.Context, code process.BrsCode, meteringPointID primitives.ID, idempotencyKey string, at time.Time) (*process.BrsProcess, error) {
	existing, err := h.processes.FindByIdempotencyKey(ctx, code, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	p := process.New(code, process.RoleInitiator, meteringPointID, idempotencyKey, at)
	if err := p.Transition(process.StateSubmitted, "rsm envelope sent", at); err != nil {
		return nil, err
	}
	if err := h.processes.Save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// HandleConfirm transitions a Submitted process to Confirmed on an
// inbound hub acknowledgement.
func (h *RequestResponseHandler) HandleConfirm(ctx context.Context, processID primitives.ID, at time.Time) (*process.BrsProcess, error) {
	return h.advance(ctx, processID, process.StateConfirmed, "hub confirmed", at)
}

// HandleReject transitions a Submitted process to Rejected, a terminal
// state (spec.md §4.6.1: "Rejected is terminal").
func (h *RequestResponseHandler) HandleReject(ctx context.Context, processID primitives.ID, reason string, at time.Time) (*process.BrsProcess, error) {
	return h.advance(ctx, processID, process.StateRejected, reason, at)
}

// HandleDataReceived transitions a Confirmed process to DataReceived
// when the hub ships the requested data payload.
func (h *RequestResponseHandler) HandleDataReceived(ctx context.Context, processID primitives.ID, at time.Time) (*process.BrsProcess, error) {
	return h.advance(ctx, processID, process.StateDataReceived, "data received from hub", at)
}

// Complete transitions a Confirmed or DataReceived process to Completed.
func (h *RequestResponseHandler) Complete(ctx context.Context, processID primitives.ID, at time.Time) (*process.BrsProcess, error) {
	return h.advance(ctx, processID, process.StateCompleted, "process complete", at)
}

func (h *RequestResponseHandler) advance(ctx context.Context, processID primitives.ID, toState process.State, reason string, at time.Time) (*process.BrsProcess, error) {
	p, err := h.processes.FindByID(ctx, processID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound, "process.advance", process.ErrNotFound)
	}
	if err := p.Transition(toState, reason, at); err != nil {
		return nil, apperr.New(apperr.Conflict, "process.advance", err)
	}
	if err := h.processes.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RecipientOnlyHandler implements the single-step recipient-only shape
// shared by BRS-006, -007, -008, -013, -036 (and, outside this package,
// BRS-004/-021/-031 apply their entity-specific mutation directly; spec.md
// §4.6: "apply the master-data/price/time-series change to the
// corresponding entity").
type RecipientOnlyHandler struct {
	processes process.Repository
}

// NewRecipientOnlyHandler constructs a RecipientOnlyHandler.
func NewRecipientOnlyHandler(processes process.Repository) (*RecipientOnlyHandler, error) {
	if processes == nil {
		return nil, errors.New("process: nil process repository")
	}
	return &RecipientOnlyHandler{processes: processes}, nil
}

// Apply creates the process (idempotent on idempotencyKey), runs mutate
// to perform the entity-specific change, and completes the process.
// mutate is skipped entirely on idempotent replay so re-delivery is a
// no-op (spec.md §4.6.3).
func (h *RecipientOnlyHandler) Apply(ctx context.Context, code process.BrsCode, meteringPointID primitives.ID, idempotencyKey string, at time.Time, mutate func(ctx context.Context) error) (*process.BrsProcess, error) {
	existing, err := h.processes.FindByIdempotencyKey(ctx, code, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	p := process.New(code, process.RoleRecipient, meteringPointID, idempotencyKey, at)
	if err := mutate(ctx); err != nil {
		return nil, err
	}
	if err := p.Transition(process.StateApplied, "entity mutation applied", at); err != nil {
		return nil, err
	}
	if err := p.Transition(process.StateCompleted, "recipient-only process complete", at); err != nil {
		return nil, err
	}
	if err := h.processes.Save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// EndOfSupplyHandler implements BRS-002 (End-of-Supply): an initiator
// request/response whose confirmation ends the current supply at
// effectiveDate.
type EndOfSupplyHandler struct {
	requests *RequestResponseHandler
	supplies refdata.SupplyRepository
}

// NewEndOfSupplyHandler constructs an EndOfSupplyHandler.
func NewEndOfSupplyHandler(requests *RequestResponseHandler, supplies refdata.SupplyRepository) (*EndOfSupplyHandler, error) {
	if requests == nil {
		return nil, errors.New("process: nil request/response handler")
	}
	if supplies == nil {
		return nil, errors.New("process: nil supply repository")
	}
	return &EndOfSupplyHandler{requests: requests, supplies: supplies}, nil
}

// InitiateEndOfSupply creates the BRS-002 process and submits it to the hub.
func (h *EndOfSupplyHandler) InitiateEndOfSupply(ctx context.Context, meteringPointID primitives.ID, idempotencyKey string, at time.Time) (*process.BrsProcess, error) {
	return h.requests.Initiate(ctx, process.BRS002, meteringPointID, idempotencyKey, at)
}

// ExecuteEndOfSupply ends the metering point's current supply at
// effectiveDate once the hub has confirmed and completes the process.
func (h *EndOfSupplyHandler) ExecuteEndOfSupply(ctx context.Context, p *process.BrsProcess, effectiveDate, at time.Time) error {
	if p.State != process.StateConfirmed {
		return apperr.New(apperr.Conflict, "ExecuteEndOfSupply", process.ErrInvalidTransition)
	}
	current, err := h.supplies.FindCurrentByMeteringPoint(ctx, p.MeteringPointID, effectiveDate)
	if err != nil {
		return err
	}
	if current == nil {
		return apperr.New(apperr.PreconditionFailed, "ExecuteEndOfSupply", refdata.ErrNotFound)
	}
	if err := current.EndAt(effectiveDate); err != nil {
		return err
	}
	if err := h.supplies.Save(ctx, current); err != nil {
		return err
	}
	_, err = h.requests.Complete(ctx, p.ID, at)
	return err
}

// ReversalHandler implements BRS-003 (IncorrectSwitch) and BRS-011
// (IncorrectMove): bidirectional processes that may only be initiated
// within the 60-day correction window (spec.md §4.6.3, §8 "Correction
// window").
type ReversalHandler struct {
	processes process.Repository
	supplies  refdata.SupplyRepository
}

// NewReversalHandler constructs a ReversalHandler.
func NewReversalHandler(processes process.Repository, supplies refdata.SupplyRepository) (*ReversalHandler, error) {
	if processes == nil {
		return nil, errors.New("process: nil process repository")
	}
	if supplies == nil {
		return nil, errors.New("process: nil supply repository")
	}
	return &ReversalHandler{processes: processes, supplies: supplies}, nil
}

// InitiateReversal rejects with PreconditionFailed if effectiveDate is
// more than 60 days in the past, otherwise creates a BRS-003/-011
// process in state Created.
func (h *ReversalHandler) InitiateReversal(ctx context.Context, code process.BrsCode, meteringPointID primitives.ID, idempotencyKey string, effectiveDate, now time.Time) (*process.BrsProcess, error) {
	if now.Sub(effectiveDate) > correctionWindow {
		return nil, apperr.New(apperr.PreconditionFailed, "InitiateReversal", process.ErrOutsideCorrectionWindow)
	}
	existing, err := h.processes.FindByIdempotencyKey(ctx, code, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	p := process.New(code, process.RoleInitiator, meteringPointID, idempotencyKey, now)
	p.EffectiveDate = &effectiveDate
	if err := h.processes.Save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
