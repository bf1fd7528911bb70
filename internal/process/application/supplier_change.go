// Package application implements the BRS-### handlers spec.md §4.6
// describes as "pure function[s]: inputs are domain references and
// parsed parameters; outputs are one newly-created BrsProcess,
// optionally an OutboxMessage, and domain mutations", grounded on the
// original internal/commands/application/service.go (idempotency-key
// lookup before create, repo.Save, event/outbox publication) generalized
// from a single Service.IssueCommand method into one handler per BRS
// code sharing the same machinery.
package application

import (
	"context"
	"errors"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/process/domain"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
)

// SupplierChangeHandler implements BRS-001 (spec.md §4.6.2), the most
// fully specified of the bidirectional processes.
type SupplierChangeHandler struct {
	processes process.Repository
	supplies  refdata.SupplyRepository
}

// NewSupplierChangeHandler constructs a SupplierChangeHandler.
func NewSupplierChangeHandler(processes process.Repository, supplies refdata.SupplyRepository) (*SupplierChangeHandler, error) {
	if processes == nil {
		return nil, errors.New("process: nil process repository")
	}
	if supplies == nil {
		return nil, errors.New("process: nil supply repository")
	}
	return &SupplierChangeHandler{processes: processes, supplies: supplies}, nil
}

// InitiateSupplierChange requires exactly one of Cpr/Cvr and creates a
// process in state Created with role Initiator (spec.md §4.6.2).
func (h *SupplierChangeHandler) InitiateSupplierChange(ctx context.Context, meteringPointID primitives.ID, idempotencyKey string, cpr *primitives.Cpr, cvr *primitives.Cvr, at time.Time) (*process.BrsProcess, error) {
	if (cpr == nil) == (cvr == nil) {
		return nil, refdata.ErrCustomerIdentity
	}
	existing, err := h.processes.FindByIdempotencyKey(ctx, process.BRS001, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	p := process.New(process.BRS001, process.RoleInitiator, meteringPointID, idempotencyKey, at)
	if err := h.processes.Save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// HandleConfirmation moves a Created initiator process through
// Submitted to Confirmed and records the hub's transactionId (spec.md
// §4.6.2: "if state still Created, transition to Submitted; record
// transactionId; transition to Confirmed").
func (h *SupplierChangeHandler) HandleConfirmation(ctx context.Context, processID primitives.ID, transactionID string, at time.Time) (*process.BrsProcess, error) {
	p, err := h.processes.FindByID(ctx, processID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, process.ErrNotFound
	}
	if p.State == process.StateCreated {
		if err := p.Transition(process.StateSubmitted, "submitted to hub", at); err != nil {
			return nil, err
		}
	}
	p.TransactionID = &transactionID
	if err := p.Transition(process.StateConfirmed, "confirmed by hub", at); err != nil {
		return nil, err
	}
	if err := h.processes.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ExecuteSupplierChange requires a Confirmed process; it ends the
// metering point's current supply at effectiveDate (if one exists),
// creates the new supply, and transitions Active -> Completed (spec.md
// §4.6.2).
func (h *SupplierChangeHandler) ExecuteSupplierChange(ctx context.Context, p *process.BrsProcess, customerID primitives.ID, effectiveDate time.Time, at time.Time) (*refdata.Supply, error) {
	if p.State != process.StateConfirmed {
		return nil, process.ErrInvalidTransition
	}
	p.EffectiveDate = &effectiveDate

	current, err := h.supplies.FindCurrentByMeteringPoint(ctx, p.MeteringPointID, effectiveDate)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if err := current.EndAt(effectiveDate); err != nil {
			return nil, err
		}
		if err := h.supplies.Save(ctx, current); err != nil {
			return nil, err
		}
	}

	newSupply := refdata.NewSupply(p.MeteringPointID, customerID, effectiveDate)
	if err := h.supplies.Save(ctx, &newSupply); err != nil {
		return nil, err
	}

	if err := p.Transition(process.StateActive, "supply switch executed", at); err != nil {
		return nil, err
	}
	if err := p.Transition(process.StateCompleted, "supplier change complete", at); err != nil {
		return nil, err
	}
	if err := h.processes.Save(ctx, p); err != nil {
		return nil, err
	}
	return &newSupply, nil
}

// HandleAsRecipient creates the recipient arm of a BRS-001 inbound from
// another supplier's switch, ends our current supply at effectiveDate,
// and runs the recipient machine to completion (spec.md §4.6.2:
// "create process with role Recipient, transition to Acknowledged ->
// AwaitingEffectiveDate; end current supply at effectiveDate; transition
// FinalSettlement -> Completed").
func (h *SupplierChangeHandler) HandleAsRecipient(ctx context.Context, meteringPointID primitives.ID, idempotencyKey string, effectiveDate time.Time, at time.Time) (*process.BrsProcess, error) {
	existing, err := h.processes.FindByIdempotencyKey(ctx, process.BRS001, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p := process.New(process.BRS001, process.RoleRecipient, meteringPointID, idempotencyKey, at)
	p.EffectiveDate = &effectiveDate
	if err := p.Transition(process.StateAcknowledged, "acknowledged inbound switch", at); err != nil {
		return nil, err
	}
	if err := p.Transition(process.StateAwaitingEffectiveDate, "awaiting effective date", at); err != nil {
		return nil, err
	}

	current, err := h.supplies.FindCurrentByMeteringPoint(ctx, meteringPointID, effectiveDate)
	if err != nil {
		return nil, err
	}
	if current != nil {
		if err := current.EndAt(effectiveDate); err != nil {
			return nil, err
		}
		if err := h.supplies.Save(ctx, current); err != nil {
			return nil, err
		}
	}

	if err := p.Transition(process.StateFinalSettlement, "final settlement triggered", at); err != nil {
		return nil, err
	}
	if err := p.Transition(process.StateCompleted, "recipient arm complete", at); err != nil {
		return nil, err
	}
	if err := h.processes.Save(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
