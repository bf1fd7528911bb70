package process

import (
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// BrsCode identifies a DataHub business requirement specification
// process (spec.md §2 GLOSSARY: "Danish DataHub business requirement
// specification code identifying a market process").
type BrsCode string

const (
	BRS001 BrsCode = "BRS-001" // SupplierChange
	BRS002 BrsCode = "BRS-002" // EndOfSupply
	BRS003 BrsCode = "BRS-003" // IncorrectSwitch
	BRS004 BrsCode = "BRS-004" // NewMeteringPoint
	BRS005 BrsCode = "BRS-005" // RequestMasterData
	BRS006 BrsCode = "BRS-006" // MasterDataUpdate
	BRS007 BrsCode = "BRS-007" // Closedown
	BRS008 BrsCode = "BRS-008" // Connection
	BRS009 BrsCode = "BRS-009" // MoveIn
	BRS010 BrsCode = "BRS-010" // MoveOut
	BRS011 BrsCode = "BRS-011" // IncorrectMove
	BRS013 BrsCode = "BRS-013" // DisconnectReconnect
	BRS015 BrsCode = "BRS-015" // CustomerUpdate
	BRS021 BrsCode = "BRS-021" // MeteredData
	BRS023 BrsCode = "BRS-023" // RequestAggregated
	BRS024 BrsCode = "BRS-024" // RequestYearlySum
	BRS025 BrsCode = "BRS-025" // RequestMeteredData
	BRS027 BrsCode = "BRS-027" // RequestWholesaleSettlement
	BRS031 BrsCode = "BRS-031" // Prices (D08/D17/D18)
	BRS034 BrsCode = "BRS-034" // RequestPrices
	BRS036 BrsCode = "BRS-036" // ProductObligation
	BRS038 BrsCode = "BRS-038" // RequestChargeLinks
	BRS039 BrsCode = "BRS-039" // Service
	BRS041 BrsCode = "BRS-041" // ElectricalHeating
	BRS044 BrsCode = "BRS-044" // ForcedTransfer
)

// Role is which party's arm of a process a BrsProcess instance tracks
// (spec.md §4.6: initiator-only, bidirectional, recipient-only shapes).
type Role string

const (
	RoleInitiator Role = "initiator"
	RoleRecipient Role = "recipient"
)

// State is a BrsProcess's current position in its BrsCode/Role state
// machine (spec.md §4.6.1).
type State string

const (
	StateCreated               State = "Created"
	StateSubmitted             State = "Submitted"
	StateConfirmed             State = "Confirmed"
	StateRejected              State = "Rejected"
	StateActive                State = "Active"
	StateDataReceived          State = "DataReceived"
	StateAcknowledged          State = "Acknowledged"
	StateAwaitingEffectiveDate State = "AwaitingEffectiveDate"
	StateFinalSettlement       State = "FinalSettlement"
	StateApplied               State = "Applied"
	StateCompleted             State = "Completed"
)

// ProcessTransition is one append-only state change in a BrsProcess's
// history; transitions carry a Reason and are never edited or deleted
// (spec.md §4.6.1: "Transitions are append-only and carry a Reason string").
type ProcessTransition struct {
	FromState  State
	ToState    State
	Reason     string
	OccurredAt time.Time
}

// BrsProcess is the one entity every BRS-### handler creates, transitions
// and terminates (spec.md §4.6).
type BrsProcess struct {
	ID              primitives.ID
	BrsCode         BrsCode
	Role            Role
	MeteringPointID primitives.ID
	IdempotencyKey  string
	State           State
	TransactionID   *string
	EffectiveDate   *time.Time
	Reason          string
	Transitions     []ProcessTransition
	CreatedAt       time.Time
}

// machineKind buckets a (BrsCode, Role) pair onto one of the state
// machines spec.md §4.6.1 describes; most handlers share a generic
// shape, BRS-001 gets its own fully detailed machine (spec.md §4.6.2).
type machineKind int

const (
	machineInitiatorRequestResponse machineKind = iota
	machineBidirectionalInitiator
	machineBidirectionalRecipient
	machineRecipientOnly
	machineSupplierChangeInitiator
	machineSupplierChangeRecipient
)

var initiatorOnlyCodes = map[BrsCode]bool{
	BRS002: true, BRS005: true, BRS010: true, BRS015: true, BRS023: true,
	BRS024: true, BRS025: true, BRS027: true, BRS034: true, BRS038: true,
	BRS039: true, BRS041: true,
}

var bidirectionalCodes = map[BrsCode]bool{
	BRS001: true, BRS003: true, BRS009: true, BRS011: true, BRS044: true,
}

var recipientOnlyCodes = map[BrsCode]bool{
	BRS004: true, BRS006: true, BRS007: true, BRS008: true, BRS013: true,
	BRS021: true, BRS031: true, BRS036: true,
}

func kindFor(code BrsCode, role Role) machineKind {
	if code == BRS001 {
		if role == RoleInitiator {
			return machineSupplierChangeInitiator
		}
		return machineSupplierChangeRecipient
	}
	if initiatorOnlyCodes[code] {
		return machineInitiatorRequestResponse
	}
	if bidirectionalCodes[code] {
		if role == RoleInitiator {
			return machineBidirectionalInitiator
		}
		return machineBidirectionalRecipient
	}
	return machineRecipientOnly
}

// transitionTable maps each machine kind to its allowed FromState ->
// ToState edges (spec.md §4.6.1's representative machine plus §4.6.2's
// BRS-001-specific machine).
var transitionTable = map[machineKind]map[State][]State{
	machineInitiatorRequestResponse: {
		StateCreated:   {StateSubmitted},
		StateSubmitted: {StateConfirmed, StateRejected},
		StateConfirmed: {StateDataReceived, StateCompleted},
		StateDataReceived: {StateCompleted},
	},
	machineBidirectionalInitiator: {
		StateCreated:   {StateSubmitted},
		StateSubmitted: {StateConfirmed, StateRejected},
		StateConfirmed: {StateActive},
		StateActive:    {StateCompleted},
	},
	machineBidirectionalRecipient: {
		StateCreated:      {StateAcknowledged},
		StateAcknowledged: {StateAwaitingEffectiveDate},
		StateAwaitingEffectiveDate: {StateFinalSettlement},
		StateFinalSettlement:      {StateCompleted},
	},
	machineRecipientOnly: {
		StateCreated: {StateApplied, StateCompleted},
		StateApplied: {StateCompleted},
	},
	// Example BRS-001 initiator states (spec.md §4.6.1):
	// Created -> Submitted -> (Confirmed | Rejected) -> Active -> Completed.
	machineSupplierChangeInitiator: {
		StateCreated:   {StateSubmitted},
		StateSubmitted: {StateConfirmed, StateRejected},
		StateConfirmed: {StateActive},
		StateActive:    {StateCompleted},
	},
	// Recipient: Created -> Acknowledged -> AwaitingEffectiveDate ->
	// FinalSettlement -> Completed.
	machineSupplierChangeRecipient: {
		StateCreated:               {StateAcknowledged},
		StateAcknowledged:          {StateAwaitingEffectiveDate},
		StateAwaitingEffectiveDate: {StateFinalSettlement},
		StateFinalSettlement:       {StateCompleted},
	},
}

// New creates a BrsProcess in state Created for the given BrsCode/Role.
func New(code BrsCode, role Role, meteringPointID primitives.ID, idempotencyKey string, createdAt time.Time) BrsProcess {
	return BrsProcess{
		ID:              primitives.NewID(),
		BrsCode:         code,
		Role:            role,
		MeteringPointID: meteringPointID,
		IdempotencyKey:  idempotencyKey,
		State:           StateCreated,
		CreatedAt:       createdAt,
		Transitions: []ProcessTransition{
			{ToState: StateCreated, OccurredAt: createdAt},
		},
	}
}

// Transition moves the process to toState if its machine allows the
// edge from the current state, appending a ProcessTransition (spec.md
// §4.6.1: "Each handler must reject transitions not in its machine").
func (p *BrsProcess) Transition(toState State, reason string, at time.Time) error {
	machine := transitionTable[kindFor(p.BrsCode, p.Role)]
	allowed := machine[p.State]
	ok := false
	for _, s := range allowed {
		if s == toState {
			ok = true
			break
		}
	}
	if !ok {
		return ErrInvalidTransition
	}
	p.Transitions = append(p.Transitions, ProcessTransition{
		FromState: p.State, ToState: toState, Reason: reason, OccurredAt: at,
	})
	p.State = toState
	p.Reason = reason
	return nil
}

// IsTerminal reports whether no further transitions are possible
// (Completed and Rejected are the two terminal states, spec.md §4.6.1:
// "Rejected is terminal").
func (p *BrsProcess) IsTerminal() bool {
	return p.State == StateCompleted || p.State == StateRejected
}
