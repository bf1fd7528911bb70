package refdata

import "github.com/dkenergy/dh-settlement/internal/primitives"

// MeteringPoint is the physical point of energy exchange (spec.md §3.2),
// globally identified by Gsrn. ParentGsrn is an additive field for net
// settlement groups (SPEC_FULL.md supplementary fields).
type MeteringPoint struct {
	ID               primitives.ID
	Gsrn             primitives.Gsrn
	Type             primitives.MeteringPointType
	Category         string
	SettlementMethod primitives.SettlementMethod
	Resolution       primitives.Resolution
	GridArea         string
	GridCompanyGln   primitives.GlnNumber
	ConnectionState  primitives.ConnectionState
	HasActiveSupply  bool
	ParentGsrn       *primitives.Gsrn
}

// NewMeteringPoint constructs a MeteringPoint in the Connected state with
// no active supply, as created by BRS-004.
func NewMeteringPoint(gsrn primitives.Gsrn, mpType primitives.MeteringPointType, method primitives.SettlementMethod, resolution primitives.Resolution, gridArea string, gridCompanyGln primitives.GlnNumber) MeteringPoint {
	return MeteringPoint{
		ID:               primitives.NewID(),
		Gsrn:             gsrn,
		Type:             mpType,
		SettlementMethod: method,
		Resolution:       resolution,
		GridArea:         gridArea,
		GridCompanyGln:   gridCompanyGln,
		ConnectionState:  primitives.ConnectionConnected,
	}
}

// MarkSupplyActive flips HasActiveSupply to mirror whether any Supply is
// currently open (spec.md §3.2 invariant).
func (mp *MeteringPoint) MarkSupplyActive(active bool) {
	mp.HasActiveSupply = active
}

// ApplyConnectionState transitions the physical connection state, driven
// by BRS-008 (Connection) / BRS-013 (Disconnect/Reconnect) / BRS-007
// (Closedown).
func (mp *MeteringPoint) ApplyConnectionState(state primitives.ConnectionState) {
	mp.ConnectionState = state
}
