package refdata

import "github.com/dkenergy/dh-settlement/internal/primitives"

// SupplierIdentity is the retail supplier operating this system, identified
// by its GLN (spec.md §3.2).
type SupplierIdentity struct {
	ID         primitives.ID
	Gln        primitives.GlnNumber
	Name       string
	Cvr        *primitives.Cvr
	IsActive   bool
	IsArchived bool
}

// NewSupplierIdentity validates and constructs a SupplierIdentity.
func NewSupplierIdentity(gln primitives.GlnNumber, name string, cvr *primitives.Cvr) (SupplierIdentity, error) {
	if gln == "" {
		return SupplierIdentity{}, ErrEmptyGln
	}
	if name == "" {
		return SupplierIdentity{}, ErrEmptyName
	}
	return SupplierIdentity{
		ID:       primitives.NewID(),
		Gln:      gln,
		Name:     name,
		Cvr:      cvr,
		IsActive: true,
	}, nil
}

// Archive retires the supplier. A supplier cannot be both active and
// archived (spec.md §3.2 invariant).
func (s *SupplierIdentity) Archive() error {
	s.IsActive = false
	s.IsArchived = true
	return s.validateLifecycle()
}

func (s SupplierIdentity) validateLifecycle() error {
	if s.IsActive && s.IsArchived {
		return ErrSupplierArchived
	}
	return nil
}
