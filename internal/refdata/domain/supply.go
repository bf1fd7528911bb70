package refdata

import (
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Supply is a time-bounded contract linking a Customer to a MeteringPoint
// under this supplier (spec.md §3.2). At most one Supply may exist per
// metering point with an overlapping open period.
type Supply struct {
	ID              primitives.ID
	MeteringPointID primitives.ID
	CustomerID      primitives.ID
	SupplyPeriod    primitives.Period
}

// NewSupply opens a Supply starting at effectiveDate (BRS-001/-009 switch-in
// / move-in).
func NewSupply(meteringPointID, customerID primitives.ID, effectiveDate time.Time) Supply {
	return Supply{
		ID:              primitives.NewID(),
		MeteringPointID: meteringPointID,
		CustomerID:      customerID,
		SupplyPeriod:    primitives.OpenEndedPeriod(effectiveDate),
	}
}

// EndAt closes the supply at effectiveDate (BRS-002/-010 switch-out /
// move-out).
func (s *Supply) EndAt(effectiveDate time.Time) error {
	period, err := s.SupplyPeriod.ClosedAt(effectiveDate)
	if err != nil {
		return err
	}
	s.SupplyPeriod = period
	return nil
}

// IsActiveAt reports whether the supply covers t.
func (s Supply) IsActiveAt(t time.Time) bool {
	return s.SupplyPeriod.Contains(t)
}

// SupplierProduct is a named pricing product offered by a supplier
// (spec.md §3.2).
type SupplierProduct struct {
	ID                 primitives.ID
	SupplierIdentityID primitives.ID
	Name               string
	PricingModel       primitives.PricingModel
	IsActive           bool
}

// NewSupplierProduct constructs an active SupplierProduct.
func NewSupplierProduct(supplierID primitives.ID, name string, model primitives.PricingModel) (SupplierProduct, error) {
	if name == "" {
		return SupplierProduct{}, ErrEmptyName
	}
	return SupplierProduct{
		ID:                 primitives.NewID(),
		SupplierIdentityID: supplierID,
		Name:               name,
		PricingModel:       model,
		IsActive:           true,
	}, nil
}

// Deactivate retires a product from new assignments.
func (p *SupplierProduct) Deactivate() { p.IsActive = false }

// SupplyProductPeriod assigns a SupplierProduct (base or addon) to a Supply
// for a period; multiple concurrent addon periods are allowed per supply.
type SupplyProductPeriod struct {
	ID                primitives.ID
	SupplyID          primitives.ID
	SupplierProductID primitives.ID
	Period            primitives.Period
}

// NewSupplyProductPeriod assigns a product to a supply for the given period.
func NewSupplyProductPeriod(supplyID, productID primitives.ID, period primitives.Period) SupplyProductPeriod {
	return SupplyProductPeriod{
		ID:                primitives.NewID(),
		SupplyID:          supplyID,
		SupplierProductID: productID,
		Period:            period,
	}
}
