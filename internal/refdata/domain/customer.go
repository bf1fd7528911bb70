package refdata

import "github.com/dkenergy/dh-settlement/internal/primitives"

// Address is a postal address attached to a Customer.
type Address struct {
	Street   string
	City     string
	PostCode string
}

// Customer is the end consumer behind a Supply (spec.md §3.2). Exactly one
// of Cpr/Cvr must be set.
type Customer struct {
	ID                 primitives.ID
	Name               string
	Cpr                *primitives.Cpr
	Cvr                *primitives.Cvr
	SupplierIdentityID primitives.ID
	Address            *Address
	Contact            string
}

// NewCustomer validates the CPR/CVR XOR invariant and constructs a Customer.
func NewCustomer(name string, cpr *primitives.Cpr, cvr *primitives.Cvr, supplierID primitives.ID) (Customer, error) {
	if name == "" {
		return Customer{}, ErrEmptyName
	}
	if (cpr == nil) == (cvr == nil) {
		return Customer{}, ErrCustomerIdentity
	}
	return Customer{
		ID:                 primitives.NewID(),
		Name:               name,
		Cpr:                cpr,
		Cvr:                cvr,
		SupplierIdentityID: supplierID,
	}, nil
}
