// Package refdata models the reference-data layer of spec.md §3.2:
// suppliers, customers, metering points, supplies, products and
// product-period assignments. Grounded on masterdata
// station/point-mapping entities (bittertea97-microgrid-cloud
// internal/masterdata/domain), generalised to the Danish DataHub model.
package refdata

import "errors"

var (
	ErrEmptyGln          = errors.New("refdata: empty gln")
	ErrEmptyName         = errors.New("refdata: empty name")
	ErrSupplierArchived  = errors.New("refdata: supplier both active and archived")
	ErrCustomerIdentity  = errors.New("refdata: customer requires exactly one of cpr/cvr")
	ErrDuplicateGsrn     = errors.New("refdata: gsrn already registered")
	ErrOverlappingSupply = errors.New("refdata: overlapping supply for metering point")
	ErrNotFound          = errors.New("refdata: not found")
	ErrDuplicateProduct  = errors.New("refdata: duplicate supplier product name")
)
