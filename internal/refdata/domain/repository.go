package refdata

import (
	"context"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// MeteringPointRepository persists metering points.
type MeteringPointRepository interface {
	FindByGsrn(ctx context.Context, gsrn primitives.Gsrn) (*MeteringPoint, error)
	FindByID(ctx context.Context, id primitives.ID) (*MeteringPoint, error)
	Save(ctx context.Context, mp *MeteringPoint) error
}

// SupplyRepository persists supplies.
type SupplyRepository interface {
	FindCurrentByMeteringPoint(ctx context.Context, meteringPointID primitives.ID, at time.Time) (*Supply, error)
	Save(ctx context.Context, supply *Supply) error
}

// CustomerRepository persists customers.
type CustomerRepository interface {
	FindByID(ctx context.Context, id primitives.ID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}

// SupplierProductRepository persists supplier products and their
// assignment periods.
type SupplierProductRepository interface {
	FindByID(ctx context.Context, id primitives.ID) (*SupplierProduct, error)
	Save(ctx context.Context, product *SupplierProduct) error
	ActiveAssignments(ctx context.Context, supplyID primitives.ID, at time.Time) ([]SupplyProductPeriod, error)
	SaveAssignment(ctx context.Context, assignment *SupplyProductPeriod) error
}
