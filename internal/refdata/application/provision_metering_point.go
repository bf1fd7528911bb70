// Package application implements reference-data workflows that sit above
// the refdata domain: metering point provisioning (BRS-004) and product
// assignment. Grounded on provisioning application service
// (bittertea97-microgrid-cloud internal/provisioning/application/service.go),
// generalised from ThingsBoard asset provisioning to DataHub metering-point
// master-data creation.
package application

import (
	"context"
	"errors"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/refdata/domain"
)

// ProvisionMeteringPointRequest is the recipient-only BRS-004 payload: the
// grid company informs us a new metering point exists.
type ProvisionMeteringPointRequest struct {
	Gsrn             primitives.Gsrn
	Type             primitives.MeteringPointType
	SettlementMethod primitives.SettlementMethod
	Resolution       primitives.Resolution
	GridArea         string
	GridCompanyGln   primitives.GlnNumber
}

// Service provisions metering points and manages product assignments.
type Service struct {
	meteringPoints refdata.MeteringPointRepository
	products       refdata.SupplierProductRepository
}

// NewService constructs a Service.
func NewService(meteringPoints refdata.MeteringPointRepository, products refdata.SupplierProductRepository) (*Service, error) {
	if meteringPoints == nil {
		return nil, errors.New("refdata: nil metering point repository")
	}
	if products == nil {
		return nil, errors.New("refdata: nil product repository")
	}
	return &Service{meteringPoints: meteringPoints, products: products}, nil
}

// ProvisionMeteringPoint handles BRS-004: create a MeteringPoint master
// record for a GSRN the grid company has registered. Idempotent on Gsrn.
func (s *Service) ProvisionMeteringPoint(ctx context.Context, req ProvisionMeteringPointRequest) (*refdata.MeteringPoint, error) {
	if req.Gsrn == "" {
		return nil, errors.New("refdata: empty gsrn")
	}
	existing, err := s.meteringPoints.FindByGsrn(ctx, req.Gsrn)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	mp := refdata.NewMeteringPoint(req.Gsrn, req.Type, req.SettlementMethod, req.Resolution, req.GridArea, req.GridCompanyGln)
	if err := s.meteringPoints.Save(ctx, &mp); err != nil {
		return nil, err
	}
	return &mp, nil
}

// AssignProduct attaches a SupplierProduct to a Supply for a period
// (base product at switch-in, or an addon assigned later).
func (s *Service) AssignProduct(ctx context.Context, supplyID, productID primitives.ID, period primitives.Period) (*refdata.SupplyProductPeriod, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, refdata.ErrNotFound
	}
	assignment := refdata.NewSupplyProductPeriod(supplyID, productID, period)
	if err := s.products.SaveAssignment(ctx, &assignment); err != nil {
		return nil, err
	}
	return &assignment, nil
}
