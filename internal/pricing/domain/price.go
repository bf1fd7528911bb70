package pricing

import (
	"sort"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Price is regulated charge metadata: a grid tariff, a system tariff, a
// subscription fee, etc. (spec.md §3.2). Its PricePoints carry the dated
// rate series.
type Price struct {
	ID             primitives.ID
	ChargeID       string
	OwnerGln       primitives.GlnNumber
	Type           primitives.PriceType
	Description    string
	ValidityPeriod primitives.Period
	VatExempt      bool
	IsTax          bool
	IsPassThrough  bool
	Category       primitives.PriceCategory
	PriceResolution *primitives.Resolution
	PricePoints    []PricePoint
}

// PricePoint is a single dated rate within a Price's series (spec.md §3.2).
type PricePoint struct {
	PriceID   primitives.ID
	Timestamp time.Time
	Price     float64
}

// Create constructs a new Price with no points.
func Create(chargeID string, ownerGln primitives.GlnNumber, priceType primitives.PriceType, description string, validity primitives.Period, vatExempt bool, resolution *primitives.Resolution, isTax, isPassThrough bool, category primitives.PriceCategory) (Price, error) {
	if chargeID == "" {
		return Price{}, ErrEmptyChargeID
	}
	if ownerGln == "" {
		return Price{}, ErrEmptyOwnerGln
	}
	return Price{
		ID:              primitives.NewID(),
		ChargeID:        chargeID,
		OwnerGln:        ownerGln,
		Type:            priceType,
		Description:     description,
		ValidityPeriod:  validity,
		VatExempt:       vatExempt,
		IsTax:           isTax,
		IsPassThrough:   isPassThrough,
		Category:        category,
		PriceResolution: resolution,
	}, nil
}

// UpdatePriceInfo updates description and type.
func (p *Price) UpdatePriceInfo(description string, priceType primitives.PriceType) {
	p.Description = description
	p.Type = priceType
}

// UpdateValidity replaces the validity period.
func (p *Price) UpdateValidity(validity primitives.Period) {
	p.ValidityPeriod = validity
}

// UpdateCategory replaces the charge category.
func (p *Price) UpdateCategory(category primitives.PriceCategory) {
	p.Category = category
}

// UpdateVatExempt toggles the VAT exemption flag.
func (p *Price) UpdateVatExempt(exempt bool) {
	p.VatExempt = exempt
}

// AddPricePoint appends a new dated point, rejecting a duplicate timestamp.
func (p *Price) AddPricePoint(t time.Time, value float64) error {
	t = t.UTC()
	for _, existing := range p.PricePoints {
		if existing.Timestamp.Equal(t) {
			return ErrDuplicatePoint
		}
	}
	p.PricePoints = append(p.PricePoints, PricePoint{PriceID: p.ID, Timestamp: t, Price: value})
	sortPoints(p.PricePoints)
	return nil
}

// ReplacePricePoints replaces every point whose timestamp lies in
// [start, end) with the supplied sequence (BRS-031 D08), returning the
// count of points written.
func (p *Price) ReplacePricePoints(start, end time.Time, points []PricePoint) (int, error) {
	if !end.After(start) {
		return 0, ErrInvalidPoints
	}
	kept := p.PricePoints[:0:0]
	for _, existing := range p.PricePoints {
		if !existing.Timestamp.Before(start) && existing.Timestamp.Before(end) {
			continue
		}
		kept = append(kept, existing)
	}
	for _, np := range points {
		np.PriceID = p.ID
		kept = append(kept, np)
	}
	sortPoints(kept)
	p.PricePoints = kept
	return len(points), nil
}

func sortPoints(points []PricePoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
}
