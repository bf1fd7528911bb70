// Package memory provides an in-process pricing store used by tests and
// by migration tooling that loads a full Nordpool/margin history before
// replaying it against a Postgres-backed repository (SPEC_FULL.md DOMAIN
// STACK, pricing).
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Store is a mutex-guarded, in-memory backing for every pricing
// repository interface. It never errors on I/O since there is none; its
// only failure mode is ErrPriceNotFound from the domain package itself.
//
// pricing.Repository, pricing.LinkRepository, pricing.SpotPriceRepository,
// and pricing.SupplierMarginRepository each declare a differently-typed
// method named Save/Upsert, which a single Go type cannot implement
// twice under one name — Store itself satisfies pricing.Repository, and
// Links()/Spots()/Margins() return thin facades over the same shared
// state for the other three.
type Store struct {
	mu       sync.RWMutex
	prices   map[primitives.ID]pricing.Price
	byCharge map[string]primitives.ID
	links    []pricing.PriceLink
	spots    []pricing.SpotPrice
	margins  []pricing.SupplierMargin
}

// New constructs an empty Store.
func New() *Store {
	return &Store{
		prices:   make(map[primitives.ID]pricing.Price),
		byCharge: make(map[string]primitives.ID),
	}
}

func chargeKey(chargeID string, ownerGln primitives.GlnNumber) string {
	return string(ownerGln) + "/" + chargeID
}

func (s *Store) FindByChargeID(_ context.Context, chargeID string, ownerGln primitives.GlnNumber) (*pricing.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCharge[chargeKey(chargeID, ownerGln)]
	if !ok {
		return nil, pricing.ErrPriceNotFound
	}
	price := s.prices[id]
	return &price, nil
}

func (s *Store) FindByID(_ context.Context, id primitives.ID) (*pricing.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[id]
	if !ok {
		return nil, pricing.ErrPriceNotFound
	}
	return &price, nil
}

func (s *Store) Save(_ context.Context, price *pricing.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[price.ID] = *price
	s.byCharge[chargeKey(price.ChargeID, price.OwnerGln)] = price.ID
	return nil
}

// Links returns a pricing.LinkRepository backed by this Store.
func (s *Store) Links() *LinkStore { return &LinkStore{s: s} }

// Spots returns a pricing.SpotPriceRepository backed by this Store.
func (s *Store) Spots() *SpotStore { return &SpotStore{s: s} }

// Margins returns a pricing.SupplierMarginRepository backed by this Store.
func (s *Store) Margins() *MarginStore { return &MarginStore{s: s} }

// LinkStore implements pricing.LinkRepository over a shared Store.
type LinkStore struct{ s *Store }

func (l *LinkStore) ActiveLinks(_ context.Context, meteringPointID primitives.ID, at time.Time) ([]pricing.PriceLink, error) {
	s := l.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []pricing.PriceLink
	for _, link := range s.links {
		if link.MeteringPointID == meteringPointID && link.LinkPeriod.Contains(at) {
			result = append(result, link)
		}
	}
	return result, nil
}

func (l *LinkStore) Save(_ context.Context, link *pricing.PriceLink) error {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.links {
		if existing.ID == link.ID {
			s.links[i] = *link
			return nil
		}
	}
	s.links = append(s.links, *link)
	return nil
}

// SpotStore implements pricing.SpotPriceRepository over a shared Store.
type SpotStore struct{ s *Store }

func (p *SpotStore) Upsert(_ context.Context, points []pricing.SpotPrice) (int, int, error) {
	s := p.s
	s.mu.Lock()
	defer s.mu.Unlock()
	result, inserted, updated := pricing.UpsertSpotPrices(s.spots, points)
	s.spots = result
	return inserted, updated, nil
}

func (p *SpotStore) ForPeriod(_ context.Context, area pricing.PriceArea, period primitives.Period) ([]pricing.SpotPrice, error) {
	s := p.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []pricing.SpotPrice
	for _, sp := range s.spots {
		if sp.PriceArea == area && period.Contains(sp.Timestamp) {
			result = append(result, sp)
		}
	}
	return result, nil
}

// MarginStore implements pricing.SupplierMarginRepository over a shared Store.
type MarginStore struct{ s *Store }

func (m *MarginStore) Upsert(_ context.Context, margins []pricing.SupplierMargin) (int, int, error) {
	s := m.s
	s.mu.Lock()
	defer s.mu.Unlock()
	result, inserted, updated := pricing.UpsertSupplierMargins(s.margins, margins)
	s.margins = result
	return inserted, updated, nil
}

func (m *MarginStore) ActiveFor(_ context.Context, supplierProductIDs []primitives.ID, at time.Time) ([]pricing.SupplierMargin, error) {
	s := m.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	wanted := make(map[primitives.ID]bool, len(supplierProductIDs))
	for _, id := range supplierProductIDs {
		wanted[id] = true
	}
	var filtered []pricing.SupplierMargin
	for _, margin := range s.margins {
		if wanted[margin.SupplierProductID] {
			filtered = append(filtered, margin)
		}
	}
	return pricing.ActiveMargins(filtered, at), nil
}
