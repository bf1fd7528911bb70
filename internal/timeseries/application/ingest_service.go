// Package application implements the time series ingest workflow: given
// a batch of observations for a metering point and period (typically a
// BRS-021 metered-data response), supersede the prior latest series and
// persist the replacement at an incremented version (spec.md §4.2).
// Grounded on
// internal/analytics/application/statistic/daily_rollup_app_service.go
// wiring shape (repository + clock injected, single workflow method).
package application

import (
	"context"
	"errors"
	"time"

	"github.com/dkenergy/dh-settlement/internal/primitives"
	"github.com/dkenergy/dh-settlement/internal/timeseries/domain"
)

// ObservationInput is a single reading to ingest.
type ObservationInput struct {
	Timestamp time.Time
	Quantity  primitives.EnergyQuantity
	Quality   primitives.QuantityQuality
}

// IngestService creates new TimeSeries versions from incoming readings.
type IngestService struct {
	repo timeseries.Repository
}

// NewIngestService constructs an IngestService.
func NewIngestService(repo timeseries.Repository) (*IngestService, error) {
	if repo == nil {
		return nil, errors.New("timeseries ingest: nil repository")
	}
	return &IngestService{repo: repo}, nil
}

// Ingest creates a new series version for (meteringPointID, period),
// superseding any existing latest series for the same period in the
// same transaction-shaped call (spec.md §4.2's ingest rule).
func (s *IngestService) Ingest(ctx context.Context, meteringPointID primitives.ID, period primitives.Period, resolution primitives.Resolution, transactionID *string, receivedAt time.Time, observations []ObservationInput) (*timeseries.TimeSeries, error) {
	existing, err := s.repo.FindLatest(ctx, meteringPointID, period)
	if err != nil {
		return nil, err
	}

	version := 1
	if existing != nil {
		version = existing.Version + 1
		if err := existing.Supersede(); err != nil {
			return nil, err
		}
		if err := s.repo.Save(ctx, existing); err != nil {
			return nil, err
		}
	}

	series, err := timeseries.Create(meteringPointID, period, resolution, version, transactionID, receivedAt)
	if err != nil {
		return nil, err
	}
	for _, obs := range observations {
		if err := series.AddObservation(obs.Timestamp, obs.Quantity, obs.Quality); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, &series); err != nil {
		return nil, err
	}
	return &series, nil
}
