package timeseries

import (
	"context"

	"github.com/dkenergy/dh-settlement/internal/primitives"
)

// Repository persists TimeSeries aggregates and their observations.
type Repository interface {
	// FindLatest returns the IsLatest=true series for (meteringPointID,
	// period), or nil if none exists.
	FindLatest(ctx context.Context, meteringPointID primitives.ID, period primitives.Period) (*TimeSeries, error)
	FindByID(ctx context.Context, id primitives.ID) (*TimeSeries, error)
	// Save persists a series and its observations.
	Save(ctx context.Context, series *TimeSeries) error
}
