package workers

import (
	"context"
	"log"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
)

// SpotFetcher retrieves one day's spot prices for an area, implemented
// by internal/pricing/infrastructure/nordpool.Client.
type SpotFetcher interface {
	FetchDay(ctx context.Context, area pricing.PriceArea, day time.Time) ([]pricing.SpotPrice, error)
}

// SpotPriceFetcher runs on demand and daily (spec.md §5 "Spot-price
// fetcher"), pulling the next day's prices for every configured area
// and upserting them through the pricing SpotPrice contract (spec.md §6
// "Spot-price fetcher calls the SpotPrice upsert contract").
type SpotPriceFetcher struct {
	Fetcher SpotFetcher
	Spots   pricing.SpotPriceRepository
	Areas   []pricing.PriceArea
	Logger  *log.Logger
}

// FetchNow fetches and upserts the given day's prices for every
// configured area; it can be called directly ("on demand") or from the
// daily ticker loop below.
func (f *SpotPriceFetcher) FetchNow(ctx context.Context, day time.Time) (inserted, updated int, err error) {
	for _, area := range f.Areas {
		points, fetchErr := f.Fetcher.FetchDay(ctx, area, day)
		if fetchErr != nil {
			f.logf("spot price fetcher: area %s: %v", area, fetchErr)
			err = fetchErr
			continue
		}
		ins, upd, upsertErr := f.Spots.Upsert(ctx, points)
		if upsertErr != nil {
			f.logf("spot price fetcher: area %s upsert: %v", area, upsertErr)
			err = upsertErr
			continue
		}
		inserted += ins
		updated += upd
	}
	return inserted, updated, err
}

func (f *SpotPriceFetcher) logf(format string, args ...any) {
	if f.Logger != nil {
		f.Logger.Printf(format, args...)
	}
}

// Run fetches tomorrow's prices once a day during the given UTC hour,
// blocking until ctx is cancelled. It checks every minute rather than
// sleeping a day at a time, so a process started or restarted during
// that hour still runs that day's fetch within a minute; a restart after
// the hour has passed waits for the next day.
func (f *SpotPriceFetcher) Run(ctx context.Context, dailyAtHour int) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	lastRun := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			now := tick.UTC()
			if now.Hour() != dailyAtHour {
				continue
			}
			if !lastRun.IsZero() && now.Sub(lastRun) < 23*time.Hour {
				continue
			}
			lastRun = now
			tomorrow := now.AddDate(0, 0, 1)
			if _, _, err := f.FetchNow(ctx, tomorrow); err != nil {
				f.logf("spot price fetcher tick error: %v", err)
			}
		}
	}
}
