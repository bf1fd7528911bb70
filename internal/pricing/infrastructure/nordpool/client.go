// Package nordpool fetches day-ahead spot prices for DK1/DK2 from
// Nordpool's public data API, grounded on
// internal/tbadapter.Client (baseURL + http.Client + doJSON helper,
// context-scoped requests, typed response structs) generalized from a
// ThingsBoard REST client to a read-only day-ahead price feed (spec.md
// §6 "Spot-price fetcher calls the SpotPrice upsert contract").
package nordpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dkenergy/dh-settlement/internal/pricing/domain"
)

// Client is a minimal read-only Nordpool day-ahead price client.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("nordpool: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type dayAheadResponse struct {
	DeliveryDate string            `json:"deliveryDate"`
	Entries      []dayAheadEntry   `json:"entries"`
}

type dayAheadEntry struct {
	DeliveryStart string  `json:"deliveryStart"`
	EntryPerArea  map[string]float64 `json:"entryPerArea"`
}

// FetchDay retrieves the hourly day-ahead DKK/MWh prices for area on the
// given Europe/Copenhagen calendar day and converts them to SpotPrice
// rows in DKK/kWh.
func (c *Client) FetchDay(ctx context.Context, area pricing.PriceArea, day time.Time) ([]pricing.SpotPrice, error) {
	url := fmt.Sprintf("%s/DayAheadPrices?date=%s&market=DayAhead&deliveryArea=%s&currency=DKK",
		c.baseURL, day.Format("2006-01-02"), string(area))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("nordpool: http %d", resp.StatusCode)
	}

	var parsed dayAheadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	prices := make([]pricing.SpotPrice, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		ts, err := time.Parse(time.RFC3339, entry.DeliveryStart)
		if err != nil {
			continue
		}
		perMwh, ok := entry.EntryPerArea[string(area)]
		if !ok {
			continue
		}
		prices = append(prices, pricing.SpotPrice{
			PriceArea:      area,
			Timestamp:      ts.UTC(),
			PriceDkkPerKwh: perMwh / 1000,
		})
	}
	return prices, nil
}
