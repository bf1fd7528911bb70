// Package datahub ships outbound RSM envelopes to the DataHub market
// message gateway, grounded on internal/tbadapter.Client
// (baseURL + http.Client + context-scoped POST, raw response bytes
// returned to the caller) generalized from a ThingsBoard REST client to
// a single-endpoint CIM document sink. It implements
// messaging/application.Sender.
package datahub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dkenergy/dh-settlement/internal/messaging/domain"
)

// Client posts raw RSM envelope payloads to the hub's message endpoint.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient constructs a Client.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("datahub: empty base url")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Send posts msg.Payload to the hub and returns its raw response body.
func (c *Client) Send(ctx context.Context, msg messaging.OutboxMessage) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/market-messages", bytes.NewReader(msg.Payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("X-Message-Id", msg.MessageID)
	req.Header.Set("X-Business-Process", msg.BusinessProcess)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return body, fmt.Errorf("datahub: http %d", resp.StatusCode)
	}
	return body, nil
}
