package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client pushes stock adjustments to inventory-service when goods arrive.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type adjustment struct {
	LocationID string `json:"location_id"`
	SKU        string `json:"sku"`
	Delta      int64  `json:"delta"`
}

// AdjustStock adds delta units of a SKU at a location.
func (c *Client) AdjustStock(ctx context.Context, locationID, sku string, delta int64) error {
	body, err := json.Marshal(adjustment{LocationID: locationID, SKU: sku, Delta: delta})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/inventory/stock/adjust", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inventory returned status %d", resp.StatusCode)
	}
	return nil
}
