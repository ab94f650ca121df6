package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rifat-karim/bizpilot/services/pos-service/internal/orders"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client resolves product ids against catalog-service so the terminal
// prices lines from the catalog of record, not client input.
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

type productResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

func (c *Client) Product(ctx context.Context, productID string) (orders.Product, error) {
	u := c.baseURL + "/api/v1/catalog/products/get?id=" + url.QueryEscape(productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return orders.Product{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return orders.Product{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return orders.Product{}, fmt.Errorf("product %s not found", productID)
	}
	if resp.StatusCode != http.StatusOK {
		return orders.Product{}, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var p productResponse
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return orders.Product{}, err
	}
	return orders.Product{ID: p.ID, Name: p.Name, UnitPriceCents: p.PriceCents}, nil
}
