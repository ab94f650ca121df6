package entitlements

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// freeProductsLimit mirrors the free plan's products cap. Used when billing
// cannot be reached so the catalog degrades instead of failing closed.
const freeProductsLimit = 25

type LimitCheck struct {
	HasAccess bool   `json:"has_access"`
	Limit     int64  `json:"limit"`
	Usage     int64  `json:"usage"`
	PlanName  string `json:"plan_name"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   3 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CheckProducts asks billing whether one more product may be created.
func (c *Client) CheckProducts(ctx context.Context, businessID string, usage int64) (LimitCheck, error) {
	u := fmt.Sprintf("%s/api/v1/billing/limits?business_id=%s&resource=products&usage=%s",
		c.baseURL, url.QueryEscape(businessID), strconv.FormatInt(usage, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fallback(usage), err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fallback(usage), err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fallback(usage), fmt.Errorf("billing returned status %d", resp.StatusCode)
	}

	var check LimitCheck
	if err := json.NewDecoder(resp.Body).Decode(&check); err != nil {
		return fallback(usage), err
	}
	return check, nil
}

func fallback(usage int64) LimitCheck {
	return LimitCheck{
		HasAccess: usage < freeProductsLimit,
		Limit:     freeProductsLimit,
		Usage:     usage,
		PlanName:  "Free",
	}
}
