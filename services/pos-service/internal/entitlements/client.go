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

// LimitCheck mirrors billing's limit evaluation result: the flag the UI
// gates on plus the limit/usage/plan triple it displays.
type LimitCheck struct {
	HasAccess bool   `json:"has_access"`
	Limit     int64  `json:"limit"` // -1 means unlimited
	Usage     int64  `json:"usage"`
	PlanName  string `json:"plan_name"`
}

// freeOrdersLimit matches the free plan's monthly order cap. Used when
// billing-service cannot be reached, so a billing outage degrades to free
// tier instead of blocking sales outright.
const freeOrdersLimit = 100

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

// CheckOrders asks billing whether one more order may be placed this month.
// The caller supplies its own usage count; billing owns the plan and limit.
func (c *Client) CheckOrders(ctx context.Context, businessID string, usage int64) (LimitCheck, error) {
	u := fmt.Sprintf("%s/api/v1/billing/limits?business_id=%s&resource=orders&usage=%s",
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
		HasAccess: usage < freeOrdersLimit,
		Limit:     freeOrdersLimit,
		Usage:     usage,
		PlanName:  "Free",
	}
}
