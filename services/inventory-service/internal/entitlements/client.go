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

// freeLocationsLimit mirrors the free plan's locations cap for degraded
// operation when billing is unreachable.
const freeLocationsLimit = 1

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

// CheckLocations asks billing whether one more location may be created.
func (c *Client) CheckLocations(ctx context.Context, businessID string, usage int64) (LimitCheck, error) {
	u := fmt.Sprintf("%s/api/v1/billing/limits?business_id=%s&resource=locations&usage=%s",
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
		HasAccess: usage < freeLocationsLimit,
		Limit:     freeLocationsLimit,
		Usage:     usage,
		PlanName:  "Free",
	}
}
