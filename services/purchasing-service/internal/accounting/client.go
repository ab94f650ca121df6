package accounting

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

// Client mirrors supplier payments into the accounting ledger.
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

type supplierPayment struct {
	SupplierID  string `json:"supplier_id"`
	AmountCents int64  `json:"amount_cents"`
	Memo        string `json:"memo"`
}

// RecordSupplierPayment posts the payment so the ledger books it against
// accounts payable.
func (c *Client) RecordSupplierPayment(ctx context.Context, supplierID string, amountCents int64, memo string) error {
	body, err := json.Marshal(supplierPayment{SupplierID: supplierID, AmountCents: amountCents, Memo: memo})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/accounting/payments/supplier", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("accounting returned status %d", resp.StatusCode)
	}
	return nil
}
