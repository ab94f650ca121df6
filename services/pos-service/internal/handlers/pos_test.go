package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rifat-karim/bizpilot/libs/eventx"
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/orders"
)

type stubCatalog struct {
	products map[string]orders.Product
}

func (s *stubCatalog) Product(_ context.Context, productID string) (orders.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return orders.Product{}, errors.New("unknown product")
	}
	return p, nil
}

type stubLimits struct {
	check entitlements.LimitCheck
}

func (s *stubLimits) CheckOrders(_ context.Context, _ string, usage int64) (entitlements.LimitCheck, error) {
	c := s.check
	c.Usage = usage
	return c, nil
}

func newTestHandler(t *testing.T, limits *stubLimits) (*PosHandler, *eventx.Queue) {
	t.Helper()
	register := orders.NewRegister(orders.Config{ClampNegativeTotal: true, RequireFullTender: true})
	cat := &stubCatalog{products: map[string]orders.Product{
		"prod-espresso": {ID: "prod-espresso", Name: "Espresso", UnitPriceCents: 350},
		"prod-panini":   {ID: "prod-panini", Name: "Chicken Panini", UnitPriceCents: 2499},
	}}
	queue := eventx.NewQueue(64)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPosHandler(register, cat, limits, queue, logger, "demo-business"), queue
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAddItemMergesDuplicates(t *testing.T) {
	h, _ := newTestHandler(t, &stubLimits{check: entitlements.LimitCheck{HasAccess: true, Limit: 1000}})

	rec := postJSON(t, h.Orders, "/api/v1/pos/orders", `{"customer_ref":"walk-in"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var created orders.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created order: %v", err)
	}

	body := `{"order_id":"` + created.ID + `","product_id":"prod-espresso"}`
	if rec := postJSON(t, h.AddItem, "/api/v1/pos/items/add", body); rec.Code != http.StatusOK {
		t.Fatalf("first add status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = postJSON(t, h.AddItem, "/api/v1/pos/items/add", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("second add status = %d: %s", rec.Code, rec.Body.String())
	}

	var o orders.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if len(o.Lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(o.Lines))
	}
	if o.Lines[0].Quantity != 2 {
		t.Fatalf("quantity = %d, want 2", o.Lines[0].Quantity)
	}
}

func TestSetQuantityUnparseableRemovesLine(t *testing.T) {
	h, _ := newTestHandler(t, &stubLimits{check: entitlements.LimitCheck{HasAccess: true, Limit: 1000}})

	rec := postJSON(t, h.Orders, "/api/v1/pos/orders", `{}`)
	var created orders.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created order: %v", err)
	}
	postJSON(t, h.AddItem, "/api/v1/pos/items/add",
		`{"order_id":"`+created.ID+`","product_id":"prod-espresso"}`)

	rec = postJSON(t, h.SetQuantity, "/api/v1/pos/items/quantity",
		`{"order_id":"`+created.ID+`","product_id":"prod-espresso","quantity":"abc"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("set quantity status = %d: %s", rec.Code, rec.Body.String())
	}
	var o orders.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if len(o.Lines) != 0 {
		t.Fatalf("lines = %d, want 0 after zero quantity", len(o.Lines))
	}
}

func TestCheckoutDeniedWhenLimitReached(t *testing.T) {
	h, queue := newTestHandler(t, &stubLimits{check: entitlements.LimitCheck{HasAccess: false, Limit: 100, PlanName: "Free"}})

	rec := postJSON(t, h.Orders, "/api/v1/pos/orders", `{}`)
	var created orders.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created order: %v", err)
	}
	postJSON(t, h.AddItem, "/api/v1/pos/items/add",
		`{"order_id":"`+created.ID+`","product_id":"prod-panini"}`)

	rec = postJSON(t, h.Checkout, "/api/v1/pos/orders/checkout",
		`{"order_id":"`+created.ID+`","tendered_cents":10000}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("checkout status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}
	if queue.Len() != 0 {
		t.Fatalf("queue length = %d, want 0 after denied checkout", queue.Len())
	}
}

func TestCheckoutEmitsOrderAndPaymentEvents(t *testing.T) {
	h, queue := newTestHandler(t, &stubLimits{check: entitlements.LimitCheck{HasAccess: true, Limit: 1000, PlanName: "Pro"}})

	rec := postJSON(t, h.Orders, "/api/v1/pos/orders", `{"customer_ref":"table-4"}`)
	var created orders.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created order: %v", err)
	}
	addBody := `{"order_id":"` + created.ID + `","product_id":"prod-panini"}`
	postJSON(t, h.AddItem, "/api/v1/pos/items/add", addBody)
	postJSON(t, h.AddItem, "/api/v1/pos/items/add", addBody)

	rec = postJSON(t, h.Checkout, "/api/v1/pos/orders/checkout",
		`{"order_id":"`+created.ID+`","tendered_cents":6000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout status = %d: %s", rec.Code, rec.Body.String())
	}

	var receipt orders.Receipt
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.Totals.TotalCents != 5398 {
		t.Fatalf("total = %d, want 5398", receipt.Totals.TotalCents)
	}
	if receipt.ChangeCents != 602 {
		t.Fatalf("change = %d, want 602", receipt.ChangeCents)
	}

	events := queue.Drain(10)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].EventType != "pos.order.checked_out.v1" {
		t.Fatalf("first event = %q", events[0].EventType)
	}
	if events[1].EventType != "pos.payment.recorded.v1" {
		t.Fatalf("second event = %q", events[1].EventType)
	}
}

func TestSendToKitchenRejectsEmptyOrder(t *testing.T) {
	h, queue := newTestHandler(t, &stubLimits{check: entitlements.LimitCheck{HasAccess: true, Limit: 1000}})

	rec := postJSON(t, h.Orders, "/api/v1/pos/orders", `{}`)
	var created orders.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created order: %v", err)
	}

	rec = postJSON(t, h.SendToKitchen, "/api/v1/pos/orders/kitchen",
		`{"order_id":"`+created.ID+`"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("kitchen status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if queue.Len() != 0 {
		t.Fatalf("queue length = %d, want 0", queue.Len())
	}
}

func TestQuantityFieldToleratesBadValues(t *testing.T) {
	cases := []struct {
		body string
		want int64
	}{
		{`{"quantity":7}`, 7},
		{`{"quantity":"12"}`, 12},
		{`{"quantity":"abc"}`, 0},
		{`{"quantity":3.9}`, 0},
		{`{"quantity":true}`, 0},
		{`{"quantity":null}`, 0},
		{`{}`, 0},
	}
	for _, tc := range cases {
		var req setQuantityRequest
		if err := json.Unmarshal([]byte(tc.body), &req); err != nil {
			t.Fatalf("%s: %v", tc.body, err)
		}
		if int64(req.Quantity) != tc.want {
			t.Fatalf("%s: quantity = %d, want %d", tc.body, req.Quantity, tc.want)
		}
	}
}
