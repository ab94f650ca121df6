package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rifat-karim/bizpilot/services/catalog-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/catalog-service/internal/store"
)

type stubLimits struct {
	check entitlements.LimitCheck
}

func (s *stubLimits) CheckProducts(_ context.Context, _ string, usage int64) (entitlements.LimitCheck, error) {
	c := s.check
	c.Usage = usage
	return c, nil
}

func newTestHandler(limits *stubLimits) *CatalogHandler {
	return New(store.NewSeeded(), limits, slog.New(slog.NewTextHandler(io.Discard, nil)), "demo-business")
}

func TestGetProductServesPriceInCents(t *testing.T) {
	h := newTestHandler(&stubLimits{check: entitlements.LimitCheck{HasAccess: true}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/get?id=prod-panini", nil)
	rec := httptest.NewRecorder()
	h.GetProduct(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var p store.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.Name != "Chicken Panini" || p.PriceCents != 2499 {
		t.Fatalf("got %q at %d cents, want Chicken Panini at 2499", p.Name, p.PriceCents)
	}
}

func TestGetProductUnknownReturns404(t *testing.T) {
	h := newTestHandler(&stubLimits{check: entitlements.LimitCheck{HasAccess: true}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products/get?id=prod-nope", nil)
	rec := httptest.NewRecorder()
	h.GetProduct(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestCreateProductDeniedAtLimit(t *testing.T) {
	h := newTestHandler(&stubLimits{check: entitlements.LimitCheck{HasAccess: false, Limit: 25, PlanName: "Free"}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products",
		strings.NewReader(`{"name":"Iced Tea","category":"Drinks","price_cents":400}`))
	rec := httptest.NewRecorder()
	h.Products(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}
}

func TestCreateProductAllowed(t *testing.T) {
	h := newTestHandler(&stubLimits{check: entitlements.LimitCheck{HasAccess: true, Limit: 500, PlanName: "Basic"}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/products",
		strings.NewReader(`{"name":"Iced Tea","category":"Drinks","price_cents":400,"sku":"DRK-ICT-001"}`))
	rec := httptest.NewRecorder()
	h.Products(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var p store.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.ID == "" || p.PriceCents != 400 {
		t.Fatalf("unexpected product: %+v", p)
	}
}

func TestSearchFiltersByNameAndCategory(t *testing.T) {
	h := newTestHandler(&stubLimits{check: entitlements.LimitCheck{HasAccess: true}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/products?q=cro&category=Bakery", nil)
	rec := httptest.NewRecorder()
	h.Products(rec, req)

	var body struct {
		Products []store.Product `json:"products"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Products) != 1 || body.Products[0].Name != "Butter Croissant" {
		t.Fatalf("got %+v, want only Butter Croissant", body.Products)
	}
}
