package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithCORSAppliesDefaultHeaders(t *testing.T) {
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithCORS(CORSPolicy{AllowedOrigins: []string{"https://shop.example"}}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/orders", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example" {
		t.Fatalf("allow-origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Business-Id") {
		t.Fatalf("allow-headers = %q, want X-Business-Id included", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, http.MethodDelete) {
		t.Fatalf("allow-methods = %q, want DELETE included", got)
	}
}

func TestWithCORSExplicitHeadersOverrideDefaults(t *testing.T) {
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://shop.example"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pos/orders", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Fatalf("allow-headers = %q, want Content-Type only", got)
	}
}
