package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWithBusinessIDStampsDefault(t *testing.T) {
	h := withBusinessID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Business-Id") != "demo-business" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), "demo-business")

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/pos/orders", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}

func TestWithBusinessIDKeepsCallerHeader(t *testing.T) {
	h := withBusinessID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Business-Id") != "biz-42" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}), "demo-business")

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/pos/orders", nil)
	req.Header.Set("X-Business-Id", "biz-42")
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
}

func TestRegisterProxyMatchesPrefixAndSubpaths(t *testing.T) {
	mux := http.NewServeMux()
	backend := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	registerProxy(mux, "/api/v1/pos", backend)

	for _, path := range []string{"/api/v1/pos", "/api/v1/pos/orders/checkout"} {
		req := httptest.NewRequest(http.MethodGet, "http://example.com"+path, nil)
		rw := httptest.NewRecorder()
		mux.ServeHTTP(rw, req)
		if rw.Code != http.StatusNoContent {
			t.Fatalf("path %s: expected 204, got %d", path, rw.Code)
		}
	}
}
