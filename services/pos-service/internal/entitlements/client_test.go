package entitlements

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckOrders_UsesBillingResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/billing/limits" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("resource"); got != "orders" {
			t.Fatalf("expected orders resource, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"has_access":false,"limit":1000,"usage":1000,"plan_name":"Basic"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	check, err := client.CheckOrders(context.Background(), "biz-1", 1000)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if check.HasAccess || check.PlanName != "Basic" || check.Limit != 1000 {
		t.Fatalf("unexpected check: %+v", check)
	}
}

func TestCheckOrders_FallsBackToFreeTier(t *testing.T) {
	client := NewClient("http://127.0.0.1:1") // nothing listening

	check, err := client.CheckOrders(context.Background(), "biz-1", 50)
	if err == nil {
		t.Fatalf("expected a transport error")
	}
	if !check.HasAccess || check.Limit != freeOrdersLimit {
		t.Fatalf("expected free-tier fallback to allow usage 50: %+v", check)
	}

	check, _ = client.CheckOrders(context.Background(), "biz-1", 100)
	if check.HasAccess {
		t.Fatalf("free-tier fallback should deny at the cap: %+v", check)
	}
}
