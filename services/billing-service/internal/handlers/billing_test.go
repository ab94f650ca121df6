package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rifat-karim/bizpilot/libs/eventx"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/storage"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/subscriptions"
)

func newTestHandler() (*Handler, *eventx.Queue) {
	repo := storage.NewRepository("plan-basic")
	queue := eventx.NewQueue(64)
	subSvc := subscriptions.New(repo, queue)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(repo, subSvc, logger, Config{}), queue
}

func TestEntitlements_DefaultPlan(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/entitlements?business_id=biz-1", nil)
	rw := httptest.NewRecorder()
	h.Entitlements(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	var resp entitlementsResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PlanName != "Basic" {
		t.Fatalf("expected default Basic plan, got %q", resp.PlanName)
	}
	if resp.Limits.Products != 500 || resp.Limits.Locations != 2 || resp.Limits.Orders != 1000 {
		t.Fatalf("unexpected limits: %+v", resp.Limits)
	}
}

func TestCheckLimit_Boundary(t *testing.T) {
	h, _ := newTestHandler()

	get := func(usage string) map[string]any {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/limits?business_id=biz-1&resource=products&usage="+usage, nil)
		rw := httptest.NewRecorder()
		h.CheckLimit(rw, req)
		if rw.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
		}
		var out map[string]any
		if err := json.NewDecoder(rw.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	if out := get("500"); out["has_access"] != false {
		t.Fatalf("usage 500 of 500 should deny: %v", out)
	}
	if out := get("499"); out["has_access"] != true {
		t.Fatalf("usage 499 of 500 should allow: %v", out)
	}
}

func TestLocalWebhook_ActivatesAndDeduplicates(t *testing.T) {
	h, queue := newTestHandler()

	body := `{"event_id":"evt-1","type":"subscription.activated","business_id":"biz-9","plan_id":"plan-pro","occurred_at":"` +
		time.Now().UTC().Format(time.RFC3339) + `"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhooks/local", strings.NewReader(body))
	rw := httptest.NewRecorder()
	h.LocalWebhook(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rw.Code, rw.Body.String())
	}

	subReq := httptest.NewRequest(http.MethodGet, "/api/v1/billing/subscription?business_id=biz-9", nil)
	subRW := httptest.NewRecorder()
	h.GetSubscription(subRW, subReq)
	var sub subscriptionResponse
	if err := json.NewDecoder(subRW.Body).Decode(&sub); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub.PlanID != "plan-pro" || sub.Status != "active" {
		t.Fatalf("unexpected subscription after activation: %+v", sub)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected 1 activation event, got %d", queue.Len())
	}

	// Replay with the same event id must be a no-op.
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhooks/local", strings.NewReader(body))
	rw2 := httptest.NewRecorder()
	h.LocalWebhook(rw2, req2)
	var dup map[string]any
	if err := json.NewDecoder(rw2.Body).Decode(&dup); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dup["status"] != "duplicate" {
		t.Fatalf("expected duplicate status, got %v", dup)
	}
	if queue.Len() != 1 {
		t.Fatalf("duplicate webhook must not emit another event")
	}
}

func TestFeatureAccess(t *testing.T) {
	h, _ := newTestHandler()

	// Default Basic plan has no AI logistics.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/features?business_id=biz-1&keyword=ai+logistics", nil)
	rw := httptest.NewRecorder()
	h.FeatureAccess(rw, req)
	var resp featureResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.HasAccess {
		t.Fatalf("basic plan should not grant ai logistics")
	}
}
