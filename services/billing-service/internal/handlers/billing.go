package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rifat-karim/bizpilot/services/billing-service/internal/plans"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/storage"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/subscriptions"
)

type Handler struct {
	repo                   *storage.Repository
	subSvc                 *subscriptions.Service
	logger                 *slog.Logger
	stripeWebhookSecret    string
	stripeWebhookTolerance time.Duration
}

type Config struct {
	StripeWebhookSecret           string
	StripeWebhookToleranceSeconds int
}

func New(repo *storage.Repository, subSvc *subscriptions.Service, logger *slog.Logger, cfg Config) *Handler {
	tolSeconds := cfg.StripeWebhookToleranceSeconds
	if tolSeconds <= 0 {
		tolSeconds = 300
	}
	return &Handler{
		repo:                   repo,
		subSvc:                 subSvc,
		logger:                 logger,
		stripeWebhookSecret:    strings.TrimSpace(cfg.StripeWebhookSecret),
		stripeWebhookTolerance: time.Duration(tolSeconds) * time.Second,
	}
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plans": plans.Catalog()})
}

type subscriptionResponse struct {
	BusinessID string `json:"business_id"`
	PlanID     string `json:"plan_id"`
	PlanName   string `json:"plan_name"`
	Status     string `json:"status"`
	Provider   string `json:"provider"`
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}

	sub := h.repo.GetSubscription(businessID)
	planName := "Unknown"
	if plan, ok := plans.ByID(sub.PlanID); ok {
		planName = plan.Name
	}
	writeJSON(w, http.StatusOK, subscriptionResponse{
		BusinessID: sub.BusinessID,
		PlanID:     sub.PlanID,
		PlanName:   planName,
		Status:     sub.Status,
		Provider:   sub.Provider,
	})
}

type entitlementsResponse struct {
	BusinessID string       `json:"business_id"`
	PlanID     string       `json:"plan_id"`
	PlanName   string       `json:"plan_name"`
	Status     string       `json:"status"`
	Limits     plans.Limits `json:"limits"`
	Features   []string     `json:"features"`
}

// Entitlements is the cross-service plan limit contract: plan identity plus
// the structured limits record. A subscription pointing at an unknown plan
// degrades to zero limits instead of erroring.
func (h *Handler) Entitlements(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	businessID := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if businessID == "" {
		http.Error(w, "business_id required", http.StatusBadRequest)
		return
	}

	sub := h.repo.GetSubscription(businessID)
	plan, ok := plans.ByID(sub.PlanID)
	if !ok {
		h.logger.Warn("subscription references unknown plan", "business_id", businessID, "plan_id", sub.PlanID)
		writeJSON(w, http.StatusOK, entitlementsResponse{
			BusinessID: businessID,
			PlanID:     sub.PlanID,
			PlanName:   "Unknown",
			Status:     sub.Status,
			Limits:     plans.Limits{},
			Features:   []string{},
		})
		return
	}

	writeJSON(w, http.StatusOK, entitlementsResponse{
		BusinessID: businessID,
		PlanID:     plan.ID,
		PlanName:   plan.Name,
		Status:     sub.Status,
		Limits:     plan.Limits,
		Features:   plan.Features,
	})
}

// CheckLimit runs the authoritative limit evaluation. Usage counting stays
// with the service that owns the resource; it reports the count here.
func (h *Handler) CheckLimit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	businessID := strings.TrimSpace(q.Get("business_id"))
	resource := plans.Resource(strings.TrimSpace(q.Get("resource")))
	if businessID == "" || resource == "" {
		http.Error(w, "business_id and resource required", http.StatusBadRequest)
		return
	}
	switch resource {
	case plans.ResourceOrders, plans.ResourceProducts, plans.ResourceLocations:
	default:
		http.Error(w, "unknown resource type", http.StatusBadRequest)
		return
	}
	usage, err := strconv.ParseInt(strings.TrimSpace(q.Get("usage")), 10, 64)
	if err != nil || usage < 0 {
		http.Error(w, "usage must be a non-negative integer", http.StatusBadRequest)
		return
	}

	sub := h.repo.GetSubscription(businessID)
	plan, ok := plans.ByID(sub.PlanID)
	if !ok {
		writeJSON(w, http.StatusOK, plans.EvaluateUnknown(usage))
		return
	}
	writeJSON(w, http.StatusOK, plans.Evaluate(plan, resource, usage))
}

type featureResponse struct {
	HasAccess bool   `json:"has_access"`
	PlanName  string `json:"plan_name"`
}

func (h *Handler) FeatureAccess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	businessID := strings.TrimSpace(q.Get("business_id"))
	keyword := strings.TrimSpace(q.Get("keyword"))
	if businessID == "" || keyword == "" {
		http.Error(w, "business_id and keyword required", http.StatusBadRequest)
		return
	}

	sub := h.repo.GetSubscription(businessID)
	plan, ok := plans.ByID(sub.PlanID)
	if !ok {
		writeJSON(w, http.StatusOK, featureResponse{HasAccess: false, PlanName: "Unknown"})
		return
	}
	writeJSON(w, http.StatusOK, featureResponse{HasAccess: plan.HasFeature(keyword), PlanName: plan.Name})
}

type localWebhookRequest struct {
	EventID    string `json:"event_id"`
	Type       string `json:"type"` // subscription.activated | subscription.canceled
	BusinessID string `json:"business_id"`
	PlanID     string `json:"plan_id"`
	OccurredAt string `json:"occurred_at"`
}

// LocalWebhook lets dev environments flip subscription state without Stripe.
func (h *Handler) LocalWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req localWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.EventID = strings.TrimSpace(req.EventID)
	req.Type = strings.TrimSpace(req.Type)
	req.BusinessID = strings.TrimSpace(req.BusinessID)
	req.PlanID = strings.TrimSpace(strings.ToLower(req.PlanID))
	req.OccurredAt = strings.TrimSpace(req.OccurredAt)
	if req.EventID == "" || req.Type == "" || req.BusinessID == "" || req.OccurredAt == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	occurredAt, err := time.Parse(time.RFC3339, req.OccurredAt)
	if err != nil {
		http.Error(w, "invalid occurred_at", http.StatusBadRequest)
		return
	}

	if err := h.repo.InsertProviderEvent("local", req.EventID); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
		return
	}

	switch req.Type {
	case "subscription.activated":
		if req.PlanID == "" {
			http.Error(w, "plan_id required for activation", http.StatusBadRequest)
			return
		}
		if err := h.subSvc.ApplyActivated(r.Context(), req.BusinessID, req.PlanID, occurredAt, "local", "", ""); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	case "subscription.canceled":
		if err := h.subSvc.ApplyCanceled(r.Context(), req.BusinessID, occurredAt, "local", "", ""); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
	default:
		http.Error(w, "unknown event type", http.StatusBadRequest)
		return
	}

	h.repo.InsertAuditEvent(storage.AuditEvent{
		EventType:  "billing.webhook.local",
		ActorType:  "provider",
		BusinessID: req.BusinessID,
		Metadata:   map[string]any{"event_id": req.EventID, "type": req.Type, "plan_id": req.PlanID},
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "applied"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
