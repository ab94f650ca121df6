package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rifat-karim/bizpilot/services/billing-service/internal/storage"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// StripeWebhook handles Stripe webhooks (no session auth; the signature is
// the auth). The gateway should expose this path publicly.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.stripeWebhookSecret == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1 MiB hard cap
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	evt, err := webhook.ConstructEventWithTolerance(body, sigHeader, h.stripeWebhookSecret, h.stripeWebhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	occurredAt := time.Unix(evt.Created, 0).UTC()
	evtType := string(evt.Type)
	h.logger.Info("billing provider event received",
		"provider", "stripe",
		"provider_event_id", evt.ID,
		"event_type", evtType,
		"occurred_at", occurredAt.Format(time.RFC3339),
	)

	// Idempotency: ignore replayed Stripe events.
	if err := h.repo.InsertProviderEvent("stripe", evt.ID); err != nil {
		if errors.Is(err, storage.ErrDuplicateProviderEvent) {
			h.logger.Info("billing provider event duplicate ignored", "provider_event_id", evt.ID, "event_type", evtType)
			writeJSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			return
		}
		http.Error(w, "failed to record provider event", http.StatusInternalServerError)
		return
	}

	h.repo.InsertAuditEvent(storage.AuditEvent{
		EventType: "billing.provider.stripe.webhook",
		ActorType: "provider",
		Metadata: map[string]any{
			"provider_event_id": evt.ID,
			"event_type":        evtType,
			"occurred_at":       occurredAt.Format(time.RFC3339),
		},
	})

	switch evtType {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &session); err != nil {
			h.logger.Error("stripe: invalid checkout session payload", "err", err)
			break
		}
		businessID := strings.TrimSpace(session.Metadata["business_id"])
		planID := strings.TrimSpace(strings.ToLower(session.Metadata["plan_id"]))
		if businessID == "" || planID == "" {
			h.logger.Warn("stripe: missing metadata on checkout session (business_id/plan_id)")
			break
		}
		customerID := ""
		if session.Customer != nil {
			customerID = session.Customer.ID
		}
		subscriptionID := ""
		if session.Subscription != nil {
			subscriptionID = session.Subscription.ID
		}
		if err := h.subSvc.ApplyActivated(r.Context(), businessID, planID, occurredAt, "stripe", customerID, subscriptionID); err != nil {
			http.Error(w, "failed to apply activation", http.StatusInternalServerError)
			return
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			h.logger.Error("stripe: invalid subscription payload", "err", err)
			break
		}
		businessID := strings.TrimSpace(sub.Metadata["business_id"])
		if businessID == "" {
			h.logger.Warn("stripe: missing business_id metadata on subscription")
			break
		}
		customerID := ""
		if sub.Customer != nil {
			customerID = sub.Customer.ID
		}
		if err := h.subSvc.ApplyCanceled(r.Context(), businessID, occurredAt, "stripe", customerID, sub.ID); err != nil {
			http.Error(w, "failed to apply cancellation", http.StatusInternalServerError)
			return
		}

	default:
		h.logger.Debug("stripe: unhandled event type", "event_type", evtType)
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "received"})
}
