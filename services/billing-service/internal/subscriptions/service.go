package subscriptions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rifat-karim/bizpilot/libs/eventx"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/plans"
	"github.com/rifat-karim/bizpilot/services/billing-service/internal/storage"
)

// Service encapsulates subscription state transitions and their event side
// effects. Keeping this out of HTTP handlers makes it reusable for the local
// and Stripe webhook flows alike.
type Service struct {
	repo  *storage.Repository
	queue *eventx.Queue
}

func New(repo *storage.Repository, queue *eventx.Queue) *Service {
	return &Service{repo: repo, queue: queue}
}

func (s *Service) ApplyActivated(ctx context.Context, businessID, planID string, activatedAt time.Time, provider, stripeCustomerID, stripeSubscriptionID string) error {
	plan, ok := plans.ByID(planID)
	if !ok {
		return fmt.Errorf("unknown plan %q", planID)
	}

	existing, had := s.repo.Lookup(businessID)
	s.repo.UpsertSubscription(storage.Subscription{
		BusinessID:           businessID,
		PlanID:               plan.ID,
		Status:               "active",
		Provider:             provider,
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
	})

	// Only emit when the effective entitlement changes (plan/status).
	// Provider ID updates alone shouldn't fan out.
	if had && existing.Status == "active" && existing.PlanID == plan.ID {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"business_id":  businessID,
		"plan_id":      plan.ID,
		"plan_name":    plan.Name,
		"limits":       plan.Limits,
		"activated_at": activatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	s.queue.Emit(ctx, eventx.Event{
		AggregateType: "subscription",
		AggregateID:   businessID,
		EventType:     "billing.subscription.activated.v1",
		Payload:       payload,
	})
	return nil
}

func (s *Service) ApplyCanceled(ctx context.Context, businessID string, canceledAt time.Time, provider, stripeCustomerID, stripeSubscriptionID string) error {
	// Cancellation drops the business to the free plan rather than cutting
	// access off entirely.
	free, ok := plans.ByID("plan-free")
	if !ok {
		return fmt.Errorf("free plan missing from catalog")
	}

	existing, had := s.repo.Lookup(businessID)
	s.repo.UpsertSubscription(storage.Subscription{
		BusinessID:           businessID,
		PlanID:               free.ID,
		Status:               "canceled",
		Provider:             provider,
		StripeCustomerID:     stripeCustomerID,
		StripeSubscriptionID: stripeSubscriptionID,
	})

	if had && existing.Status == "canceled" && existing.PlanID == free.ID {
		return nil
	}

	payload, err := json.Marshal(map[string]any{
		"business_id": businessID,
		"plan_id":     free.ID,
		"plan_name":   free.Name,
		"limits":      free.Limits,
		"canceled_at": canceledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	s.queue.Emit(ctx, eventx.Event{
		AggregateType: "subscription",
		AggregateID:   businessID,
		EventType:     "billing.subscription.canceled.v1",
		Payload:       payload,
	})
	return nil
}
