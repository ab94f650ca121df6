package storage

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Repository is the billing state store. Everything lives in memory; the
// shapes mirror what a subscriptions table would hold so a database can be
// slotted in later without changing callers.
type Repository struct {
	mu             sync.RWMutex
	subscriptions  map[string]Subscription
	providerEvents map[string]struct{}
	audit          []AuditEvent
	defaultPlanID  string
}

type Subscription struct {
	BusinessID           string
	PlanID               string
	Status               string // active | canceled
	Provider             string // local | stripe
	StripeCustomerID     string
	StripeSubscriptionID string
	UpdatedAt            time.Time
}

type AuditEvent struct {
	EventType  string
	ActorType  string
	ActorID    string
	BusinessID string
	Metadata   map[string]any
	At         time.Time
}

var ErrDuplicateProviderEvent = errors.New("duplicate provider event")

func NewRepository(defaultPlanID string) *Repository {
	if strings.TrimSpace(defaultPlanID) == "" {
		defaultPlanID = "plan-free"
	}
	return &Repository{
		subscriptions:  map[string]Subscription{},
		providerEvents: map[string]struct{}{},
		defaultPlanID:  defaultPlanID,
	}
}

// GetSubscription returns the stored subscription, or an active default-plan
// subscription when the business has never billed with us.
func (r *Repository) GetSubscription(businessID string) Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.subscriptions[businessID]; ok {
		return s
	}
	return Subscription{
		BusinessID: businessID,
		PlanID:     r.defaultPlanID,
		Status:     "active",
		Provider:   "local",
	}
}

func (r *Repository) lookup(businessID string) (Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.subscriptions[businessID]
	return s, ok
}

// Lookup returns the raw stored subscription without the default-plan fallback.
func (r *Repository) Lookup(businessID string) (Subscription, bool) {
	return r.lookup(businessID)
}

func (r *Repository) UpsertSubscription(s Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if strings.TrimSpace(s.Provider) == "" {
		s.Provider = "local"
	}
	s.UpdatedAt = time.Now().UTC()
	r.subscriptions[s.BusinessID] = s
}

// InsertProviderEvent records a webhook event id for replay protection.
func (r *Repository) InsertProviderEvent(provider, providerEventID string) error {
	key := provider + ":" + providerEventID
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.providerEvents[key]; dup {
		return ErrDuplicateProviderEvent
	}
	r.providerEvents[key] = struct{}{}
	return nil
}

func (r *Repository) InsertAuditEvent(evt AuditEvent) {
	evt.At = time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audit = append(r.audit, evt)
}

func (r *Repository) DefaultPlanID() string {
	return r.defaultPlanID
}
