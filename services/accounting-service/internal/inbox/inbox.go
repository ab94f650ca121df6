package inbox

import (
	"context"
	"sync"
)

// Repository deduplicates consumed events by event id so replayed Kafka
// messages never double-post journal entries.
type Repository struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewRepository() *Repository {
	return &Repository{seen: map[string]struct{}{}}
}

// Record marks the event as processed. Returns false when the event was
// already seen.
func (r *Repository) Record(_ context.Context, eventID, _ string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[eventID]; ok {
		return false, nil
	}
	r.seen[eventID] = struct{}{}
	return true, nil
}

// Forget drops the event id again. Called when processing fails after
// Record, so a redelivery of the same event gets another attempt.
func (r *Repository) Forget(eventID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.seen, eventID)
}
