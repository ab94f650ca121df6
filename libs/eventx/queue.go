package eventx

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Queue buffers events in memory until the publisher drains them.
// It stands where a transactional outbox table would with a database:
// the ordering and envelope are the same, only durability is weaker.
type Queue struct {
	mu      sync.Mutex
	events  []Event
	dropped int64
	cap     int
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Queue{cap: capacity}
}

// Emit enqueues an event, stamping an event id and the caller's trace context.
// When the queue is full the oldest event is dropped.
func (q *Queue) Emit(ctx context.Context, evt Event) {
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	evt.traceparent = carrier.Get("traceparent")
	evt.tracestate = carrier.Get("tracestate")

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) >= q.cap {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, evt)
}

// Drain removes and returns up to n pending events.
func (q *Queue) Drain(n int) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || n > len(q.events) {
		n = len(q.events)
	}
	if n == 0 {
		return nil
	}
	batch := make([]Event, n)
	copy(batch, q.events[:n])
	q.events = q.events[n:]
	return batch
}

// Requeue puts unpublished events back at the front, preserving order.
func (q *Queue) Requeue(events []Event) {
	if len(events) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(append([]Event{}, events...), q.events...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
