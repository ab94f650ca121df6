package eventx

import (
	"context"
	"testing"
)

func TestEmitStampsEventID(t *testing.T) {
	q := NewQueue(8)
	q.Emit(context.Background(), Event{EventType: "test.created.v1"})

	events := q.Drain(1)
	if len(events) != 1 {
		t.Fatalf("drained %d events, want 1", len(events))
	}
	if events[0].EventID == "" {
		t.Fatalf("event id was not stamped")
	}
}

func TestDrainPreservesOrder(t *testing.T) {
	q := NewQueue(8)
	for _, id := range []string{"a", "b", "c"} {
		q.Emit(context.Background(), Event{EventID: id, EventType: "test.created.v1"})
	}

	events := q.Drain(2)
	if len(events) != 2 || events[0].EventID != "a" || events[1].EventID != "b" {
		t.Fatalf("unexpected batch: %+v", events)
	}
	if q.Len() != 1 {
		t.Fatalf("remaining = %d, want 1", q.Len())
	}
}

func TestFullQueueDropsOldest(t *testing.T) {
	q := NewQueue(2)
	for _, id := range []string{"a", "b", "c"} {
		q.Emit(context.Background(), Event{EventID: id, EventType: "test.created.v1"})
	}

	events := q.Drain(0)
	if len(events) != 2 || events[0].EventID != "b" || events[1].EventID != "c" {
		t.Fatalf("unexpected events after overflow: %+v", events)
	}
}

func TestRequeuePutsEventsBackInFront(t *testing.T) {
	q := NewQueue(8)
	q.Emit(context.Background(), Event{EventID: "a", EventType: "test.created.v1"})
	q.Emit(context.Background(), Event{EventID: "b", EventType: "test.created.v1"})

	batch := q.Drain(1)
	q.Requeue(batch)

	events := q.Drain(0)
	if len(events) != 2 || events[0].EventID != "a" || events[1].EventID != "b" {
		t.Fatalf("unexpected order after requeue: %+v", events)
	}
}
