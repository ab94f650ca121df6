package inbox

import (
	"context"
	"testing"
)

func TestRecordDeduplicatesByEventID(t *testing.T) {
	r := NewRepository()

	ok, err := r.Record(context.Background(), "evt-1", "pos.order.checked_out.v1")
	if err != nil || !ok {
		t.Fatalf("first record: ok=%v err=%v", ok, err)
	}
	ok, err = r.Record(context.Background(), "evt-1", "pos.order.checked_out.v1")
	if err != nil || ok {
		t.Fatalf("duplicate record: ok=%v err=%v", ok, err)
	}
}

func TestForgetAllowsRetryAfterFailure(t *testing.T) {
	r := NewRepository()

	if ok, _ := r.Record(context.Background(), "evt-2", "purchasing.grn.received.v1"); !ok {
		t.Fatalf("first record should be accepted")
	}
	r.Forget("evt-2")
	if ok, _ := r.Record(context.Background(), "evt-2", "purchasing.grn.received.v1"); !ok {
		t.Fatalf("record after forget should be accepted")
	}
}
