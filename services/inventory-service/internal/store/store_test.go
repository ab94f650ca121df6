package store

import (
	"errors"
	"testing"
)

func TestAdjustStockFloorsAtZero(t *testing.T) {
	s := NewSeeded()

	row, err := s.AdjustStock("loc-downtown", "DRK-ESP-001", -100)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if row.Quantity != 0 {
		t.Fatalf("quantity = %d, want 0", row.Quantity)
	}
}

func TestAdjustStockCreatesRowOnFirstSight(t *testing.T) {
	s := NewSeeded()

	row, err := s.AdjustStock("loc-downtown", "BAK-BRW-001", 24)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if row.Quantity != 24 {
		t.Fatalf("quantity = %d, want 24", row.Quantity)
	}
}

func TestAdjustStockUnknownLocation(t *testing.T) {
	s := NewSeeded()

	if _, err := s.AdjustStock("loc-nope", "DRK-ESP-001", 5); !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("err = %v, want ErrLocationNotFound", err)
	}
}

func TestLowStockReportsAtOrBelowReorderLevel(t *testing.T) {
	s := NewSeeded()

	rows := s.LowStock()
	if len(rows) != 2 {
		t.Fatalf("low stock rows = %d, want 2", len(rows))
	}
	// Seed data: airport croissants 8/10 and downtown paninis 12/15.
	if rows[0].SKU != "BAK-CRO-001" || rows[1].SKU != "FOD-PAN-001" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestTransferLifecycleMovesStock(t *testing.T) {
	s := NewSeeded()

	tr, err := s.CreateTransfer(CreateTransferInput{
		SKU:            "DRK-ESP-001",
		FromLocationID: "loc-main-warehouse",
		ToLocationID:   "loc-airport",
		Quantity:       50,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if tr.Status != TransferPending {
		t.Fatalf("status = %q, want pending", tr.Status)
	}

	tr, err = s.DispatchTransfer(tr.ID)
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if tr.Status != TransferInTransit {
		t.Fatalf("status = %q, want in_transit", tr.Status)
	}
	src := s.ListStock("loc-main-warehouse")
	if src[0].Quantity != 450 {
		t.Fatalf("source quantity = %d, want 450", src[0].Quantity)
	}

	tr, err = s.CompleteTransfer(tr.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if tr.Status != TransferCompleted || tr.CompletedAt == nil {
		t.Fatalf("transfer not completed: %+v", tr)
	}
	var landed bool
	for _, row := range s.ListStock("loc-airport") {
		if row.SKU == "DRK-ESP-001" && row.Quantity == 50 {
			landed = true
		}
	}
	if !landed {
		t.Fatalf("destination never received the stock")
	}
}

func TestDispatchRejectsInsufficientStock(t *testing.T) {
	s := NewSeeded()

	tr, err := s.CreateTransfer(CreateTransferInput{
		SKU:            "FOD-PAN-001",
		FromLocationID: "loc-downtown",
		ToLocationID:   "loc-airport",
		Quantity:       100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.DispatchTransfer(tr.ID); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestCompleteRequiresInTransit(t *testing.T) {
	s := NewSeeded()

	tr, err := s.CreateTransfer(CreateTransferInput{
		SKU:            "DRK-ESP-001",
		FromLocationID: "loc-main-warehouse",
		ToLocationID:   "loc-downtown",
		Quantity:       10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CompleteTransfer(tr.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestCreateTransferRejectsSameLocation(t *testing.T) {
	s := NewSeeded()

	_, err := s.CreateTransfer(CreateTransferInput{
		SKU:            "DRK-ESP-001",
		FromLocationID: "loc-downtown",
		ToLocationID:   "loc-downtown",
		Quantity:       5,
	})
	if !errors.Is(err, ErrSameLocation) {
		t.Fatalf("err = %v, want ErrSameLocation", err)
	}
}
