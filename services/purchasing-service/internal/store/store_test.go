package store

import (
	"errors"
	"testing"
)

func newOrder(t *testing.T, s *Store) PurchaseOrder {
	t.Helper()
	po, err := s.CreateOrder(CreateOrderInput{
		SupplierID: "sup-bean-brothers",
		LocationID: "loc-main-warehouse",
		Lines: []OrderLine{
			{SKU: "DRK-ESP-001", Description: "Espresso beans 1kg", Quantity: 20, UnitCostCents: 1850},
			{SKU: "BAK-CRO-001", Description: "Frozen croissants", Quantity: 60, UnitCostCents: 95},
		},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return po
}

func TestCreateOrderRejectsUnknownSupplier(t *testing.T) {
	s := NewSeeded()

	_, err := s.CreateOrder(CreateOrderInput{
		SupplierID: "sup-nope",
		Lines:      []OrderLine{{SKU: "X", Quantity: 1}},
	})
	if !errors.Is(err, ErrSupplierNotFound) {
		t.Fatalf("err = %v, want ErrSupplierNotFound", err)
	}
}

func TestCreateOrderDropsInvalidLines(t *testing.T) {
	s := NewSeeded()

	_, err := s.CreateOrder(CreateOrderInput{
		SupplierID: "sup-bean-brothers",
		Lines: []OrderLine{
			{SKU: "", Quantity: 5},
			{SKU: "DRK-ESP-001", Quantity: 0},
		},
	})
	if !errors.Is(err, ErrNoLines) {
		t.Fatalf("err = %v, want ErrNoLines", err)
	}
}

func TestOrderTotal(t *testing.T) {
	s := NewSeeded()
	po := newOrder(t, s)

	if got := po.TotalCents(); got != 20*1850+60*95 {
		t.Fatalf("total = %d, want %d", got, 20*1850+60*95)
	}
}

func TestReceiveRequiresSentOrder(t *testing.T) {
	s := NewSeeded()
	po := newOrder(t, s)

	_, _, err := s.ReceiveGoods(po.ID, []ReceivedLine{{SKU: "DRK-ESP-001", Quantity: 5}})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition for draft order", err)
	}
}

func TestPartialThenFullReceipt(t *testing.T) {
	s := NewSeeded()
	po := newOrder(t, s)
	if _, err := s.SendOrder(po.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	grn, po, err := s.ReceiveGoods(po.ID, []ReceivedLine{{SKU: "DRK-ESP-001", Quantity: 20}})
	if err != nil {
		t.Fatalf("first receipt: %v", err)
	}
	if po.Status != OrderPartial {
		t.Fatalf("status = %q, want partial", po.Status)
	}
	if len(grn.Lines) != 1 || grn.Lines[0].Quantity != 20 {
		t.Fatalf("unexpected grn lines: %+v", grn.Lines)
	}

	// Over-delivery caps at the outstanding quantity.
	grn, po, err = s.ReceiveGoods(po.ID, []ReceivedLine{{SKU: "BAK-CRO-001", Quantity: 200}})
	if err != nil {
		t.Fatalf("second receipt: %v", err)
	}
	if grn.Lines[0].Quantity != 60 {
		t.Fatalf("capped quantity = %d, want 60", grn.Lines[0].Quantity)
	}
	if po.Status != OrderReceived {
		t.Fatalf("status = %q, want received", po.Status)
	}
}

func TestReceiveUnknownSKURejected(t *testing.T) {
	s := NewSeeded()
	po := newOrder(t, s)
	if _, err := s.SendOrder(po.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, _, err := s.ReceiveGoods(po.ID, []ReceivedLine{{SKU: "FOD-PAN-001", Quantity: 5}}); !errors.Is(err, ErrUnknownSKU) {
		t.Fatalf("err = %v, want ErrUnknownSKU", err)
	}
}

func TestCancelAfterReceiptRejected(t *testing.T) {
	s := NewSeeded()
	po := newOrder(t, s)
	if _, err := s.SendOrder(po.ID); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, _, err := s.ReceiveGoods(po.ID, []ReceivedLine{{SKU: "DRK-ESP-001", Quantity: 1}}); err != nil {
		t.Fatalf("receive: %v", err)
	}

	if _, err := s.CancelOrder(po.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestGetOrderReturnsDetachedCopy(t *testing.T) {
	s := NewSeeded()
	po := newOrder(t, s)
	if _, err := s.SendOrder(po.ID); err != nil {
		t.Fatalf("send: %v", err)
	}

	before, err := s.GetOrder(po.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, _, err := s.ReceiveGoods(po.ID, []ReceivedLine{{SKU: "DRK-ESP-001", Quantity: 5}}); err != nil {
		t.Fatalf("receive: %v", err)
	}
	if before.Lines[0].ReceivedQuantity != 0 {
		t.Fatalf("earlier copy changed through shared lines: %+v", before.Lines)
	}
}
