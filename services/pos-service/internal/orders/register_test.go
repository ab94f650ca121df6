package orders

import (
	"errors"
	"testing"
	"time"
)

func TestAddItem_MergesDuplicateProduct(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")

	for i := 0; i < 3; i++ {
		if _, err := r.AddItem(o.ID, tshirt); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	got, err := r.Get(o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(got.Lines))
	}
	if got.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", got.Lines[0].Quantity)
	}
}

func TestAddItem_PreservesInsertionOrder(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, Product{ID: "prod-2", Name: "Wireless Mouse", UnitPriceCents: 4999})
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.AddItem(o.ID, Product{ID: "prod-2", Name: "Wireless Mouse", UnitPriceCents: 4999})

	got, _ := r.Get(o.ID)
	if len(got.Lines) != 2 || got.Lines[0].ProductID != "prod-2" || got.Lines[1].ProductID != "prod-1" {
		t.Fatalf("unexpected line order: %+v", got.Lines)
	}
}

func TestSetQuantity_ZeroOrNegativeRemovesLine(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)

	for _, q := range []int64{0, -5} {
		_, _ = r.AddItem(o.ID, tshirt)
		if _, err := r.SetQuantity(o.ID, tshirt.ID, q); err != nil {
			t.Fatalf("set quantity %d: %v", q, err)
		}
		got, _ := r.Get(o.ID)
		if !got.Empty() {
			t.Fatalf("quantity %d should remove the line: %+v", q, got.Lines)
		}
		totals, _ := r.Totals(o.ID)
		if totals.SubtotalCents != 0 {
			t.Fatalf("removed line still contributes to totals: %+v", totals)
		}
	}
}

func TestSetQuantity_ShrinkingClampsItemDiscount(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.SetQuantity(o.ID, tshirt.ID, 4)
	_, _ = r.SetItemDiscount(o.ID, tshirt.ID, 9000)

	got, _ := r.Get(o.ID)
	if got.Lines[0].ItemDiscountCents != 9000 {
		t.Fatalf("discount within 4×2499 should stick: %d", got.Lines[0].ItemDiscountCents)
	}

	_, _ = r.SetQuantity(o.ID, tshirt.ID, 1)
	got, _ = r.Get(o.ID)
	if got.Lines[0].ItemDiscountCents != 2499 {
		t.Fatalf("discount should clamp to the new line subtotal, got %d", got.Lines[0].ItemDiscountCents)
	}
}

func TestRemoveItem_MissingIsNoop(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)

	if _, err := r.RemoveItem(o.ID, "prod-404"); err != nil {
		t.Fatalf("removing an absent product must not error: %v", err)
	}
	got, _ := r.Get(o.ID)
	if len(got.Lines) != 1 {
		t.Fatalf("unrelated line removed: %+v", got.Lines)
	}
}

func TestHold_EmptyOrderRejected(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")

	if _, err := r.Hold(o.ID); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestHold_ClearsActivePointer(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)

	if _, err := r.Hold(o.ID); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, ok := r.Active(); ok {
		t.Fatalf("no order should be active after holding the active one")
	}
	held := r.Held()
	if len(held) != 1 || held[0].ID != o.ID {
		t.Fatalf("held listing wrong: %+v", held)
	}
}

func TestAtMostOneActiveOrder(t *testing.T) {
	r := newCartRegister()
	first := r.Create("alice")
	_, _ = r.AddItem(first.ID, tshirt)
	second := r.Create("bob")

	active, ok := r.Active()
	if !ok || active.ID != second.ID {
		t.Fatalf("newest order should be active, got %+v", active)
	}

	if _, err := r.Resume(first.ID); err != nil {
		t.Fatalf("resume: %v", err)
	}
	active, ok = r.Active()
	if !ok || active.ID != first.ID {
		t.Fatalf("resumed order should be active, got %+v", active)
	}
}

func TestResume_ReopensHeldOrder(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.Hold(o.ID)

	got, err := r.Resume(o.ID)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got.Status != StatusOpen {
		t.Fatalf("resumed order should be open, got %s", got.Status)
	}
	if len(r.Held()) != 0 {
		t.Fatalf("held listing should be empty after resume")
	}
}

func TestClear_KeepsOrderOpen(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.SetOrderDiscount(o.ID, 500)

	got, err := r.Clear(o.ID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if !got.Empty() || got.OrderDiscountCents != 0 || got.Status != StatusOpen {
		t.Fatalf("clear should empty lines and reset discount: %+v", got)
	}
}

func TestCheckout_StrictTender(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.AddItem(o.ID, tshirt) // total 5398

	if _, err := r.Checkout(o.ID, 5000); !errors.Is(err, ErrInsufficientTender) {
		t.Fatalf("expected ErrInsufficientTender, got %v", err)
	}

	receipt, err := r.Checkout(o.ID, 6000)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if receipt.Totals.TotalCents != 5398 || receipt.ChangeCents != 602 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	if _, err := r.Get(o.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("checked-out order should leave the register")
	}
	if n := r.CompletedInMonth(time.Now().UTC()); n != 1 {
		t.Fatalf("expected 1 completed order this month, got %d", n)
	}
}

func TestCheckout_EmptyOrderRejected(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	if _, err := r.Checkout(o.ID, 1000); !errors.Is(err, ErrEmptyOrder) {
		t.Fatalf("expected ErrEmptyOrder, got %v", err)
	}
}

func TestGet_ReturnsDetachedCopy(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)

	before, err := r.Get(o.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := r.SetQuantity(o.ID, tshirt.ID, 9); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if before.Lines[0].Quantity != 1 {
		t.Fatalf("earlier copy changed through shared lines: %+v", before.Lines)
	}
}
