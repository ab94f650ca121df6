package orders

import "testing"

func newCartRegister() *Register {
	return NewRegister(Config{ClampNegativeTotal: true, RequireFullTender: true})
}

var tshirt = Product{ID: "prod-1", Name: "Classic T-Shirt", UnitPriceCents: 2499}

func TestTotals_BaseScenario(t *testing.T) {
	// One line: 24.99 × 2, no discounts → subtotal 49.98, tax 4.00, total 53.98.
	r := newCartRegister()
	o := r.Create("walk-in")
	if _, err := r.AddItem(o.ID, tshirt); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := r.AddItem(o.ID, tshirt); err != nil {
		t.Fatalf("add: %v", err)
	}

	totals, err := r.Totals(o.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.SubtotalCents != 4998 {
		t.Fatalf("subtotal: expected 4998, got %d", totals.SubtotalCents)
	}
	if totals.TaxCents != 400 {
		t.Fatalf("tax: expected 400 (rounded from 399.84), got %d", totals.TaxCents)
	}
	if totals.TotalCents != 5398 {
		t.Fatalf("total: expected 5398, got %d", totals.TotalCents)
	}
}

func TestTotals_OrderDiscountAfterTax(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.AddItem(o.ID, tshirt)
	if _, err := r.SetOrderDiscount(o.ID, 1000); err != nil {
		t.Fatalf("discount: %v", err)
	}

	totals, err := r.Totals(o.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	// Discount applies once, after tax: tax stays 400, total drops by 1000.
	if totals.TaxCents != 400 {
		t.Fatalf("order discount must not change the taxable base: tax %d", totals.TaxCents)
	}
	if totals.TotalCents != 4398 {
		t.Fatalf("total: expected 4398, got %d", totals.TotalCents)
	}
}

func TestTotals_ItemDiscountReducesTaxableBase(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.AddItem(o.ID, tshirt)
	if _, err := r.SetItemDiscount(o.ID, tshirt.ID, 998); err != nil {
		t.Fatalf("item discount: %v", err)
	}

	totals, _ := r.Totals(o.ID)
	if totals.ItemDiscountCents != 998 {
		t.Fatalf("item discount total: expected 998, got %d", totals.ItemDiscountCents)
	}
	// taxable = 4998 - 998 = 4000, tax = 320.
	if totals.TaxCents != 320 {
		t.Fatalf("tax: expected 320 on the discounted base, got %d", totals.TaxCents)
	}
	if totals.TotalCents != 4320 {
		t.Fatalf("total: expected 4320, got %d", totals.TotalCents)
	}
}

func TestTotals_Idempotent(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, tshirt)
	_, _ = r.SetOrderDiscount(o.ID, 150)

	first, err := r.Totals(o.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	second, err := r.Totals(o.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if first != second {
		t.Fatalf("totals must be idempotent: %+v vs %+v", first, second)
	}
}

func TestTotals_ClampedAtZero(t *testing.T) {
	r := newCartRegister()
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, Product{ID: "prod-3", Name: "Coffee Mug", UnitPriceCents: 1250})
	_, _ = r.SetOrderDiscount(o.ID, 100000)

	totals, _ := r.Totals(o.ID)
	if totals.TotalCents != 0 {
		t.Fatalf("expected total clamped at zero, got %d", totals.TotalCents)
	}
}

func TestTotals_NegativeAllowedWhenUnclamped(t *testing.T) {
	r := NewRegister(Config{ClampNegativeTotal: false, RequireFullTender: true})
	o := r.Create("walk-in")
	_, _ = r.AddItem(o.ID, Product{ID: "prod-3", Name: "Coffee Mug", UnitPriceCents: 1250})
	_, _ = r.SetOrderDiscount(o.ID, 2000)

	totals, _ := r.Totals(o.ID)
	// 1250 + 100 tax - 2000 discount.
	if totals.TotalCents != -650 {
		t.Fatalf("expected -650 without clamping, got %d", totals.TotalCents)
	}
}

func TestRoundBasisPoints(t *testing.T) {
	cases := []struct {
		amount, want int64
	}{
		{4998, 400}, // 399.84 rounds up
		{4000, 320}, // exact
		{1, 0},      // 0.08 rounds down
		{7, 1},      // 0.56 rounds up
		{0, 0},
	}
	for _, c := range cases {
		if got := roundBasisPoints(c.amount, TaxRateBasisPoints); got != c.want {
			t.Fatalf("roundBasisPoints(%d): expected %d, got %d", c.amount, c.want, got)
		}
	}
}
