package orders

// TaxRateBasisPoints is the fixed sales tax rate (8%). Not configurable.
const TaxRateBasisPoints = 800

// computeTotals derives the five-field summary from an order's current
// lines. Tax is computed net of item-level discounts; the order-level
// discount is applied exactly once, after tax, and never enters the taxable
// base. Pure and idempotent.
func computeTotals(o *Order, clampNegativeTotal bool) Totals {
	var subtotal, itemDiscounts int64
	for _, l := range o.Lines {
		subtotal += l.SubtotalCents()
		itemDiscounts += l.ItemDiscountCents
	}

	taxable := subtotal - itemDiscounts
	if taxable < 0 {
		// Item discounts are clamped at write time, so this only guards
		// against a direct struct mutation.
		taxable = 0
	}
	tax := roundBasisPoints(taxable, TaxRateBasisPoints)

	total := taxable + tax - o.OrderDiscountCents
	if clampNegativeTotal && total < 0 {
		total = 0
	}

	return Totals{
		SubtotalCents:      subtotal,
		ItemDiscountCents:  itemDiscounts,
		TaxCents:           tax,
		OrderDiscountCents: o.OrderDiscountCents,
		TotalCents:         total,
	}
}

// roundBasisPoints applies a basis-point rate to a cent amount, rounding
// half up. 4998¢ at 800bp is 399.84¢ → 400¢.
func roundBasisPoints(amount, bp int64) int64 {
	return (amount*bp + 5000) / 10000
}
