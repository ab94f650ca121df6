package orders

import "time"

type Status string

const (
	StatusOpen Status = "open"
	StatusHeld Status = "held"
)

// Product is the catalog snapshot a line is priced from. POS keeps its own
// copy so an order's pricing is stable even if the catalog changes mid-sale.
type Product struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// Line is one cart row. Money is integer cents throughout; floats never
// enter totals math.
type Line struct {
	ProductID         string `json:"product_id"`
	Name              string `json:"name"`
	UnitPriceCents    int64  `json:"unit_price_cents"`
	Quantity          int64  `json:"quantity"`
	ItemDiscountCents int64  `json:"item_discount_cents"`
}

func (l Line) SubtotalCents() int64 {
	return l.UnitPriceCents * l.Quantity
}

// Order is a single in-progress POS transaction ("tab"). Lines keep
// insertion order, which is also display order.
type Order struct {
	ID                 string    `json:"id"`
	DisplayName        string    `json:"display_name"`
	CustomerRef        string    `json:"customer_ref"`
	Lines              []Line    `json:"lines"`
	OrderDiscountCents int64     `json:"order_discount_cents"`
	Status             Status    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

func (o Order) Empty() bool {
	return len(o.Lines) == 0
}

// Totals is the five-field financial summary of one order.
type Totals struct {
	SubtotalCents      int64 `json:"subtotal_cents"`
	ItemDiscountCents  int64 `json:"item_discount_cents"`
	TaxCents           int64 `json:"tax_cents"`
	OrderDiscountCents int64 `json:"order_discount_cents"`
	TotalCents         int64 `json:"total_cents"`
}

// Receipt is the checkout result handed back to the terminal.
type Receipt struct {
	Order         Order     `json:"order"`
	Totals        Totals    `json:"totals"`
	TenderedCents int64     `json:"tendered_cents"`
	ChangeCents   int64     `json:"change_cents"`
	CompletedAt   time.Time `json:"completed_at"`
}
