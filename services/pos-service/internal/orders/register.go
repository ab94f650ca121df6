package orders

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyOrder         = errors.New("order has no items")
	ErrInsufficientTender = errors.New("tendered amount is less than the total")
)

// Register holds every concurrently open tab for one terminal session.
// At most one order is active (shown in the main panel) at a time; the rest
// are reachable through the held/open listing.
type Register struct {
	mu        sync.Mutex
	orders    map[string]*Order
	sequence  []string // creation order, for stable listings
	activeID  string
	nextNum   int
	completed map[string]int64 // month key -> checked-out order count

	clampNegativeTotal bool
	requireFullTender  bool
}

type Config struct {
	// ClampNegativeTotal floors the grand total at zero when the order
	// discount exceeds the taxed amount.
	ClampNegativeTotal bool
	// RequireFullTender rejects checkout when the tendered amount does not
	// cover the total.
	RequireFullTender bool
}

func NewRegister(cfg Config) *Register {
	return &Register{
		orders:             map[string]*Order{},
		completed:          map[string]int64{},
		nextNum:            1,
		clampNegativeTotal: cfg.ClampNegativeTotal,
		requireFullTender:  cfg.RequireFullTender,
	}
}

// Create opens a new empty order for the customer and makes it active.
func (r *Register) Create(customerRef string) Order {
	r.mu.Lock()
	defer r.mu.Unlock()

	o := &Order{
		ID:          uuid.NewString(),
		DisplayName: fmt.Sprintf("Order %d", r.nextNum),
		CustomerRef: customerRef,
		Status:      StatusOpen,
		CreatedAt:   time.Now().UTC(),
	}
	r.nextNum++
	r.orders[o.ID] = o
	r.sequence = append(r.sequence, o.ID)
	r.activeID = o.ID
	return o.snapshot()
}

func (r *Register) Get(id string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o.snapshot(), nil
}

// Active returns the currently displayed order, if any.
func (r *Register) Active() (Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeID == "" {
		return Order{}, false
	}
	o, ok := r.orders[r.activeID]
	if !ok {
		return Order{}, false
	}
	return o.snapshot(), true
}

// List returns all open and held orders in creation order.
func (r *Register) List() []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0, len(r.sequence))
	for _, id := range r.sequence {
		if o, ok := r.orders[id]; ok {
			out = append(out, o.snapshot())
		}
	}
	return out
}

// Held returns parked orders awaiting resumption.
func (r *Register) Held() []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Order{}
	for _, id := range r.sequence {
		if o, ok := r.orders[id]; ok && o.Status == StatusHeld {
			out = append(out, o.snapshot())
		}
	}
	return out
}

// AddItem merges the product into an existing line (quantity +1) or appends
// a fresh line with quantity 1 and no discount. Quantity has no upper bound.
func (r *Register) AddItem(orderID string, p Product) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	for i := range o.Lines {
		if o.Lines[i].ProductID == p.ID {
			o.Lines[i].Quantity++
			return o.snapshot(), nil
		}
	}
	o.Lines = append(o.Lines, Line{
		ProductID:      p.ID,
		Name:           p.Name,
		UnitPriceCents: p.UnitPriceCents,
		Quantity:       1,
	})
	return o.snapshot(), nil
}

// SetQuantity overwrites a line's quantity. Zero or negative removes the
// line entirely; that is intentional clamping, not an error.
func (r *Register) SetQuantity(orderID, productID string, quantity int64) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if quantity <= 0 {
		o.removeLine(productID)
		return o.snapshot(), nil
	}
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			o.Lines[i].Quantity = quantity
			// Keep the item discount within the new line subtotal.
			if max := o.Lines[i].SubtotalCents(); o.Lines[i].ItemDiscountCents > max {
				o.Lines[i].ItemDiscountCents = max
			}
			break
		}
	}
	return o.snapshot(), nil
}

// SetItemDiscount sets a per-line flat discount, clamped to
// [0, unitPrice × quantity].
func (r *Register) SetItemDiscount(orderID, productID string, cents int64) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if cents < 0 {
		cents = 0
	}
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			if max := o.Lines[i].SubtotalCents(); cents > max {
				cents = max
			}
			o.Lines[i].ItemDiscountCents = cents
			break
		}
	}
	return o.snapshot(), nil
}

// RemoveItem deletes the matching line; no-op when absent.
func (r *Register) RemoveItem(orderID, productID string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.removeLine(productID)
	return o.snapshot(), nil
}

// SetOrderDiscount overwrites the flat order-level discount. Negative input
// clamps to zero; exceeding the subtotal is allowed here and handled at
// totals time.
func (r *Register) SetOrderDiscount(orderID string, cents int64) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if cents < 0 {
		cents = 0
	}
	o.OrderDiscountCents = cents
	return o.snapshot(), nil
}

// Clear empties the line list and resets the discount; the order stays open.
func (r *Register) Clear(orderID string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Lines = nil
	o.OrderDiscountCents = 0
	return o.snapshot(), nil
}

// Hold parks the order. Empty carts cannot be held. Holding the active
// order leaves no order displayed until another is selected or created.
func (r *Register) Hold(orderID string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	if o.Empty() {
		return Order{}, ErrEmptyOrder
	}
	o.Status = StatusHeld
	if r.activeID == orderID {
		r.activeID = ""
	}
	return o.snapshot(), nil
}

// Resume reopens a held (or backgrounded open) order and makes it active.
func (r *Register) Resume(orderID string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	o.Status = StatusOpen
	r.activeID = orderID
	return o.snapshot(), nil
}

// Totals recomputes the financial summary for one order. Safe to call any
// number of times; it never mutates.
func (r *Register) Totals(orderID string) (Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Totals{}, ErrOrderNotFound
	}
	return computeTotals(o, r.clampNegativeTotal), nil
}

// Checkout finalizes the order and removes it from the register. With the
// strict tender policy, payment below the total is rejected.
func (r *Register) Checkout(orderID string, tenderedCents int64) (Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return Receipt{}, ErrOrderNotFound
	}
	if o.Empty() {
		return Receipt{}, ErrEmptyOrder
	}

	totals := computeTotals(o, r.clampNegativeTotal)
	if r.requireFullTender && tenderedCents < totals.TotalCents {
		return Receipt{}, ErrInsufficientTender
	}
	change := tenderedCents - totals.TotalCents
	if change < 0 {
		change = 0
	}

	now := time.Now().UTC()
	delete(r.orders, orderID)
	for i, id := range r.sequence {
		if id == orderID {
			r.sequence = append(r.sequence[:i], r.sequence[i+1:]...)
			break
		}
	}
	if r.activeID == orderID {
		r.activeID = ""
	}
	r.completed[monthKey(now)]++

	return Receipt{
		Order:         o.snapshot(),
		Totals:        totals,
		TenderedCents: tenderedCents,
		ChangeCents:   change,
		CompletedAt:   now,
	}, nil
}

// CompletedInMonth reports how many orders checked out in the month of t.
// This is the usage figure for the monthly order plan limit.
func (r *Register) CompletedInMonth(t time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed[monthKey(t.UTC())]
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}

// snapshot copies the order with its own line slice, so the caller's view
// cannot be mutated through the register after the lock is released.
func (o *Order) snapshot() Order {
	out := *o
	out.Lines = append([]Line(nil), o.Lines...)
	return out
}

func (o *Order) removeLine(productID string) {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			return
		}
	}
}
