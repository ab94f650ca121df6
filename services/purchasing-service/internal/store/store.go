package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSupplierNotFound  = errors.New("supplier not found")
	ErrOrderNotFound     = errors.New("purchase order not found")
	ErrInvalidTransition = errors.New("invalid purchase order state transition")
	ErrNoLines           = errors.New("purchase order has no lines")
	ErrUnknownSKU        = errors.New("sku not on the purchase order")
)

type Supplier struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type OrderStatus string

const (
	OrderDraft     OrderStatus = "draft"
	OrderSent      OrderStatus = "sent"
	OrderPartial   OrderStatus = "partial"
	OrderReceived  OrderStatus = "received"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderLine is one SKU on a purchase order. ReceivedQuantity accumulates
// across goods received notes and never exceeds Quantity.
type OrderLine struct {
	SKU              string `json:"sku"`
	Description      string `json:"description"`
	Quantity         int64  `json:"quantity"`
	UnitCostCents    int64  `json:"unit_cost_cents"`
	ReceivedQuantity int64  `json:"received_quantity"`
}

type PurchaseOrder struct {
	ID         string      `json:"id"`
	SupplierID string      `json:"supplier_id"`
	LocationID string      `json:"location_id"`
	Status     OrderStatus `json:"status"`
	Lines      []OrderLine `json:"lines"`
	CreatedAt  time.Time   `json:"created_at"`
}

// snapshot copies the order with its own line slice, so callers holding a
// returned copy are not affected by later receipts against the live order.
func (po *PurchaseOrder) snapshot() PurchaseOrder {
	out := *po
	out.Lines = append([]OrderLine(nil), po.Lines...)
	return out
}

func (po PurchaseOrder) TotalCents() int64 {
	var total int64
	for _, l := range po.Lines {
		total += l.Quantity * l.UnitCostCents
	}
	return total
}

type ReceivedLine struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// GoodsReceivedNote records one delivery against a purchase order.
type GoodsReceivedNote struct {
	ID         string         `json:"id"`
	OrderID    string         `json:"order_id"`
	LocationID string         `json:"location_id"`
	Lines      []ReceivedLine `json:"lines"`
	ReceivedAt time.Time      `json:"received_at"`
}

type Store struct {
	mu        sync.Mutex
	suppliers map[string]Supplier
	orders    map[string]*PurchaseOrder
	grns      []GoodsReceivedNote
}

func New() *Store {
	return &Store{
		suppliers: map[string]Supplier{},
		orders:    map[string]*PurchaseOrder{},
	}
}

// NewSeeded returns a store pre-loaded with the demo suppliers.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()
	for _, sup := range []Supplier{
		{ID: "sup-bean-brothers", Name: "Bean Brothers Roastery", Email: "orders@beanbrothers.example", Phone: "+1-555-0101"},
		{ID: "sup-fresh-fields", Name: "Fresh Fields Produce", Email: "sales@freshfields.example", Phone: "+1-555-0102"},
		{ID: "sup-city-bakers", Name: "City Bakers Supply", Email: "hello@citybakers.example", Phone: "+1-555-0103"},
	} {
		sup.CreatedAt = now
		s.suppliers[sup.ID] = sup
	}
	return s
}

type CreateSupplierInput struct {
	Name  string
	Email string
	Phone string
}

func (s *Store) CreateSupplier(in CreateSupplierInput) Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup := Supplier{
		ID:        "sup-" + uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		CreatedAt: time.Now().UTC(),
	}
	s.suppliers[sup.ID] = sup
	return sup
}

func (s *Store) ListSuppliers() []Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type CreateOrderInput struct {
	SupplierID string
	LocationID string
	Lines      []OrderLine
}

func (s *Store) CreateOrder(in CreateOrderInput) (PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[in.SupplierID]; !ok {
		return PurchaseOrder{}, ErrSupplierNotFound
	}
	lines := make([]OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		l.SKU = strings.TrimSpace(l.SKU)
		if l.SKU == "" || l.Quantity <= 0 {
			continue
		}
		if l.UnitCostCents < 0 {
			l.UnitCostCents = 0
		}
		l.ReceivedQuantity = 0
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		return PurchaseOrder{}, ErrNoLines
	}

	po := &PurchaseOrder{
		ID:         "po-" + uuid.NewString(),
		SupplierID: in.SupplierID,
		LocationID: in.LocationID,
		Status:     OrderDraft,
		Lines:      lines,
		CreatedAt:  time.Now().UTC(),
	}
	s.orders[po.ID] = po
	return po.snapshot(), nil
}

func (s *Store) GetOrder(id string) (PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	return po.snapshot(), nil
}

func (s *Store) ListOrders() []PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PurchaseOrder, 0, len(s.orders))
	for _, po := range s.orders {
		out = append(out, po.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// SendOrder moves a draft order to sent, making it receivable.
func (s *Store) SendOrder(id string) (PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	if po.Status != OrderDraft {
		return PurchaseOrder{}, ErrInvalidTransition
	}
	po.Status = OrderSent
	return po.snapshot(), nil
}

// CancelOrder cancels a draft or sent order. Orders with received goods
// cannot be cancelled.
func (s *Store) CancelOrder(id string) (PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrOrderNotFound
	}
	if po.Status != OrderDraft && po.Status != OrderSent {
		return PurchaseOrder{}, ErrInvalidTransition
	}
	po.Status = OrderCancelled
	return po.snapshot(), nil
}

// ReceiveGoods records a delivery against a sent or partially received
// order. Received quantities are capped at what remains outstanding per
// line; the order becomes partial or received accordingly.
func (s *Store) ReceiveGoods(orderID string, lines []ReceivedLine) (GoodsReceivedNote, PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.orders[orderID]
	if !ok {
		return GoodsReceivedNote{}, PurchaseOrder{}, ErrOrderNotFound
	}
	if po.Status != OrderSent && po.Status != OrderPartial {
		return GoodsReceivedNote{}, PurchaseOrder{}, ErrInvalidTransition
	}

	bySKU := map[string]*OrderLine{}
	for i := range po.Lines {
		bySKU[po.Lines[i].SKU] = &po.Lines[i]
	}

	applied := make([]ReceivedLine, 0, len(lines))
	for _, rl := range lines {
		rl.SKU = strings.TrimSpace(rl.SKU)
		if rl.Quantity <= 0 {
			continue
		}
		ol, ok := bySKU[rl.SKU]
		if !ok {
			return GoodsReceivedNote{}, PurchaseOrder{}, ErrUnknownSKU
		}
		outstanding := ol.Quantity - ol.ReceivedQuantity
		if rl.Quantity > outstanding {
			rl.Quantity = outstanding
		}
		if rl.Quantity == 0 {
			continue
		}
		ol.ReceivedQuantity += rl.Quantity
		applied = append(applied, rl)
	}
	if len(applied) == 0 {
		return GoodsReceivedNote{}, PurchaseOrder{}, ErrNoLines
	}

	fully := true
	for _, l := range po.Lines {
		if l.ReceivedQuantity < l.Quantity {
			fully = false
			break
		}
	}
	if fully {
		po.Status = OrderReceived
	} else {
		po.Status = OrderPartial
	}

	grn := GoodsReceivedNote{
		ID:         "grn-" + uuid.NewString(),
		OrderID:    po.ID,
		LocationID: po.LocationID,
		Lines:      applied,
		ReceivedAt: time.Now().UTC(),
	}
	s.grns = append(s.grns, grn)
	return grn, po.snapshot(), nil
}

func (s *Store) ListGoodsReceived() []GoodsReceivedNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]GoodsReceivedNote, len(s.grns))
	copy(out, s.grns)
	return out
}
