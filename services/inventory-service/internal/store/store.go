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
	ErrLocationNotFound  = errors.New("location not found")
	ErrTransferNotFound  = errors.New("transfer not found")
	ErrInsufficientStock = errors.New("insufficient stock at source location")
	ErrInvalidTransition = errors.New("invalid transfer state transition")
	ErrSameLocation      = errors.New("source and destination are the same location")
)

type LocationType string

const (
	LocationWarehouse LocationType = "warehouse"
	LocationStore     LocationType = "store"
)

type Location struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Type          LocationType `json:"type"`
	SalesChannels []string     `json:"sales_channels"`
	CreatedAt     time.Time    `json:"created_at"`
}

// StockRow tracks one SKU at one location. ReorderLevel drives the
// low-stock report.
type StockRow struct {
	SKU          string `json:"sku"`
	LocationID   string `json:"location_id"`
	Quantity     int64  `json:"quantity"`
	ReorderLevel int64  `json:"reorder_level"`
}

type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferInTransit TransferStatus = "in_transit"
	TransferCompleted TransferStatus = "completed"
)

type Transfer struct {
	ID             string         `json:"id"`
	SKU            string         `json:"sku"`
	FromLocationID string         `json:"from_location_id"`
	ToLocationID   string         `json:"to_location_id"`
	Quantity       int64          `json:"quantity"`
	Status         TransferStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
}

type stockKey struct {
	locationID string
	sku        string
}

// Store keeps locations, stock rows and transfers in memory behind one
// mutex. Transfer dispatch and completion move quantities atomically with
// the status change.
type Store struct {
	mu        sync.Mutex
	locations map[string]Location
	stock     map[stockKey]*StockRow
	transfers map[string]*Transfer
}

func New() *Store {
	return &Store{
		locations: map[string]Location{},
		stock:     map[stockKey]*StockRow{},
		transfers: map[string]*Transfer{},
	}
}

// NewSeeded returns a store pre-loaded with the demo locations and stock.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()
	for _, l := range []Location{
		{ID: "loc-main-warehouse", Name: "Main Warehouse", Type: LocationWarehouse, SalesChannels: []string{"wholesale"}},
		{ID: "loc-downtown", Name: "Downtown Store", Type: LocationStore, SalesChannels: []string{"pos", "online"}},
		{ID: "loc-airport", Name: "Airport Kiosk", Type: LocationStore, SalesChannels: []string{"pos"}},
	} {
		l.CreatedAt = now
		s.locations[l.ID] = l
	}
	for _, row := range []StockRow{
		{SKU: "DRK-ESP-001", LocationID: "loc-main-warehouse", Quantity: 500, ReorderLevel: 100},
		{SKU: "DRK-ESP-001", LocationID: "loc-downtown", Quantity: 40, ReorderLevel: 20},
		{SKU: "FOD-PAN-001", LocationID: "loc-downtown", Quantity: 12, ReorderLevel: 15},
		{SKU: "BAK-CRO-001", LocationID: "loc-airport", Quantity: 8, ReorderLevel: 10},
	} {
		r := row
		s.stock[stockKey{r.LocationID, r.SKU}] = &r
	}
	return s
}

type CreateLocationInput struct {
	Name          string
	Type          LocationType
	SalesChannels []string
}

func (s *Store) CreateLocation(in CreateLocationInput) Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Type != LocationWarehouse {
		in.Type = LocationStore
	}
	l := Location{
		ID:            "loc-" + uuid.NewString(),
		Name:          in.Name,
		Type:          in.Type,
		SalesChannels: in.SalesChannels,
		CreatedAt:     time.Now().UTC(),
	}
	s.locations[l.ID] = l
	return l
}

func (s *Store) ListLocations() []Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) LocationCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.locations))
}

// AdjustStock applies a signed quantity delta for a SKU at a location,
// creating the row on first sight. Quantity floors at zero.
func (s *Store) AdjustStock(locationID, sku string, delta int64) (StockRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[locationID]; !ok {
		return StockRow{}, ErrLocationNotFound
	}
	row := s.rowLocked(locationID, sku)
	row.Quantity += delta
	if row.Quantity < 0 {
		row.Quantity = 0
	}
	return *row, nil
}

func (s *Store) SetReorderLevel(locationID, sku string, level int64) (StockRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.locations[locationID]; !ok {
		return StockRow{}, ErrLocationNotFound
	}
	if level < 0 {
		level = 0
	}
	row := s.rowLocked(locationID, sku)
	row.ReorderLevel = level
	return *row, nil
}

func (s *Store) rowLocked(locationID, sku string) *StockRow {
	key := stockKey{locationID, sku}
	row, ok := s.stock[key]
	if !ok {
		row = &StockRow{SKU: sku, LocationID: locationID}
		s.stock[key] = row
	}
	return row
}

// ListStock returns stock rows, optionally filtered by location.
func (s *Store) ListStock(locationID string) []StockRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StockRow, 0, len(s.stock))
	for _, row := range s.stock {
		if locationID != "" && row.LocationID != locationID {
			continue
		}
		out = append(out, *row)
	}
	sortStock(out)
	return out
}

// LowStock returns rows at or below their reorder level. Rows with a zero
// reorder level are never reported.
func (s *Store) LowStock() []StockRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []StockRow
	for _, row := range s.stock {
		if row.ReorderLevel > 0 && row.Quantity <= row.ReorderLevel {
			out = append(out, *row)
		}
	}
	sortStock(out)
	return out
}

func sortStock(rows []StockRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LocationID != rows[j].LocationID {
			return rows[i].LocationID < rows[j].LocationID
		}
		return rows[i].SKU < rows[j].SKU
	})
}

type CreateTransferInput struct {
	SKU            string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
}

func (s *Store) CreateTransfer(in CreateTransferInput) (Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.FromLocationID == in.ToLocationID {
		return Transfer{}, ErrSameLocation
	}
	if _, ok := s.locations[in.FromLocationID]; !ok {
		return Transfer{}, ErrLocationNotFound
	}
	if _, ok := s.locations[in.ToLocationID]; !ok {
		return Transfer{}, ErrLocationNotFound
	}
	if in.Quantity <= 0 {
		return Transfer{}, errors.New("quantity must be positive")
	}

	t := &Transfer{
		ID:             "tr-" + uuid.NewString(),
		SKU:            strings.TrimSpace(in.SKU),
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Quantity:       in.Quantity,
		Status:         TransferPending,
		CreatedAt:      time.Now().UTC(),
	}
	s.transfers[t.ID] = t
	return *t, nil
}

// DispatchTransfer moves a pending transfer in transit and deducts the
// quantity from the source location.
func (s *Store) DispatchTransfer(id string) (Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return Transfer{}, ErrTransferNotFound
	}
	if t.Status != TransferPending {
		return Transfer{}, ErrInvalidTransition
	}
	src := s.rowLocked(t.FromLocationID, t.SKU)
	if src.Quantity < t.Quantity {
		return Transfer{}, ErrInsufficientStock
	}
	src.Quantity -= t.Quantity
	t.Status = TransferInTransit
	return *t, nil
}

// CompleteTransfer lands an in-transit transfer at the destination.
func (s *Store) CompleteTransfer(id string) (Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return Transfer{}, ErrTransferNotFound
	}
	if t.Status != TransferInTransit {
		return Transfer{}, ErrInvalidTransition
	}
	dst := s.rowLocked(t.ToLocationID, t.SKU)
	dst.Quantity += t.Quantity
	now := time.Now().UTC()
	t.Status = TransferCompleted
	t.CompletedAt = &now
	return *t, nil
}

func (s *Store) ListTransfers() []Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transfer, 0, len(s.transfers))
	for _, t := range s.transfers {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
