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
	ErrProductNotFound    = errors.New("product not found")
	ErrCollectionNotFound = errors.New("collection not found")
)

// Variant is one sellable configuration of a product, keyed by SKU.
type Variant struct {
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	PriceCents int64     `json:"price_cents"`
	SKU        string    `json:"sku"`
	Variants   []Variant `json:"variants,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Collection is a curated product grouping shown as a POS grid tab.
type Collection struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ProductIDs []string `json:"product_ids"`
}

// Store keeps the product catalog in memory, guarded by a mutex.
type Store struct {
	mu          sync.RWMutex
	products    map[string]Product
	collections map[string]Collection
}

func New() *Store {
	return &Store{
		products:    map[string]Product{},
		collections: map[string]Collection{},
	}
}

// NewSeeded returns a store pre-loaded with the demo catalog.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()
	seed := []Product{
		{ID: "prod-espresso", Name: "Espresso", Category: "Drinks", PriceCents: 350, SKU: "DRK-ESP-001"},
		{ID: "prod-latte", Name: "Caffe Latte", Category: "Drinks", PriceCents: 475, SKU: "DRK-LAT-001", Variants: []Variant{
			{SKU: "DRK-LAT-001-S", Name: "Small", PriceCents: 425},
			{SKU: "DRK-LAT-001-L", Name: "Large", PriceCents: 525},
		}},
		{ID: "prod-orange-juice", Name: "Fresh Orange Juice", Category: "Drinks", PriceCents: 550, SKU: "DRK-OJ-001"},
		{ID: "prod-panini", Name: "Chicken Panini", Category: "Food", PriceCents: 2499, SKU: "FOD-PAN-001"},
		{ID: "prod-caesar-salad", Name: "Caesar Salad", Category: "Food", PriceCents: 1850, SKU: "FOD-SAL-001"},
		{ID: "prod-soup-of-day", Name: "Soup of the Day", Category: "Food", PriceCents: 950, SKU: "FOD-SOP-001"},
		{ID: "prod-croissant", Name: "Butter Croissant", Category: "Bakery", PriceCents: 425, SKU: "BAK-CRO-001"},
		{ID: "prod-brownie", Name: "Chocolate Brownie", Category: "Bakery", PriceCents: 500, SKU: "BAK-BRW-001"},
	}
	for _, p := range seed {
		p.CreatedAt = now
		s.products[p.ID] = p
	}
	for _, c := range []Collection{
		{ID: "col-drinks", Name: "Drinks", ProductIDs: []string{"prod-espresso", "prod-latte", "prod-orange-juice"}},
		{ID: "col-food", Name: "Food", ProductIDs: []string{"prod-panini", "prod-caesar-salad", "prod-soup-of-day"}},
		{ID: "col-bakery", Name: "Bakery", ProductIDs: []string{"prod-croissant", "prod-brownie"}},
		{ID: "col-breakfast", Name: "Breakfast Deal", ProductIDs: []string{"prod-espresso", "prod-croissant", "prod-orange-juice"}},
	} {
		s.collections[c.ID] = c
	}
	return s
}

type CreateProductInput struct {
	Name       string
	Category   string
	PriceCents int64
	SKU        string
	Variants   []Variant
}

func (s *Store) CreateProduct(in CreateProductInput) Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Product{
		ID:         "prod-" + uuid.NewString(),
		Name:       in.Name,
		Category:   in.Category,
		PriceCents: in.PriceCents,
		SKU:        in.SKU,
		Variants:   in.Variants,
		CreatedAt:  time.Now().UTC(),
	}
	s.products[p.ID] = p
	return p
}

func (s *Store) GetProduct(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *Store) UpdateProduct(id string, in CreateProductInput) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	p.Name = in.Name
	p.Category = in.Category
	p.PriceCents = in.PriceCents
	p.SKU = in.SKU
	p.Variants = in.Variants
	s.products[id] = p
	return p, nil
}

func (s *Store) DeleteProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

// SearchProducts filters by case-insensitive name substring and optional
// exact category. Empty query matches everything.
func (s *Store) SearchProducts(query, category string) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Store) ProductCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products))
}

func (s *Store) ListCollections() []Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Collection, 0, len(s.collections))
	for _, c := range s.collections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CollectionProducts resolves a collection's product ids, skipping ids
// whose product has since been deleted.
func (s *Store) CollectionProducts(id string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[id]
	if !ok {
		return nil, ErrCollectionNotFound
	}
	out := make([]Product, 0, len(c.ProductIDs))
	for _, pid := range c.ProductIDs {
		if p, ok := s.products[pid]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
