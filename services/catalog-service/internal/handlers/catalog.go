package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rifat-karim/bizpilot/services/catalog-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/catalog-service/internal/store"
)

// LimitChecker asks billing whether another product may be created.
type LimitChecker interface {
	CheckProducts(ctx context.Context, businessID string, usage int64) (entitlements.LimitCheck, error)
}

type CatalogHandler struct {
	store      *store.Store
	limits     LimitChecker
	logger     *slog.Logger
	businessID string
}

func New(s *store.Store, limits LimitChecker, logger *slog.Logger, defaultBusinessID string) *CatalogHandler {
	return &CatalogHandler{store: s, limits: limits, logger: logger, businessID: defaultBusinessID}
}

type productRequest struct {
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	PriceCents looseInt        `json:"price_cents"`
	SKU        string          `json:"sku"`
	Variants   []store.Variant `json:"variants"`
}

// Products handles GET (search/list) and POST (create with plan-limit
// enforcement) on the products collection.
func (h *CatalogHandler) Products(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		products := h.store.SearchProducts(q.Get("q"), q.Get("category"))
		writeJSON(w, http.StatusOK, map[string]any{"products": products})
	case http.MethodPost:
		h.createProduct(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	price := int64(req.PriceCents)
	if price < 0 {
		price = 0
	}

	businessID := h.requestBusinessID(r)
	usage := h.store.ProductCount()
	check, err := h.limits.CheckProducts(r.Context(), businessID, usage)
	if err != nil {
		h.logger.Warn("entitlements check degraded to free tier", "business_id", businessID, "err", err)
	}
	if !check.HasAccess {
		http.Error(w, "product limit reached (upgrade required)", http.StatusPaymentRequired)
		return
	}

	p := h.store.CreateProduct(store.CreateProductInput{
		Name:       req.Name,
		Category:   strings.TrimSpace(req.Category),
		PriceCents: price,
		SKU:        strings.TrimSpace(req.SKU),
		Variants:   req.Variants,
	})
	writeJSON(w, http.StatusCreated, p)
}

// GetProduct serves single-product lookup; pos-service prices cart lines
// from this endpoint.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	p, err := h.store.GetProduct(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProductRequest struct {
	ID string `json:"id"`
	productRequest
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	if req.ID == "" || req.Name == "" {
		http.Error(w, "id and name required", http.StatusBadRequest)
		return
	}
	price := int64(req.PriceCents)
	if price < 0 {
		price = 0
	}

	p, err := h.store.UpdateProduct(req.ID, store.CreateProductInput{
		Name:       req.Name,
		Category:   strings.TrimSpace(req.Category),
		PriceCents: price,
		SKU:        strings.TrimSpace(req.SKU),
		Variants:   req.Variants,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.store.DeleteProduct(strings.TrimSpace(req.ID)); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *CatalogHandler) Collections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": h.store.ListCollections()})
}

func (h *CatalogHandler) CollectionProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	products, err := h.store.CollectionProducts(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *CatalogHandler) requestBusinessID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Business-Id")); id != "" {
		return id
	}
	return h.businessID
}

// looseInt decodes a JSON numeric field leniently: values that do not
// parse as an integer become zero instead of failing the request.
type looseInt int64

func (n *looseInt) UnmarshalJSON(data []byte) error {
	*n = 0
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		num = json.Number(strings.TrimSpace(s))
	}
	if v, err := num.Int64(); err == nil {
		*n = looseInt(v)
	}
	return nil
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, store.ErrCollectionNotFound):
		http.Error(w, "collection not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
