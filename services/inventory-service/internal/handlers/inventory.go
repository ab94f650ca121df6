package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rifat-karim/bizpilot/services/inventory-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/inventory-service/internal/store"
)

// LimitChecker asks billing whether another location may be created.
type LimitChecker interface {
	CheckLocations(ctx context.Context, businessID string, usage int64) (entitlements.LimitCheck, error)
}

type InventoryHandler struct {
	store      *store.Store
	limits     LimitChecker
	logger     *slog.Logger
	businessID string
}

func New(s *store.Store, limits LimitChecker, logger *slog.Logger, defaultBusinessID string) *InventoryHandler {
	return &InventoryHandler{store: s, limits: limits, logger: logger, businessID: defaultBusinessID}
}

type createLocationRequest struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	SalesChannels []string `json:"sales_channels"`
}

// Locations handles GET (list) and POST (create with plan-limit
// enforcement) on the locations collection.
func (h *InventoryHandler) Locations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"locations": h.store.ListLocations()})
	case http.MethodPost:
		h.createLocation(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *InventoryHandler) createLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}

	businessID := h.requestBusinessID(r)
	usage := h.store.LocationCount()
	check, err := h.limits.CheckLocations(r.Context(), businessID, usage)
	if err != nil {
		h.logger.Warn("entitlements check degraded to free tier", "business_id", businessID, "err", err)
	}
	if !check.HasAccess {
		http.Error(w, "location limit reached (upgrade required)", http.StatusPaymentRequired)
		return
	}

	l := h.store.CreateLocation(store.CreateLocationInput{
		Name:          req.Name,
		Type:          store.LocationType(strings.ToLower(strings.TrimSpace(req.Type))),
		SalesChannels: req.SalesChannels,
	})
	writeJSON(w, http.StatusCreated, l)
}

func (h *InventoryHandler) Stock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows := h.store.ListStock(strings.TrimSpace(r.URL.Query().Get("location_id")))
	writeJSON(w, http.StatusOK, map[string]any{"stock": rows})
}

type adjustStockRequest struct {
	LocationID string   `json:"location_id"`
	SKU        string   `json:"sku"`
	Delta      looseInt `json:"delta"`
}

// AdjustStock applies a signed quantity delta. Goods receiving in
// purchasing-service posts here.
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.LocationID = strings.TrimSpace(req.LocationID)
	req.SKU = strings.TrimSpace(req.SKU)
	if req.LocationID == "" || req.SKU == "" {
		http.Error(w, "location_id and sku required", http.StatusBadRequest)
		return
	}

	row, err := h.store.AdjustStock(req.LocationID, req.SKU, int64(req.Delta))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

type reorderLevelRequest struct {
	LocationID string   `json:"location_id"`
	SKU        string   `json:"sku"`
	Level      looseInt `json:"level"`
}

func (h *InventoryHandler) SetReorderLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req reorderLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.LocationID = strings.TrimSpace(req.LocationID)
	req.SKU = strings.TrimSpace(req.SKU)
	if req.LocationID == "" || req.SKU == "" {
		http.Error(w, "location_id and sku required", http.StatusBadRequest)
		return
	}

	row, err := h.store.SetReorderLevel(req.LocationID, req.SKU, int64(req.Level))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stock": h.store.LowStock()})
}

type createTransferRequest struct {
	SKU            string   `json:"sku"`
	FromLocationID string   `json:"from_location_id"`
	ToLocationID   string   `json:"to_location_id"`
	Quantity       looseInt `json:"quantity"`
}

// Transfers handles GET (list) and POST (create) on stock transfers.
func (h *InventoryHandler) Transfers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"transfers": h.store.ListTransfers()})
	case http.MethodPost:
		var req createTransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		t, err := h.store.CreateTransfer(store.CreateTransferInput{
			SKU:            strings.TrimSpace(req.SKU),
			FromLocationID: strings.TrimSpace(req.FromLocationID),
			ToLocationID:   strings.TrimSpace(req.ToLocationID),
			Quantity:       int64(req.Quantity),
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *InventoryHandler) DispatchTransfer(w http.ResponseWriter, r *http.Request) {
	h.transferAction(w, r, h.store.DispatchTransfer)
}

func (h *InventoryHandler) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	h.transferAction(w, r, h.store.CompleteTransfer)
}

func (h *InventoryHandler) transferAction(w http.ResponseWriter, r *http.Request, action func(string) (store.Transfer, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		TransferID string `json:"transfer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TransferID = strings.TrimSpace(req.TransferID)
	if req.TransferID == "" {
		http.Error(w, "transfer_id required", http.StatusBadRequest)
		return
	}

	t, err := action(req.TransferID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *InventoryHandler) requestBusinessID(r *http.Request) string {
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
	case errors.Is(err, store.ErrLocationNotFound):
		http.Error(w, "location not found", http.StatusNotFound)
	case errors.Is(err, store.ErrTransferNotFound):
		http.Error(w, "transfer not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInsufficientStock):
		http.Error(w, "insufficient stock at source location", http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrInvalidTransition):
		http.Error(w, "invalid transfer state transition", http.StatusConflict)
	case errors.Is(err, store.ErrSameLocation):
		http.Error(w, "source and destination are the same location", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
