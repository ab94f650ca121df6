package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rifat-karim/bizpilot/libs/eventx"
	"github.com/rifat-karim/bizpilot/services/purchasing-service/internal/store"
)

// StockAdjuster pushes received quantities into inventory.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, locationID, sku string, delta int64) error
}

// PaymentRecorder mirrors supplier payments into the ledger.
type PaymentRecorder interface {
	RecordSupplierPayment(ctx context.Context, supplierID string, amountCents int64, memo string) error
}

type PurchasingHandler struct {
	store      *store.Store
	inventory  StockAdjuster
	accounting PaymentRecorder
	queue      *eventx.Queue
	logger     *slog.Logger
}

func New(s *store.Store, inventory StockAdjuster, accounting PaymentRecorder, queue *eventx.Queue, logger *slog.Logger) *PurchasingHandler {
	return &PurchasingHandler{store: s, inventory: inventory, accounting: accounting, queue: queue, logger: logger}
}

type supplierRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *PurchasingHandler) Suppliers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"suppliers": h.store.ListSuppliers()})
	case http.MethodPost:
		var req supplierRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			http.Error(w, "name required", http.StatusBadRequest)
			return
		}
		sup := h.store.CreateSupplier(store.CreateSupplierInput{
			Name:  req.Name,
			Email: strings.TrimSpace(req.Email),
			Phone: strings.TrimSpace(req.Phone),
		})
		writeJSON(w, http.StatusCreated, sup)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type orderLineRequest struct {
	SKU           string   `json:"sku"`
	Description   string   `json:"description"`
	Quantity      looseInt `json:"quantity"`
	UnitCostCents looseInt `json:"unit_cost_cents"`
}

type createOrderRequest struct {
	SupplierID string             `json:"supplier_id"`
	LocationID string             `json:"location_id"`
	Lines      []orderLineRequest `json:"lines"`
}

func (h *PurchasingHandler) Orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"orders": h.store.ListOrders()})
	case http.MethodPost:
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		lines := make([]store.OrderLine, 0, len(req.Lines))
		for _, l := range req.Lines {
			lines = append(lines, store.OrderLine{
				SKU:           strings.TrimSpace(l.SKU),
				Description:   strings.TrimSpace(l.Description),
				Quantity:      int64(l.Quantity),
				UnitCostCents: int64(l.UnitCostCents),
			})
		}
		po, err := h.store.CreateOrder(store.CreateOrderInput{
			SupplierID: strings.TrimSpace(req.SupplierID),
			LocationID: strings.TrimSpace(req.LocationID),
			Lines:      lines,
		})
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, po)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PurchasingHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	po, err := h.store.GetOrder(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

func (h *PurchasingHandler) SendOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.store.SendOrder)
}

func (h *PurchasingHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, h.store.CancelOrder)
}

func (h *PurchasingHandler) orderAction(w http.ResponseWriter, r *http.Request, action func(string) (store.PurchaseOrder, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		OrderID string `json:"order_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		http.Error(w, "order_id required", http.StatusBadRequest)
		return
	}

	po, err := action(req.OrderID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, po)
}

type receiveLineRequest struct {
	SKU      string   `json:"sku"`
	Quantity looseInt `json:"quantity"`
}

type receiveRequest struct {
	OrderID string               `json:"order_id"`
	Lines   []receiveLineRequest `json:"lines"`
}

// ReceiveGoods books a goods received note, pushes the quantities to
// inventory, and emits the receipt event. Inventory push failures are
// logged but do not undo the receipt.
func (h *PurchasingHandler) ReceiveGoods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req receiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		http.Error(w, "order_id required", http.StatusBadRequest)
		return
	}
	lines := make([]store.ReceivedLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, store.ReceivedLine{
			SKU:      strings.TrimSpace(l.SKU),
			Quantity: int64(l.Quantity),
		})
	}

	grn, po, err := h.store.ReceiveGoods(req.OrderID, lines)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	for _, l := range grn.Lines {
		if err := h.inventory.AdjustStock(r.Context(), grn.LocationID, l.SKU, l.Quantity); err != nil {
			h.logger.Warn("stock push failed", "grn_id", grn.ID, "sku", l.SKU, "err", err)
		}
	}

	costBySKU := map[string]int64{}
	for _, l := range po.Lines {
		costBySKU[l.SKU] = l.UnitCostCents
	}
	var valueCents int64
	for _, l := range grn.Lines {
		valueCents += l.Quantity * costBySKU[l.SKU]
	}

	payload, err := json.Marshal(map[string]any{
		"grn_id":       grn.ID,
		"order_id":     po.ID,
		"supplier_id":  po.SupplierID,
		"location_id":  grn.LocationID,
		"lines":        grn.Lines,
		"value_cents":  valueCents,
		"order_status": po.Status,
		"received_at":  grn.ReceivedAt.Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("failed to build receipt event payload", "err", err)
	} else {
		h.queue.Emit(r.Context(), eventx.Event{
			AggregateType: "purchase_order",
			AggregateID:   po.ID,
			EventType:     "purchasing.grn.received.v1",
			Payload:       payload,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{"grn": grn, "order": po})
}

func (h *PurchasingHandler) GoodsReceived(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"grns": h.store.ListGoodsReceived()})
}

type paymentRequest struct {
	SupplierID  string   `json:"supplier_id"`
	AmountCents looseInt `json:"amount_cents"`
	Memo        string   `json:"memo"`
}

// PaySupplier mirrors a supplier payment into accounting. The mirror is
// fire-and-forget; a failure is logged and the request still succeeds.
func (h *PurchasingHandler) PaySupplier(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.SupplierID = strings.TrimSpace(req.SupplierID)
	amount := int64(req.AmountCents)
	if req.SupplierID == "" || amount <= 0 {
		http.Error(w, "supplier_id and positive amount_cents required", http.StatusBadRequest)
		return
	}

	if err := h.accounting.RecordSupplierPayment(r.Context(), req.SupplierID, amount, strings.TrimSpace(req.Memo)); err != nil {
		h.logger.Warn("supplier payment mirror failed", "supplier_id", req.SupplierID, "err", err)
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "recorded"})
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
	case errors.Is(err, store.ErrSupplierNotFound):
		http.Error(w, "supplier not found", http.StatusNotFound)
	case errors.Is(err, store.ErrOrderNotFound):
		http.Error(w, "purchase order not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidTransition):
		http.Error(w, "invalid purchase order state transition", http.StatusConflict)
	case errors.Is(err, store.ErrNoLines):
		http.Error(w, "no valid lines", http.StatusUnprocessableEntity)
	case errors.Is(err, store.ErrUnknownSKU):
		http.Error(w, "sku not on the purchase order", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
