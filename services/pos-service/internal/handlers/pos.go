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
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/entitlements"
	"github.com/rifat-karim/bizpilot/services/pos-service/internal/orders"
)

// ProductResolver looks up a sellable product; backed by catalog-service.
type ProductResolver interface {
	Product(ctx context.Context, productID string) (orders.Product, error)
}

// LimitChecker asks billing whether another order may be placed this month.
type LimitChecker interface {
	CheckOrders(ctx context.Context, businessID string, usage int64) (entitlements.LimitCheck, error)
}

type PosHandler struct {
	register   *orders.Register
	catalog    ProductResolver
	limits     LimitChecker
	queue      *eventx.Queue
	logger     *slog.Logger
	businessID string
}

// NewPosHandler wires the terminal. defaultBusinessID backs requests that
// carry no X-Business-Id header; there is no session model.
func NewPosHandler(register *orders.Register, catalog ProductResolver, limits LimitChecker, queue *eventx.Queue, logger *slog.Logger, defaultBusinessID string) *PosHandler {
	return &PosHandler{
		register:   register,
		catalog:    catalog,
		limits:     limits,
		queue:      queue,
		logger:     logger,
		businessID: defaultBusinessID,
	}
}

type createOrderRequest struct {
	CustomerRef string `json:"customer_ref"`
}

// Orders handles POST (create) and GET (list) on the orders collection.
func (h *PosHandler) Orders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		o := h.register.Create(strings.TrimSpace(req.CustomerRef))
		writeJSON(w, http.StatusCreated, o)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"orders": h.register.List()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PosHandler) ActiveOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	o, ok := h.register.Active()
	if !ok {
		http.Error(w, "no active order", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *PosHandler) HeldOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": h.register.Held()})
}

type orderRef struct {
	OrderID string `json:"order_id"`
}

func (h *PosHandler) HoldOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(orderID string) (orders.Order, error) {
		return h.register.Hold(orderID)
	})
}

func (h *PosHandler) ResumeOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(orderID string) (orders.Order, error) {
		return h.register.Resume(orderID)
	})
}

func (h *PosHandler) ClearOrder(w http.ResponseWriter, r *http.Request) {
	h.orderAction(w, r, func(orderID string) (orders.Order, error) {
		return h.register.Clear(orderID)
	})
}

func (h *PosHandler) orderAction(w http.ResponseWriter, r *http.Request, action func(string) (orders.Order, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req orderRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		http.Error(w, "order_id required", http.StatusBadRequest)
		return
	}

	o, err := action(req.OrderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type orderDiscountRequest struct {
	OrderID       string   `json:"order_id"`
	DiscountCents looseInt `json:"discount_cents"`
}

func (h *PosHandler) SetOrderDiscount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req orderDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		http.Error(w, "order_id required", http.StatusBadRequest)
		return
	}

	o, err := h.register.SetOrderDiscount(req.OrderID, int64(req.DiscountCents))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type addItemRequest struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
}

func (h *PosHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.OrderID == "" || req.ProductID == "" {
		http.Error(w, "order_id and product_id required", http.StatusBadRequest)
		return
	}

	product, err := h.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Warn("product lookup failed", "product_id", req.ProductID, "err", err)
		http.Error(w, "product lookup failed", http.StatusBadGateway)
		return
	}

	o, err := h.register.AddItem(req.OrderID, product)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type setQuantityRequest struct {
	OrderID   string   `json:"order_id"`
	ProductID string   `json:"product_id"`
	Quantity  looseInt `json:"quantity"`
}

func (h *PosHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.OrderID == "" || req.ProductID == "" {
		http.Error(w, "order_id and product_id required", http.StatusBadRequest)
		return
	}

	// Unparseable quantity normalizes to zero, which removes the line.
	o, err := h.register.SetQuantity(req.OrderID, req.ProductID, int64(req.Quantity))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type itemDiscountRequest struct {
	OrderID       string   `json:"order_id"`
	ProductID     string   `json:"product_id"`
	DiscountCents looseInt `json:"discount_cents"`
}

func (h *PosHandler) SetItemDiscount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req itemDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.OrderID == "" || req.ProductID == "" {
		http.Error(w, "order_id and product_id required", http.StatusBadRequest)
		return
	}

	o, err := h.register.SetItemDiscount(req.OrderID, req.ProductID, int64(req.DiscountCents))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type removeItemRequest struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
}

func (h *PosHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req removeItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	o, err := h.register.RemoveItem(strings.TrimSpace(req.OrderID), strings.TrimSpace(req.ProductID))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *PosHandler) Totals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orderID := strings.TrimSpace(r.URL.Query().Get("order_id"))
	if orderID == "" {
		http.Error(w, "order_id required", http.StatusBadRequest)
		return
	}
	totals, err := h.register.Totals(orderID)
	if err != nil {
		writeOrderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// SendToKitchen emits the kitchen notification for the order's current
// lines. Pure side effect: no inventory deduction happens here.
func (h *PosHandler) SendToKitchen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req orderRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	o, err := h.register.Get(strings.TrimSpace(req.OrderID))
	if err != nil {
		writeOrderError(w, err)
		return
	}
	if o.Empty() {
		http.Error(w, "order has no items", http.StatusUnprocessableEntity)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"order_id":     o.ID,
		"display_name": o.DisplayName,
		"customer_ref": o.CustomerRef,
		"lines":        o.Lines,
		"sent_at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	h.queue.Emit(r.Context(), eventx.Event{
		AggregateType: "order",
		AggregateID:   o.ID,
		EventType:     "pos.order.sent_to_kitchen.v1",
		Payload:       payload,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "sent"})
}

type checkoutRequest struct {
	OrderID       string   `json:"order_id"`
	TenderedCents looseInt `json:"tendered_cents"`
}

func (h *PosHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if req.OrderID == "" {
		http.Error(w, "order_id required", http.StatusBadRequest)
		return
	}

	businessID := h.requestBusinessID(r)
	usage := h.register.CompletedInMonth(time.Now().UTC())
	check, err := h.limits.CheckOrders(r.Context(), businessID, usage)
	if err != nil {
		h.logger.Warn("entitlements check degraded to free tier", "business_id", businessID, "err", err)
	}
	if !check.HasAccess {
		http.Error(w, "monthly order limit reached (upgrade required)", http.StatusPaymentRequired)
		return
	}

	receipt, err := h.register.Checkout(req.OrderID, int64(req.TenderedCents))
	if err != nil {
		writeOrderError(w, err)
		return
	}

	h.emitCheckoutEvents(r.Context(), businessID, receipt)
	writeJSON(w, http.StatusOK, receipt)
}

func (h *PosHandler) emitCheckoutEvents(ctx context.Context, businessID string, receipt orders.Receipt) {
	completedAt := receipt.CompletedAt.Format(time.RFC3339)

	orderPayload, err := json.Marshal(map[string]any{
		"order_id":     receipt.Order.ID,
		"business_id":  businessID,
		"customer_ref": receipt.Order.CustomerRef,
		"lines":        receipt.Order.Lines,
		"totals":       receipt.Totals,
		"completed_at": completedAt,
	})
	if err != nil {
		h.logger.Error("failed to build checkout event payload", "err", err)
		return
	}
	h.queue.Emit(ctx, eventx.Event{
		AggregateType: "order",
		AggregateID:   receipt.Order.ID,
		EventType:     "pos.order.checked_out.v1",
		Payload:       orderPayload,
	})

	paymentPayload, err := json.Marshal(map[string]any{
		"order_id":       receipt.Order.ID,
		"business_id":    businessID,
		"total_cents":    receipt.Totals.TotalCents,
		"tendered_cents": receipt.TenderedCents,
		"change_cents":   receipt.ChangeCents,
		"recorded_at":    completedAt,
	})
	if err != nil {
		h.logger.Error("failed to build payment event payload", "err", err)
		return
	}
	h.queue.Emit(ctx, eventx.Event{
		AggregateType: "payment",
		AggregateID:   receipt.Order.ID,
		EventType:     "pos.payment.recorded.v1",
		Payload:       paymentPayload,
	})
}

func (h *PosHandler) requestBusinessID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Business-Id")); id != "" {
		return id
	}
	return h.businessID
}

// looseInt decodes a JSON numeric field leniently. Plain numbers and
// quoted integers parse as usual; anything else (garbled strings, floats,
// booleans, null) becomes zero so a bad value clamps instead of failing
// the whole request.
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

func writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrOrderNotFound):
		http.Error(w, "order not found", http.StatusNotFound)
	case errors.Is(err, orders.ErrEmptyOrder):
		http.Error(w, "order has no items", http.StatusUnprocessableEntity)
	case errors.Is(err, orders.ErrInsufficientTender):
		http.Error(w, "tendered amount is less than the total", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
