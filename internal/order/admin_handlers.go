package order

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/store"
)

// AdminHandler provides administrative order management endpoints.
type AdminHandler struct {
	Q queries
}

// List handles GET /api/v1/admin/orders with ?status= and pagination.
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && orderStatusRank(status) == -2 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unsupported status", map[string]any{"field": "status"})
		return
	}
	customerID := strings.TrimSpace(r.URL.Query().Get("customerId"))
	page, perPage := common.ParsePagination(r, 20, 100)
	params := store.ListOrdersParams{
		Status:     status,
		CustomerID: customerID,
		Limit:      perPage,
		Offset:     common.Offset(page, perPage),
	}
	total, err := h.Q.CountOrders(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count orders", nil)
		return
	}
	orders, err := h.Q.ListOrders(r.Context(), params)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list orders", nil)
		return
	}
	out := make([]View, 0, len(orders))
	for _, o := range orders {
		out = append(out, toView(o, nil))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/admin/orders/{id}.
func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	o, ok := h.load(w, r)
	if !ok {
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), o.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	common.Data(w, http.StatusOK, toView(o, items))
}

type patchRequest struct {
	Status            *string `json:"status" validate:"omitempty,oneof=pending confirmed preparing shipped delivered cancelled"`
	PaymentStatus     *string `json:"paymentStatus" validate:"omitempty,oneof=pending cod-confirmed paid failed"`
	FulfillmentStatus *string `json:"fulfillmentStatus" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	TrackingNumber    *string `json:"trackingNumber" validate:"omitempty,max=64"`
	InternalNotes     *string `json:"internalNotes" validate:"omitempty,max=2000"`
}

// Patch handles PATCH /api/v1/admin/orders/{id}. Status moves only forward,
// except cancellation of an undelivered order.
func (h *AdminHandler) Patch(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	var req patchRequest
	if err := common.DecodeJSON(r, &req, false); err != nil {
		common.WriteError(w, err)
		return
	}
	if req.Status == nil && req.PaymentStatus == nil && req.FulfillmentStatus == nil && req.TrackingNumber == nil && req.InternalNotes == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "nothing to update", nil)
		return
	}
	current, ok := h.load(w, r)
	if !ok {
		return
	}
	if req.Status != nil {
		if !canTransition(current.Status, *req.Status) {
			common.JSONError(w, http.StatusConflict, "INVALID_STATE", "cannot move order from "+current.Status+" to "+*req.Status, nil)
			return
		}
		if req.FulfillmentStatus == nil {
			if f, ok := fulfillmentFor(*req.Status); ok {
				req.FulfillmentStatus = &f
			}
		}
	}
	updated, err := h.Q.UpdateOrderStatus(r.Context(), store.UpdateOrderStatusParams{
		ID:                current.ID,
		Status:            req.Status,
		PaymentStatus:     req.PaymentStatus,
		FulfillmentStatus: req.FulfillmentStatus,
		TrackingNumber:    req.TrackingNumber,
		InternalNotes:     req.InternalNotes,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to update order", nil)
		return
	}
	common.Data(w, http.StatusOK, toView(updated, nil))
}

func (h *AdminHandler) load(w http.ResponseWriter, r *http.Request) (store.Order, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return store.Order{}, false
	}
	o, err := h.Q.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return store.Order{}, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return store.Order{}, false
	}
	return o, true
}
