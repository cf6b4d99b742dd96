package order

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/store"
)

// Handler serves the public order confirmation page.
type Handler struct {
	Q queries
}

// GetByNumber handles GET /api/v1/orders/{orderNumber}.
func (h *Handler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order queries not configured", nil)
		return
	}
	number := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "orderNumber")))
	if !strings.HasPrefix(number, "ORD-") {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order number", nil)
		return
	}
	o, err := h.Q.GetOrderByNumber(r.Context(), number)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order", nil)
		return
	}
	items, err := h.Q.ListOrderItems(r.Context(), o.ID)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load order items", nil)
		return
	}
	v := toView(o, items)
	v.CustomerID = nil
	v.InternalNotes = ""
	common.Data(w, http.StatusOK, v)
}
