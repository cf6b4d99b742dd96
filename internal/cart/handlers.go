package cart

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// Handler wires cart services to HTTP.
type Handler struct {
	Svc *Service
}

// Create creates or returns the active cart for an anonymous shopper.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		AnonID string `json:"anonId" validate:"omitempty,max=64"`
	}
	if err := common.DecodeJSON(r, &payload, true); err != nil {
		common.WriteError(w, err)
		return
	}
	cart, err := h.Svc.EnsureCart(r.Context(), payload.AnonID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"cartId":    cart.ID,
			"anonId":    cart.AnonID,
			"expiresAt": cart.ExpiresAt,
		},
	})
}

// Get returns cart contents with the order summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	view, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

// AddItem handles POST /api/v1/carts/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var in AddItemInput
	if err := common.DecodeJSON(r, &in, false); err != nil {
		common.WriteError(w, err)
		return
	}
	cartID := chi.URLParam(r, "id")
	if _, err := h.Svc.AddItem(r.Context(), cartID, in); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusCreated)
}

// UpdateItem handles PATCH /api/v1/carts/{id}/items/{itemId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	var payload struct {
		Quantity *int `json:"quantity" validate:"required,min=0,max=999"`
	}
	if err := common.DecodeJSON(r, &payload, false); err != nil {
		common.WriteError(w, err)
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.Svc.UpdateQty(r.Context(), cartID, chi.URLParam(r, "itemId"), *payload.Quantity); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// RemoveItem handles DELETE /api/v1/carts/{id}/items/{itemId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.Svc.RemoveItem(r.Context(), cartID, chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// Clear handles DELETE /api/v1/carts/{id}/items.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.Svc.Clear(r.Context(), cartID); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, cartID string, status int) {
	view, err := h.Svc.Get(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": view})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	if common.IsAppError(err) {
		common.WriteError(w, err)
		return
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", message(err, ErrInvalidInput), nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", message(err, ErrNotFound), nil)
	case errors.Is(err, ErrUnavailable):
		common.JSONError(w, http.StatusConflict, "UNAVAILABLE", message(err, ErrUnavailable), nil)
	case errors.Is(err, ErrDisabled):
		common.JSONError(w, http.StatusForbidden, "CART_DISABLED", "cart is disabled for this store", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

// message strips the sentinel suffix so clients see only the detail.
func message(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
