package checkout

import (
	"errors"
	"net/http"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/common"
)

// Handler exposes POST /api/v1/checkout.
type Handler struct {
	Svc *Service
}

// Checkout places an order from the cart in the payload.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Input
	if err := common.DecodeJSON(r, &payload, false); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Place(r.Context(), payload)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, out)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case common.IsAppError(err):
		common.WriteError(w, err)
	case errors.Is(err, ErrCartNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrEmptyCart):
		common.JSONError(w, http.StatusUnprocessableEntity, "CART_EMPTY", err.Error(), nil)
	case errors.Is(err, ErrInProgress):
		common.JSONError(w, http.StatusConflict, "CHECKOUT_IN_PROGRESS", err.Error(), nil)
	case errors.Is(err, cart.ErrDisabled):
		common.JSONError(w, http.StatusForbidden, "CART_DISABLED", "cart is disabled for this store", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to place order", nil)
	}
}
