package settings

import (
	"net/http"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Handler exposes store settings over HTTP.
type Handler struct {
	Svc *Service
}

// PublicView is what storefront clients need to render prices.
type PublicView struct {
	StoreName      string `json:"storeName"`
	Currency       string `json:"currency"`
	ShippingCost   string `json:"shippingCost"`
	ShippingLabel  string `json:"shippingLabel"`
	TaxEnabled     bool   `json:"taxEnabled"`
	TaxRate        string `json:"taxRate"`
	IsCartEnabled  bool   `json:"isCartEnabled"`
	CurrencySymbol string `json:"currencySymbol"`
}

// Public handles GET /api/v1/store.
func (h *Handler) Public(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	s, err := h.Svc.Get(r.Context())
	if err != nil {
		common.WriteError(w, common.Internal("unable to load store settings", err))
		return
	}
	p := s.Pricing()
	sum := pricing.CalculateCartSummary(nil, p)
	common.JSON(w, http.StatusOK, map[string]any{"data": PublicView{
		StoreName:      s.StoreName,
		Currency:       s.Currency,
		ShippingCost:   s.ShippingCost.StringFixed(2),
		ShippingLabel:  pricing.FormatPrice(sum.Shipping, s.Currency),
		TaxEnabled:     sum.TaxEnabled,
		TaxRate:        sum.TaxRate.String(),
		IsCartEnabled:  s.IsCartEnabled,
		CurrencySymbol: pricing.Symbol(s.Currency),
	}})
}

// Get handles GET /api/v1/admin/settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	s, err := h.Svc.Get(r.Context())
	if err != nil {
		common.WriteError(w, common.Internal("unable to load store settings", err))
		return
	}
	common.Data(w, http.StatusOK, s)
}

// Update handles PUT /api/v1/admin/settings.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	var in UpdateInput
	if err := common.DecodeJSON(r, &in, false); err != nil {
		common.WriteError(w, err)
		return
	}
	s, err := h.Svc.Update(r.Context(), in)
	if err != nil {
		if !common.IsAppError(err) {
			err = common.Internal("unable to save store settings", err)
		}
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, s)
}
