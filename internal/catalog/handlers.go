package catalog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/obs"
)

// CurrencySource reports the store currency used to format previews.
type CurrencySource func(ctx context.Context) string

// Handler exposes public catalog endpoints.
type Handler struct {
	service  *Service
	currency CurrencySource
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service  *Service
	Currency CurrencySource
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, currency: cfg.Currency}
}

// Products handles GET /api/v1/products with search, sorting, and pagination.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	params, err := h.service.ParseListParams(r.URL.Query())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.ListProducts(r.Context(), params)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: int(result.Total)},
	})
}

// ProductDetail handles GET /api/v1/products/{slug}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	detail, err := h.service.GetProductDetail(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, detail)
}

// PreviewPrice handles POST /api/v1/products/{slug}/price.
func (h *Handler) PreviewPrice(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var in PreviewInput
	if err := common.DecodeJSON(r, &in, true); err != nil {
		obs.CountOutcome(obs.PricePreviewsTotal, err)
		common.WriteError(w, err)
		return
	}
	if h.currency != nil {
		in.Currency = h.currency(r.Context())
	}
	preview, err := h.service.PreviewPrice(r.Context(), chi.URLParam(r, "slug"), in)
	obs.CountOutcome(obs.PricePreviewsTotal, err)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, preview)
}

// InvalidateProduct handles DELETE /api/v1/admin/cache/products/{slug} after
// a product row was edited out of band.
func (h *Handler) InvalidateProduct(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "slug is required", nil)
		return
	}
	if err := h.service.InvalidateProduct(r.Context(), slug); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to invalidate product cache", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
