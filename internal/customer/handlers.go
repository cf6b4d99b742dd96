package customer

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/store"
)

const recentOrderLimit = 10

type queries interface {
	ListCustomers(ctx context.Context, arg store.ListCustomersParams) ([]store.Customer, error)
	CountCustomers(ctx context.Context, search string) (int64, error)
	GetCustomer(ctx context.Context, id string) (store.Customer, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.Order, error)
}

// Handler exposes the admin customer directory. Customers are created at
// checkout, so the directory is read-only.
type Handler struct {
	Q queries
	// Currency renders totalSpent; empty falls back to the store default.
	Currency func(ctx context.Context) string
}

type customerDTO struct {
	ID                  string          `json:"id"`
	Email               string          `json:"email"`
	FullName            string          `json:"fullName"`
	Phone               string          `json:"phone,omitempty"`
	Status              string          `json:"status"`
	TotalOrders         int             `json:"totalOrders"`
	TotalSpent          decimal.Decimal `json:"totalSpent"`
	TotalSpentFormatted string          `json:"totalSpentFormatted"`
	LastOrderDate       *time.Time      `json:"lastOrderDate,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

type orderSummaryDTO struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (h *Handler) toDTO(ctx context.Context, c store.Customer) customerDTO {
	currency := ""
	if h.Currency != nil {
		currency = h.Currency(ctx)
	}
	return customerDTO{
		ID:                  c.ID,
		Email:               c.Email,
		FullName:            c.FullName,
		Phone:               c.Phone,
		Status:              c.Status,
		TotalOrders:         c.TotalOrders,
		TotalSpent:          c.TotalSpent,
		TotalSpentFormatted: pricing.FormatPrice(c.TotalSpent, currency),
		LastOrderDate:       c.LastOrderDate,
		CreatedAt:           c.CreatedAt,
	}
}

// List handles GET /api/v1/admin/customers?search=&page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "customer queries not configured", nil)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	if len(search) > 120 {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "search is too long", map[string]any{"field": "search"})
		return
	}
	page, perPage := common.ParsePagination(r, 20, 100)
	total, err := h.Q.CountCustomers(r.Context(), search)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to count customers", nil)
		return
	}
	rows, err := h.Q.ListCustomers(r.Context(), store.ListCustomersParams{
		Search: search,
		Limit:  perPage,
		Offset: common.Offset(page, perPage),
	})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to list customers", nil)
		return
	}
	out := make([]customerDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, h.toDTO(r.Context(), c))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       out,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/admin/customers/{id} and embeds the latest orders.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Q == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "customer queries not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return
	}
	c, err := h.Q.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "customer not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load customer", nil)
		return
	}
	orders, err := h.Q.ListOrders(r.Context(), store.ListOrdersParams{CustomerID: c.ID, Limit: recentOrderLimit})
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to load customer orders", nil)
		return
	}
	recent := make([]orderSummaryDTO, 0, len(orders))
	for _, o := range orders {
		recent = append(recent, orderSummaryDTO{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			Total:       o.Total,
			Currency:    o.Currency,
			CreatedAt:   o.CreatedAt,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"customer":     h.toDTO(r.Context(), c),
			"recentOrders": recent,
		},
	})
}
