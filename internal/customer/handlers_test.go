package customer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/store"
)

const saraID = "8b0f1b7e-3c4a-4a8e-9f59-0e7a0d2b1c01"

type fakeQueries struct {
	customers []store.Customer
	orders    []store.Order
	lastList  store.ListOrdersParams
}

func (f *fakeQueries) matches(c store.Customer, search string) bool {
	if search == "" {
		return true
	}
	s := strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.Email), s) || strings.Contains(strings.ToLower(c.FullName), s)
}

func (f *fakeQueries) ListCustomers(_ context.Context, arg store.ListCustomersParams) ([]store.Customer, error) {
	var out []store.Customer
	for _, c := range f.customers {
		if f.matches(c, arg.Search) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeQueries) CountCustomers(ctx context.Context, search string) (int64, error) {
	out, _ := f.ListCustomers(ctx, store.ListCustomersParams{Search: search})
	return int64(len(out)), nil
}

func (f *fakeQueries) GetCustomer(_ context.Context, id string) (store.Customer, error) {
	for _, c := range f.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return store.Customer{}, store.ErrNotFound
}

func (f *fakeQueries) ListOrders(_ context.Context, arg store.ListOrdersParams) ([]store.Order, error) {
	f.lastList = arg
	var out []store.Order
	for _, o := range f.orders {
		if o.CustomerID != nil && *o.CustomerID == arg.CustomerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func fixture() *fakeQueries {
	id := saraID
	return &fakeQueries{
		customers: []store.Customer{
			{ID: saraID, Email: "sara@example.com", FullName: "Sara Alaoui", Status: "active", TotalOrders: 2, TotalSpent: decimal.RequireFromString("149")},
			{ID: "b3e8c7b1-75a4-4bb1-8b3e-6a1b4f3f2a10", Email: "omar@example.com", FullName: "Omar", Status: "active", TotalOrders: 1, TotalSpent: decimal.RequireFromString("30")},
		},
		orders: []store.Order{
			{ID: "o-1", OrderNumber: "ORD-1", CustomerID: &id, Status: store.OrderPending, Total: decimal.RequireFromString("74.5"), Currency: "MAD"},
			{ID: "o-2", OrderNumber: "ORD-2", CustomerID: &id, Status: store.OrderDelivered, Total: decimal.RequireFromString("74.5"), Currency: "MAD"},
		},
	}
}

func serve(t *testing.T, q *fakeQueries, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	h := &Handler{Q: q, Currency: func(context.Context) string { return "MAD" }}
	r := chi.NewRouter()
	r.Get("/admin/customers", h.List)
	r.Get("/admin/customers/{id}", h.Get)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestListSearchesByNameOrEmail(t *testing.T) {
	rec, body := serve(t, fixture(), "/admin/customers?search=SARA")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	data := body["data"].([]any)
	require.Len(t, data, 1)
	first := data[0].(map[string]any)
	require.Equal(t, "Sara Alaoui", first["fullName"])
	require.Equal(t, "149.00 DH", first["totalSpentFormatted"])

	rec, body = serve(t, fixture(), "/admin/customers")
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	require.Len(t, body["data"].([]any), 2)
}

func TestGetEmbedsRecentOrders(t *testing.T) {
	q := fixture()
	rec, body := serve(t, q, "/admin/customers/"+saraID)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	require.Equal(t, "sara@example.com", data["customer"].(map[string]any)["email"])
	require.Len(t, data["recentOrders"].([]any), 2)
	require.Equal(t, recentOrderLimit, q.lastList.Limit)
	require.Equal(t, saraID, q.lastList.CustomerID)
}

func TestGetErrors(t *testing.T) {
	rec, _ := serve(t, fixture(), "/admin/customers/nope")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = serve(t, fixture(), "/admin/customers/0e7f6c52-1e0d-4b5e-8d8f-6c0b2a9d7a55")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
