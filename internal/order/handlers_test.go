package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/store"
)

const orderID = "5d1c8f0a-4a53-4c2e-9c55-6b0d1f0b7f11"

type memQueries struct {
	orders  map[string]store.Order
	items   map[string][]store.OrderItem
	updates []store.UpdateOrderStatusParams
}

func newMemQueries() *memQueries {
	custID := "c-1"
	return &memQueries{
		orders: map[string]store.Order{
			orderID: {
				ID:                orderID,
				OrderNumber:       "ORD-1790000000001",
				CustomerID:        &custID,
				CustomerInfo:      []byte(`{"fullName":"Sara","email":"sara@example.com"}`),
				ShippingAddress:   []byte(`{"line1":"1 Rue","city":"Rabat"}`),
				Currency:          "MAD",
				Subtotal:          decimal.RequireFromString("45"),
				Shipping:          decimal.RequireFromString("25"),
				Tax:               decimal.RequireFromString("4.5"),
				Total:             decimal.RequireFromString("74.5"),
				Status:            store.OrderPending,
				PaymentStatus:     store.PaymentPending,
				FulfillmentStatus: store.FulfillmentPending,
				PaymentMethod:     "cod",
				InternalNotes:     "call first",
				CreatedAt:         time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
			},
		},
		items: map[string][]store.OrderItem{
			orderID: {{
				OrderID:          orderID,
				ProductName:      "Tee",
				Quantity:         2,
				Price:            decimal.RequireFromString("22.5"),
				SelectedVariants: []byte(`{"color":"blue"}`),
				VariantSKU:       "TEE-CBLUE",
			}},
		},
	}
}

func (m *memQueries) GetOrder(_ context.Context, id string) (store.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (m *memQueries) GetOrderByNumber(_ context.Context, number string) (store.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == number {
			return o, nil
		}
	}
	return store.Order{}, store.ErrNotFound
}

func (m *memQueries) ListOrderItems(_ context.Context, id string) ([]store.OrderItem, error) {
	return m.items[id], nil
}

func (m *memQueries) ListOrders(_ context.Context, arg store.ListOrdersParams) ([]store.Order, error) {
	var out []store.Order
	for _, o := range m.orders {
		if arg.Status != "" && o.Status != arg.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memQueries) CountOrders(ctx context.Context, arg store.ListOrdersParams) (int64, error) {
	out, _ := m.ListOrders(ctx, arg)
	return int64(len(out)), nil
}

func (m *memQueries) UpdateOrderStatus(_ context.Context, arg store.UpdateOrderStatusParams) (store.Order, error) {
	m.updates = append(m.updates, arg)
	o, ok := m.orders[arg.ID]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	if arg.Status != nil {
		o.Status = *arg.Status
	}
	if arg.PaymentStatus != nil {
		o.PaymentStatus = *arg.PaymentStatus
	}
	if arg.FulfillmentStatus != nil {
		o.FulfillmentStatus = *arg.FulfillmentStatus
	}
	if arg.TrackingNumber != nil {
		o.TrackingNumber = *arg.TrackingNumber
	}
	if arg.InternalNotes != nil {
		o.InternalNotes = *arg.InternalNotes
	}
	m.orders[arg.ID] = o
	return o, nil
}

func router(q *memQueries) http.Handler {
	r := chi.NewRouter()
	pub := &Handler{Q: q}
	admin := &AdminHandler{Q: q}
	r.Get("/orders/{orderNumber}", pub.GetByNumber)
	r.Get("/admin/orders", admin.List)
	r.Get("/admin/orders/{id}", admin.Get)
	r.Patch("/admin/orders/{id}", admin.Patch)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestGetByNumberHidesInternalFields(t *testing.T) {
	h := router(newMemQueries())
	rec, body := do(t, h, http.MethodGet, "/orders/ord-1790000000001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	require.Equal(t, "ORD-1790000000001", data["orderNumber"])
	require.Equal(t, "74.50 DH", data["totalFormatted"])
	require.NotContains(t, data, "internalNotes")
	require.NotContains(t, data, "customerId")
	items := data["items"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, "TEE-CBLUE", items[0].(map[string]any)["variantSku"])
	require.Equal(t, "Rabat", data["shippingAddress"].(map[string]any)["city"])
}

func TestGetByNumberErrors(t *testing.T) {
	h := router(newMemQueries())
	rec, _ := do(t, h, http.MethodGet, "/orders/12345", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/orders/ORD-1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListFiltersByStatus(t *testing.T) {
	h := router(newMemQueries())
	rec, body := do(t, h, http.MethodGet, "/admin/orders?status=pending", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	require.Len(t, body["data"].([]any), 1)

	rec, body = do(t, h, http.MethodGet, "/admin/orders?status=shipped", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, body["data"])

	rec, _ = do(t, h, http.MethodGet, "/admin/orders?status=lost", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminGetIncludesInternalNotes(t *testing.T) {
	h := router(newMemQueries())
	rec, body := do(t, h, http.MethodGet, "/admin/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "call first", body["data"].(map[string]any)["internalNotes"])

	rec, _ = do(t, h, http.MethodGet, "/admin/orders/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminPatchShipsOrder(t *testing.T) {
	q := newMemQueries()
	h := router(q)
	rec, body := do(t, h, http.MethodPatch, "/admin/orders/"+orderID, `{"status":"shipped","trackingNumber":"TRK-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]any)
	require.Equal(t, "shipped", data["status"])
	require.Equal(t, "shipped", data["fulfillmentStatus"])
	require.Equal(t, "TRK-1", data["trackingNumber"])
	require.Len(t, q.updates, 1)
}

func TestAdminPatchRejectsBackwardsMove(t *testing.T) {
	q := newMemQueries()
	o := q.orders[orderID]
	o.Status = store.OrderDelivered
	q.orders[orderID] = o
	h := router(q)

	rec, body := do(t, h, http.MethodPatch, "/admin/orders/"+orderID, `{"status":"preparing"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "INVALID_STATE", body["error"].(map[string]any)["code"])

	rec, _ = do(t, h, http.MethodPatch, "/admin/orders/"+orderID, `{"status":"cancelled"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, q.updates)
}

func TestAdminPatchValidation(t *testing.T) {
	h := router(newMemQueries())
	rec, _ := do(t, h, http.MethodPatch, "/admin/orders/"+orderID, `{"paymentStatus":"refunded"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec, _ = do(t, h, http.MethodPatch, "/admin/orders/"+orderID, `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCanTransition(t *testing.T) {
	require.True(t, canTransition(store.OrderPending, store.OrderConfirmed))
	require.True(t, canTransition(store.OrderPending, store.OrderShipped))
	require.True(t, canTransition(store.OrderShipped, store.OrderCancelled))
	require.True(t, canTransition(store.OrderShipped, store.OrderShipped))
	require.False(t, canTransition(store.OrderShipped, store.OrderConfirmed))
	require.False(t, canTransition(store.OrderCancelled, store.OrderPending))
	require.False(t, canTransition(store.OrderDelivered, store.OrderCancelled))
	require.False(t, canTransition(store.OrderPending, "lost"))
}
