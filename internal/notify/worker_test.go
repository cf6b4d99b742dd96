package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/store"
)

type fakeStore struct {
	orders        map[string]store.Order
	items         map[string][]store.OrderItem
	products      map[string]store.Product
	notifications []store.Notification
	purgedBefore  time.Time
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (store.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return store.Order{}, store.ErrNotFound
	}
	return o, nil
}

func (f *fakeStore) ListOrderItems(_ context.Context, orderID string) ([]store.OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeStore) GetProductByID(_ context.Context, id string) (store.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return store.Product{}, store.ErrNotFound
	}
	return p, nil
}

// mirrors the unique index on (type, order_id, product_id)
func (f *fakeStore) CreateNotification(_ context.Context, n store.Notification) (bool, error) {
	for _, existing := range f.notifications {
		if existing.Type == n.Type && deref(existing.OrderID) == deref(n.OrderID) && deref(existing.ProductID) == deref(n.ProductID) {
			return false, nil
		}
	}
	f.notifications = append(f.notifications, n)
	return true, nil
}

func (f *fakeStore) ListNotifications(_ context.Context, unreadOnly bool, limit, offset int) ([]store.Notification, error) {
	var out []store.Notification
	for _, n := range f.notifications {
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeStore) CountUnreadNotifications(context.Context) (int64, error) {
	var n int64
	for _, it := range f.notifications {
		if !it.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, id string) (store.Notification, error) {
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			f.notifications[i].IsRead = true
			return f.notifications[i], nil
		}
	}
	return store.Notification{}, store.ErrNotFound
}

func (f *fakeStore) DeleteExpiredCarts(_ context.Context, cutoff time.Time) (int64, error) {
	f.purgedBefore = cutoff
	return 3, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ptr[T any](v T) *T { return &v }

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders: map[string]store.Order{
			"o1": {
				ID:           "o1",
				OrderNumber:  "ORD-1700000000000",
				CustomerInfo: []byte(`{"fullName":"Sara","email":"sara@example.com"}`),
				Currency:     "MAD",
				Total:        decimal.RequireFromString("74.5"),
			},
		},
		items: map[string][]store.OrderItem{
			"o1": {
				{ProductID: ptr("p-low"), Quantity: 2},
				{ProductID: ptr("p-low"), Quantity: 1},
				{ProductID: ptr("p-ok"), Quantity: 1},
				{ProductID: ptr("p-custom"), Quantity: 1},
				{ProductID: nil, Quantity: 1},
				{ProductID: ptr("p-gone"), Quantity: 1},
			},
		},
		products: map[string]store.Product{
			"p-low":    {ID: "p-low", Title: "Kaos", StockQuantity: 3},
			"p-ok":     {ID: "p-ok", Title: "Topi", StockQuantity: 40},
			"p-custom": {ID: "p-custom", Title: "Tas", StockQuantity: 9, ReorderLevel: ptr(10)},
		},
	}
}

func orderPlacedTask(t *testing.T, orderID string) *asynq.Task {
	t.Helper()
	task, err := NewOrderPlacedTask(OrderPlaced{OrderID: orderID, OrderNumber: "ORD-1700000000000"})
	require.NoError(t, err)
	return task
}

func TestHandleOrderPlacedCreatesNotifications(t *testing.T) {
	fs := newFakeStore()
	w := &Worker{Store: fs, LowStockLevel: 5, Log: zerolog.Nop()}

	require.NoError(t, w.HandleOrderPlaced(context.Background(), orderPlacedTask(t, "o1")))
	require.Len(t, fs.notifications, 3)
	require.Equal(t, store.NotificationNewOrder, fs.notifications[0].Type)
	require.Equal(t, "New order ORD-1700000000000", fs.notifications[0].Title)
	require.Equal(t, "Sara placed an order of 74.50 DH.", fs.notifications[0].Message)

	var lowStock []string
	for _, n := range fs.notifications[1:] {
		require.Equal(t, store.NotificationLowStock, n.Type)
		lowStock = append(lowStock, *n.ProductID)
	}
	require.ElementsMatch(t, []string{"p-low", "p-custom"}, lowStock)

	// redelivery of the same task is absorbed by the dedupe index
	require.NoError(t, w.HandleOrderPlaced(context.Background(), orderPlacedTask(t, "o1")))
	require.Len(t, fs.notifications, 3)
}

func TestHandleOrderPlacedSkipsRetryForBadInput(t *testing.T) {
	w := &Worker{Store: newFakeStore(), Log: zerolog.Nop()}

	err := w.HandleOrderPlaced(context.Background(), asynq.NewTask(TypeOrderPlaced, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	err = w.HandleOrderPlaced(context.Background(), orderPlacedTask(t, "missing"))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleCartPurge(t *testing.T) {
	fs := newFakeStore()
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	w := &Worker{Store: fs, Now: func() time.Time { return now }, Log: zerolog.Nop()}

	require.NoError(t, w.HandleCartPurge(context.Background(), NewCartPurgeTask()))
	require.Equal(t, now, fs.purgedBefore)
}

type fakeClient struct {
	tasks []*asynq.Task
	err   error
}

func (c *fakeClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{ID: "order-placed:o1", Queue: QueueName}, nil
}

func TestEnqueuerOrderPlaced(t *testing.T) {
	client := &fakeClient{}
	e := &Enqueuer{Client: client, Log: zerolog.Nop()}

	require.NoError(t, e.OrderPlaced(context.Background(), OrderPlaced{OrderID: "o1", OrderNumber: "ORD-1"}))
	require.Len(t, client.tasks, 1)
	require.Equal(t, TypeOrderPlaced, client.tasks[0].Type())

	var p OrderPlaced
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &p))
	require.Equal(t, "ORD-1", p.OrderNumber)

	require.Error(t, e.OrderPlaced(context.Background(), OrderPlaced{}))

	client.err = asynq.ErrTaskIDConflict
	require.NoError(t, e.OrderPlaced(context.Background(), OrderPlaced{OrderID: "o1"}))

	client.err = errors.New("redis down")
	require.ErrorContains(t, e.OrderPlaced(context.Background(), OrderPlaced{OrderID: "o1"}), "redis down")

	var disabled *Enqueuer
	require.NoError(t, disabled.OrderPlaced(context.Background(), OrderPlaced{OrderID: "o1"}))
}

func TestAdminHandlers(t *testing.T) {
	fs := newFakeStore()
	fs.notifications = []store.Notification{
		{ID: "6f1c1a6e-0d9b-4c38-9a53-2d7c5f1b9a01", Type: store.NotificationNewOrder, Title: "New order", OrderID: ptr("o1")},
		{ID: "6f1c1a6e-0d9b-4c38-9a53-2d7c5f1b9a02", Type: store.NotificationLowStock, Title: "Low stock", IsRead: true},
	}
	h := &AdminHandler{Store: fs}

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/notifications?unread=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data        []map[string]any `json:"data"`
		UnreadCount int              `json:"unreadCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "o1", resp.Data[0]["orderId"])
	require.Equal(t, 1, resp.UnreadCount)

	markRead := func(id string) *httptest.ResponseRecorder {
		routeCtx := chi.NewRouteContext()
		routeCtx.URLParams.Add("id", id)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/notifications/"+id+"/read", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
		rec := httptest.NewRecorder()
		h.MarkRead(rec, req)
		return rec
	}
	require.Equal(t, http.StatusOK, markRead("6f1c1a6e-0d9b-4c38-9a53-2d7c5f1b9a01").Code)
	require.True(t, fs.notifications[0].IsRead)
	require.Equal(t, http.StatusNotFound, markRead("6f1c1a6e-0d9b-4c38-9a53-2d7c5f1b9a09").Code)
	require.Equal(t, http.StatusBadRequest, markRead("nope").Code)
}
