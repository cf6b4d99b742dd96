package notify

import (
	"context"
	"time"

	"github.com/noah-isme/toko-storefront/internal/store"
)

// Store defines the persistence operations notifications need.
type Store interface {
	GetOrder(ctx context.Context, id string) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]store.OrderItem, error)
	GetProductByID(ctx context.Context, id string) (store.Product, error)
	CreateNotification(ctx context.Context, n store.Notification) (bool, error)
	ListNotifications(ctx context.Context, unreadOnly bool, limit, offset int) ([]store.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int64, error)
	MarkNotificationRead(ctx context.Context, id string) (store.Notification, error)
	DeleteExpiredCarts(ctx context.Context, cutoff time.Time) (int64, error)
}

var _ Store = (*store.Queries)(nil)
