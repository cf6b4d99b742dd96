package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/store"
)

// Worker turns queued tasks into merchant notifications.
type Worker struct {
	Store Store
	// LowStockLevel applies to products without their own reorder level.
	LowStockLevel int
	Now           func() time.Time
	Log           zerolog.Logger
}

// Register mounts the task handlers on mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeOrderPlaced, w.HandleOrderPlaced)
	mux.HandleFunc(TypeCartPurge, w.HandleCartPurge)
}

// HandleOrderPlaced records a new_order notification and a low_stock
// notification for every ordered product at or below its reorder level.
// Re-running the task is harmless; duplicates are dropped by the store.
func (w *Worker) HandleOrderPlaced(ctx context.Context, t *asynq.Task) error {
	var p OrderPlaced
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", TypeOrderPlaced, err, asynq.SkipRetry)
	}
	order, err := w.Store.GetOrder(ctx, p.OrderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("order %s not found: %w", p.OrderID, asynq.SkipRetry)
		}
		return err
	}

	orderID := order.ID
	if err := w.create(ctx, store.Notification{
		Type:    store.NotificationNewOrder,
		Title:   "New order " + order.OrderNumber,
		Message: fmt.Sprintf("%s placed an order of %s.", customerName(order), pricing.FormatPrice(order.Total, order.Currency)),
		OrderID: &orderID,
	}); err != nil {
		return err
	}

	items, err := w.Store.ListOrderItems(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("list order items: %w", err)
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		if _, dup := seen[*it.ProductID]; dup {
			continue
		}
		seen[*it.ProductID] = struct{}{}
		product, err := w.Store.GetProductByID(ctx, *it.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return fmt.Errorf("load product: %w", err)
		}
		level := w.LowStockLevel
		if product.ReorderLevel != nil {
			level = *product.ReorderLevel
		}
		if product.StockQuantity > level {
			continue
		}
		productID := product.ID
		if err := w.create(ctx, store.Notification{
			Type:      store.NotificationLowStock,
			Title:     "Low stock: " + product.Title,
			Message:   fmt.Sprintf("%s has %d left in stock (reorder level %d).", product.Title, product.StockQuantity, level),
			OrderID:   &orderID,
			ProductID: &productID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) create(ctx context.Context, n store.Notification) error {
	n.ID = uuid.NewString()
	inserted, err := w.Store.CreateNotification(ctx, n)
	if err != nil {
		return fmt.Errorf("create %s notification: %w", n.Type, err)
	}
	if inserted {
		if obs.NotificationsCreatedTotal != nil {
			obs.NotificationsCreatedTotal.WithLabelValues(n.Type).Inc()
		}
		w.Log.Info().Str("type", n.Type).Str("title", n.Title).Msg("notification created")
	}
	return nil
}

// HandleCartPurge deletes carts whose expiry has passed.
func (w *Worker) HandleCartPurge(ctx context.Context, _ *asynq.Task) error {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	n, err := w.Store.DeleteExpiredCarts(ctx, now())
	if err != nil {
		return fmt.Errorf("purge carts: %w", err)
	}
	if n > 0 {
		w.Log.Info().Int64("deleted", n).Msg("expired carts purged")
	}
	return nil
}

func customerName(o store.Order) string {
	var info struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if len(o.CustomerInfo) > 0 && json.Unmarshal(o.CustomerInfo, &info) == nil {
		if info.FullName != "" {
			return info.FullName
		}
		if info.Email != "" {
			return info.Email
		}
	}
	return "A customer"
}
