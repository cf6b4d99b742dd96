package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/lock"
	"github.com/noah-isme/toko-storefront/internal/notify"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/store"
)

var (
	// ErrCartNotFound is returned when the cart is missing or expired.
	ErrCartNotFound = errors.New("cart not found")
	// ErrEmptyCart is returned when the cart has no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInProgress is returned while another checkout holds the same cart.
	ErrInProgress = errors.New("checkout already in progress for this cart")
)

const orderNumberAttempts = 5

// TxQueries are the queries checkout runs inside its transaction.
type TxQueries interface {
	GetCart(ctx context.Context, id string) (store.Cart, error)
	ListCartItems(ctx context.Context, cartID string) ([]store.CartItem, error)
	RecordCustomerOrder(ctx context.Context, arg store.RecordCustomerOrderParams) (store.Customer, error)
	CreateOrder(ctx context.Context, o store.Order) (store.Order, error)
	CreateOrderItem(ctx context.Context, it store.OrderItem) (store.OrderItem, error)
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
	ClearCart(ctx context.Context, cartID string) error
}

// Runner executes fn in a database transaction.
type Runner interface {
	InTx(ctx context.Context, fn func(TxQueries) error) error
}

// StoreRunner adapts store.Store to Runner.
type StoreRunner struct {
	Store *store.Store
}

// InTx implements Runner.
func (r StoreRunner) InTx(ctx context.Context, fn func(TxQueries) error) error {
	return r.Store.InTx(ctx, func(q *store.Queries) error { return fn(q) })
}

// Notifier is told about placed orders after commit.
type Notifier interface {
	OrderPlaced(ctx context.Context, p notify.OrderPlaced) error
}

// Locker serialises checkouts of the same cart.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Customer identifies the buyer.
type Customer struct {
	FullName string `json:"fullName" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

// Address is the delivery address.
type Address struct {
	Line1      string `json:"line1" validate:"required,max=200"`
	Line2      string `json:"line2,omitempty" validate:"max=200"`
	City       string `json:"city" validate:"required,max=100"`
	Region     string `json:"region,omitempty" validate:"max=100"`
	PostalCode string `json:"postalCode,omitempty" validate:"max=20"`
	Country    string `json:"country,omitempty" validate:"omitempty,iso3166_1_alpha2"`
}

// Input is the checkout payload.
type Input struct {
	CartID          string   `json:"cartId" validate:"required,uuid"`
	Customer        Customer `json:"customer" validate:"required"`
	ShippingAddress Address  `json:"shippingAddress" validate:"required"`
	Notes           string   `json:"notes,omitempty" validate:"max=1000"`
	PaymentMethod   string   `json:"paymentMethod,omitempty" validate:"omitempty,oneof=cod"`
}

// Confirmation is returned once an order is placed.
type Confirmation struct {
	OrderID           string               `json:"orderId"`
	OrderNumber       string               `json:"orderNumber"`
	Status            string               `json:"status"`
	PaymentStatus     string               `json:"paymentStatus"`
	FulfillmentStatus string               `json:"fulfillmentStatus"`
	Items             []cart.Line          `json:"items"`
	Summary           pricing.Summary      `json:"summary"`
	Formatted         cart.FormattedTotals `json:"formatted"`
	EstimatedDelivery *time.Time           `json:"estimatedDelivery,omitempty"`
}

// Service places orders from carts.
type Service struct {
	Runner   Runner
	Settings cart.SettingsSource
	Notifier Notifier
	Locker   Locker
	// DeliveryLeadTime is added to the order time for the delivery estimate.
	DeliveryLeadTime time.Duration
	Now              func() time.Time
	Log              zerolog.Logger
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Place converts a cart into an order. Customer, order, order items, stock and
// cart clearing commit together; the order:placed task is queued afterwards.
func (s *Service) Place(ctx context.Context, in Input) (out Confirmation, err error) {
	defer func() { obs.CountOutcome(obs.OrdersPlacedTotal, err) }()
	if s == nil || s.Runner == nil {
		return Confirmation{}, errors.New("checkout service not configured")
	}
	in.Customer.Email = strings.ToLower(strings.TrimSpace(in.Customer.Email))
	in.Customer.FullName = strings.TrimSpace(in.Customer.FullName)
	if err := common.Validate(&in); err != nil {
		return Confirmation{}, err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = "cod"
	}

	var st *pricing.StoreSettings
	if s.Settings != nil {
		current, err := s.Settings.Get(ctx)
		if err != nil {
			return Confirmation{}, fmt.Errorf("load store settings: %w", err)
		}
		if !current.IsCartEnabled {
			return Confirmation{}, cart.ErrDisabled
		}
		st = current.Pricing()
	}

	place := func(ctx context.Context) error {
		return s.Runner.InTx(ctx, func(q TxQueries) error {
			var err error
			out, err = s.placeTx(ctx, q, in, st)
			return err
		})
	}
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, in.CartID, place)
		if errors.Is(err, lock.ErrBusy) {
			err = ErrInProgress
		}
	} else {
		err = place(ctx)
	}
	if err != nil {
		return Confirmation{}, err
	}

	if obs.OrderValue != nil {
		total, _ := out.Summary.Total.Float64()
		obs.OrderValue.WithLabelValues(out.Summary.Currency).Observe(total)
	}
	s.Log.Info().Str("order_number", out.OrderNumber).Str("cart_id", in.CartID).
		Str("total", out.Summary.Total.StringFixed(2)).Int("items", out.Summary.ItemCount).Msg("order placed")

	if s.Notifier != nil {
		if err := s.Notifier.OrderPlaced(ctx, notify.OrderPlaced{OrderID: out.OrderID, OrderNumber: out.OrderNumber}); err != nil {
			// the order stands; merchants still see it in the admin list
			s.Log.Warn().Err(err).Str("order_number", out.OrderNumber).Msg("queue order notification")
		}
	}
	return out, nil
}

func (s *Service) placeTx(ctx context.Context, q TxQueries, in Input, st *pricing.StoreSettings) (Confirmation, error) {
	now := s.now()
	c, err := q.GetCart(ctx, in.CartID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Confirmation{}, ErrCartNotFound
		}
		return Confirmation{}, fmt.Errorf("load cart: %w", err)
	}
	if !c.ExpiresAt.After(now) {
		return Confirmation{}, ErrCartNotFound
	}
	rows, err := q.ListCartItems(ctx, c.ID)
	if err != nil {
		return Confirmation{}, fmt.Errorf("list cart items: %w", err)
	}
	if len(rows) == 0 {
		return Confirmation{}, ErrEmptyCart
	}
	lines, items, err := cart.BuildLines(rows)
	if err != nil {
		return Confirmation{}, err
	}
	sum := settle(pricing.CalculateCartSummary(items, st))
	if sum.Currency == "" {
		sum.Currency = pricing.DefaultCurrency
	}

	customer, err := q.RecordCustomerOrder(ctx, store.RecordCustomerOrderParams{
		ID:         uuid.NewString(),
		Email:      in.Customer.Email,
		FullName:   in.Customer.FullName,
		Phone:      strings.TrimSpace(in.Customer.Phone),
		OrderTotal: sum.Total,
		OrderedAt:  now,
	})
	if err != nil {
		return Confirmation{}, fmt.Errorf("record customer: %w", err)
	}

	customerInfo, err := json.Marshal(in.Customer)
	if err != nil {
		return Confirmation{}, err
	}
	address, err := json.Marshal(in.ShippingAddress)
	if err != nil {
		return Confirmation{}, err
	}
	var estimated *time.Time
	if s.DeliveryLeadTime > 0 {
		eta := now.Add(s.DeliveryLeadTime)
		estimated = &eta
	}
	customerID := customer.ID
	draft := store.Order{
		ID:                uuid.NewString(),
		CustomerID:        &customerID,
		CustomerInfo:      customerInfo,
		ShippingAddress:   address,
		Currency:          sum.Currency,
		Subtotal:          sum.Subtotal,
		Shipping:          sum.Shipping,
		Tax:               sum.Tax,
		Total:             sum.Total,
		Status:            store.OrderPending,
		PaymentStatus:     store.PaymentPending,
		FulfillmentStatus: store.FulfillmentPending,
		PaymentMethod:     in.PaymentMethod,
		Notes:             strings.TrimSpace(in.Notes),
		EstimatedDelivery: estimated,
	}
	order, err := createOrder(ctx, q, draft, now)
	if err != nil {
		return Confirmation{}, err
	}

	for _, row := range rows {
		productID := row.ProductID
		if _, err := q.CreateOrderItem(ctx, store.OrderItem{
			ID:               uuid.NewString(),
			OrderID:          order.ID,
			ProductID:        &productID,
			ProductName:      row.ProductName,
			Quantity:         row.Quantity,
			Price:            row.UnitPrice,
			SelectedVariants: row.SelectedVariants,
			VariantSKU:       row.VariantSKU,
		}); err != nil {
			return Confirmation{}, fmt.Errorf("create order item: %w", err)
		}
		left, err := q.DecrementStock(ctx, row.ProductID, row.Quantity)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.Log.Warn().Str("product_id", row.ProductID).Msg("ordered product no longer exists")
				continue
			}
			return Confirmation{}, fmt.Errorf("decrement stock: %w", err)
		}
		if left < 0 {
			s.Log.Warn().Str("product_id", row.ProductID).Int("stock", left).Msg("product oversold")
		}
	}
	if err := q.ClearCart(ctx, c.ID); err != nil {
		return Confirmation{}, fmt.Errorf("clear cart: %w", err)
	}

	return Confirmation{
		OrderID:           order.ID,
		OrderNumber:       order.OrderNumber,
		Status:            order.Status,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		Items:             lines,
		Summary:           sum,
		Formatted:         cart.FormatSummary(sum),
		EstimatedDelivery: order.EstimatedDelivery,
	}, nil
}

// createOrder assigns ORD-<unix millis>, stepping forward a millisecond when
// the number is already taken.
func createOrder(ctx context.Context, q TxQueries, o store.Order, now time.Time) (store.Order, error) {
	millis := now.UnixMilli()
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		o.OrderNumber = fmt.Sprintf("ORD-%d", millis+int64(attempt))
		created, err := q.CreateOrder(ctx, o)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return store.Order{}, fmt.Errorf("create order: %w", err)
		}
	}
	return store.Order{}, fmt.Errorf("create order: no free order number after %d attempts: %w", orderNumberAttempts, store.ErrConflict)
}

// settle rounds the summary to cents for storage; the total is re-added from
// the rounded parts so it always equals subtotal + shipping + tax.
func settle(sum pricing.Summary) pricing.Summary {
	sum.Subtotal = sum.Subtotal.Round(2)
	sum.Shipping = sum.Shipping.Round(2)
	sum.Tax = sum.Tax.Round(2)
	sum.Total = sum.Subtotal.Add(sum.Shipping).Add(sum.Tax)
	if sum.Total.IsNegative() {
		sum.Total = decimal.Zero
	}
	return sum
}
