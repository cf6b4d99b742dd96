package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values.
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderPreparing = "preparing"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// Payment status values.
const (
	PaymentPending      = "pending"
	PaymentCODConfirmed = "cod-confirmed"
	PaymentPaid         = "paid"
	PaymentFailed       = "failed"
)

// Fulfillment status values.
const (
	FulfillmentPending    = "pending"
	FulfillmentProcessing = "processing"
	FulfillmentShipped    = "shipped"
	FulfillmentDelivered  = "delivered"
	FulfillmentCancelled  = "cancelled"
)

// Notification types.
const (
	NotificationNewOrder = "new_order"
	NotificationLowStock = "low_stock"
)

// StoreSettings is a row of the stores table.
type StoreSettings struct {
	ID               string
	StoreName        string
	Currency         string
	ShippingCost     decimal.Decimal
	TaxRate          decimal.Decimal
	CheckoutSettings []byte
	IsCartEnabled    bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Product is a catalog entry. Variants holds the raw JSONB configuration.
type Product struct {
	ID            string
	Title         string
	Slug          string
	Description   string
	SKU           string
	Price         decimal.Decimal
	OldPrice      decimal.NullDecimal
	StockQuantity int
	ReorderLevel  *int
	IsActive      bool
	FeaturedImage *string
	Variants      []byte
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Cart is an anonymous shopping cart.
type Cart struct {
	ID        string
	AnonID    string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// CartItem is a cart line with its frozen unit price.
type CartItem struct {
	ID               string
	CartID           string
	ProductID        string
	ProductName      string
	Quantity         int
	UnitPrice        decimal.Decimal
	SelectedVariants []byte
	SelectionKey     string
	VariantSKU       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Customer aggregates a shopper's order history.
type Customer struct {
	ID            string
	Email         string
	FullName      string
	Phone         string
	Status        string
	TotalOrders   int
	TotalSpent    decimal.Decimal
	LastOrderDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Order is a placed order with its computed summary.
type Order struct {
	ID                string
	OrderNumber       string
	CustomerID        *string
	CustomerInfo      []byte
	ShippingAddress   []byte
	Currency          string
	Subtotal          decimal.Decimal
	Shipping          decimal.Decimal
	Tax               decimal.Decimal
	Total             decimal.Decimal
	Status            string
	PaymentStatus     string
	FulfillmentStatus string
	PaymentMethod     string
	Notes             string
	InternalNotes     string
	TrackingNumber    string
	EstimatedDelivery *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem is a line of a placed order.
type OrderItem struct {
	ID               string
	OrderID          string
	ProductID        *string
	ProductName      string
	Quantity         int
	Price            decimal.Decimal
	SelectedVariants []byte
	VariantSKU       string
	CreatedAt        time.Time
}

// Notification is a merchant-facing alert.
type Notification struct {
	ID        string
	Type      string
	Title     string
	Message   string
	OrderID   *string
	ProductID *string
	IsRead    bool
	CreatedAt time.Time
}
