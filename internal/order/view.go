package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/store"
	"github.com/noah-isme/toko-storefront/internal/variant"
)

type queries interface {
	GetOrder(ctx context.Context, id string) (store.Order, error)
	GetOrderByNumber(ctx context.Context, number string) (store.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]store.OrderItem, error)
	ListOrders(ctx context.Context, arg store.ListOrdersParams) ([]store.Order, error)
	CountOrders(ctx context.Context, arg store.ListOrdersParams) (int64, error)
	UpdateOrderStatus(ctx context.Context, arg store.UpdateOrderStatusParams) (store.Order, error)
}

// Item is an order line as rendered to clients.
type Item struct {
	ProductID        *string           `json:"productId,omitempty"`
	ProductName      string            `json:"productName"`
	Quantity         int               `json:"quantity"`
	Price            decimal.Decimal   `json:"price"`
	LineTotal        decimal.Decimal   `json:"lineTotal"`
	SelectedVariants variant.Selection `json:"selectedVariants"`
	VariantSKU       string            `json:"variantSku,omitempty"`
}

// View is the order payload shared by the admin and confirmation endpoints.
type View struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"orderNumber"`
	CustomerID        *string         `json:"customerId,omitempty"`
	Customer          json.RawMessage `json:"customer,omitempty"`
	ShippingAddress   json.RawMessage `json:"shippingAddress,omitempty"`
	Currency          string          `json:"currency"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	Shipping          decimal.Decimal `json:"shipping"`
	Tax               decimal.Decimal `json:"tax"`
	Total             decimal.Decimal `json:"total"`
	TotalFormatted    string          `json:"totalFormatted"`
	Status            string          `json:"status"`
	PaymentStatus     string          `json:"paymentStatus"`
	FulfillmentStatus string          `json:"fulfillmentStatus"`
	PaymentMethod     string          `json:"paymentMethod"`
	Notes             string          `json:"notes,omitempty"`
	InternalNotes     string          `json:"internalNotes,omitempty"`
	TrackingNumber    string          `json:"trackingNumber,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	Items             []Item          `json:"items,omitempty"`
}

func toView(o store.Order, items []store.OrderItem) View {
	v := View{
		ID:                o.ID,
		OrderNumber:       o.OrderNumber,
		CustomerID:        o.CustomerID,
		Customer:          rawJSON(o.CustomerInfo),
		ShippingAddress:   rawJSON(o.ShippingAddress),
		Currency:          o.Currency,
		Subtotal:          o.Subtotal,
		Shipping:          o.Shipping,
		Tax:               o.Tax,
		Total:             o.Total,
		TotalFormatted:    pricing.FormatPrice(o.Total, o.Currency),
		Status:            o.Status,
		PaymentStatus:     o.PaymentStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		PaymentMethod:     o.PaymentMethod,
		Notes:             o.Notes,
		InternalNotes:     o.InternalNotes,
		TrackingNumber:    o.TrackingNumber,
		EstimatedDelivery: o.EstimatedDelivery,
		CreatedAt:         o.CreatedAt,
	}
	for _, it := range items {
		sel, err := variant.ParseSelection(it.SelectedVariants)
		if err != nil {
			sel = variant.Selection{}
		}
		v.Items = append(v.Items, Item{
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			Price:            it.Price,
			LineTotal:        pricing.LineTotal(it.Price, it.Quantity),
			SelectedVariants: sel,
			VariantSKU:       it.VariantSKU,
		})
	}
	return v
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 || !json.Valid(b) {
		return nil
	}
	return json.RawMessage(b)
}
