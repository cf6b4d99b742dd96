package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const orderColumns = `id, order_number, customer_id, customer_info, shipping_address, currency,
	subtotal, shipping, tax, total, status, payment_status, fulfillment_status, payment_method,
	notes, internal_notes, tracking_number, estimated_delivery, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, quantity, price,
	selected_variants, variant_sku, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.CustomerInfo, &o.ShippingAddress, &o.Currency,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.Status, &o.PaymentStatus, &o.FulfillmentStatus,
		&o.PaymentMethod, &o.Notes, &o.InternalNotes, &o.TrackingNumber, &o.EstimatedDelivery,
		&o.CreatedAt, &o.UpdatedAt)
	return o, mapErr(err)
}

func scanOrderItem(row pgx.Row) (OrderItem, error) {
	var it OrderItem
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price,
		&it.SelectedVariants, &it.VariantSKU, &it.CreatedAt)
	return it, mapErr(err)
}

// CreateOrder inserts an order. It returns ErrConflict without aborting the
// surrounding transaction when the order number is already taken.
func (q *Queries) CreateOrder(ctx context.Context, o Order) (Order, error) {
	created, err := scanOrder(q.db.QueryRow(ctx, `INSERT INTO orders
	(id, order_number, customer_id, customer_info, shipping_address, currency, subtotal, shipping, tax, total,
	 status, payment_status, fulfillment_status, payment_method, notes, estimated_delivery)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (order_number) DO NOTHING
RETURNING `+orderColumns,
		o.ID, o.OrderNumber, o.CustomerID, o.CustomerInfo, o.ShippingAddress, o.Currency,
		o.Subtotal, o.Shipping, o.Tax, o.Total, o.Status, o.PaymentStatus, o.FulfillmentStatus,
		o.PaymentMethod, o.Notes, o.EstimatedDelivery))
	if errors.Is(err, ErrNotFound) {
		return Order{}, ErrConflict
	}
	return created, err
}

// CreateOrderItem inserts an order line.
func (q *Queries) CreateOrderItem(ctx context.Context, it OrderItem) (OrderItem, error) {
	if len(it.SelectedVariants) == 0 {
		it.SelectedVariants = []byte("{}")
	}
	return scanOrderItem(q.db.QueryRow(ctx, `INSERT INTO order_items
	(id, order_id, product_id, product_name, quantity, price, selected_variants, variant_sku)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+orderItemColumns,
		it.ID, it.OrderID, it.ProductID, it.ProductName, it.Quantity, it.Price, it.SelectedVariants, it.VariantSKU))
}

// GetOrder loads an order by id.
func (q *Queries) GetOrder(ctx context.Context, id string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
}

// GetOrderByNumber loads an order by its public number.
func (q *Queries) GetOrderByNumber(ctx context.Context, number string) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, number))
}

// ListOrderItems returns the lines of an order.
func (q *Queries) ListOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `SELECT `+orderItemColumns+` FROM order_items WHERE order_id = $1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []OrderItem
	for rows.Next() {
		it, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ListOrdersParams filters the admin order listing. Empty fields match everything.
type ListOrdersParams struct {
	Status     string
	CustomerID string
	Limit      int
	Offset     int
}

// ListOrders returns orders newest first.
func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, `SELECT `+orderColumns+` FROM orders
WHERE ($1 = '' OR status = $1) AND ($2 = '' OR customer_id::text = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4`, arg.Status, arg.CustomerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// CountOrders counts orders matching the filters of arg.
func (q *Queries) CountOrders(ctx context.Context, arg ListOrdersParams) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM orders
WHERE ($1 = '' OR status = $1) AND ($2 = '' OR customer_id::text = $2)`, arg.Status, arg.CustomerID).Scan(&n)
	return n, err
}

// UpdateOrderStatusParams carries the admin patch; nil fields are left unchanged.
type UpdateOrderStatusParams struct {
	ID                string
	Status            *string
	PaymentStatus     *string
	FulfillmentStatus *string
	TrackingNumber    *string
	InternalNotes     *string
}

// UpdateOrderStatus applies an admin patch.
func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) (Order, error) {
	return scanOrder(q.db.QueryRow(ctx, `UPDATE orders SET
	status = COALESCE($2, status),
	payment_status = COALESCE($3, payment_status),
	fulfillment_status = COALESCE($4, fulfillment_status),
	tracking_number = COALESCE($5, tracking_number),
	internal_notes = COALESCE($6, internal_notes),
	updated_at = now()
WHERE id = $1
RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.PaymentStatus, arg.FulfillmentStatus, arg.TrackingNumber, arg.InternalNotes))
}
