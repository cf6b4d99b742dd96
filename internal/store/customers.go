package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const customerColumns = `id, email, full_name, phone, status, total_orders, total_spent,
	last_order_date, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Email, &c.FullName, &c.Phone, &c.Status, &c.TotalOrders, &c.TotalSpent,
		&c.LastOrderDate, &c.CreatedAt, &c.UpdatedAt)
	return c, mapErr(err)
}

// RecordCustomerOrderParams identifies the shopper and the order being credited.
type RecordCustomerOrderParams struct {
	ID         string
	Email      string
	FullName   string
	Phone      string
	OrderTotal decimal.Decimal
	OrderedAt  time.Time
}

// RecordCustomerOrder creates the customer on first order or refreshes contact
// details and bumps the order aggregates of an existing one. ID is used only
// when a new row is created.
func (q *Queries) RecordCustomerOrder(ctx context.Context, arg RecordCustomerOrderParams) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, `INSERT INTO customers
	(id, email, full_name, phone, total_orders, total_spent, last_order_date)
VALUES ($1, lower($2), $3, $4, 1, $5, $6)
ON CONFLICT (email) DO UPDATE SET
	full_name = EXCLUDED.full_name,
	phone = CASE WHEN EXCLUDED.phone = '' THEN customers.phone ELSE EXCLUDED.phone END,
	total_orders = customers.total_orders + 1,
	total_spent = customers.total_spent + EXCLUDED.total_spent,
	last_order_date = EXCLUDED.last_order_date,
	updated_at = now()
RETURNING `+customerColumns,
		arg.ID, arg.Email, arg.FullName, arg.Phone, arg.OrderTotal, arg.OrderedAt))
}

// ListCustomersParams filters the admin customer listing.
type ListCustomersParams struct {
	Search string
	Limit  int
	Offset int
}

// ListCustomers returns customers ordered by lifetime spend.
func (q *Queries) ListCustomers(ctx context.Context, arg ListCustomersParams) ([]Customer, error) {
	rows, err := q.db.Query(ctx, `SELECT `+customerColumns+` FROM customers
WHERE $1 = '' OR email ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%'
ORDER BY total_spent DESC, created_at DESC
LIMIT $2 OFFSET $3`, arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountCustomers counts customers matching search.
func (q *Queries) CountCustomers(ctx context.Context, search string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM customers
WHERE $1 = '' OR email ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%'`, search).Scan(&n)
	return n, err
}

// GetCustomer loads a customer by id.
func (q *Queries) GetCustomer(ctx context.Context, id string) (Customer, error) {
	return scanCustomer(q.db.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id))
}
