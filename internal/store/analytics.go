package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesTotals aggregates non-cancelled orders in a window.
type SalesTotals struct {
	Orders  int64
	Revenue decimal.Decimal
}

// DailySales is one day of revenue. Days without orders are omitted.
type DailySales struct {
	Day     time.Time       `json:"day"`
	Orders  int64           `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ProductSales ranks a product by revenue across order lines.
type ProductSales struct {
	ProductID   *string         `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// GetSalesTotals sums orders created in [from, to).
func (q *Queries) GetSalesTotals(ctx context.Context, from, to time.Time) (SalesTotals, error) {
	var t SalesTotals
	err := q.db.QueryRow(ctx, `SELECT count(*), COALESCE(sum(total), 0) FROM orders
WHERE created_at >= $1 AND created_at < $2 AND status <> 'cancelled'`, from, to).Scan(&t.Orders, &t.Revenue)
	return t, mapErr(err)
}

// ListDailySales groups orders in [from, to) by UTC day.
func (q *Queries) ListDailySales(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	rows, err := q.db.Query(ctx, `SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day,
	count(*), COALESCE(sum(total), 0)
FROM orders
WHERE created_at >= $1 AND created_at < $2 AND status <> 'cancelled'
GROUP BY day ORDER BY day`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailySales
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Orders, &d.Revenue); err != nil {
			return nil, err
		}
		d.Day = d.Day.UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListTopProducts ranks order lines in [from, to) by revenue.
func (q *Queries) ListTopProducts(ctx context.Context, from, to time.Time, limit int) ([]ProductSales, error) {
	rows, err := q.db.Query(ctx, `SELECT oi.product_id, min(oi.product_name), sum(oi.quantity),
	COALESCE(sum(oi.price * oi.quantity), 0) AS revenue
FROM order_items oi
JOIN orders o ON o.id = oi.order_id
WHERE o.created_at >= $1 AND o.created_at < $2 AND o.status <> 'cancelled'
GROUP BY oi.product_id
ORDER BY revenue DESC
LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ProductSales
	for rows.Next() {
		var p ProductSales
		if err := rows.Scan(&p.ProductID, &p.ProductName, &p.Quantity, &p.Revenue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
