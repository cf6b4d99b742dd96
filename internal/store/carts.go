package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const cartItemColumns = `id, cart_id, product_id, product_name, quantity, unit_price,
	selected_variants, selection_key, variant_sku, created_at, updated_at`

func scanCartItem(row pgx.Row) (CartItem, error) {
	var it CartItem
	err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice,
		&it.SelectedVariants, &it.SelectionKey, &it.VariantSKU, &it.CreatedAt, &it.UpdatedAt)
	return it, mapErr(err)
}

// CreateCart inserts a cart.
func (q *Queries) CreateCart(ctx context.Context, c Cart) (Cart, error) {
	err := q.db.QueryRow(ctx, `INSERT INTO carts (id, anon_id, expires_at) VALUES ($1, $2, $3)
RETURNING id, anon_id, created_at, updated_at, expires_at`, c.ID, c.AnonID, c.ExpiresAt).
		Scan(&c.ID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, mapErr(err)
}

// GetCart loads a cart by id.
func (q *Queries) GetCart(ctx context.Context, id string) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, `SELECT id, anon_id, created_at, updated_at, expires_at FROM carts WHERE id = $1`, id).
		Scan(&c.ID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, mapErr(err)
}

// GetActiveCartByAnonID returns the most recent unexpired cart for an anonymous shopper.
func (q *Queries) GetActiveCartByAnonID(ctx context.Context, anonID string, now time.Time) (Cart, error) {
	var c Cart
	err := q.db.QueryRow(ctx, `SELECT id, anon_id, created_at, updated_at, expires_at FROM carts
WHERE anon_id = $1 AND expires_at > $2 ORDER BY updated_at DESC LIMIT 1`, anonID, now).
		Scan(&c.ID, &c.AnonID, &c.CreatedAt, &c.UpdatedAt, &c.ExpiresAt)
	return c, mapErr(err)
}

// TouchCart pushes a cart's expiry forward.
func (q *Queries) TouchCart(ctx context.Context, id string, expiresAt time.Time) error {
	tag, err := q.db.Exec(ctx, `UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, id, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredCarts removes carts that expired before cutoff along with their items.
func (q *Queries) DeleteExpiredCarts(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM carts WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListCartItems returns the lines of a cart in insertion order.
func (q *Queries) ListCartItems(ctx context.Context, cartID string) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, `SELECT `+cartItemColumns+` FROM cart_items WHERE cart_id = $1 ORDER BY created_at, id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CartItem
	for rows.Next() {
		it, err := scanCartItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// AddCartItem inserts a line, or increments the quantity of the line holding the
// same product and selection. The merged line keeps its original frozen price.
func (q *Queries) AddCartItem(ctx context.Context, it CartItem) (CartItem, error) {
	if len(it.SelectedVariants) == 0 {
		it.SelectedVariants = []byte("{}")
	}
	return scanCartItem(q.db.QueryRow(ctx, `INSERT INTO cart_items
	(id, cart_id, product_id, product_name, quantity, unit_price, selected_variants, selection_key, variant_sku)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (cart_id, product_id, selection_key) DO UPDATE SET
	quantity = cart_items.quantity + EXCLUDED.quantity,
	updated_at = now()
RETURNING `+cartItemColumns,
		it.ID, it.CartID, it.ProductID, it.ProductName, it.Quantity, it.UnitPrice,
		it.SelectedVariants, it.SelectionKey, it.VariantSKU))
}

// UpdateCartItemQty sets the quantity of a line.
func (q *Queries) UpdateCartItemQty(ctx context.Context, cartID, itemID string, qty int) (CartItem, error) {
	return scanCartItem(q.db.QueryRow(ctx, `UPDATE cart_items SET quantity = $3, updated_at = now()
WHERE cart_id = $1 AND id = $2 RETURNING `+cartItemColumns, cartID, itemID, qty))
}

// DeleteCartItem removes a line.
func (q *Queries) DeleteCartItem(ctx context.Context, cartID, itemID string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCart removes every line of a cart.
func (q *Queries) ClearCart(ctx context.Context, cartID string) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
