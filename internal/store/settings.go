package store

import (
	"context"

	"github.com/jackc/pgx/v5"
)

const settingsColumns = `id, store_name, currency, shipping_cost, tax_rate, checkout_settings,
	is_cart_enabled, created_at, updated_at`

func scanSettings(row pgx.Row) (StoreSettings, error) {
	var s StoreSettings
	err := row.Scan(&s.ID, &s.StoreName, &s.Currency, &s.ShippingCost, &s.TaxRate,
		&s.CheckoutSettings, &s.IsCartEnabled, &s.CreatedAt, &s.UpdatedAt)
	return s, mapErr(err)
}

// GetStoreSettings loads the store row with id, or the oldest store when id is empty.
func (q *Queries) GetStoreSettings(ctx context.Context, id string) (StoreSettings, error) {
	if id == "" {
		return scanSettings(q.db.QueryRow(ctx,
			`SELECT `+settingsColumns+` FROM stores ORDER BY created_at LIMIT 1`))
	}
	return scanSettings(q.db.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM stores WHERE id = $1`, id))
}

// UpsertStoreSettings writes a store row.
func (q *Queries) UpsertStoreSettings(ctx context.Context, s StoreSettings) (StoreSettings, error) {
	if len(s.CheckoutSettings) == 0 {
		s.CheckoutSettings = []byte("{}")
	}
	return scanSettings(q.db.QueryRow(ctx, `INSERT INTO stores
	(id, store_name, currency, shipping_cost, tax_rate, checkout_settings, is_cart_enabled)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	store_name = EXCLUDED.store_name,
	currency = EXCLUDED.currency,
	shipping_cost = EXCLUDED.shipping_cost,
	tax_rate = EXCLUDED.tax_rate,
	checkout_settings = EXCLUDED.checkout_settings,
	is_cart_enabled = EXCLUDED.is_cart_enabled,
	updated_at = now()
RETURNING `+settingsColumns,
		s.ID, s.StoreName, s.Currency, s.ShippingCost, s.TaxRate, s.CheckoutSettings, s.IsCartEnabled))
}
