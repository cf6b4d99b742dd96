package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const productColumns = `id, title, slug, description, sku, price, old_price, stock_quantity,
	reorder_level, is_active, featured_image, variants, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.SKU, &p.Price, &p.OldPrice,
		&p.StockQuantity, &p.ReorderLevel, &p.IsActive, &p.FeaturedImage, &p.Variants,
		&p.CreatedAt, &p.UpdatedAt)
	return p, mapErr(err)
}

func collectProducts(rows pgx.Rows, err error) ([]Product, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListProductsParams filters the public product listing.
type ListProductsParams struct {
	Query  string
	Sort   string
	Limit  int
	Offset int
}

var productOrder = map[string]string{
	"":           "created_at DESC",
	"newest":     "created_at DESC",
	"price_asc":  "price ASC, created_at DESC",
	"price_desc": "price DESC, created_at DESC",
	"title":      "title ASC",
}

// ValidProductSort reports whether sort is a supported listing order.
func ValidProductSort(sort string) bool {
	_, ok := productOrder[sort]
	return ok
}

// ListProducts returns active products matching the filters.
func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	order, ok := productOrder[arg.Sort]
	if !ok {
		order = productOrder[""]
	}
	sql := fmt.Sprintf(`SELECT %s FROM products
WHERE is_active AND ($1 = '' OR title ILIKE '%%' || $1 || '%%' OR sku ILIKE $1 || '%%')
ORDER BY %s
LIMIT $2 OFFSET $3`, productColumns, order)
	return collectProducts(q.db.Query(ctx, sql, strings.TrimSpace(arg.Query), arg.Limit, arg.Offset))
}

// CountProducts counts active products matching query.
func (q *Queries) CountProducts(ctx context.Context, query string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM products
WHERE is_active AND ($1 = '' OR title ILIKE '%' || $1 || '%' OR sku ILIKE $1 || '%')`,
		strings.TrimSpace(query)).Scan(&n)
	return n, err
}

// GetProductBySlug returns an active product.
func (q *Queries) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1 AND is_active`, slug))
}

// GetProductByID returns a product regardless of its active flag.
func (q *Queries) GetProductByID(ctx context.Context, id string) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// GetProductsByIDs returns the products with the given ids in no particular order.
func (q *Queries) GetProductsByIDs(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return collectProducts(q.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, ids))
}

// DecrementStock subtracts qty from a product's stock and returns the new level.
// Stock may go negative; overselling is reported through low stock alerts.
func (q *Queries) DecrementStock(ctx context.Context, id string, qty int) (int, error) {
	var stock int
	err := q.db.QueryRow(ctx, `UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = now()
WHERE id = $1 RETURNING stock_quantity`, id, qty).Scan(&stock)
	return stock, mapErr(err)
}

// UpsertProduct inserts a product or updates it by slug.
func (q *Queries) UpsertProduct(ctx context.Context, p Product) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, `INSERT INTO products
	(id, title, slug, description, sku, price, old_price, stock_quantity, reorder_level, is_active, featured_image, variants)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (slug) DO UPDATE SET
	title = EXCLUDED.title,
	description = EXCLUDED.description,
	sku = EXCLUDED.sku,
	price = EXCLUDED.price,
	old_price = EXCLUDED.old_price,
	stock_quantity = EXCLUDED.stock_quantity,
	reorder_level = EXCLUDED.reorder_level,
	is_active = EXCLUDED.is_active,
	featured_image = EXCLUDED.featured_image,
	variants = EXCLUDED.variants,
	updated_at = now()
RETURNING `+productColumns,
		p.ID, p.Title, p.Slug, p.Description, p.SKU, p.Price, p.OldPrice, p.StockQuantity,
		p.ReorderLevel, p.IsActive, p.FeaturedImage, p.Variants))
}
