// Command seed loads demo store settings and a catalog with variant
// configurations. It is idempotent: products are upserted by slug.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/cache"
	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/settings"
	"github.com/noah-isme/toko-storefront/internal/store"
	"github.com/noah-isme/toko-storefront/internal/variant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", "info").With().Str("component", "seed").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	q := store.New(pool)

	if err := seedSettings(ctx, q, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed settings")
	}
	for _, p := range demoCatalog() {
		row, err := buildProduct(p)
		if err != nil {
			logger.Fatal().Err(err).Str("slug", p.Slug).Msg("invalid seed product")
		}
		if _, err := q.UpsertProduct(ctx, row); err != nil {
			logger.Fatal().Err(err).Str("slug", p.Slug).Msg("upsert product")
		}
		logger.Info().Str("slug", p.Slug).Msg("product seeded")
	}
	logger.Info().Msg("seeding completed")
}

func seedSettings(ctx context.Context, q *store.Queries, cfg *config.Config, logger zerolog.Logger) error {
	svc, err := settings.NewService(settings.Config{
		Queries: q,
		Cache:   cache.NewJSON(nil, 0),
		StoreID: cfg.StoreID,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	_, err = svc.Update(ctx, settings.UpdateInput{
		StoreName:    cfg.StoreName,
		Currency:     cfg.DefaultCurrency,
		ShippingCost: cfg.DefaultShippingCost,
		TaxRate:      cfg.DefaultTaxRate,
		TaxEnabled:   cfg.DefaultTaxRate.IsPositive(),
		CheckoutRate: cfg.DefaultTaxRate,
	})
	return err
}

func buildProduct(p seedProduct) (store.Product, error) {
	row := store.Product{
		ID:            uuid.NewString(),
		Title:         p.Title,
		Slug:          p.Slug,
		Description:   p.Description,
		SKU:           p.SKU,
		Price:         money(p.Price),
		StockQuantity: p.Stock,
		IsActive:      true,
		Variants:      []byte("null"),
	}
	if p.OldPrice != "" {
		row.OldPrice = decimal.NewNullDecimal(money(p.OldPrice))
	}
	if p.ReorderLevel > 0 {
		level := p.ReorderLevel
		row.ReorderLevel = &level
	}
	if p.Variants != nil {
		if errs := variant.Validate(p.Variants); len(errs) > 0 {
			return store.Product{}, fmt.Errorf("variant config: %w", errors.Join(errs...))
		}
		raw, err := json.Marshal(p.Variants)
		if err != nil {
			return store.Product{}, err
		}
		row.Variants = raw
	}
	return row, nil
}
