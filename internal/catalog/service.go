package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/cache"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/store"
	"github.com/noah-isme/toko-storefront/internal/variant"
)

type queryProvider interface {
	ListProducts(ctx context.Context, arg store.ListProductsParams) ([]store.Product, error)
	CountProducts(ctx context.Context, query string) (int64, error)
	GetProductBySlug(ctx context.Context, slug string) (store.Product, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	queries      queryProvider
	cache        *cache.JSON
	storeID      string
	defaultLimit int
	maxLimit     int
	log          zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries      queryProvider
	Cache        *cache.JSON
	StoreID      string
	DefaultLimit int
	MaxLimit     int
	Logger       zerolog.Logger
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Sort  string
	Page  int
	Limit int
}

// ProductListItem represents an entry in list responses.
type ProductListItem struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Slug        string           `json:"slug"`
	Price       decimal.Decimal  `json:"price"`
	OldPrice    *decimal.Decimal `json:"oldPrice,omitempty"`
	InStock     bool             `json:"inStock"`
	Thumbnail   *string          `json:"thumbnail,omitempty"`
	HasVariants bool             `json:"hasVariants"`
}

// ProductDetail aggregates the full detail payload. Pricing is the
// calculation for DefaultSelection.
type ProductDetail struct {
	ID               string               `json:"id"`
	Title            string               `json:"title"`
	Slug             string               `json:"slug"`
	Description      string               `json:"description,omitempty"`
	SKU              string               `json:"sku,omitempty"`
	Price            decimal.Decimal      `json:"price"`
	OldPrice         *decimal.Decimal     `json:"oldPrice,omitempty"`
	StockQuantity    int                  `json:"stockQuantity"`
	InStock          bool                 `json:"inStock"`
	Thumbnail        *string              `json:"thumbnail,omitempty"`
	Variants         *variant.Config      `json:"variants,omitempty"`
	DefaultSelection variant.Selection    `json:"defaultSelection"`
	Pricing          variant.Calculation  `json:"pricing"`
	Availability     variant.Availability `json:"availability"`
	VariantSKU       string               `json:"variantSku,omitempty"`
	Combinations     int                  `json:"combinations"`
}

// ProductListResult contains list data and pagination metadata.
type ProductListResult struct {
	Items []ProductListItem
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		queries:      cfg.Queries,
		cache:        cfg.Cache,
		storeID:      cfg.StoreID,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		log:          cfg.Logger.With().Str("component", "catalog").Logger(),
	}, nil
}

// ParseListParams normalises raw query values into typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Query = strings.TrimSpace(values.Get("q"))
	params.Sort = strings.TrimSpace(values.Get("sort"))
	if !store.ValidProductSort(params.Sort) {
		return params, common.BadRequest("sort", "sort must be one of newest, price_asc, price_desc, title", nil)
	}
	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.BadRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = l
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	return params, nil
}

// ListProducts returns a page of active products.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductListResult, error) {
	total, err := s.queries.CountProducts(ctx, params.Query)
	if err != nil {
		return ProductListResult{}, common.Internal("unable to count products", err)
	}
	rows, err := s.queries.ListProducts(ctx, store.ListProductsParams{
		Query:  params.Query,
		Sort:   params.Sort,
		Limit:  params.Limit,
		Offset: common.Offset(params.Page, params.Limit),
	})
	if err != nil {
		return ProductListResult{}, common.Internal("unable to list products", err)
	}
	items := make([]ProductListItem, 0, len(rows))
	for _, p := range rows {
		items = append(items, ProductListItem{
			ID:          p.ID,
			Title:       p.Title,
			Slug:        p.Slug,
			Price:       p.Price,
			OldPrice:    oldPrice(p),
			InStock:     p.StockQuantity > 0,
			Thumbnail:   p.FeaturedImage,
			HasVariants: hasVariants(p),
		})
	}
	return ProductListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// GetProductDetail returns the detail payload for slug, cached in Redis.
func (s *Service) GetProductDetail(ctx context.Context, slug string) (ProductDetail, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDetail{}, common.BadRequest("slug", "slug is required", nil)
	}
	key := cache.KeyProduct(s.storeID, slug)
	var cached ProductDetail
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Str("slug", slug).Msg("read product cache")
	} else if hit {
		return cached, nil
	}

	p, cfg, err := s.load(ctx, slug)
	if err != nil {
		return ProductDetail{}, err
	}
	sel := variant.DefaultSelection(cfg)
	detail := ProductDetail{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		Description:      p.Description,
		SKU:              p.SKU,
		Price:            p.Price,
		OldPrice:         oldPrice(p),
		StockQuantity:    p.StockQuantity,
		InStock:          p.StockQuantity > 0,
		Thumbnail:        p.FeaturedImage,
		Variants:         cfg,
		DefaultSelection: sel,
		Pricing:          variant.CalculatePrice(p.Price, sel, cfg),
		Availability:     variant.CheckAvailability(sel, cfg),
		VariantSKU:       variant.GenerateSKU(p.SKU, sel),
		Combinations:     variant.CombinationCount(cfg),
	}
	if err := s.cache.Set(ctx, key, detail); err != nil {
		s.log.Warn().Err(err).Str("slug", slug).Msg("write product cache")
	}
	return detail, nil
}

// PreviewInput is the payload for a price preview.
type PreviewInput struct {
	Selection variant.Selection `json:"selection"`
	Quantity  int               `json:"quantity" validate:"omitempty,min=1,max=999"`
	Currency  string            `json:"-"`
}

// Preview is a priced selection ready for display.
type Preview struct {
	Calculation  variant.Calculation  `json:"calculation"`
	UnitPrice    decimal.Decimal      `json:"unitPrice"`
	Quantity     int                  `json:"quantity"`
	LineTotal    decimal.Decimal      `json:"lineTotal"`
	Formatted    string               `json:"formatted"`
	VariantSKU   string               `json:"variantSku,omitempty"`
	Label        string               `json:"label,omitempty"`
	Availability variant.Availability `json:"availability"`
}

// PreviewPrice prices a selection for slug without touching any cart.
func (s *Service) PreviewPrice(ctx context.Context, slug string, in PreviewInput) (Preview, error) {
	p, cfg, err := s.load(ctx, strings.TrimSpace(slug))
	if err != nil {
		return Preview{}, err
	}
	sel := in.Selection
	if len(sel) == 0 {
		sel = variant.DefaultSelection(cfg)
	}
	q := Quote(p, cfg, sel, in.Quantity)
	return Preview{
		Calculation:  q.Calculation,
		UnitPrice:    q.UnitPrice,
		Quantity:     q.Quantity,
		LineTotal:    q.LineTotal,
		Formatted:    pricing.FormatPrice(q.UnitPrice, in.Currency),
		VariantSKU:   q.VariantSKU,
		Label:        variant.DescribeSelection(sel, cfg),
		Availability: q.Availability,
	}, nil
}

func (s *Service) load(ctx context.Context, slug string) (store.Product, *variant.Config, error) {
	p, err := s.queries.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Product{}, nil, common.NotFound("product not found", err)
		}
		return store.Product{}, nil, common.Internal("unable to load product", err)
	}
	cfg, err := ProductConfig(p)
	if err != nil {
		return store.Product{}, nil, common.Internal("product variant configuration is invalid", err)
	}
	return p, cfg, nil
}

// InvalidateProduct drops the cached detail for slug.
func (s *Service) InvalidateProduct(ctx context.Context, slug string) error {
	return s.cache.Delete(ctx, cache.KeyProduct(s.storeID, slug))
}

// ProductConfig parses the stored variant configuration of p.
func ProductConfig(p store.Product) (*variant.Config, error) {
	cfg, err := variant.ParseConfig(p.Variants)
	if err != nil {
		return nil, fmt.Errorf("product %s: %w", p.ID, err)
	}
	return cfg, nil
}

func oldPrice(p store.Product) *decimal.Decimal {
	if !p.OldPrice.Valid {
		return nil
	}
	v := p.OldPrice.Decimal
	return &v
}

func hasVariants(p store.Product) bool {
	cfg, err := variant.ParseConfig(p.Variants)
	return err == nil && cfg != nil && len(cfg.Groups) > 0
}
