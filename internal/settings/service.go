package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/cache"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/store"
)

type queries interface {
	GetStoreSettings(ctx context.Context, id string) (store.StoreSettings, error)
	UpsertStoreSettings(ctx context.Context, s store.StoreSettings) (store.StoreSettings, error)
}

// Settings is the merchant configuration consumed by pricing and checkout.
type Settings struct {
	ID            string                   `json:"id,omitempty"`
	StoreName     string                   `json:"storeName"`
	Currency      string                   `json:"currency"`
	ShippingCost  decimal.Decimal          `json:"shippingCost"`
	TaxRate       decimal.Decimal          `json:"taxRate"`
	Checkout      pricing.CheckoutSettings `json:"checkoutSettings"`
	IsCartEnabled bool                     `json:"isCartEnabled"`
	UpdatedAt     *time.Time               `json:"updatedAt,omitempty"`
}

// Pricing projects the settings onto the summary calculator's input.
func (s Settings) Pricing() *pricing.StoreSettings {
	checkout := s.Checkout
	return &pricing.StoreSettings{
		Currency:     s.Currency,
		ShippingCost: s.ShippingCost,
		TaxRate:      s.TaxRate,
		Checkout:     &checkout,
	}
}

// Service loads and updates store settings with a Redis read-through cache.
type Service struct {
	q        queries
	cache    *cache.JSON
	storeID  string
	defaults Settings
	log      zerolog.Logger
}

// Config groups Service dependencies.
type Config struct {
	Queries  queries
	Cache    *cache.JSON
	StoreID  string
	Defaults Settings
	Logger   zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("settings: queries provider is required")
	}
	defaults := cfg.Defaults
	if defaults.Currency == "" {
		defaults.Currency = pricing.DefaultCurrency
	}
	defaults.IsCartEnabled = true
	return &Service{
		q:        cfg.Queries,
		cache:    cfg.Cache,
		storeID:  cfg.StoreID,
		defaults: defaults,
		log:      cfg.Logger.With().Str("component", "settings").Logger(),
	}, nil
}

// Get returns the current settings. Without a store row the configured
// defaults apply.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	key := cache.KeySettings(s.storeID)
	var cached Settings
	if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.log.Warn().Err(err).Msg("read settings cache")
	} else if hit {
		return cached, nil
	}

	row, err := s.q.GetStoreSettings(ctx, s.storeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.defaults, nil
		}
		return Settings{}, fmt.Errorf("load store settings: %w", err)
	}
	out, err := fromRow(row)
	if err != nil {
		return Settings{}, err
	}
	if err := s.cache.Set(ctx, key, out); err != nil {
		s.log.Warn().Err(err).Msg("write settings cache")
	}
	return out, nil
}

// UpdateInput is the admin payload for PUT /admin/settings.
type UpdateInput struct {
	StoreName     string          `json:"storeName" validate:"required,max=120"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	ShippingCost  decimal.Decimal `json:"shippingCost" validate:"gte=0"`
	TaxRate       decimal.Decimal `json:"taxRate" validate:"gte=0,lte=100"`
	TaxEnabled    bool            `json:"taxEnabled"`
	CheckoutRate  decimal.Decimal `json:"checkoutTaxRate" validate:"gte=0,lte=100"`
	IsCartEnabled *bool           `json:"isCartEnabled"`
}

// Update validates and persists settings, then drops the cached copy.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Settings, error) {
	if err := common.Validate(&in); err != nil {
		return Settings{}, err
	}
	currency, ok := pricing.NormalizeCurrency(in.Currency)
	if !ok {
		return Settings{}, common.BadRequest("currency", "currency must be an ISO 4217 code", nil)
	}

	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	id := s.storeID
	if id == "" {
		id = current.ID
	}
	if id == "" {
		id = uuid.NewString()
	}
	cartEnabled := current.IsCartEnabled
	if in.IsCartEnabled != nil {
		cartEnabled = *in.IsCartEnabled
	}
	checkout, err := json.Marshal(pricing.CheckoutSettings{TaxEnabled: in.TaxEnabled, TaxRate: in.CheckoutRate})
	if err != nil {
		return Settings{}, err
	}
	row, err := s.q.UpsertStoreSettings(ctx, store.StoreSettings{
		ID:               id,
		StoreName:        strings.TrimSpace(in.StoreName),
		Currency:         currency,
		ShippingCost:     in.ShippingCost.Round(2),
		TaxRate:          in.TaxRate.Round(2),
		CheckoutSettings: checkout,
		IsCartEnabled:    cartEnabled,
	})
	if err != nil {
		return Settings{}, fmt.Errorf("save store settings: %w", err)
	}
	if err := s.cache.Delete(ctx, cache.KeySettings(s.storeID)); err != nil {
		s.log.Warn().Err(err).Msg("invalidate settings cache")
	}
	s.log.Info().Str("store_id", row.ID).Str("currency", row.Currency).Msg("store settings updated")
	return fromRow(row)
}

func fromRow(row store.StoreSettings) (Settings, error) {
	out := Settings{
		ID:            row.ID,
		StoreName:     row.StoreName,
		Currency:      strings.TrimSpace(row.Currency),
		ShippingCost:  row.ShippingCost,
		TaxRate:       row.TaxRate,
		IsCartEnabled: row.IsCartEnabled,
	}
	if !row.UpdatedAt.IsZero() {
		updated := row.UpdatedAt
		out.UpdatedAt = &updated
	}
	if len(row.CheckoutSettings) > 0 {
		if err := json.Unmarshal(row.CheckoutSettings, &out.Checkout); err != nil {
			return Settings{}, fmt.Errorf("decode checkout settings: %w", err)
		}
	}
	return out, nil
}
