package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/settings"
	"github.com/noah-isme/toko-storefront/internal/store"
	"github.com/noah-isme/toko-storefront/internal/variant"
)

var (
	// ErrNotFound indicates the requested cart or line could not be located.
	ErrNotFound = errors.New("cart not found")
	// ErrInvalidInput is returned when the provided payload is invalid.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned when a product or selection cannot be bought.
	ErrUnavailable = errors.New("item unavailable")
	// ErrDisabled is returned when the store has switched carts off.
	ErrDisabled = errors.New("cart disabled")
)

type queries interface {
	CreateCart(ctx context.Context, c store.Cart) (store.Cart, error)
	GetCart(ctx context.Context, id string) (store.Cart, error)
	GetActiveCartByAnonID(ctx context.Context, anonID string, now time.Time) (store.Cart, error)
	TouchCart(ctx context.Context, id string, expiresAt time.Time) error
	ListCartItems(ctx context.Context, cartID string) ([]store.CartItem, error)
	AddCartItem(ctx context.Context, it store.CartItem) (store.CartItem, error)
	UpdateCartItemQty(ctx context.Context, cartID, itemID string, qty int) (store.CartItem, error)
	DeleteCartItem(ctx context.Context, cartID, itemID string) error
	ClearCart(ctx context.Context, cartID string) error
	GetProductByID(ctx context.Context, id string) (store.Product, error)
}

// SettingsSource supplies the store settings used for cart summaries.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Service encapsulates cart domain operations.
type Service struct {
	Q        queries
	Settings SettingsSource
	TTL      time.Duration
	Now      func() time.Time
	Log      zerolog.Logger
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ready() error {
	if s == nil || s.Q == nil {
		return errors.New("cart service not configured")
	}
	return nil
}

// EnsureCart returns the active cart of anonID, creating one when none exists.
// An empty anonID gets a fresh identifier.
func (s *Service) EnsureCart(ctx context.Context, anonID string) (store.Cart, error) {
	if err := s.ready(); err != nil {
		return store.Cart{}, err
	}
	anonID = strings.TrimSpace(anonID)
	if anonID == "" {
		anonID = uuid.NewString()
	}
	now := s.now()
	expires := now.Add(s.ttl())

	cart, err := s.Q.GetActiveCartByAnonID(ctx, anonID, now)
	if err == nil {
		if err := s.Q.TouchCart(ctx, cart.ID, expires); err != nil {
			s.Log.Warn().Err(err).Str("cart_id", cart.ID).Msg("touch cart")
		}
		cart.ExpiresAt = expires
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Cart{}, fmt.Errorf("lookup cart: %w", err)
	}
	cart, err = s.Q.CreateCart(ctx, store.Cart{ID: uuid.NewString(), AnonID: anonID, ExpiresAt: expires})
	if err != nil {
		return store.Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return cart, nil
}

// activeCart loads cartID and extends its expiry. Expired carts are reported
// as missing.
func (s *Service) activeCart(ctx context.Context, cartID string) (store.Cart, error) {
	if _, err := uuid.Parse(cartID); err != nil {
		return store.Cart{}, fmt.Errorf("parse cart id: %w", ErrInvalidInput)
	}
	cart, err := s.Q.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Cart{}, ErrNotFound
		}
		return store.Cart{}, err
	}
	now := s.now()
	if !cart.ExpiresAt.After(now) {
		return store.Cart{}, ErrNotFound
	}
	expires := now.Add(s.ttl())
	if err := s.Q.TouchCart(ctx, cart.ID, expires); err != nil {
		s.Log.Warn().Err(err).Str("cart_id", cart.ID).Msg("touch cart")
	}
	cart.ExpiresAt = expires
	return cart, nil
}

// AddItemInput is the payload for adding a product to a cart.
type AddItemInput struct {
	ProductID string            `json:"productId" validate:"required,uuid"`
	Quantity  int               `json:"quantity" validate:"required,min=1,max=999"`
	Selection variant.Selection `json:"selectedVariants"`
}

// AddItem prices the selection, freezes the unit price, and inserts a line or
// increments the line holding the same product and selection.
func (s *Service) AddItem(ctx context.Context, cartID string, in AddItemInput) (item store.CartItem, err error) {
	defer func() { obs.CountOutcome(obs.CartMutationsTotal, err, "add") }()
	if err := s.ready(); err != nil {
		return store.CartItem{}, err
	}
	if in.Quantity <= 0 {
		return store.CartItem{}, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	if err := s.cartEnabled(ctx); err != nil {
		return store.CartItem{}, err
	}
	cart, err := s.activeCart(ctx, cartID)
	if err != nil {
		return store.CartItem{}, err
	}

	p, err := s.Q.GetProductByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CartItem{}, fmt.Errorf("product not found: %w", ErrInvalidInput)
		}
		return store.CartItem{}, fmt.Errorf("load product: %w", err)
	}
	if !p.IsActive {
		return store.CartItem{}, fmt.Errorf("product is not for sale: %w", ErrUnavailable)
	}
	lines, err := s.Q.ListCartItems(ctx, cart.ID)
	if err != nil {
		return store.CartItem{}, fmt.Errorf("list cart items: %w", err)
	}
	if err := checkStock(p, lines, "", in.Quantity); err != nil {
		return store.CartItem{}, err
	}
	cfg, err := catalog.ProductConfig(p)
	if err != nil {
		return store.CartItem{}, err
	}
	sel := in.Selection
	if len(sel) == 0 {
		sel = variant.DefaultSelection(cfg)
	}
	quote := catalog.Quote(p, cfg, sel, in.Quantity)
	if !quote.Availability.Available {
		return store.CartItem{}, fmt.Errorf("%s: %w", quote.Availability.Reason, ErrUnavailable)
	}
	selected, err := json.Marshal(sel)
	if err != nil {
		return store.CartItem{}, err
	}

	item, err = s.Q.AddCartItem(ctx, store.CartItem{
		ID:               uuid.NewString(),
		CartID:           cart.ID,
		ProductID:        p.ID,
		ProductName:      p.Title,
		Quantity:         quote.Quantity,
		UnitPrice:        quote.UnitPrice,
		SelectedVariants: selected,
		SelectionKey:     quote.SelectionKey,
		VariantSKU:       quote.VariantSKU,
	})
	if err != nil {
		return store.CartItem{}, fmt.Errorf("add cart item: %w", err)
	}
	s.Log.Debug().Str("cart_id", cart.ID).Str("product_id", p.ID).Str("unit_price", quote.UnitPrice.String()).
		Int("quantity", item.Quantity).Msg("cart item added")
	return item, nil
}

// UpdateQty sets the quantity of a line. Zero removes it.
func (s *Service) UpdateQty(ctx context.Context, cartID, itemID string, qty int) (err error) {
	defer func() { obs.CountOutcome(obs.CartMutationsTotal, err, "update") }()
	if err := s.ready(); err != nil {
		return err
	}
	if qty < 0 {
		return fmt.Errorf("quantity must not be negative: %w", ErrInvalidInput)
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return fmt.Errorf("parse item id: %w", ErrInvalidInput)
	}
	if _, err := s.activeCart(ctx, cartID); err != nil {
		return err
	}
	if qty == 0 {
		return s.deleteItem(ctx, cartID, itemID)
	}
	lines, err := s.Q.ListCartItems(ctx, cartID)
	if err != nil {
		return fmt.Errorf("list cart items: %w", err)
	}
	idx := slices.IndexFunc(lines, func(it store.CartItem) bool { return it.ID == itemID })
	if idx < 0 {
		return fmt.Errorf("item not found: %w", ErrNotFound)
	}
	p, err := s.Q.GetProductByID(ctx, lines[idx].ProductID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("product no longer exists: %w", ErrUnavailable)
		}
		return fmt.Errorf("load product: %w", err)
	}
	if err := checkStock(p, lines, itemID, qty); err != nil {
		return err
	}
	if _, err := s.Q.UpdateCartItemQty(ctx, cartID, itemID, qty); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("item not found: %w", ErrNotFound)
		}
		return err
	}
	return nil
}

// RemoveItem deletes a line from a cart.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID string) (err error) {
	defer func() { obs.CountOutcome(obs.CartMutationsTotal, err, "remove") }()
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return fmt.Errorf("parse item id: %w", ErrInvalidInput)
	}
	if _, err := s.activeCart(ctx, cartID); err != nil {
		return err
	}
	return s.deleteItem(ctx, cartID, itemID)
}

// checkStock rejects want when it, plus every other line of the same product
// already in the cart, exceeds the product's stock. The line named skipID is
// the one being replaced and does not count.
func checkStock(p store.Product, lines []store.CartItem, skipID string, want int) error {
	held := 0
	for _, it := range lines {
		if it.ProductID == p.ID && it.ID != skipID {
			held += it.Quantity
		}
	}
	if held+want > p.StockQuantity {
		return fmt.Errorf("only %d in stock, %d already in cart: %w", max(p.StockQuantity, 0), held, ErrUnavailable)
	}
	return nil
}

func (s *Service) deleteItem(ctx context.Context, cartID, itemID string) error {
	if err := s.Q.DeleteCartItem(ctx, cartID, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("item not found: %w", ErrNotFound)
		}
		return err
	}
	return nil
}

// Clear empties a cart.
func (s *Service) Clear(ctx context.Context, cartID string) (err error) {
	defer func() { obs.CountOutcome(obs.CartMutationsTotal, err, "clear") }()
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.activeCart(ctx, cartID); err != nil {
		return err
	}
	return s.Q.ClearCart(ctx, cartID)
}

// Line is a cart line as rendered to clients.
type Line struct {
	ID               string            `json:"id"`
	ProductID        string            `json:"productId"`
	ProductName      string            `json:"productName"`
	Quantity         int               `json:"quantity"`
	UnitPrice        decimal.Decimal   `json:"unitPrice"`
	LineTotal        decimal.Decimal   `json:"lineTotal"`
	SelectedVariants variant.Selection `json:"selectedVariants"`
	VariantSKU       string            `json:"variantSku,omitempty"`
}

// View is a cart with its lines and computed summary.
type View struct {
	ID        string          `json:"id"`
	AnonID    string          `json:"anonId"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Items     []Line          `json:"items"`
	Summary   pricing.Summary `json:"summary"`
	Formatted FormattedTotals `json:"formatted"`
}

// FormattedTotals carries display strings for the summary amounts.
type FormattedTotals struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// Get loads a cart and computes its summary with the current store settings.
func (s *Service) Get(ctx context.Context, cartID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	cart, err := s.activeCart(ctx, cartID)
	if err != nil {
		return View{}, err
	}
	rows, err := s.Q.ListCartItems(ctx, cart.ID)
	if err != nil {
		return View{}, fmt.Errorf("list cart items: %w", err)
	}
	lines, items, err := BuildLines(rows)
	if err != nil {
		return View{}, err
	}
	st, err := s.storeSettings(ctx)
	if err != nil {
		return View{}, err
	}
	sum := pricing.CalculateCartSummary(items, st)
	return View{
		ID:        cart.ID,
		AnonID:    cart.AnonID,
		ExpiresAt: cart.ExpiresAt,
		Items:     lines,
		Summary:   sum,
		Formatted: FormatSummary(sum),
	}, nil
}

// BuildLines converts stored cart lines into response lines and calculator input.
func BuildLines(rows []store.CartItem) ([]Line, []pricing.LineItem, error) {
	lines := make([]Line, 0, len(rows))
	items := make([]pricing.LineItem, 0, len(rows))
	for _, row := range rows {
		sel, err := variant.ParseSelection(row.SelectedVariants)
		if err != nil {
			return nil, nil, fmt.Errorf("cart item %s: %w", row.ID, err)
		}
		lines = append(lines, Line{
			ID:               row.ID,
			ProductID:        row.ProductID,
			ProductName:      row.ProductName,
			Quantity:         row.Quantity,
			UnitPrice:        row.UnitPrice,
			LineTotal:        pricing.LineTotal(row.UnitPrice, row.Quantity),
			SelectedVariants: sel,
			VariantSKU:       row.VariantSKU,
		})
		items = append(items, pricing.LineItem{
			ProductID:        row.ProductID,
			ProductName:      row.ProductName,
			Quantity:         row.Quantity,
			UnitPrice:        row.UnitPrice,
			SelectedVariants: sel,
		})
	}
	return lines, items, nil
}

// FormatSummary renders the summary amounts in the summary currency.
func FormatSummary(sum pricing.Summary) FormattedTotals {
	return FormattedTotals{
		Subtotal: pricing.FormatPrice(sum.Subtotal, sum.Currency),
		Shipping: pricing.FormatPrice(sum.Shipping, sum.Currency),
		Tax:      pricing.FormatPrice(sum.Tax, sum.Currency),
		Total:    pricing.FormatPrice(sum.Total, sum.Currency),
	}
}

func (s *Service) storeSettings(ctx context.Context) (*pricing.StoreSettings, error) {
	if s.Settings == nil {
		return nil, nil
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load store settings: %w", err)
	}
	return st.Pricing(), nil
}

func (s *Service) cartEnabled(ctx context.Context) error {
	if s.Settings == nil {
		return nil
	}
	st, err := s.Settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load store settings: %w", err)
	}
	if !st.IsCartEnabled {
		return ErrDisabled
	}
	return nil
}
