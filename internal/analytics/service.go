package analytics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/cache"
	"github.com/noah-isme/toko-storefront/internal/store"
)

const dayLayout = "2006-01-02"

// Querier defines the database access required for analytics operations.
type Querier interface {
	GetSalesTotals(ctx context.Context, from, to time.Time) (store.SalesTotals, error)
	ListDailySales(ctx context.Context, from, to time.Time) ([]store.DailySales, error)
	ListTopProducts(ctx context.Context, from, to time.Time, limit int) ([]store.ProductSales, error)
}

// Service provides cached dashboard aggregates over placed orders.
type Service struct {
	Q            Querier
	Cache        *cache.JSON
	StoreID      string
	DefaultRange int
	Now          func() time.Time
	Log          zerolog.Logger
}

var errNotConfigured = errors.New("analytics service not configured")

// Overview is the headline block of the dashboard.
type Overview struct {
	From              time.Time       `json:"from"`
	To                time.Time       `json:"to"`
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalOrders       int64           `json:"totalOrders"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	PreviousRevenue   decimal.Decimal `json:"previousRevenue"`
	// RevenueGrowth is a percentage against the preceding window of equal length.
	RevenueGrowth decimal.Decimal `json:"revenueGrowth"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) rangeDays(days int) int {
	if days > 0 {
		return days
	}
	if s.DefaultRange > 0 {
		return s.DefaultRange
	}
	return 30
}

// Window returns [now-days, now) truncated to whole UTC days on the lower bound.
func (s *Service) Window(days int) (time.Time, time.Time) {
	to := s.now().UTC()
	from := to.AddDate(0, 0, -s.rangeDays(days)).Truncate(24 * time.Hour)
	return from, to
}

// Overview computes revenue, order count, AOV and growth for the window
// ending now.
func (s *Service) Overview(ctx context.Context, days int) (Overview, error) {
	if s == nil || s.Q == nil {
		return Overview{}, errNotConfigured
	}
	from, to := s.Window(days)
	key := cache.KeyAnalytics(s.StoreID, "overview", from.Format(dayLayout), to.Format(dayLayout))
	var out Overview
	if s.fromCache(ctx, key, &out) {
		return out, nil
	}
	cur, err := s.Q.GetSalesTotals(ctx, from, to)
	if err != nil {
		return Overview{}, err
	}
	prev, err := s.Q.GetSalesTotals(ctx, from.Add(-to.Sub(from)), from)
	if err != nil {
		return Overview{}, err
	}
	out = Overview{
		From:              from,
		To:                to,
		TotalRevenue:      cur.Revenue,
		TotalOrders:       cur.Orders,
		AverageOrderValue: decimal.Zero,
		PreviousRevenue:   prev.Revenue,
		RevenueGrowth:     growth(cur.Revenue, prev.Revenue),
	}
	if cur.Orders > 0 {
		out.AverageOrderValue = cur.Revenue.Div(decimal.NewFromInt(cur.Orders)).Round(2)
	}
	s.store(ctx, key, out)
	return out, nil
}

func growth(cur, prev decimal.Decimal) decimal.Decimal {
	if !prev.IsPositive() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(1)
}

// SalesRange returns one row per day with orders between from (inclusive)
// and to (exclusive).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]store.DailySales, error) {
	if s == nil || s.Q == nil {
		return nil, errNotConfigured
	}
	key := cache.KeyAnalytics(s.StoreID, "sales", from.Format(dayLayout), to.Format(dayLayout))
	var rows []store.DailySales
	if s.fromCache(ctx, key, &rows) {
		return rows, nil
	}
	rows, err := s.Q.ListDailySales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts ranks products by revenue over the last days.
func (s *Service) TopProducts(ctx context.Context, days, limit int) ([]store.ProductSales, error) {
	if s == nil || s.Q == nil {
		return nil, errNotConfigured
	}
	if limit <= 0 || limit > 50 {
		limit = 5
	}
	from, to := s.Window(days)
	key := cache.KeyAnalytics(s.StoreID, "top", from.Format(dayLayout), strconv.Itoa(limit))
	var rows []store.ProductSales
	if s.fromCache(ctx, key, &rows) {
		return rows, nil
	}
	rows, err := s.Q.ListTopProducts(ctx, from, to, limit)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	ok, err := s.Cache.Get(ctx, key, dst)
	if err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("analytics cache read")
		return false
	}
	return ok
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if err := s.Cache.Set(ctx, key, value); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("analytics cache write")
	}
}
