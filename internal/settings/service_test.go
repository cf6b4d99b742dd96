package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/cache"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/store"
)

type fakeQueries struct {
	row   *store.StoreSettings
	reads int
	err   error
}

func (f *fakeQueries) GetStoreSettings(_ context.Context, _ string) (store.StoreSettings, error) {
	f.reads++
	if f.err != nil {
		return store.StoreSettings{}, f.err
	}
	if f.row == nil {
		return store.StoreSettings{}, store.ErrNotFound
	}
	return *f.row, nil
}

func (f *fakeQueries) UpsertStoreSettings(_ context.Context, s store.StoreSettings) (store.StoreSettings, error) {
	s.UpdatedAt = time.Now()
	f.row = &s
	return s, nil
}

func newService(t *testing.T, q *fakeQueries) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc, err := NewService(Config{
		Queries: q,
		Cache:   cache.NewJSON(client, time.Minute),
		StoreID: "s1",
		Defaults: Settings{
			StoreName:    "Toko",
			Currency:     "MAD",
			ShippingCost: decimal.NewFromInt(25),
		},
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc, mr
}

func TestGetFallsBackToDefaults(t *testing.T) {
	svc, _ := newService(t, &fakeQueries{})
	s, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "MAD", s.Currency)
	require.True(t, s.IsCartEnabled)
	require.True(t, s.ShippingCost.Equal(decimal.NewFromInt(25)))
	require.False(t, s.Pricing().Checkout.TaxEnabled)
}

func TestGetCachesRow(t *testing.T) {
	q := &fakeQueries{row: &store.StoreSettings{
		ID:               "s1",
		StoreName:        "Souk",
		Currency:         "EUR",
		ShippingCost:     decimal.RequireFromString("7.5"),
		TaxRate:          decimal.NewFromInt(20),
		CheckoutSettings: []byte(`{"taxEnabled":true,"taxRate":10}`),
		IsCartEnabled:    true,
	}}
	svc, mr := newService(t, q)

	first, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.True(t, first.Checkout.TaxEnabled)
	require.True(t, first.Checkout.TaxRate.Equal(decimal.NewFromInt(10)))
	require.True(t, mr.Exists("s1:settings"))

	second, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, q.reads)
	require.Equal(t, "Souk", second.StoreName)
	require.True(t, second.ShippingCost.Equal(decimal.RequireFromString("7.5")))
}

func TestGetPropagatesStoreErrors(t *testing.T) {
	svc, _ := newService(t, &fakeQueries{err: errors.New("boom")})
	_, err := svc.Get(context.Background())
	require.ErrorContains(t, err, "boom")
}

func TestUpdateInvalidatesCache(t *testing.T) {
	q := &fakeQueries{}
	svc, mr := newService(t, q)
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, UpdateInput{
		StoreName:    " Toko Baru ",
		Currency:     "usd",
		ShippingCost: decimal.RequireFromString("12.345"),
		TaxRate:      decimal.NewFromInt(5),
		TaxEnabled:   true,
		CheckoutRate: decimal.NewFromInt(8),
	})
	require.NoError(t, err)
	require.Equal(t, "s1", updated.ID)
	require.Equal(t, "Toko Baru", updated.StoreName)
	require.Equal(t, "USD", updated.Currency)
	require.Equal(t, "12.35", updated.ShippingCost.StringFixed(2))
	require.True(t, updated.IsCartEnabled)
	require.False(t, mr.Exists("s1:settings"))

	again, err := svc.Get(ctx)
	require.NoError(t, err)
	require.True(t, again.Checkout.TaxEnabled)
	require.True(t, again.Pricing().Checkout.TaxRate.Equal(decimal.NewFromInt(8)))
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	svc, _ := newService(t, &fakeQueries{})

	_, err := svc.Update(context.Background(), UpdateInput{StoreName: "x", Currency: "ZZZ"})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "BAD_REQUEST", appErr.Code)

	_, err = svc.Update(context.Background(), UpdateInput{StoreName: "x", Currency: "MAD", TaxRate: decimal.NewFromInt(150)})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_FAILED", appErr.Code)
}

func TestPublicHandler(t *testing.T) {
	svc, _ := newService(t, &fakeQueries{})
	h := &Handler{Svc: svc}

	rec := httptest.NewRecorder()
	h.Public(rec, httptest.NewRequest(http.MethodGet, "/api/v1/store", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"shippingLabel":"25.00 DH"`)
	require.Contains(t, rec.Body.String(), `"currencySymbol":"DH"`)
}

func TestUpdateHandlerRejectsUnknownFields(t *testing.T) {
	svc, _ := newService(t, &fakeQueries{})
	h := &Handler{Svc: svc}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/settings", strings.NewReader(`{"storeName":"x","bogus":1}`))
	h.Update(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
