package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost/toko",
		"REDIS_URL":             "redis://localhost:6379/0",
		"PORT":                  "",
		"DEFAULT_CURRENCY":      "",
		"DEFAULT_SHIPPING_COST": "",
		"CART_TTL":              "",
		"CHECKOUT_RATE_LIMIT":   "",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "MAD", cfg.DefaultCurrency)
	require.Equal(t, "25", cfg.DefaultShippingCost.String())
	require.Equal(t, 720*time.Hour, cfg.CartTTL)
	require.Equal(t, "20-M", cfg.CheckoutRateLimit)
	require.Equal(t, 30*time.Second, cfg.CheckoutLockTTL)
	require.Equal(t, 30, cfg.AnalyticsDefaultRange)
	require.True(t, cfg.AuditEnabled)
	require.Equal(t, 1.0, cfg.AuditSamplingRate)
	require.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":          "postgres://localhost/toko",
		"REDIS_URL":             "redis://localhost:6379/0",
		"PORT":                  ":9090",
		"DEFAULT_CURRENCY":      "usd",
		"DEFAULT_SHIPPING_COST": "12.5",
		"CATALOG_DEFAULT_LIMIT": "50",
		"CATALOG_MAX_LIMIT":     "10",
		"CORS_ALLOWED_ORIGINS":  "https://a.example, https://b.example ,",
		"SETTINGS_CACHE_TTL":    "not-a-duration",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "USD", cfg.DefaultCurrency)
	require.Equal(t, "12.5", cfg.DefaultShippingCost.String())
	require.Equal(t, 50, cfg.CatalogMaxLimit)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 5*time.Minute, cfg.SettingsCacheTTL)
}

func TestLoadRequiresDatabase(t *testing.T) {
	_, err := LoadForTests(map[string]string{"DATABASE_URL": "", "REDIS_URL": "redis://localhost:6379/0"})
	require.EqualError(t, err, "DATABASE_URL is required")
}
