package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	AutoMigrate        bool

	// StoreID selects the stores row whose settings drive pricing.
	StoreID             string
	StoreName           string
	DefaultCurrency     string
	DefaultShippingCost decimal.Decimal
	DefaultTaxRate      decimal.Decimal
	DeliveryLeadTime    time.Duration

	CartTTL             time.Duration
	CatalogCacheTTL     time.Duration
	SettingsCacheTTL    time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int
	IdempotencyTTL      time.Duration
	CheckoutRateLimit   string
	CheckoutLockTTL     time.Duration
	CheckoutLockWait    time.Duration

	AnalyticsCacheTTL     time.Duration
	AnalyticsDefaultRange int

	NotifyQueueConcurrency int
	LowStockDefaultLevel   int

	AdminBasicAuthUser string
	AdminBasicAuthPass string
	AuditEnabled       bool
	AuditSamplingRate  float64
	MaxBodyBytes       int64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		AutoMigrate:        parseBool(k.String("AUTO_MIGRATE")),

		StoreID:             strings.TrimSpace(k.String("STORE_ID")),
		StoreName:           valueOrDefault(k.String("STORE_NAME"), "Toko"),
		DefaultCurrency:     strings.ToUpper(valueOrDefault(k.String("DEFAULT_CURRENCY"), "MAD")),
		DefaultShippingCost: parseDecimal(k.String("DEFAULT_SHIPPING_COST"), "25"),
		DefaultTaxRate:      parseDecimal(k.String("DEFAULT_TAX_RATE"), "0"),
		DeliveryLeadTime:    parseDuration(k.String("DELIVERY_LEAD_TIME"), "168h"),

		CartTTL:             parseDuration(k.String("CART_TTL"), "720h"),
		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		SettingsCacheTTL:    parseDuration(k.String("SETTINGS_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),
		IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CheckoutRateLimit:   valueOrDefault(k.String("CHECKOUT_RATE_LIMIT"), "20-M"),
		CheckoutLockTTL:     parseDuration(k.String("CHECKOUT_LOCK_TTL"), "30s"),
		CheckoutLockWait:    parseDuration(k.String("CHECKOUT_LOCK_WAIT"), "3s"),

		AnalyticsCacheTTL:     parseDuration(k.String("ANALYTICS_CACHE_TTL"), "5m"),
		AnalyticsDefaultRange: parseInt(k.String("ANALYTICS_DEFAULT_RANGE_DAYS"), 30),

		NotifyQueueConcurrency: parseInt(k.String("NOTIFY_QUEUE_CONCURRENCY"), 5),
		LowStockDefaultLevel:   parseInt(k.String("LOW_STOCK_DEFAULT_LEVEL"), 5),

		AdminBasicAuthUser: strings.TrimSpace(k.String("ADMIN_BASIC_AUTH_USER")),
		AdminBasicAuthPass: strings.TrimSpace(k.String("ADMIN_BASIC_AUTH_PASS")),
		AuditEnabled:       parseBool(valueOrDefault(k.String("AUDIT_ENABLED"), "true")),
		AuditSamplingRate:  parseFloat(k.String("AUDIT_SAMPLING_RATE"), 1),
		MaxBodyBytes:       int64(parseInt(k.String("HTTP_MAX_BODY_BYTES"), 1<<20)),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.CatalogMaxLimit < cfg.CatalogDefaultLimit {
		cfg.CatalogMaxLimit = cfg.CatalogDefaultLimit
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseDecimal(value, fallback string) decimal.Decimal {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil || parsed.IsNegative() {
		return decimal.RequireFromString(fallback)
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed <= 0 || parsed > 1 {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
