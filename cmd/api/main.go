package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/analytics"
	"github.com/noah-isme/toko-storefront/internal/audit"
	"github.com/noah-isme/toko-storefront/internal/cache"
	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/catalog"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/config"
	"github.com/noah-isme/toko-storefront/internal/customer"
	"github.com/noah-isme/toko-storefront/internal/health"
	"github.com/noah-isme/toko-storefront/internal/lock"
	"github.com/noah-isme/toko-storefront/internal/notify"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/order"
	"github.com/noah-isme/toko-storefront/internal/ratelimit"
	"github.com/noah-isme/toko-storefront/internal/security"
	"github.com/noah-isme/toko-storefront/internal/settings"
	"github.com/noah-isme/toko-storefront/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// prices travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "toko")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "toko-storefront",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.AutoMigrate {
		if err := store.MigrateUp(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()
	db := store.NewStore(pool)

	redisClient := mustInitRedis(ctx, cfg, logger, metricsEnabled)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse asynq redis uri")
	}
	taskClient := asynq.NewClient(redisOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	settingsSvc, err := settings.NewService(settings.Config{
		Queries: db.Queries,
		Cache:   cache.NewJSON(redisClient, cfg.SettingsCacheTTL),
		StoreID: cfg.StoreID,
		Defaults: settings.Settings{
			StoreName:    cfg.StoreName,
			Currency:     cfg.DefaultCurrency,
			ShippingCost: cfg.DefaultShippingCost,
			TaxRate:      cfg.DefaultTaxRate,
		},
		Logger: logger.With().Str("component", "settings").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise settings service")
	}
	settingsHandler := &settings.Handler{Svc: settingsSvc}
	currency := func(ctx context.Context) string {
		s, err := settingsSvc.Get(ctx)
		if err != nil {
			return cfg.DefaultCurrency
		}
		return s.Currency
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Queries:      db.Queries,
		Cache:        cache.NewJSON(redisClient, cfg.CatalogCacheTTL),
		StoreID:      cfg.StoreID,
		DefaultLimit: cfg.CatalogDefaultLimit,
		MaxLimit:     cfg.CatalogMaxLimit,
		Logger:       logger.With().Str("component", "catalog").Logger(),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogSvc, Currency: currency})

	cartSvc := &cart.Service{
		Q:        db.Queries,
		Settings: settingsSvc,
		TTL:      cfg.CartTTL,
		Log:      logger.With().Str("component", "cart").Logger(),
	}
	cartHandler := &cart.Handler{Svc: cartSvc}

	checkoutSvc := &checkout.Service{
		Runner:   checkout.StoreRunner{Store: db},
		Settings: settingsSvc,
		Notifier: notify.NewEnqueuer(taskClient, logger.With().Str("component", "notify").Logger()),
		Locker: lock.Locker{
			R:       redisClient,
			Prefix:  "lock:checkout:",
			TTL:     cfg.CheckoutLockTTL,
			MaxWait: cfg.CheckoutLockWait,
		},
		DeliveryLeadTime: cfg.DeliveryLeadTime,
		Log:              logger.With().Str("component", "checkout").Logger(),
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc}

	checkoutLimiter, err := ratelimit.NewRedis(redisClient, cfg.CheckoutRateLimit, "rl:checkout")
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise checkout rate limiter")
	}
	checkoutRate := ratelimit.Handler{
		Limiter: checkoutLimiter,
		Key:     ratelimit.ByClientIP("checkout"),
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}

	orderHandler := &order.Handler{Q: db.Queries}
	orderAdmin := &order.AdminHandler{Q: db.Queries}
	customerAdmin := &customer.Handler{Q: db.Queries, Currency: currency}
	notifyAdmin := &notify.AdminHandler{Store: db.Queries}
	analyticsHandler := &analytics.Handler{Svc: &analytics.Service{
		Q:            db.Queries,
		Cache:        cache.NewJSON(redisClient, cfg.AnalyticsCacheTTL),
		StoreID:      cfg.StoreID,
		DefaultRange: cfg.AnalyticsDefaultRange,
		Log:          logger.With().Str("component", "analytics").Logger(),
	}}

	auditRecorder := audit.HTTPRecorder{
		Service: audit.Service{Store: db.Queries, Enabled: cfg.AuditEnabled, SamplingRate: cfg.AuditSamplingRate},
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit log") },
	}
	auditHandler := audit.Handler{Store: db.Queries}
	adminAuth := security.BasicAuth{User: cfg.AdminBasicAuthUser, Pass: cfg.AdminBasicAuthPass, Realm: "toko-admin"}
	if !adminAuth.Enabled() {
		logger.Warn().Msg("admin routes are not protected; set ADMIN_BASIC_AUTH_USER")
	}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", "")), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production", TrustProxy: envBool("HTTP_TRUST_PROXY", false)}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Total-Count", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", false) {
		pprofAuth := security.BasicAuth{
			User: envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", cfg.AdminBasicAuthUser),
			Pass: envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", cfg.AdminBasicAuthPass),
		}
		r.Mount("/debug/pprof", pprofAuth.Middleware(newPprofMux()))
	}

	healthHandler := health.Handler{
		Checker:      health.Deps{DB: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/store", settingsHandler.Public)

		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{slug}", catalogHandler.ProductDetail)
		v.Post("/products/{slug}/price", catalogHandler.PreviewPrice)

		v.Route("/carts", func(c chi.Router) {
			c.Get("/{id}", cartHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/", cartHandler.Create)
				g.Post("/{id}/items", cartHandler.AddItem)
				g.Patch("/{id}/items/{itemId}", cartHandler.UpdateItem)
				g.Delete("/{id}/items/{itemId}", cartHandler.RemoveItem)
				g.Delete("/{id}/items", cartHandler.Clear)
			})
		})

		v.With(checkoutRate.Middleware, idem.Middleware).Post("/checkout", checkoutHandler.Checkout)
		v.Get("/orders/{orderNumber}", orderHandler.GetByNumber)

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(adminAuth.Middleware)
			record := func(action, resource, idParam string) func(http.Handler) http.Handler {
				return auditRecorder.Middleware(audit.HTTPConfig{Action: action, ResourceType: resource, ResourceIDParam: idParam})
			}

			admin.Get("/settings", settingsHandler.Get)
			admin.With(record("settings.update", "settings", "")).Put("/settings", settingsHandler.Update)

			admin.Get("/orders", orderAdmin.List)
			admin.Get("/orders/{id}", orderAdmin.Get)
			admin.With(record("order.patch", "order", "id")).Patch("/orders/{id}", orderAdmin.Patch)

			admin.Get("/customers", customerAdmin.List)
			admin.Get("/customers/{id}", customerAdmin.Get)

			admin.Get("/notifications", notifyAdmin.List)
			admin.With(record("notification.read", "notification", "id")).Patch("/notifications/{id}/read", notifyAdmin.MarkRead)

			admin.With(record("catalog.invalidate", "product", "slug")).Delete("/cache/products/{slug}", catalogHandler.InvalidateProduct)

			admin.Get("/analytics/overview", analyticsHandler.Overview)
			admin.Get("/analytics/sales", analyticsHandler.Sales)
			admin.Get("/analytics/top-products", analyticsHandler.TopProducts)

			admin.Get("/audit-logs", auditHandler.List)
		})
	})

	var root http.Handler = r
	if tracingEnabled {
		root = obs.WrapOTel(r, "toko-storefront")
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	<-sigCtx.Done()
	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), envDurationMillis("HTTP_SHUTDOWN_TIMEOUT_MS", 15000))
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "toko-storefront"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger, metrics bool) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	return mux
}
