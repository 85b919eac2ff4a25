// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/component-store/internal/admin"
	"github.com/carterperez-dev/component-store/internal/auth"
	"github.com/carterperez-dev/component-store/internal/catalog"
	"github.com/carterperez-dev/component-store/internal/config"
	"github.com/carterperez-dev/component-store/internal/core"
	"github.com/carterperez-dev/component-store/internal/entitlement"
	"github.com/carterperez-dev/component-store/internal/health"
	"github.com/carterperez-dev/component-store/internal/ledger"
	"github.com/carterperez-dev/component-store/internal/middleware"
	"github.com/carterperez-dev/component-store/internal/payment"
	"github.com/carterperez-dev/component-store/internal/paypal"
	"github.com/carterperez-dev/component-store/internal/server"
	"github.com/carterperez-dev/component-store/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"driver", cfg.Database.Driver,
		"max_open_conns", cfg.Database.MaxOpenConns,
		"auto_migrate", cfg.Database.AutoMigrate,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	policy, err := entitlement.NewPolicy(cfg.Policy)
	if err != nil {
		return err
	}

	minAmount, maxAmount, err := cfg.Payment.Bounds()
	if err != nil {
		return err
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(jwtManager, userSvc)
	authHandler := auth.NewHandler(authSvc)

	componentRepo := catalog.NewRepository(db.DB, policy.ReservedComponentID)
	ledgerRepo := ledger.NewRepository(db.DB)
	evaluator := entitlement.NewEvaluator(policy, componentRepo, ledgerRepo)

	catalogSvc := catalog.NewService(componentRepo, evaluator, cfg.Policy.ComponentTypes)
	catalogHandler := catalog.NewHandler(catalogSvc)

	paypalClient := paypal.NewClient(cfg.PayPal)
	if !cfg.PayPal.HasCredentials() {
		logger.Warn("paypal credentials missing, payment endpoints will fail")
	}

	orderRepo := payment.NewRepository(db.DB)
	orchestrator := payment.NewOrchestrator(
		paypalClient,
		orderRepo,
		payment.NewSettler(db.DB),
		evaluator,
		logger,
	)

	attempts := middleware.NewLimiter(
		redis.Client,
		"payment:attempts:",
		middleware.PerWindow(cfg.Payment.OrderAttempts, cfg.Payment.OrderAttemptsWindow),
	)

	publicBase := strings.TrimRight(cfg.Payment.PublicBaseURL, "/")
	paymentSvc := payment.NewService(
		paypalClient,
		orderRepo,
		componentRepo,
		ledgerRepo,
		evaluator,
		orchestrator,
		attempts,
		payment.Options{
			MinAmount: minAmount,
			MaxAmount: maxAmount,
			Currency:  policy.Currency,
			ReturnURL: publicBase + "/v1/payment/capture-order",
			CancelURL: publicBase + "/v1/payment/cancel-order",
			BrandName: paypalClient.BrandName(),
		},
		logger,
	)
	paymentHandler := payment.NewHandler(paymentSvc, payment.RedirectURLs{
		Success: cfg.Payment.SuccessURL,
		Cancel:  cfg.Payment.CancelURL,
		Error:   cfg.Payment.ErrorURL,
	})

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:          db.Stats,
		RedisStats:       redis.PoolStats,
		DBPing:           db.Ping,
		RedisPing:        redis.Ping,
		Ledger:           ledgerRepo,
		Orders:           orderRepo,
		Users:            userSvc,
		Components:       componentRepo,
		PremiumThreshold: policy.PremiumThreshold,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	verifier := middleware.WithTokenVersion(jwtManager, userSvc)
	authenticator := middleware.Authenticator(verifier)
	optionalAuth := middleware.OptionalAuth(verifier)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		userHandler.RegisterRoutes(r, authenticator)
		catalogHandler.RegisterRoutes(r, authenticator, optionalAuth)
		paymentHandler.RegisterRoutes(r, authenticator)

		userHandler.RegisterAdminRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
