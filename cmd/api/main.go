// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/templates/isp-backend/internal/admin"
	"github.com/carterperez-dev/templates/isp-backend/internal/auth"
	"github.com/carterperez-dev/templates/isp-backend/internal/config"
	"github.com/carterperez-dev/templates/isp-backend/internal/core"
	"github.com/carterperez-dev/templates/isp-backend/internal/customer"
	"github.com/carterperez-dev/templates/isp-backend/internal/dashboard"
	"github.com/carterperez-dev/templates/isp-backend/internal/equipment"
	"github.com/carterperez-dev/templates/isp-backend/internal/health"
	"github.com/carterperez-dev/templates/isp-backend/internal/middleware"
	"github.com/carterperez-dev/templates/isp-backend/internal/network"
	"github.com/carterperez-dev/templates/isp-backend/internal/payment"
	"github.com/carterperez-dev/templates/isp-backend/internal/plan"
	"github.com/carterperez-dev/templates/isp-backend/internal/server"
	"github.com/carterperez-dev/templates/isp-backend/internal/subscription"
	"github.com/carterperez-dev/templates/isp-backend/internal/ticket"
	"github.com/carterperez-dev/templates/isp-backend/internal/user"
)

const (
	drainDelay = 5 * time.Second

	authRequestsPerMinute = 10
	authBurst             = 5
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
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
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

	revocations, revocationCheck := newRevocationStore(ctx, cfg.Auth, redis)
	logger.Info("token revocation store ready",
		"backend", cfg.Auth.RevocationBackend,
	)

	tx := core.NewTransactor(db.DB)

	customerSvc := customer.NewService(customer.NewRepository(db.DB))
	userSvc := user.NewService(user.NewRepository(db.DB), customerSvc, tx)

	authSvc := auth.NewService(
		auth.NewRepository(db.DB),
		jwtManager,
		userSvc,
		revocations,
		tx,
		auth.ServiceConfig{
			ResetTokenExpire: cfg.Auth.ResetTokenExpire,
			ResetSender:      auth.LogResetSender{Logger: logger},
		},
	)

	planSvc := plan.NewService(plan.NewRepository(db.DB), tx)
	subscriptionSvc := subscription.NewService(
		subscription.NewRepository(db.DB),
		customerSvc,
		tx,
		subscription.Config{
			DefaultDays:          cfg.Billing.SubscriptionDays,
			DefaultPaymentMethod: cfg.Billing.DefaultPaymentMethod,
		},
	)
	paymentSvc := payment.NewService(
		payment.NewRepository(db.DB),
		customerSvc,
		payment.NewSimulatedGateway(cfg.Billing.PaymentSuccessRate),
	)
	ticketSvc := ticket.NewService(ticket.NewRepository(db.DB), customerSvc, tx)
	equipmentSvc := equipment.NewService(equipment.NewRepository(db.DB), customerSvc)
	networkSvc := network.NewService(network.NewRepository(db.DB))
	dashboardSvc := dashboard.NewService(dashboard.NewRepository(db.DB))

	healthHandler := health.NewHandler(
		health.Dependency{Name: "database", Checker: db},
		health.Dependency{Name: "redis", Checker: redis},
		health.Dependency{Name: "revocations", Checker: revocationCheck},
	)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:           db.Stats,
		RedisStats:        redis.PoolStats,
		DBPing:            db.Ping,
		RedisPing:         redis.Ping,
		Revocations:       authSvc,
		RevocationBackend: cfg.Auth.RevocationBackend,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
		ServiceName:   cfg.Otel.ServiceName,
	})

	router := srv.Router()

	globalLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerWindow(
			cfg.RateLimit.Requests,
			cfg.RateLimit.Burst,
			cfg.RateLimit.Window,
		),
		KeyPrefix: redis.Prefix(),
		FailOpen:  true,
	})
	authLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit:     middleware.PerMinute(authRequestsPerMinute, authBurst),
		KeyPrefix: redis.Key("auth"),
		FailOpen:  true,
	})

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(globalLimiter.Handler)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	roleLimiter := globalLimiter.ByRole(middleware.DefaultRoleLimits)
	verify := middleware.Authenticator(authSvc)
	authenticator := func(next http.Handler) http.Handler {
		return verify(roleLimiter(next))
	}

	router.Route("/v1", func(r chi.Router) {
		auth.NewHandler(authSvc).RegisterRoutes(r, authenticator, authLimiter.Handler)
		user.NewHandler(userSvc, authSvc).RegisterRoutes(r, authenticator)
		customer.NewHandler(customerSvc).RegisterRoutes(r, authenticator)
		plan.NewHandler(planSvc).RegisterRoutes(r, authenticator)
		subscription.NewHandler(subscriptionSvc).RegisterRoutes(r, authenticator)
		payment.NewHandler(paymentSvc).RegisterRoutes(r, authenticator)
		ticket.NewHandler(ticketSvc).RegisterRoutes(r, authenticator)
		equipment.NewHandler(equipmentSvc).RegisterRoutes(r, authenticator)
		network.NewHandler(networkSvc).RegisterRoutes(r, authenticator)
		dashboard.NewHandler(dashboardSvc).RegisterRoutes(r, authenticator)
		adminHandler.RegisterRoutes(r, authenticator, middleware.RequireAdmin)
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

// newRevocationStore selects the configured backend. The in-memory store is
// swept until ctx ends.
func newRevocationStore(
	ctx context.Context,
	cfg config.AuthConfig,
	redis *core.Redis,
) (auth.RevocationStore, health.Checker) {
	if cfg.RevocationBackend == config.RevocationBackendMemory {
		store := auth.NewMemoryRevocationStore()
		go store.Run(ctx, cfg.RevocationSweepInterval)

		return store, health.CheckFunc(func(ctx context.Context) error {
			_, err := store.Len(ctx)
			return err
		})
	}

	return auth.NewRedisRevocationStore(redis.Client, redis.Key("revoked", "")), redis
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
