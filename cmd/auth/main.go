package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookstore/internal/auth/credentials"
	"bookstore/internal/auth/handlers"
	"bookstore/internal/auth/repository"
	"bookstore/internal/auth/service"
	"bookstore/internal/common/config"
	"bookstore/internal/common/health"
	"bookstore/internal/common/metrics"
	"bookstore/internal/common/middleware"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"go.uber.org/zap"
)

// ============================================================
// Auth Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3002"
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probes := health.NewProbes()

	store, closeStore, err := openStore(ctx, cfg, probes)
	if err != nil {
		logger.Fatal("open identity store", zap.String("store", cfg.AuthStore), zap.Error(err))
	}
	defer closeStore()

	hasher := credentials.NewHasher(cfg.BcryptCost)
	mt := metrics.New()

	sessions := service.NewSessionManager(store, hasher,
		service.WithTTL(cfg.SessionTTL),
		service.WithLogger(logger.Named("sessions")),
		service.WithMetrics(mt),
	)
	guard := service.NewGuard(sessions, mt)
	accounts := service.NewAccounts(store, hasher, sessions, logger.Named("accounts"))

	if _, err := accounts.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	go sessions.Run(ctx, cfg.SweepInterval)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Bookstore Auth Service",
		ErrorHandler: handlers.ErrorHandler(logger.Named("http")),
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins...))

	// ============================================================
	// Health Check & Metrics Routes
	// ============================================================

	probes.Register(app)
	app.Get("/metrics", adaptor.HTTPHandler(mt.Handler()))

	// ============================================================
	// Auth Routes
	// ============================================================

	app.Use("/api/v1/auth/login", middleware.RateLimit(cfg.LoginRateLimit, time.Minute))
	handlers.RegisterRoutes(app,
		handlers.NewAuthHandler(sessions, accounts, logger.Named("auth")),
		handlers.NewUserHandler(accounts),
		guard,
	)

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	probes.MarkStarted()

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting auth service",
		zap.String("addr", addr),
		zap.String("env", cfg.Environment),
		zap.String("store", cfg.AuthStore),
		zap.Duration("session_ttl", sessions.TTL()),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// openStore returns the configured identity store and its cleanup.
func openStore(ctx context.Context, cfg *config.Config, probes *health.Probes) (service.IdentityStore, func(), error) {
	switch cfg.AuthStore {
	case config.StoreMemory:
		return repository.NewMemoryStore(), func() {}, nil

	case config.StoreSQLite:
		db, err := repository.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.New(db)
		if err := repo.Init(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		probes.AddCheck("db", db.PingContext)
		return repo, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown AUTH_STORE %q", cfg.AuthStore)
	}
}
