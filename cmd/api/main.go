package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/salesflow/internal/api/http"
	"github.com/spec-kit/salesflow/internal/api/http/handlers"
	"github.com/spec-kit/salesflow/internal/auth"
	"github.com/spec-kit/salesflow/internal/config"
	"github.com/spec-kit/salesflow/internal/crm"
	"github.com/spec-kit/salesflow/internal/events"
	"github.com/spec-kit/salesflow/internal/observability"
	"github.com/spec-kit/salesflow/internal/persistence"
	"github.com/spec-kit/salesflow/internal/repository"
	"github.com/spec-kit/salesflow/internal/service"
	"github.com/spec-kit/salesflow/internal/session"
	"github.com/spec-kit/salesflow/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	dependencies := map[string]handlers.Pinger{}
	if pg.Configured() {
		dependencies["postgres"] = pg
	}

	metrics := observability.NewMetrics()
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	var accounts repository.AccountRepository
	if pg.Configured() {
		accounts = repository.NewAccountRepository(pg.PoolHandle())
	} else {
		logger.Warn("postgres not configured; accounts are kept in memory and lost on restart")
		accounts = repository.NewMemoryAccountRepository()
		if _, err := service.SeedAdmin(ctx, accounts, hasher, cfg.Seed, logger); err != nil {
			logger.Fatal("failed to seed in-memory admin", zap.Error(err))
		}
	}

	var sessions session.Store
	switch cfg.Auth.SessionBackend {
	case config.SessionBackendRedis:
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer rdb.Close()
		dependencies["redis"] = rdb
		sessions = session.NewRedisStore(rdb.Client, nil)
	case config.SessionBackendPostgres:
		if !pg.Configured() {
			logger.Fatal("SESSION_BACKEND=postgres requires a postgres connection")
		}
		sessions = session.NewPostgresStore(pg.PoolHandle(), nil)
	default:
		sessions = session.NewMemoryStore(nil)
	}
	logger.Info("session store ready", zap.String("backend", cfg.Auth.SessionBackend))

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	authService := service.NewAuthService(service.AuthDependencies{
		Accounts:   accounts,
		Sessions:   sessions,
		Hasher:     hasher,
		Dispatcher: dispatcher,
		Logger:     logger,
		SessionTTL: cfg.Auth.SessionTTL(),
	})
	userService := service.NewUserService(service.UserDependencies{
		Accounts:   accounts,
		Hasher:     hasher,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if cfg.CRM.BaseURL == "" {
		logger.Warn("CRM_API_BASE_URL not set; CRM routes will fail")
	}
	leadService := service.NewLeadService(crm.NewHTTPClient(cfg.CRM, logger.Named("crm")), logger)

	tokens := auth.NewTokenManager(cfg.Auth.SessionSecret)
	authMiddleware := auth.NewMiddleware(authService, tokens, cfg.Auth.CookieName)

	sweeper := worker.NewSessionSweeper(sessions, cfg.Auth.SweepInterval(), logger.Named("sweeper"), nil, metrics)
	sweeperDone := worker.StartSessionSweeper(ctx, sweeper)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	if origins := strings.TrimSpace(cfg.App.AllowedOrigins); origins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowCredentials: origins != "*",
		}))
	}
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Auth: handlers.NewAuthHandler(authService, tokens, authMiddleware, handlers.CookieSettings{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}),
		Users:          handlers.NewUsersHandler(userService),
		Leads:          handlers.NewLeadsHandler(leadService),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	<-sweeperDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
