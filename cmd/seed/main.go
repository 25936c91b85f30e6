package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/auth"
	"github.com/spec-kit/salesflow/internal/config"
	"github.com/spec-kit/salesflow/internal/observability"
	"github.com/spec-kit/salesflow/internal/persistence"
	"github.com/spec-kit/salesflow/internal/repository"
	"github.com/spec-kit/salesflow/internal/service"
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Configured() {
		logger.Fatal("seeding requires POSTGRES_DSN or POSTGRES_HOST")
	}

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	accounts := repository.NewAccountRepository(pg.PoolHandle())
	created, err := service.SeedAdmin(ctx, accounts, auth.NewBcryptHasher(cfg.Auth.BcryptCost), cfg.Seed, logger)
	if err != nil {
		logger.Fatal("failed to seed admin", zap.Error(err))
	}
	logger.Info("seed finished", zap.Bool("admin_created", created))
}
