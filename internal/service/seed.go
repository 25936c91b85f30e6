package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/salesflow/internal/auth"
	"github.com/spec-kit/salesflow/internal/config"
	"github.com/spec-kit/salesflow/internal/domain"
	"github.com/spec-kit/salesflow/internal/repository"
)

// SeedAdmin creates the default administrator unless an account with that
// username already exists. It reports whether an account was created.
func SeedAdmin(ctx context.Context, accounts repository.AccountRepository, hasher auth.PasswordHasher, cfg config.SeedConfig, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return false, errors.New("seed admin username and password are required")
	}
	if err := validateLengths(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminName, cfg.AdminEmail, ""); err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	if _, err := accounts.GetByUsername(ctx, cfg.AdminUsername); err == nil {
		logger.Info("admin account already present", zap.String("username", cfg.AdminUsername))
		return false, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return false, err
	}
	admin := &domain.Account{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		DisplayName:  cfg.AdminName,
		Email:        optional(cfg.AdminEmail),
		Role:         domain.RoleAdmin,
	}
	if admin.DisplayName == "" {
		admin.DisplayName = cfg.AdminUsername
	}
	if err := accounts.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}

	logger.Info("admin account created", zap.Int64("account_id", admin.ID), zap.String("username", admin.Username))
	return true, nil
}
