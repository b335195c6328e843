package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/session-auth/internal/app"
	"github.com/spec-kit/session-auth/internal/auth"
	"github.com/spec-kit/session-auth/internal/config"
	"github.com/spec-kit/session-auth/internal/observability"
	"github.com/spec-kit/session-auth/internal/service"
)

const (
	devAdminEmail    = "admin@example.com"
	devAdminPassword = "admin123"
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

	email, password := cfg.Seed.AdminEmail, cfg.Seed.AdminPassword
	if email == "" || password == "" {
		if cfg.App.IsProduction() {
			logger.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required in production")
		}
		email, password = devAdminEmail, devAdminPassword
	}

	ctx := context.Background()
	infra, err := app.NewInfra(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to init directory", zap.String("backend", cfg.Directory.Backend), zap.Error(err))
	}
	defer infra.Close()

	created, err := service.SeedAdmin(ctx, infra.Directory, auth.NewBcryptHasher(cfg.Auth.BcryptCost), email, password)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seeded roles and admin user", zap.String("email", email), zap.Bool("created", created))
}
