package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/session-auth/internal/api/http"
	"github.com/spec-kit/session-auth/internal/api/http/handlers"
	"github.com/spec-kit/session-auth/internal/app"
	"github.com/spec-kit/session-auth/internal/auth"
	"github.com/spec-kit/session-auth/internal/config"
	"github.com/spec-kit/session-auth/internal/events"
	"github.com/spec-kit/session-auth/internal/observability"
	"github.com/spec-kit/session-auth/internal/service"
	"github.com/spec-kit/session-auth/internal/worker"
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

	infra, err := app.NewInfra(ctx, *cfg, logger)
	if err != nil {
		logger.Fatal("failed to init directory", zap.String("backend", cfg.Directory.Backend), zap.Error(err))
	}
	defer infra.Close()

	codec, err := auth.NewTokenCodec(cfg.Auth.Secret)
	if err != nil {
		logger.Fatal("failed to init token codec", zap.Error(err))
	}
	transport := auth.NewSessionTransport(cfg.Auth.CookieSecure, codec.TTL())
	metrics := observability.NewMetrics()
	resolver := auth.NewIdentityResolver(codec, transport, infra.Directory, logger, metrics)
	authorizer := auth.NewAuthorizer(resolver)

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(service.AuthDependencies{
		Directory:  infra.Directory,
		Hasher:     auth.NewBcryptHasher(cfg.Auth.BcryptCost),
		Codec:      codec,
		Transport:  transport,
		Dispatcher: dispatcher,
	})

	fiberApp := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(fiberApp, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(fiberApp, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"directory": infra.Directory,
		}),
		Auth:           handlers.NewAuthHandler(authService, resolver),
		Admin:          handlers.NewAdminHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(resolver),
		Authorizer:     authorizer,
	})

	go func() {
		if err := fiberApp.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	logger.Info("session-auth started",
		zap.String("addr", cfg.App.Addr()),
		zap.String("env", cfg.App.Env),
		zap.String("directory", cfg.Directory.Backend),
		zap.Bool("secure_cookies", cfg.Auth.CookieSecure),
	)

	waitForShutdown(logger)

	_ = fiberApp.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
