package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/agricoop/magasin-service/internal/api/http"
	"github.com/agricoop/magasin-service/internal/api/http/handlers"
	"github.com/agricoop/magasin-service/internal/auth"
	"github.com/agricoop/magasin-service/internal/config"
	"github.com/agricoop/magasin-service/internal/events"
	"github.com/agricoop/magasin-service/internal/observability"
	"github.com/agricoop/magasin-service/internal/persistence"
	"github.com/agricoop/magasin-service/internal/repository"
	"github.com/agricoop/magasin-service/internal/service"
	apperrors "github.com/agricoop/magasin-service/pkg/util/errorutil"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Fatal("failed to init token manager", zap.Error(err))
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	magasinRepo := repository.NewMagasinRepository(pool)
	lotRepo := repository.NewLotRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:    userRepo,
		MagasinRepo: magasinRepo,
		Throttle:    redis,
		Dispatcher:  dispatcher,
		Tokens:      tokens,
		Logger:      logger,
	})
	magasinService := service.NewMagasinService(magasinRepo)
	stockService := service.NewStockService(service.StockDependencies{
		LotRepo:     lotRepo,
		MagasinRepo: magasinRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: apperrors.Respond,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:            handlers.NewAuthHandler(authService),
		Magasins:        handlers.NewMagasinHandler(magasinService),
		Stock:           handlers.NewStockHandler(stockService),
		Metrics:         handlers.NewMetricsHandler(metrics),
		AuthMiddleware:  auth.NewAuthMiddleware(tokens),
		PublicRateLimit: httptransport.RateLimit(cfg.Auth.RateLimitPerSecond, cfg.Auth.RateLimitBurst),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
