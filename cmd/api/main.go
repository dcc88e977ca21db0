package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/finsupport/triage-service/internal/analytics"
	httptransport "github.com/finsupport/triage-service/internal/api/http"
	"github.com/finsupport/triage-service/internal/api/http/handlers"
	"github.com/finsupport/triage-service/internal/auth"
	"github.com/finsupport/triage-service/internal/config"
	"github.com/finsupport/triage-service/internal/events"
	"github.com/finsupport/triage-service/internal/observability"
	"github.com/finsupport/triage-service/internal/persistence"
	"github.com/finsupport/triage-service/internal/repository"
	"github.com/finsupport/triage-service/internal/service"
	"github.com/finsupport/triage-service/internal/session"
	"github.com/finsupport/triage-service/internal/upstream"
	"github.com/finsupport/triage-service/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	// Redis carries the session read sets across restarts; an unreachable
	// Redis falls back to process-local state.
	var readStore session.ReadStateStore
	if redis.Ping(ctx) == nil {
		readStore = session.NewRedisReadStateStore(redis.Client, cfg.Auth.SessionTTL())
	} else {
		logger.Warn("redis unavailable, session read state is process local")
		readStore = session.NewMemoryReadStateStore()
	}
	sessions := session.NewManager(readStore, cfg.Auth.SessionTTL())

	// Both repositories stay nil without Postgres; auth falls back to the dev
	// operator and audit events are only logged.
	var operatorRepo repository.OperatorRepository
	var auditRepo repository.AuditRepository
	if pool := pg.PoolHandle(); pool != nil {
		operatorRepo = repository.NewOperatorRepository(pool)
		auditRepo = repository.NewAuditRepository(pool)
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, operatorRepo, sessions)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), sessions)

	backend := upstream.NewClient(cfg.Upstream, logger)
	aggregator := analytics.NewAggregator(backend, logger)

	triageService := service.NewTriageService(service.TriageDependencies{
		Backend:    backend,
		Sessions:   sessions,
		Aggregator: aggregator,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})

	auditService := service.NewAuditService(dispatcher, auditRepo, logger)
	auditService.RegisterHandlers()

	if cfg.Refresh.Enabled {
		refresher := worker.NewRefresher(triageService, sessions, cfg.Refresh.Interval(), logger)
		go refresher.Run(ctx)
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis, backend, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Triage:         handlers.NewTriageHandler(triageService),
		Audit:          handlers.NewAuditHandler(auditRepo),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
