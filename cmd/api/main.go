package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/medmarket-admin/internal/api/http"
	"github.com/spec-kit/medmarket-admin/internal/api/http/handlers"
	"github.com/spec-kit/medmarket-admin/internal/auth"
	"github.com/spec-kit/medmarket-admin/internal/config"
	"github.com/spec-kit/medmarket-admin/internal/events"
	"github.com/spec-kit/medmarket-admin/internal/observability"
	"github.com/spec-kit/medmarket-admin/internal/persistence"
	"github.com/spec-kit/medmarket-admin/internal/repository"
	"github.com/spec-kit/medmarket-admin/internal/service"
	"github.com/spec-kit/medmarket-admin/internal/session"
	"github.com/spec-kit/medmarket-admin/internal/upstream"
	"github.com/spec-kit/medmarket-admin/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
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

	if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var auditRepo repository.AuditRepository
	if pool := pg.PoolHandle(); pool != nil {
		auditRepo = repository.NewAuditRepository(pool)
	}
	auditService := service.NewAuditService(dispatcher, auditRepo, logger)
	worker.StartAuditWorker(auditService)

	cipher, err := auth.NewProfileCipher(cfg.Session.ProfileSecret, cfg.Session.ProfileSalt)
	if err != nil {
		logger.Fatal("failed to init profile cipher", zap.Error(err))
	}

	upstreamClient := upstream.NewClient(cfg.Upstream, logger)

	storeFactory := func(sessionID string) session.Store {
		return session.NewRedisStore(redis.Client, sessionID, cfg.Session.TTL())
	}
	registry := session.NewRegistry(func(sessionID string) *session.Manager {
		store := storeFactory(sessionID)
		manager := session.NewManager(sessionID, store, upstreamClient,
			auth.NewRoleResolver(store, cipher), dispatcher, logger)
		manager.OnLogin(auth.AdminProfileWriter(store, cipher, logger))
		return manager
	}, cfg.Session.TTL())

	sessionMW := auth.NewSessionMiddleware(cfg.Session.CookieName, cfg.Session.TTL(), registry, storeFactory, cipher)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Session:      handlers.NewSessionHandler(metrics),
		History:      handlers.NewHistoryHandler(auditService),
		Proxy:        handlers.NewProxyHandler(upstreamClient, dispatcher, metrics, logger, cfg.Session.LoginRoute),
		SessionMW:    sessionMW,
		Metrics:      metrics,
		Dispatcher:   dispatcher,
		LoginRoute:   cfg.Session.LoginRoute,
		LandingRoute: cfg.Session.LandingRoute,
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
