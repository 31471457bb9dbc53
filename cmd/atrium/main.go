package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atrium-hq/atrium/internal/app"
	"github.com/atrium-hq/atrium/internal/auth"
	"github.com/atrium-hq/atrium/internal/authz"
	"github.com/atrium-hq/atrium/internal/identity"
	"github.com/atrium-hq/atrium/internal/observability"
	"github.com/atrium-hq/atrium/internal/platform/cache"
	"github.com/atrium-hq/atrium/internal/platform/db"
	"github.com/atrium-hq/atrium/internal/roles"
	"github.com/atrium-hq/atrium/internal/session"
	"github.com/atrium-hq/atrium/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	identityClient := identity.NewClient(cfg.IdentityURL, cfg.IdentityAPIKey)
	jar := session.NewJar(cfg.AccessCookie, cfg.RefreshCookie, cfg.ExpiryCookie, cfg.IsProduction())
	resolver := session.NewResolver(session.ResolverConfig{
		Identity:      identityClient,
		Jar:           jar,
		Lifetime:      cfg.SessionLifetime,
		RefreshWindow: cfg.RefreshWindow,
		Logger:        logger,
		Refreshes:     metrics,
	})

	roleStore := roles.NewPGStore(dbpool)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	backfiller := roles.NewBackfiller(jobsClient, redisClient, cfg.BackfillGuardTTL, logger)

	pipeline := authz.NewPipeline(authz.PipelineConfig{
		Sessions: resolver,
		Roles:    roleStore,
		Backfill: backfiller.Request,
		Table:    authz.DefaultRouteTable(),
		// Operational endpoints stay outside the session gate.
		Public:    append(authz.DefaultPublicRoutes(), "/healthz", "/metrics", "/jobs"),
		LoginPath: cfg.LoginPath,
		HomePath:  "/",
		Logger:    logger,
	})

	authHandler := auth.NewHandler(logger, identityClient, jar)
	capabilityHandler := authz.NewCapabilityHandler(logger, roleStore)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pipeline:          pipeline,
		AuthHandler:       authHandler,
		CapabilityHandler: capabilityHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
