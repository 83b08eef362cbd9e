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
	"golang.org/x/sync/errgroup"

	"github.com/wayfarer-labs/wayfarer/internal/app"
	"github.com/wayfarer-labs/wayfarer/internal/auth"
	"github.com/wayfarer-labs/wayfarer/internal/authz"
	"github.com/wayfarer-labs/wayfarer/internal/collab"
	"github.com/wayfarer-labs/wayfarer/internal/journeys"
	"github.com/wayfarer-labs/wayfarer/internal/observability"
	"github.com/wayfarer-labs/wayfarer/internal/platform/cache"
	"github.com/wayfarer-labs/wayfarer/internal/platform/db"
	"github.com/wayfarer-labs/wayfarer/internal/posts"
	"github.com/wayfarer-labs/wayfarer/internal/public"
	"github.com/wayfarer-labs/wayfarer/internal/rbac"
	"github.com/wayfarer-labs/wayfarer/internal/shared"
	"github.com/wayfarer-labs/wayfarer/internal/users"
	"github.com/wayfarer-labs/wayfarer/jobs"
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

	sessionManager := shared.NewSessionManager(redisClient, "wayfarer_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	passphrases := auth.BcryptPassphrase{}

	journeysRepo := journeys.NewRepository(dbpool)
	collabRepo := collab.NewRepository(dbpool)
	engine := authz.NewEngine(journeysRepo, collabRepo, passphrases)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacService := rbac.NewService(rbacRepo, engine)
	rbacHandler := rbac.NewHandler(logger, rbacService)
	permissionsHandler := rbac.NewPermissionsHandler()

	resolver := auth.NewResolver(authRepo, rbacService)
	authMiddleware := auth.Middleware{Resolver: resolver, Logger: logger}

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	journeysService := journeys.NewService(journeysRepo, engine, passphrases)
	journeysHandler := journeys.NewHandler(logger, journeysService, cfg.PublicBaseURL)

	postsRepo := posts.NewRepository(dbpool)
	postsService := posts.NewService(logger, postsRepo, engine, jobClient)
	postsHandler := posts.NewHandler(logger, postsService)

	collabService := collab.NewService(collabRepo, journeysRepo, engine)
	collabHandler := collab.NewHandler(logger, collabService)

	publicHandler := public.NewHandler(logger, journeysRepo, postsRepo, engine)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, passphrases, engine)
	usersHandler := users.NewHandler(logger, usersService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		JourneysHandler:    journeysHandler,
		PostsHandler:       postsHandler,
		CollabHandler:      collabHandler,
		PublicHandler:      publicHandler,
		RolesHandler:       rbacHandler,
		PermissionsHandler: permissionsHandler,
		UsersHandler:       usersHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
