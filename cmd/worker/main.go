package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/wayfarer-labs/wayfarer/internal/app"
	"github.com/wayfarer-labs/wayfarer/internal/auth"
	jobmetrics "github.com/wayfarer-labs/wayfarer/internal/jobs"
	"github.com/wayfarer-labs/wayfarer/internal/platform/db"
	"github.com/wayfarer-labs/wayfarer/internal/posts"
	"github.com/wayfarer-labs/wayfarer/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := jobmetrics.NewMetrics(nil)

	postsRepo := posts.NewRepository(pool)
	thumbnailJob := jobs.NewThumbnailProcessor(jobs.PrefixResizer{}, postsRepo, metrics, logger)

	authRepo := auth.NewRepository(pool)
	pruneJob := jobs.NewSessionPruner(authRepo, metrics, logger)

	pruneTask, err := jobs.NewSessionPruneTask(time.Now().UTC())
	if err != nil {
		logger.Error("build session prune task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeMediaThumbnail, Handler: thumbnailJob.Handle},
			{Type: jobs.TaskTypeSessionPrune, Handler: pruneJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "45 3 * * *", Task: pruneTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
