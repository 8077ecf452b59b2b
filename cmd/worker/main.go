package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/analytics/export"
	"github.com/pulseboard/pulseboard/internal/analytics/fixtures"
	"github.com/pulseboard/pulseboard/internal/app"
	jobmetrics "github.com/pulseboard/pulseboard/internal/jobs"
	"github.com/pulseboard/pulseboard/internal/platform/cache"
	"github.com/pulseboard/pulseboard/jobs"
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

	if cfg.RedisAddr == "" {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}
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

	var dataset fixtures.Dataset
	if cfg.FixturesPath != "" {
		dataset, err = fixtures.LoadFile(cfg.FixturesPath)
	} else {
		dataset, err = fixtures.Load()
	}
	if err != nil {
		logger.Error("load fixtures", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := jobmetrics.NewMetrics(nil)

	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	analyticsService := analytics.NewService(analytics.NewMockSource(dataset), analyticsCache)

	timing := export.Timing{
		Delay:   cfg.ExportDelay,
		Hold:    cfg.ExportCompleteHold,
		Pending: cfg.ExportPendingTTL,
	}
	processor := export.NewProcessor(export.NewRedisStore(redisClient), timing, logger)

	exportJob := jobs.NewExportJob(processor, logger, metrics)
	warmupJob := jobs.NewSnapshotWarmupJob(analyticsService, logger, metrics)

	warmupTask, err := jobs.NewSnapshotWarmupTask()
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalyticsExport, Handler: exportJob.Handle},
			{Type: jobs.TaskAnalyticsSnapshotWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
