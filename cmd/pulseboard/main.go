package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/analytics/export"
	"github.com/pulseboard/pulseboard/internal/analytics/fixtures"
	analytichttp "github.com/pulseboard/pulseboard/internal/analytics/http"
	"github.com/pulseboard/pulseboard/internal/app"
	"github.com/pulseboard/pulseboard/internal/observability"
	"github.com/pulseboard/pulseboard/internal/platform/cache"
	"github.com/pulseboard/pulseboard/jobs"
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

	dataset, err := loadDataset(cfg.FixturesPath)
	if err != nil {
		logger.Error("load fixtures", slog.Any("error", err))
		os.Exit(1)
	}
	records, err := dataset.Records()
	if err != nil {
		logger.Error("build campaign records", slog.Any("error", err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, running without cache and queue", slog.Any("error", err))
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()

	analyticsCache := analytics.NewCache(redisClient, cfg.CacheTTL)
	if err := analyticsCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}
	analyticsService := analytics.NewService(analytics.NewMockSource(dataset), analyticsCache)

	refresher := analytics.NewRefresher(
		analytics.Simulated(cfg.DashboardInitialDelay, analyticsService.Loader(analytics.DefaultRange)),
		analytics.Simulated(cfg.DashboardRefreshDelay, analyticsService.Reloader(analytics.DefaultRange)),
		analytics.WithRefreshLogger(logger),
		analytics.WithOutcomeObserver(metrics.ObserveRefresh),
	)
	defer refresher.Close()

	go func() {
		if _, err := refresher.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("initial dashboard load", slog.Any("error", err))
		}
	}()
	autoRefresh := analytics.StartAutoRefresh(ctx, refresher, cfg.DashboardAutoRefresh, logger)
	defer autoRefresh.Stop()

	timing := export.Timing{
		Delay:   cfg.ExportDelay,
		Hold:    cfg.ExportCompleteHold,
		Pending: cfg.ExportPendingTTL,
	}
	var (
		exportStore    export.Store
		exportEnqueuer export.Enqueuer
		inspector      jobs.QueueInspector
	)
	if redisClient != nil {
		exportStore = export.NewRedisStore(redisClient)
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		client := jobs.NewClient(redisOpts)
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("asynq client close", slog.Any("error", err))
			}
		}()
		exportEnqueuer = client
		queueInspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := queueInspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		inspector = queueInspector
	} else {
		exportStore = export.NewMemoryStore()
		exportEnqueuer = export.NewInlineEnqueuer(ctx, export.NewProcessor(exportStore, timing, logger), logger)
	}
	exportService := export.NewService(exportStore, exportEnqueuer, timing, logger)

	analyticsHandler, err := analytichttp.NewHandler(analytichttp.Config{
		Logger:    logger,
		Dashboard: analyticsService,
		Refresher: refresher,
		Exports:   exportService,
		Records:   records,
		PageSize:  cfg.TablePageSize,
		Location:  cfg.Location(),
	})
	if err != nil {
		logger.Error("init analytics handler", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AnalyticsHandler: analyticsHandler,
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
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

func loadDataset(path string) (fixtures.Dataset, error) {
	if path == "" {
		return fixtures.Load()
	}
	return fixtures.LoadFile(path)
}
