package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/analytics/export"
	jobmetrics "github.com/pulseboard/pulseboard/internal/jobs"
)

// SnapshotWarmer builds and caches a dashboard snapshot.
type SnapshotWarmer interface {
	Snapshot(ctx context.Context, dateRange string) (analytics.Snapshot, error)
}

// SnapshotWarmupJob pre-populates the snapshot cache for every date range.
type SnapshotWarmupJob struct {
	Analytics SnapshotWarmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewSnapshotWarmupJob wires dependencies for the warmup handler.
func NewSnapshotWarmupJob(warmer SnapshotWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SnapshotWarmupJob {
	return &SnapshotWarmupJob{
		Analytics: warmer,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes snapshot warmup tasks.
func (j *SnapshotWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("snapshot warmup: handler not configured")
	}
	var payload SnapshotWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("snapshot warmup: decode payload: %w", asynq.SkipRetry)
		}
	}
	ranges := payload.Ranges
	if len(ranges) == 0 {
		ranges = make([]string, 0, len(export.DateRanges))
		for _, opt := range export.DateRanges {
			ranges = append(ranges, opt.Value)
		}
	}

	tracker := j.metrics().Track(TaskAnalyticsSnapshotWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := j.now()
	logger.Info("starting snapshot warmup", slog.Int("ranges", len(ranges)))
	for _, dateRange := range ranges {
		if err := j.warmRange(ctx, dateRange); err != nil {
			resultErr = err
			logger.Error("warm range", slog.String("range", dateRange), slog.Any("error", err))
			return resultErr
		}
	}
	logger.Info("completed snapshot warmup", slog.Int("ranges", len(ranges)), slog.Duration("duration", j.now().Sub(start)))
	return resultErr
}

func (j *SnapshotWarmupJob) warmRange(ctx context.Context, dateRange string) error {
	rangeCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	_, err := j.Analytics.Snapshot(rangeCtx, dateRange)
	return err
}

func (j *SnapshotWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsSnapshotWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsSnapshotWarmup))
}

func (j *SnapshotWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SnapshotWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
