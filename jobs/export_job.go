package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/analytics/export"
	jobmetrics "github.com/pulseboard/pulseboard/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ExportProcessor advances one export.
type ExportProcessor interface {
	Process(ctx context.Context, task export.Task) error
}

// ExportJob runs queued exports.
type ExportJob struct {
	Processor ExportProcessor
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewExportJob wires dependencies for the export handler.
func NewExportJob(processor ExportProcessor, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExportJob {
	return &ExportJob{Processor: processor, Logger: logger, Metrics: metrics}
}

// Handle processes TaskAnalyticsExport tasks.
func (j *ExportJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Processor == nil {
		return errors.New("export job: handler not configured")
	}
	var task export.Task
	if err := json.Unmarshal(t.Payload(), &task); err != nil || task.ID == "" {
		return fmt.Errorf("export job: decode payload: %w", asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskAnalyticsExport)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("export_id", task.ID), slog.String("format", string(task.Format)))
	logger.Info("starting export")
	if err := j.Processor.Process(ctx, task); err != nil {
		if errors.Is(err, export.ErrNotFound) {
			logger.Warn("export expired before processing")
			return fmt.Errorf("export job: %w: %w", err, asynq.SkipRetry)
		}
		logger.Error("export failed", slog.Any("error", err))
		return err
	}
	j.metrics().AddExport(string(task.Format))
	return nil
}

func (j *ExportJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsExport))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsExport))
}

func (j *ExportJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
