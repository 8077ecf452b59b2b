package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/pulseboard/pulseboard/internal/analytics/export"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAnalyticsExport runs one simulated export.
	TaskAnalyticsExport = "analytics:export"
	// TaskAnalyticsSnapshotWarmup pre-builds cached dashboard snapshots.
	TaskAnalyticsSnapshotWarmup = "analytics:snapshot_warmup"
)

// NewExportTask constructs an export task.
func NewExportTask(task export.Task) (*asynq.Task, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsExport, data), nil
}

// SnapshotWarmupPayload lists the date ranges to warm. Empty means every
// offered range.
type SnapshotWarmupPayload struct {
	Ranges []string `json:"ranges,omitempty"`
}

// NewSnapshotWarmupTask constructs a warmup task.
func NewSnapshotWarmupTask(ranges ...string) (*asynq.Task, error) {
	data, err := json.Marshal(SnapshotWarmupPayload{Ranges: ranges})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnalyticsSnapshotWarmup, data), nil
}
