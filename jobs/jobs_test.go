package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/analytics/export"
	jobmetrics "github.com/pulseboard/pulseboard/internal/jobs"
)

type stubProcessor struct {
	got []export.Task
	err error
}

func (s *stubProcessor) Process(_ context.Context, task export.Task) error {
	s.got = append(s.got, task)
	return s.err
}

type stubWarmer struct {
	mu     sync.Mutex
	ranges []string
	err    error
}

func (s *stubWarmer) Snapshot(_ context.Context, dateRange string) (analytics.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges = append(s.ranges, dateRange)
	return analytics.Snapshot{Range: dateRange}, s.err
}

func TestExportTaskRoundTrip(t *testing.T) {
	task, err := NewExportTask(export.Task{ID: "abc", Format: export.FormatPDF, DateRange: "7days"})
	require.NoError(t, err)
	assert.Equal(t, TaskAnalyticsExport, task.Type())

	proc := &stubProcessor{}
	job := NewExportJob(proc, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, proc.got, 1)
	assert.Equal(t, "abc", proc.got[0].ID)
	assert.Equal(t, export.FormatPDF, proc.got[0].Format)
}

func TestExportJobSkipsRetryForBadPayload(t *testing.T) {
	job := NewExportJob(&stubProcessor{}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	err := job.Handle(context.Background(), asynq.NewTask(TaskAnalyticsExport, []byte(`{"id":""}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestExportJobSkipsRetryForExpiredExport(t *testing.T) {
	job := NewExportJob(&stubProcessor{err: export.ErrNotFound}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewExportTask(export.Task{ID: "gone"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, export.ErrNotFound)
}

func TestExportJobRetriesOtherFailures(t *testing.T) {
	boom := errors.New("redis down")
	job := NewExportJob(&stubProcessor{err: boom}, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewExportTask(export.Task{ID: "x"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestSnapshotWarmupDefaultsToEveryRange(t *testing.T) {
	warmer := &stubWarmer{}
	job := NewSnapshotWarmupJob(warmer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewSnapshotWarmupTask()
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"7days", "30days", "3months", "6months", "1year"}, warmer.ranges)
}

func TestSnapshotWarmupStopsOnError(t *testing.T) {
	warmer := &stubWarmer{err: analytics.ErrUnknownRange}
	job := NewSnapshotWarmupJob(warmer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewSnapshotWarmupTask("7days", "1year")
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), analytics.ErrUnknownRange)
	assert.Equal(t, []string{"7days"}, warmer.ranges)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthEndpoint(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{name: "no queue", status: http.StatusOK},
		{name: "queue", inspector: stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, status: http.StatusOK, pending: 3},
		{name: "error", inspector: stubInspector{err: errors.New("down")}, status: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tc.inspector, nil).MountRoutes(r)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tc.status, rec.Code)
			if tc.status != http.StatusOK {
				return
			}
			var body queueHealth
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, QueueDefault, body.Queue)
			assert.Equal(t, tc.pending, body.Pending)
		})
	}
}
