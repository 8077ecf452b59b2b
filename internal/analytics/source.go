package analytics

import (
	"context"
	"time"

	"github.com/pulseboard/pulseboard/internal/analytics/fixtures"
)

// Snapshot is everything the overview dashboard renders at one point in time.
type Snapshot struct {
	Range       string    `json:"range"`
	Metrics     []Metric  `json:"metrics"`
	Charts      Charts    `json:"charts"`
	LastUpdated time.Time `json:"last_updated"`
}

// Source produces dashboard snapshots.
type Source interface {
	Generate(ctx context.Context, dateRange string) (Snapshot, error)
}

// MockSource builds snapshots from a static data set.
type MockSource struct {
	dataset fixtures.Dataset
	now     func() time.Time
}

// NewMockSource wraps ds.
func NewMockSource(ds fixtures.Dataset) *MockSource {
	return &MockSource{dataset: ds, now: time.Now}
}

// Generate returns a fresh payload stamped with the current time.
func (m *MockSource) Generate(ctx context.Context, dateRange string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Range:       dateRange,
		Metrics:     BuildMetrics(m.dataset.Metrics),
		Charts:      BuildCharts(m.dataset),
		LastUpdated: m.now().UTC(),
	}, nil
}

// Delay blocks for d or until ctx is done.
func Delay(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
