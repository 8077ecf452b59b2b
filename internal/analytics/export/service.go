package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Task is the queued unit of work for one export.
type Task struct {
	ID        string `json:"id"`
	Format    Format `json:"format"`
	DateRange string `json:"date_range"`
}

// Enqueuer hands a task to whatever runs the Processor.
type Enqueuer interface {
	EnqueueExport(ctx context.Context, task Task) error
}

// Timing controls the simulated export lifecycle.
type Timing struct {
	// Delay is how long an export stays in the exporting phase.
	Delay time.Duration
	// Hold is how long a completed export is reported before it expires.
	Hold time.Duration
	// Pending bounds how long a queued or exporting status survives if the
	// worker never finishes it.
	Pending time.Duration
}

// DefaultTiming matches the dialog's two second export and three second
// completion notice.
func DefaultTiming() Timing {
	return Timing{Delay: 2 * time.Second, Hold: 3 * time.Second, Pending: 10 * time.Minute}
}

// Service accepts export requests and reports their status.
type Service struct {
	store    Store
	enqueuer Enqueuer
	timing   Timing
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewService wires a Store and Enqueuer.
func NewService(store Store, enqueuer Enqueuer, timing Timing, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		enqueuer: enqueuer,
		timing:   timing,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Submit validates req, records it as queued and enqueues it.
func (s *Service) Submit(ctx context.Context, req Request) (Status, error) {
	if err := req.Validate(); err != nil {
		return Status{}, err
	}
	now := s.now()
	status := Status{
		ID:          s.newID(),
		Format:      req.Format,
		DateRange:   req.DateRange,
		Phase:       PhaseQueued,
		RequestedAt: now,
		UpdatedAt:   now,
	}
	if err := s.store.Put(ctx, status, s.timing.Pending); err != nil {
		return Status{}, err
	}
	task := Task{ID: status.ID, Format: status.Format, DateRange: status.DateRange}
	if err := s.enqueuer.EnqueueExport(ctx, task); err != nil {
		return Status{}, fmt.Errorf("export: enqueue %s: %w", status.ID, err)
	}
	s.logger.Info("export queued", slog.String("export_id", status.ID), slog.String("format", string(status.Format)), slog.String("date_range", status.DateRange))
	return status, nil
}

// Get returns the status of id, or ErrNotFound once it has expired.
func (s *Service) Get(ctx context.Context, id string) (Status, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Status{}, ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Processor advances an export through its simulated lifecycle.
type Processor struct {
	store  Store
	timing Timing
	logger *slog.Logger
	now    func() time.Time
}

// NewProcessor constructs a Processor.
func NewProcessor(store Store, timing Timing, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, timing: timing, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Process marks task exporting, waits the simulated delay and marks it
// complete for the hold period. ErrNotFound means the export expired before
// the worker picked it up.
func (p *Processor) Process(ctx context.Context, task Task) error {
	status, err := p.store.Get(ctx, task.ID)
	if err != nil {
		return err
	}
	if status.Phase == PhaseComplete {
		return nil
	}

	status.Phase = PhaseExporting
	status.UpdatedAt = p.now()
	if err := p.store.Put(ctx, status, p.timing.Pending); err != nil {
		return err
	}

	timer := time.NewTimer(p.timing.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	status.Phase = PhaseComplete
	status.UpdatedAt = p.now()
	if err := p.store.Put(ctx, status, p.timing.Hold); err != nil {
		return err
	}
	p.logger.Info("export complete", slog.String("export_id", status.ID), slog.String("format", string(status.Format)))
	return nil
}

// InlineEnqueuer runs the Processor in a goroutine of the current process,
// for deployments without a queue.
type InlineEnqueuer struct {
	processor *Processor
	ctx       context.Context
	logger    *slog.Logger
}

// NewInlineEnqueuer processes tasks until ctx is done.
func NewInlineEnqueuer(ctx context.Context, processor *Processor, logger *slog.Logger) *InlineEnqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineEnqueuer{processor: processor, ctx: ctx, logger: logger}
}

// EnqueueExport starts task in the background.
func (e *InlineEnqueuer) EnqueueExport(_ context.Context, task Task) error {
	go func() {
		if err := e.processor.Process(e.ctx, task); err != nil {
			e.logger.Warn("inline export failed", slog.String("export_id", task.ID), slog.Any("error", err))
		}
	}()
	return nil
}
