package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrSuperseded is returned by a refresh whose result was discarded because a
// newer request started before it finished.
var ErrSuperseded = errors.New("analytics: refresh superseded")

// Refresh outcomes reported to the observer.
const (
	OutcomeApplied    = "applied"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
	OutcomeCanceled   = "canceled"
)

// LoadFunc produces a snapshot.
type LoadFunc func(ctx context.Context) (Snapshot, error)

// Simulated delays load by latency.
func Simulated(latency time.Duration, load LoadFunc) LoadFunc {
	return func(ctx context.Context) (Snapshot, error) {
		if err := Delay(ctx, latency); err != nil {
			return Snapshot{}, err
		}
		return load(ctx)
	}
}

// State is the dashboard view state.
type State struct {
	Loading    bool
	Refreshing bool
	Snapshot   *Snapshot
	Err        error
	Token      uint64
}

// Refresher owns the dashboard view state. Each Load or Refresh takes a new
// token and cancels the request in flight; only the latest token may write
// its result.
type Refresher struct {
	mu      sync.Mutex
	initial LoadFunc
	reload  LoadFunc
	logger  *slog.Logger
	observe func(outcome string)

	token  uint64
	cancel context.CancelFunc
	state  State
}

// RefresherOption customises a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshLogger sets the logger.
func WithRefreshLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOutcomeObserver reports the outcome of every request.
func WithOutcomeObserver(observe func(outcome string)) RefresherOption {
	return func(r *Refresher) { r.observe = observe }
}

// NewRefresher uses initial for Load and reload for Refresh.
func NewRefresher(initial, reload LoadFunc, opts ...RefresherOption) *Refresher {
	r := &Refresher{initial: initial, reload: reload, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current view state.
func (r *Refresher) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Load performs the initial load.
func (r *Refresher) Load(ctx context.Context) (State, error) {
	return r.run(ctx, r.initial, true)
}

// Refresh reloads the snapshot, replacing any request in flight. Load
// failures are recorded in State.Err and keep the previous snapshot. The
// returned error is ErrSuperseded or the ctx error when the result was
// discarded.
func (r *Refresher) Refresh(ctx context.Context) (State, error) {
	return r.run(ctx, r.reload, false)
}

// Close cancels the request in flight, if any.
func (r *Refresher) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Refresher) run(ctx context.Context, load LoadFunc, initial bool) (State, error) {
	r.mu.Lock()
	r.token++
	token := r.token
	if r.cancel != nil {
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	if initial {
		r.state.Loading = true
	} else {
		r.state.Refreshing = true
	}
	r.state.Token = token
	r.mu.Unlock()

	snap, err := load(runCtx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.token {
		cancel()
		r.report(OutcomeSuperseded)
		return r.state, ErrSuperseded
	}
	cancel()
	r.cancel = nil
	r.state.Loading = false
	r.state.Refreshing = false
	if ctxErr := ctx.Err(); ctxErr != nil {
		r.report(OutcomeCanceled)
		return r.state, ctxErr
	}
	// Close cancels runCtx without bumping the token.
	if errors.Is(err, context.Canceled) && runCtx.Err() != nil {
		r.report(OutcomeCanceled)
		return r.state, err
	}
	if err != nil {
		r.state.Err = err
		r.logger.Warn("dashboard refresh failed", slog.Uint64("token", token), slog.Any("error", err))
		r.report(OutcomeFailed)
		return r.state, nil
	}
	r.state.Snapshot = &snap
	r.state.Err = nil
	r.report(OutcomeApplied)
	return r.state, nil
}

func (r *Refresher) report(outcome string) {
	if r.observe != nil {
		r.observe(outcome)
	}
}
