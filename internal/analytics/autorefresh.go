package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// AutoRefresh periodically refreshes a Refresher until stopped.
type AutoRefresh struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartAutoRefresh fires r.Refresh every interval. The loop ends when ctx is
// done or Stop is called.
func StartAutoRefresh(ctx context.Context, r *Refresher, interval time.Duration, logger *slog.Logger) *AutoRefresh {
	if logger == nil {
		logger = slog.Default()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	a := &AutoRefresh{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(a.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if _, err := r.Refresh(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Debug("auto refresh skipped", slog.Any("error", err))
				}
			}
		}
	}()
	return a
}

// Stop ends the loop and waits for it. No refresh started by the loop
// writes state after Stop returns.
func (a *AutoRefresh) Stop() {
	a.once.Do(a.cancel)
	<-a.done
}
