// Package analytics assembles the overview dashboard: KPI cards, chart
// datasets and the refresh lifecycle around them.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/pulseboard/pulseboard/internal/analytics/filters"
)

// DefaultRange is the date range shown before the user picks one.
const DefaultRange = "30days"

// ErrUnknownRange is returned for a date range the dashboard does not offer.
var ErrUnknownRange = errors.New("analytics: unknown date range")

// Service coordinates snapshot generation with the cache layer.
type Service struct {
	source Source
	cache  *Cache
	group  singleflight.Group
	// generation changes on Invalidate and is part of the flight key.
	generation atomic.Uint64
}

// NewService wires a Source with a Cache helper. cache may be nil.
func NewService(source Source, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

// Snapshot returns the dashboard for dateRange, served from cache when
// possible. Concurrent callers for the same range share one build.
func (s *Service) Snapshot(ctx context.Context, dateRange string) (Snapshot, error) {
	dateRange, err := normalizeRange(dateRange)
	if err != nil {
		return Snapshot{}, err
	}
	key, err := s.cache.BuildKey(ctx, keySnapshot(dateRange))
	if err != nil {
		return Snapshot{}, fmt.Errorf("analytics: cache key: %w", err)
	}
	flight := key + "#" + strconv.FormatUint(s.generation.Load(), 10)
	ch := s.group.DoChan(flight, func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), dateRange, key)
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

// Invalidate drops every cached snapshot.
func (s *Service) Invalidate(ctx context.Context) error {
	s.generation.Add(1)
	if err := s.cache.Bump(ctx); err != nil {
		return fmt.Errorf("analytics: invalidate: %w", err)
	}
	return nil
}

// Loader returns a LoadFunc serving the cached snapshot for dateRange.
func (s *Service) Loader(dateRange string) LoadFunc {
	return func(ctx context.Context) (Snapshot, error) {
		return s.Snapshot(ctx, dateRange)
	}
}

// Reloader returns a LoadFunc that invalidates before loading, so every call
// yields a freshly generated snapshot.
func (s *Service) Reloader(dateRange string) LoadFunc {
	return func(ctx context.Context) (Snapshot, error) {
		if err := s.Invalidate(ctx); err != nil {
			return Snapshot{}, err
		}
		return s.Snapshot(ctx, dateRange)
	}
}

func (s *Service) fetch(ctx context.Context, dateRange, key string) (Snapshot, error) {
	var snap Snapshot
	err := s.cache.FetchJSON(ctx, key, &snap, func(ctx context.Context) (any, error) {
		return s.source.Generate(ctx, dateRange)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func normalizeRange(dateRange string) (string, error) {
	if dateRange == "" {
		return DefaultRange, nil
	}
	if _, ok := filters.Label(filters.KeyDateRange, dateRange); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRange, dateRange)
	}
	return dateRange, nil
}
