package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for an unknown or expired export.
var ErrNotFound = errors.New("export: not found")

// Phase is where an export is in its lifecycle. An expired export is idle
// and no longer stored.
type Phase string

// Export phases.
const (
	PhaseQueued    Phase = "queued"
	PhaseExporting Phase = "exporting"
	PhaseComplete  Phase = "complete"
)

// Status is the stored state of one export.
type Status struct {
	ID          string    `json:"id"`
	Format      Format    `json:"format"`
	DateRange   string    `json:"date_range"`
	Phase       Phase     `json:"phase"`
	RequestedAt time.Time `json:"requested_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists export statuses with an expiry.
type Store interface {
	Put(ctx context.Context, status Status, ttl time.Duration) error
	Get(ctx context.Context, id string) (Status, error)
}

// RedisStore keeps statuses under export:<id>.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func statusKey(id string) string {
	return "export:" + id
}

// Put stores status for ttl.
func (s *RedisStore) Put(ctx context.Context, status Status, ttl time.Duration) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, statusKey(status.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("export: store %s: %w", status.ID, err)
	}
	return nil
}

// Get loads the status of id.
func (s *RedisStore) Get(ctx context.Context, id string) (Status, error) {
	raw, err := s.client.Get(ctx, statusKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Status{}, ErrNotFound
	}
	if err != nil {
		return Status{}, fmt.Errorf("export: load %s: %w", id, err)
	}
	var status Status
	if err := json.Unmarshal(raw, &status); err != nil {
		return Status{}, fmt.Errorf("export: decode %s: %w", id, err)
	}
	return status, nil
}

type memoryEntry struct {
	status  Status
	expires time.Time
}

// MemoryStore is an in-process Store used when redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Put stores status for ttl.
func (s *MemoryStore) Put(_ context.Context, status Status, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evict()
	s.entries[status.ID] = memoryEntry{status: status, expires: s.now().Add(ttl)}
	return nil
}

// Get loads the status of id.
func (s *MemoryStore) Get(_ context.Context, id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || !s.now().Before(entry.expires) {
		delete(s.entries, id)
		return Status{}, ErrNotFound
	}
	return entry.status, nil
}

func (s *MemoryStore) evict() {
	now := s.now()
	for id, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, id)
		}
	}
}
