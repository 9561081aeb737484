package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nanichang/employee-import-engine/internal/repository"
)

// progressTTL bounds how long a cached progress snapshot survives without
// a refreshing write. A stalled job's cache entry expires rather than
// reporting stale progress forever (§4.3).
const progressTTL = time.Hour

// ProgressStore is a Redis-backed repository.ProgressStore. A cache miss
// is reported through the bool return, not an error, so callers fall back
// to the durable store transparently (§4.3).
type ProgressStore struct {
	client *redis.Client
}

// NewProgressStore wraps client as a repository.ProgressStore.
func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) key(jobID string) string {
	return fmt.Sprintf("import:progress:%s", jobID)
}

// Put writes the latest snapshot, refreshing the TTL. Called from the same
// transaction boundary as the durable chunk commit (§4.10 step 5), so a
// write failure here never blocks the durable write -- callers log and
// continue.
func (s *ProgressStore) Put(ctx context.Context, p repository.Progress) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache: marshal progress: %w", err)
	}
	if err := s.client.Set(ctx, s.key(p.JobID), data, progressTTL).Err(); err != nil {
		return fmt.Errorf("cache: put progress %s: %w", p.JobID, err)
	}
	return nil
}

// Get returns the cached snapshot. The bool is false on a cache miss
// (key absent or expired); it is never true alongside a non-nil error.
func (s *ProgressStore) Get(ctx context.Context, jobID string) (repository.Progress, bool, error) {
	data, err := s.client.Get(ctx, s.key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return repository.Progress{}, false, nil
	}
	if err != nil {
		return repository.Progress{}, false, fmt.Errorf("cache: get progress %s: %w", jobID, err)
	}

	var p repository.Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return repository.Progress{}, false, fmt.Errorf("cache: unmarshal progress %s: %w", jobID, err)
	}
	return p, true, nil
}

// Invalidate drops the cached snapshot, used when an integrity-check
// failure resets a job's counters (§4.8) so a stale cached read can never
// outlive the reset it should reflect.
func (s *ProgressStore) Invalidate(ctx context.Context, jobID string) error {
	if err := s.client.Del(ctx, s.key(jobID)).Err(); err != nil {
		return fmt.Errorf("cache: invalidate progress %s: %w", jobID, err)
	}
	return nil
}

var _ repository.ProgressStore = (*ProgressStore)(nil)
