// Package lock implements the distributed job lock (C9): a Redis-backed
// mutual-exclusion lock keyed by job ID, with a random ownership token so a
// process can only release or renew a lease it still holds.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Release/Renew when the caller no longer owns
// the lock (it expired and another worker took over, or it was never
// acquired).
var ErrNotHeld = errors.New("lock: not held")

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

var renewScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
else
	return 0
end
`)

// JobLock guards exclusive processing of one import job (§4.9). Every
// instance has a unique ownership token so a stale lease can never be
// released or renewed by a different worker.
type JobLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// New constructs a lock for jobID. Acquire must be called before Release
// or Renew do anything useful.
func New(client *redis.Client, jobID string, ttl time.Duration) *JobLock {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return &JobLock{
		client: client,
		key:    fmt.Sprintf("import:lock:%s", jobID),
		token:  hex.EncodeToString(b),
		ttl:    ttl,
	}
}

// Acquire attempts to claim the lock, returning false (not an error) if
// another worker already holds it (§4.9 "claimed by exactly one worker").
func (l *JobLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("lock: acquire %s: %w", l.key, err)
	}
	return ok, nil
}

// Renew extends the lease while still owned, used as a heartbeat during
// long-running chunk processing so the TTL never expires mid-job (§4.9).
func (l *JobLock) Renew(ctx context.Context) error {
	res, err := renewScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("lock: renew %s: %w", l.key, err)
	}
	if res == 0 {
		return ErrNotHeld
	}
	return nil
}

// Release drops the lease if still owned. Releasing a lock already lost
// to expiry or another owner deletes nothing and returns ErrNotHeld.
func (l *JobLock) Release(ctx context.Context) error {
	res, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("lock: release %s: %w", l.key, err)
	}
	if res == 0 {
		return ErrNotHeld
	}
	return nil
}

// StartHeartbeat renews the lock on interval until ctx is cancelled or a
// renewal fails, reporting loss through the returned channel. Callers
// should treat a value on the channel as "stop processing, lock is gone."
func (l *JobLock) StartHeartbeat(ctx context.Context, interval time.Duration) <-chan error {
	lost := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := l.Renew(ctx); err != nil {
					lost <- err
					return
				}
			}
		}
	}()
	return lost
}
