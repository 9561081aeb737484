package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestAcquireSucceedsWhenUnheld(t *testing.T) {
	client := newTestClient(t)
	l := New(client, "job-1", time.Minute)

	ok, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected Acquire to succeed on unheld lock")
	}
}

func TestAcquireFailsWhenAlreadyHeld(t *testing.T) {
	client := newTestClient(t)
	first := New(client, "job-2", time.Minute)
	second := New(client, "job-2", time.Minute)

	ok, err := first.Acquire(context.Background())
	if err != nil || !ok {
		t.Fatalf("first Acquire should succeed: ok=%v err=%v", ok, err)
	}

	ok, err = second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if ok {
		t.Fatal("second Acquire should fail while first holds the lock")
	}
}

func TestReleaseOnlyAffectsOwnToken(t *testing.T) {
	client := newTestClient(t)
	first := New(client, "job-3", time.Minute)
	second := New(client, "job-3", time.Minute)

	if ok, err := first.Acquire(context.Background()); err != nil || !ok {
		t.Fatalf("first Acquire: ok=%v err=%v", ok, err)
	}

	err := second.Release(context.Background())
	if err != ErrNotHeld {
		t.Fatalf("Release by non-owner should return ErrNotHeld, got %v", err)
	}

	if err := first.Release(context.Background()); err != nil {
		t.Fatalf("owner Release: %v", err)
	}

	ok, err := second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if !ok {
		t.Fatal("Acquire should succeed once owner released the lock")
	}
}

func TestRenewExtendsOwnLockOnly(t *testing.T) {
	client := newTestClient(t)
	first := New(client, "job-4", time.Minute)
	second := New(client, "job-4", time.Minute)

	if ok, err := first.Acquire(context.Background()); err != nil || !ok {
		t.Fatalf("first Acquire: ok=%v err=%v", ok, err)
	}

	if err := first.Renew(context.Background()); err != nil {
		t.Fatalf("owner Renew: %v", err)
	}

	if err := second.Renew(context.Background()); err != ErrNotHeld {
		t.Fatalf("non-owner Renew should return ErrNotHeld, got %v", err)
	}
}

func TestStartHeartbeatStopsOnContextCancel(t *testing.T) {
	client := newTestClient(t)
	l := New(client, "job-5", time.Minute)
	if ok, err := l.Acquire(context.Background()); err != nil || !ok {
		t.Fatalf("Acquire: ok=%v err=%v", ok, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lost := l.StartHeartbeat(ctx, 10*time.Millisecond)
	cancel()

	select {
	case err, ok := <-lost:
		if ok {
			t.Fatalf("expected no loss signal after cancel, got %v", err)
		}
	case <-time.After(100 * time.Millisecond):
	}
}
