package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nanichang/employee-import-engine/internal/repository"
)

func newTestStore(t *testing.T) *ProgressStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewProgressStore(client)
}

func TestGetMissReturnsFalseNotError(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.Get(context.Background(), "unknown-job")
	if err != nil {
		t.Fatalf("Get on miss should not error: %v", err)
	}
	if ok {
		t.Fatal("Get on miss should report ok=false")
	}
}

func TestPutThenGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	want := repository.Progress{
		JobID:            "job-1",
		Status:           "processing",
		TotalRows:        100,
		ProcessedRows:    40,
		SuccessfulRows:   38,
		ErrorRows:        2,
		LastProcessedRow: 40,
	}

	if err := s.Put(context.Background(), want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got != want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}
}

func TestInvalidateClearsEntry(t *testing.T) {
	s := newTestStore(t)
	_ = s.Put(context.Background(), repository.Progress{JobID: "job-2", TotalRows: 10})

	if err := s.Invalidate(context.Background(), "job-2"); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	_, ok, err := s.Get(context.Background(), "job-2")
	if err != nil {
		t.Fatalf("Get after invalidate: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss after Invalidate")
	}
}

func TestPercentageRounding(t *testing.T) {
	p := repository.Progress{TotalRows: 3, ProcessedRows: 1}
	if got := p.Percentage(); got != 33.33 {
		t.Errorf("Percentage() = %v, want 33.33", got)
	}

	zero := repository.Progress{TotalRows: 0, ProcessedRows: 0}
	if got := zero.Percentage(); got != 0 {
		t.Errorf("Percentage() with TotalRows=0 = %v, want 0", got)
	}
}
