// Package dispatcher implements the job-level worker pool (C11): three
// size-class queues, each an in-process buffered channel drained by its
// own goroutine pool, following the teacher processor's single-queue
// worker-pool shape generalized to three independently-sized pools.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"
	"github.com/nanichang/employee-import-engine/internal/worker"
)

// Config bounds queue concurrency and retry behavior (§4.11).
type Config struct {
	SmallConcurrency  int
	MediumConcurrency int
	LargeConcurrency  int
	MaxTries          int
	Backoff           []time.Duration
	LockBusyDelay     time.Duration
	AttemptTimeout    time.Duration
	RetryWindow       time.Duration
}

// DefaultConfig sizes each queue off runtime.NumCPU(), mirroring the
// teacher processor's `workers := runtime.NumCPU()` sizing, generalized
// per size class (large files get proportionally more concurrency).
func DefaultConfig() Config {
	cpu := runtime.NumCPU()
	if cpu < 1 {
		cpu = 1
	}
	return Config{
		SmallConcurrency:  cpu,
		MediumConcurrency: cpu,
		LargeConcurrency:  cpu * 2,
		MaxTries:          3,
		Backoff:           []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second},
		LockBusyDelay:     30 * time.Second,
		AttemptTimeout:    3600 * time.Second,
		RetryWindow:       2 * time.Hour,
	}
}

// Dispatcher routes jobs to their size-class queue and drives each
// attempt through the Worker, re-enqueuing retryable failures with
// backoff and failing jobs that exhaust their tries (§4.11).
type Dispatcher struct {
	cfg    Config
	worker *worker.Worker
	jobs   repository.JobRepository
	logger *log.Logger

	queues map[models.SizeClass]chan string
	wg     sync.WaitGroup

	mu       sync.Mutex
	stopping bool
}

// New constructs a Dispatcher with one buffered channel per size class.
func New(w *worker.Worker, jobs repository.JobRepository, logger *log.Logger, cfg Config) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		worker: w,
		jobs:   jobs,
		logger: logger,
		queues: map[models.SizeClass]chan string{
			models.SizeSmall:  make(chan string, 256),
			models.SizeMedium: make(chan string, 256),
			models.SizeLarge:  make(chan string, 256),
		},
	}
}

// Start launches each queue's goroutine pool. It returns immediately;
// call Stop (closing ctx) to drain and exit.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startPool(ctx, models.SizeSmall, d.cfg.SmallConcurrency)
	d.startPool(ctx, models.SizeMedium, d.cfg.MediumConcurrency)
	d.startPool(ctx, models.SizeLarge, d.cfg.LargeConcurrency)
}

func (d *Dispatcher) startPool(ctx context.Context, class models.SizeClass, concurrency int) {
	if concurrency < 1 {
		concurrency = 1
	}
	queue := d.queues[class]
	for i := 0; i < concurrency; i++ {
		d.wg.Add(1)
		go func(workerID int) {
			defer d.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case jobID, ok := <-queue:
					if !ok {
						return
					}
					d.runAttempt(ctx, class, jobID)
				}
			}
		}(i)
	}
}

// Enqueue routes jobID onto its size-class queue. Blocks if the queue is
// full, applying natural backpressure to the submitter.
func (d *Dispatcher) Enqueue(class models.SizeClass, jobID string) error {
	d.mu.Lock()
	stopping := d.stopping
	d.mu.Unlock()
	if stopping {
		return fmt.Errorf("dispatcher: shutting down, refusing job %s", jobID)
	}

	queue, ok := d.queues[class]
	if !ok {
		return fmt.Errorf("dispatcher: unknown size class %q", class)
	}
	queue <- jobID
	return nil
}

// Stop prevents further Enqueue calls and waits for in-flight attempts to
// finish (the caller is expected to have already cancelled the context
// passed to Start).
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopping = true
	d.mu.Unlock()
	d.wg.Wait()
}

func (d *Dispatcher) runAttempt(ctx context.Context, class models.SizeClass, jobID string) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	err := d.worker.ProcessAttempt(attemptCtx, jobID)
	cancel()

	if err == nil {
		return
	}

	if errors.Is(err, worker.ErrLockBusy) {
		d.logger.Printf("dispatcher_lock_busy job=%s class=%s, retrying in %s", jobID, class, d.cfg.LockBusyDelay)
		d.scheduleRedelivery(class, jobID, d.cfg.LockBusyDelay)
		return
	}

	d.logger.Printf("dispatcher_attempt_error job=%s class=%s err=%v", jobID, class, err)

	job, findErr := d.jobs.FindByID(ctx, jobID)
	if findErr != nil {
		d.logger.Printf("dispatcher_lookup_error job=%s err=%v", jobID, findErr)
		return
	}
	if job.IsTerminal() {
		return
	}

	if job.Tries >= d.cfg.MaxTries || (job.StartedAt != nil && time.Since(*job.StartedAt) > d.cfg.RetryWindow) {
		if err := d.jobs.UpdateStatus(ctx, jobID, models.JobFailed); err != nil {
			d.logger.Printf("dispatcher_mark_failed_error job=%s err=%v", jobID, err)
		}
		return
	}

	delay := d.backoffFor(job.Tries)
	d.logger.Printf("dispatcher_retry_scheduled job=%s class=%s tries=%d delay=%s", jobID, class, job.Tries, delay)
	d.scheduleRedelivery(class, jobID, delay)
}

func (d *Dispatcher) backoffFor(tries int) time.Duration {
	idx := tries - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(d.cfg.Backoff) {
		idx = len(d.cfg.Backoff) - 1
	}
	return d.cfg.Backoff[idx]
}

func (d *Dispatcher) scheduleRedelivery(class models.SizeClass, jobID string, delay time.Duration) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		<-timer.C
		if err := d.Enqueue(class, jobID); err != nil {
			d.logger.Printf("dispatcher_redelivery_error job=%s err=%v", jobID, err)
		}
	}()
}
