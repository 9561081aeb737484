// Package worker implements the per-attempt import state machine (C10):
// claim, verify integrity, stream rows in chunks, and drive each row
// through validation, duplicate detection, and the employee upsert.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"

	"github.com/nanichang/employee-import-engine/internal/duplicate"
	"github.com/nanichang/employee-import-engine/internal/fingerprint"
	"github.com/nanichang/employee-import-engine/internal/importreader"
	"github.com/nanichang/employee-import-engine/internal/lock"
	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"
	"github.com/nanichang/employee-import-engine/internal/validator"
)

// rowDataJSON captures a row's raw field values for an error record so
// GET /errors can show the offending data (§3 ErrorRecord.row_data). A
// marshal failure (never expected for map[string]string) just drops the
// payload rather than failing the row.
func rowDataJSON(fields map[string]string) datatypes.JSON {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// ErrLockBusy is returned when another worker already owns the job's
// lock; the dispatcher re-enqueues with a delay rather than treating this
// as a job failure (§4.9).
var ErrLockBusy = errors.New("worker: job lock held by another worker")

// Deps wires the repositories and infrastructure clients the worker
// drives a job through.
type Deps struct {
	Jobs          repository.JobRepository
	Employees     repository.EmployeeRepository
	Ledger        repository.LedgerRepository
	Errors        repository.ErrorRepository
	ResumptionLog repository.ResumptionLogRepository
	Progress      repository.ProgressStore
	Redis         *redis.Client
	Logger        *log.Logger
}

// Config bounds the per-attempt behavior (§4.9, §4.11, §4.14).
type Config struct {
	LockTTL        time.Duration
	LockRenewEvery time.Duration
	ReaderConfig   importreader.Config
}

// DefaultConfig mirrors the spec's stated defaults.
func DefaultConfig() Config {
	return Config{
		LockTTL:        90 * time.Second,
		LockRenewEvery: 45 * time.Second,
		ReaderConfig: importreader.Config{
			CSVChunkSize:  importreader.DefaultCSVChunkSize,
			XLSXChunkSize: importreader.DefaultXLSXChunkSize,
			CSVDelimiter:  ',',
		},
	}
}

// Worker drives one job through a single processing attempt.
type Worker struct {
	deps Deps
	cfg  Config
}

// New constructs a Worker.
func New(deps Deps, cfg Config) *Worker {
	return &Worker{deps: deps, cfg: cfg}
}

// chunkAccumulator holds the in-memory per-chunk tally flushed at each
// chunk commit, repurposing the teacher's per-row atomic counters as a
// single-goroutine running total (§4.10).
type chunkAccumulator struct {
	successful int
	errored    int
	lastRow    int
	errors     []models.ErrorRecord
}

func (c *chunkAccumulator) reset() {
	c.successful = 0
	c.errored = 0
	c.errors = c.errors[:0]
}

// ProcessAttempt runs one full attempt for jobID: claim the lock, verify
// integrity, stream every remaining row to completion or a retryable
// fault, and leave the job in a terminal or requeueable state (§4.10).
func (w *Worker) ProcessAttempt(ctx context.Context, jobID string) error {
	job, err := w.deps.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("worker: load job %s: %w", jobID, err)
	}
	if job.IsTerminal() {
		return nil
	}

	l := lock.New(w.deps.Redis, jobID, w.cfg.LockTTL)
	acquired, err := l.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("worker: acquire lock: %w", err)
	}
	if !acquired {
		return ErrLockBusy
	}
	defer func() {
		if err := l.Release(ctx); err != nil && !errors.Is(err, lock.ErrNotHeld) {
			w.deps.Logger.Printf("lock_release_error job=%s err=%v", jobID, err)
		}
	}()

	w.logEvent(ctx, jobID, models.EventAttempt, job.Tries, job.LastProcessedRow, "lock acquired")

	if err := w.deps.Jobs.IncrementTries(ctx, jobID); err != nil {
		return fmt.Errorf("worker: increment tries: %w", err)
	}
	job.Tries++
	if err := w.deps.Jobs.UpdateStatus(ctx, jobID, models.JobProcessing); err != nil {
		return fmt.Errorf("worker: mark processing: %w", err)
	}

	resumeFrom, err := w.verifyIntegrity(ctx, job)
	if err != nil {
		_ = w.deps.Jobs.UpdateStatus(ctx, jobID, models.JobFailed)
		w.logEvent(ctx, jobID, models.EventFailure, job.Tries, job.LastProcessedRow, err.Error())
		return err
	}

	outcome, procErr := w.runChunks(ctx, job, l, resumeFrom)
	switch outcome {
	case outcomeCompleted:
		if err := w.deps.Jobs.UpdateStatus(ctx, jobID, models.JobCompleted); err != nil {
			return fmt.Errorf("worker: mark completed: %w", err)
		}
		_ = w.deps.Progress.Invalidate(ctx, jobID)
		w.logEvent(ctx, jobID, models.EventSuccess, job.Tries, job.LastProcessedRow, "import completed")
		return nil
	case outcomeRetryable:
		if err := w.deps.Jobs.UpdateStatus(ctx, jobID, models.JobPending); err != nil {
			return fmt.Errorf("worker: mark pending for retry: %w", err)
		}
		w.logEvent(ctx, jobID, models.EventFailure, job.Tries, job.LastProcessedRow, "retryable: "+safeErrString(procErr))
		return procErr
	default:
		_ = w.deps.Jobs.UpdateStatus(ctx, jobID, models.JobFailed)
		_ = w.deps.Errors.Append(ctx, &models.ErrorRecord{
			JobID:     jobID,
			RowNumber: job.LastProcessedRow + 1,
			ErrorType: string(models.ErrorSystem),
			Message:   safeErrString(procErr),
		})
		w.logEvent(ctx, jobID, models.EventFailure, job.Tries, job.LastProcessedRow, "permanent: "+safeErrString(procErr))
		return procErr
	}
}

func safeErrString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// verifyIntegrity recomputes the file fingerprint and compares it to the
// one recorded at upload time. A mismatch resets progress counters so the
// next chunk loop starts fresh from row 1 (§4.8).
func (w *Worker) verifyIntegrity(ctx context.Context, job *models.ImportJob) (int, error) {
	current, err := fingerprint.Compute(job.FilePath)
	if err != nil {
		return 0, fmt.Errorf("worker: recompute fingerprint: %w", err)
	}

	recorded := models.Fingerprint{FileSize: job.FileSize, FileHash: job.FileHash, FileLastModified: job.FileLastModified}
	if fingerprint.Matches(recorded, current) {
		w.logEvent(ctx, job.ID, models.EventIntegrityCheck, job.Tries, job.LastProcessedRow, "fingerprint match")
		return job.LastProcessedRow, nil
	}

	w.logEvent(ctx, job.ID, models.EventIntegrityCheck, job.Tries, job.LastProcessedRow, "fingerprint mismatch, resetting progress")
	if current.FileSize == 0 {
		return 0, fmt.Errorf("worker: file %s is empty after mismatch, cannot resume", job.FilePath)
	}
	if err := w.deps.Jobs.ResetProgress(ctx, job.ID); err != nil {
		return 0, fmt.Errorf("worker: reset progress: %w", err)
	}
	_ = w.deps.Progress.Invalidate(ctx, job.ID)
	return 0, nil
}

type attemptOutcome int

const (
	outcomeCompleted attemptOutcome = iota
	outcomeRetryable
	outcomePermanent
)

// runChunks streams rows from resumeFrom+1 to EOF, committing one chunk
// at a time (§4.10 step 5).
func (w *Worker) runChunks(ctx context.Context, job *models.ImportJob, l *lock.JobLock, resumeFrom int) (attemptOutcome, error) {
	format, err := importreader.DetectFormat("", job.Filename)
	if err != nil {
		return outcomePermanent, fmt.Errorf("worker: detect format: %w", err)
	}

	reader, err := importreader.Open(job.FilePath, format, w.cfg.ReaderConfig)
	if err != nil {
		return outcomePermanent, fmt.Errorf("worker: open reader: %w", err)
	}
	defer reader.Close()

	if err := reader.ValidateHeader(importreader.RequiredColumns); err != nil {
		return outcomePermanent, fmt.Errorf("worker: validate header: %w", err)
	}
	if err := reader.Seek(resumeFrom); err != nil {
		return outcomePermanent, fmt.Errorf("worker: seek to row %d: %w", resumeFrom, err)
	}

	detector := duplicate.New()
	if err := w.seedDetector(ctx, job.ID, detector); err != nil {
		return outcomeRetryable, fmt.Errorf("worker: seed duplicate detector: %w", err)
	}

	acc := &chunkAccumulator{lastRow: resumeFrom}
	chunkSize := w.cfg.ReaderConfig.CSVChunkSize
	if format == importreader.FormatXLSX {
		chunkSize = w.cfg.ReaderConfig.XLSXChunkSize
	}

	var lockLost <-chan error
	if w.cfg.LockRenewEvery > 0 {
		hbCtx, stopHeartbeat := context.WithCancel(ctx)
		defer stopHeartbeat()
		lockLost = l.StartHeartbeat(hbCtx, w.cfg.LockRenewEvery)
	}

	rowsInChunk := 0
	now := time.Now().UTC()

	for roe := range reader.Rows() {
		if err := ctx.Err(); err != nil {
			return outcomeRetryable, fmt.Errorf("worker: context cancelled: %w", err)
		}
		select {
		case err := <-lockLost:
			return outcomeRetryable, fmt.Errorf("worker: lock lost: %w", err)
		default:
		}

		if roe.Err != nil {
			acc.errored++
			acc.errors = append(acc.errors, models.ErrorRecord{
				JobID:     job.ID,
				RowNumber: roe.Row.Number,
				ErrorType: string(models.ErrorFormat),
				Message:   roe.Err.Error(),
				RowData:   rowDataJSON(roe.Row.Fields),
			})
			acc.lastRow = roe.Row.Number
			rowsInChunk++
		} else {
			w.processRow(ctx, job.ID, roe.Row, detector, now, acc)
			rowsInChunk++
		}

		if rowsInChunk >= chunkSize {
			if err := w.commitChunk(ctx, job, l, acc); err != nil {
				return outcomeRetryable, err
			}
			rowsInChunk = 0
		}
	}

	if rowsInChunk > 0 {
		if err := w.commitChunk(ctx, job, l, acc); err != nil {
			return outcomeRetryable, err
		}
	}

	return outcomeCompleted, nil
}

// seedDetector primes duplicate-detection state from every ledger row
// already committed on a prior attempt, so a resumed job's in-file
// duplicate detection still accounts for rows before the checkpoint
// (§4.6 resume case; see DESIGN.md Open Question on detector state across
// resumes).
func (w *Worker) seedDetector(ctx context.Context, jobID string, detector *duplicate.Detector) error {
	entries, err := w.deps.Ledger.ListProcessed(ctx, jobID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		var employeeNumber, email string
		if e.EmployeeNumber != nil {
			employeeNumber = *e.EmployeeNumber
		}
		if e.Email != nil {
			email = *e.Email
		}
		detector.Seed(e.RowNumber, employeeNumber, email)
	}
	return nil
}

// processRow runs one row through the §4.10 step-5 pipeline: ledger
// replay check, validation, duplicate detection, upsert.
func (w *Worker) processRow(ctx context.Context, jobID string, row importreader.Row, detector *duplicate.Detector, now time.Time, acc *chunkAccumulator) {
	acc.lastRow = row.Number

	alreadyProcessed, err := w.deps.Ledger.WasRowProcessed(ctx, jobID, row.Number)
	if err != nil {
		acc.errored++
		acc.errors = append(acc.errors, models.ErrorRecord{
			JobID: jobID, RowNumber: row.Number,
			ErrorType: string(models.ErrorSystem), Message: "ledger lookup failed: " + err.Error(),
			RowData: rowDataJSON(row.Fields),
		})
		return
	}
	if alreadyProcessed {
		acc.successful++
		return
	}

	raw := validator.RawRow{
		EmployeeNumber: row.Fields["employee_number"],
		FirstName:      row.Fields["first_name"],
		LastName:       row.Fields["last_name"],
		Email:          row.Fields["email"],
		Department:     row.Fields["department"],
		Salary:         row.Fields["salary"],
		Currency:       row.Fields["currency"],
		CountryCode:    row.Fields["country_code"],
		StartDate:      row.Fields["start_date"],
	}

	normalized, fieldErrs := validator.Validate(raw, now)
	if len(fieldErrs) > 0 {
		acc.errored++
		acc.errors = append(acc.errors, models.ErrorRecord{
			JobID: jobID, RowNumber: row.Number,
			ErrorType: string(models.ErrorValidation),
			Message:   formatFieldErrors(fieldErrs),
			RowData:   rowDataJSON(row.Fields),
		})
		_, _ = w.deps.Ledger.RecordProcessed(ctx, jobID, row.Number, nil, nil, models.LedgerError)
		return
	}

	emailKey := strings.ToLower(normalized.Email)
	conflicts := detector.Observe(row.Number, normalized.EmployeeNumber, emailKey)
	for _, c := range conflicts {
		_ = w.deps.Ledger.MarkSkipped(ctx, jobID, c.PriorRow)
		acc.errors = append(acc.errors, models.ErrorRecord{
			JobID: jobID, RowNumber: c.PriorRow,
			ErrorType: string(models.ErrorDuplicate),
			Message:   fmt.Sprintf("superseded by row %d on key %s", row.Number, c.Key),
		})
	}

	employee := &models.Employee{
		EmployeeNumber: normalized.EmployeeNumber,
		FirstName:      normalized.FirstName,
		LastName:       normalized.LastName,
		Email:          normalized.Email,
		Department:     normalized.Department,
		SalaryCents:    normalized.SalaryCents,
		Currency:       normalized.Currency,
		CountryCode:    normalized.CountryCode,
		StartDate:      normalized.StartDate,
	}

	employeeNumber := normalized.EmployeeNumber
	_, _, err = w.deps.Employees.Upsert(ctx, employee)
	if err != nil {
		errorType := models.ErrorSystem
		if errors.Is(err, repository.ErrCrossKeyConflict) {
			errorType = models.ErrorBusinessRule
		}
		acc.errored++
		acc.errors = append(acc.errors, models.ErrorRecord{
			JobID: jobID, RowNumber: row.Number,
			ErrorType: string(errorType), Message: "upsert failed: " + err.Error(),
			RowData: rowDataJSON(row.Fields),
		})
		_, _ = w.deps.Ledger.RecordProcessed(ctx, jobID, row.Number, &employeeNumber, &emailKey, models.LedgerError)
		return
	}

	acc.successful++
	_, _ = w.deps.Ledger.RecordProcessed(ctx, jobID, row.Number, &employeeNumber, &emailKey, models.LedgerProcessed)
}

func formatFieldErrors(errs []validator.FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(parts, "; ")
}

// commitChunk flushes the accumulator: counters, buffered errors, a
// progress-cache write, and a lock renewal, then clears the accumulator
// for the next chunk (§4.10 step 5 "commit chunk").
func (w *Worker) commitChunk(ctx context.Context, job *models.ImportJob, l *lock.JobLock, acc *chunkAccumulator) error {
	if len(acc.errors) > 0 {
		if err := w.deps.Errors.AppendMany(ctx, acc.errors); err != nil {
			return fmt.Errorf("worker: append chunk errors: %w", err)
		}
	}

	if err := w.deps.Jobs.CommitChunk(ctx, job.ID, acc.successful, acc.errored, acc.lastRow, job.TotalRows); err != nil {
		return fmt.Errorf("worker: commit chunk: %w", err)
	}

	refreshed, err := w.deps.Jobs.FindByID(ctx, job.ID)
	if err == nil {
		job.ProcessedRows = refreshed.ProcessedRows
		job.SuccessfulRows = refreshed.SuccessfulRows
		job.ErrorRows = refreshed.ErrorRows
		job.LastProcessedRow = refreshed.LastProcessedRow

		_ = w.deps.Progress.Put(ctx, repository.Progress{
			JobID:            job.ID,
			Status:           job.Status,
			TotalRows:        job.TotalRows,
			ProcessedRows:    job.ProcessedRows,
			SuccessfulRows:   job.SuccessfulRows,
			ErrorRows:        job.ErrorRows,
			LastProcessedRow: job.LastProcessedRow,
		})
	}

	if err := l.Renew(ctx); err != nil {
		return fmt.Errorf("worker: renew lock: %w", err)
	}
	w.logEvent(ctx, job.ID, models.EventLockRenewal, job.Tries, acc.lastRow, "chunk committed, lock renewed")

	acc.reset()
	return nil
}

func (w *Worker) logEvent(ctx context.Context, jobID string, eventType models.ResumptionEventType, attempt, resumedFromRow int, details string) {
	evt := &models.ResumptionLogEvent{
		JobID:          jobID,
		EventType:      string(eventType),
		AttemptNumber:  attempt,
		ResumedFromRow: resumedFromRow,
		Details:        details,
	}
	if w.deps.ResumptionLog == nil {
		return
	}
	if err := w.deps.ResumptionLog.Append(ctx, evt); err != nil {
		w.deps.Logger.Printf("resumption_log_append_error job=%s event=%s err=%v", jobID, eventType, err)
	}
}
