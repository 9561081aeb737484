// Package service exposes the import job use cases consumed by the HTTP
// handlers, mirroring the teacher's thin service-over-repository shape.
package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nanichang/employee-import-engine/internal/dispatcher"
	"github.com/nanichang/employee-import-engine/internal/fingerprint"
	"github.com/nanichang/employee-import-engine/internal/importreader"
	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"
)

// ErrUnsupportedFormat means neither content-type nor filename extension
// identified a known import format.
var ErrUnsupportedFormat = fmt.Errorf("unsupported file format")

// UploadResult is returned to the caller immediately after a file is
// accepted (§4.12 upload response envelope).
type UploadResult struct {
	ImportJobID string `json:"import_job_id"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
}

// ImportService wires upload/progress/errors/summary reads on top of the
// repositories and the job dispatcher.
type ImportService struct {
	jobs       repository.JobRepository
	errors     repository.ErrorRepository
	progress   repository.ProgressStore
	dispatcher *dispatcher.Dispatcher
	uploadDir  string
	maxBytes   int64
	readerCfg  importreader.Config
}

// Config bounds upload handling (§4.14).
type Config struct {
	UploadDir     string
	MaxFileBytes  int64
	CSVChunkSize  int
	XLSXChunkSize int
}

// New constructs an ImportService.
func New(jobs repository.JobRepository, errs repository.ErrorRepository, progress repository.ProgressStore, d *dispatcher.Dispatcher, cfg Config) *ImportService {
	return &ImportService{
		jobs:       jobs,
		errors:     errs,
		progress:   progress,
		dispatcher: d,
		uploadDir:  cfg.UploadDir,
		maxBytes:   cfg.MaxFileBytes,
		readerCfg: importreader.Config{
			CSVChunkSize:  cfg.CSVChunkSize,
			XLSXChunkSize: cfg.XLSXChunkSize,
			CSVDelimiter:  ',',
		},
	}
}

// Upload persists the incoming file, fingerprints it, validates its
// header, creates the Job row, and enqueues it for processing (§4.12).
func (s *ImportService) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (*UploadResult, error) {
	if fileHeader.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds maximum size of %d bytes", ErrValidation, s.maxBytes)
	}

	format, err := importreader.DetectFormat(fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("service: prepare upload dir: %w", err)
	}

	jobID := uuid.NewString()
	destPath := filepath.Join(s.uploadDir, jobID+filepath.Ext(fileHeader.Filename))
	if err := saveUpload(fileHeader, destPath); err != nil {
		return nil, fmt.Errorf("service: save upload: %w", err)
	}

	reader, err := importreader.Open(destPath, format, s.readerCfg)
	if err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := reader.ValidateHeader(importreader.RequiredColumns); err != nil {
		reader.Close()
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// The total is counted once at upload time, for queue classification
	// and as the job's total_rows; the worker does not recount rows as it
	// streams. The count is not checked against a maximum row limit.
	approxTotal := 0
	for range reader.Rows() {
		approxTotal++
	}
	reader.Close()

	fp, err := fingerprint.Compute(destPath)
	if err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("service: fingerprint upload: %w", err)
	}

	job := &models.ImportJob{
		ID:               jobID,
		Filename:         fileHeader.Filename,
		FilePath:         destPath,
		Status:           string(models.JobPending),
		TotalRows:        approxTotal,
		FileSize:         fp.FileSize,
		FileHash:         fp.FileHash,
		FileLastModified: fp.FileLastModified,
		SizeClass:        string(models.ClassifyBySize(approxTotal)),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		_ = os.Remove(destPath)
		return nil, fmt.Errorf("service: create job: %w", err)
	}

	if err := s.dispatcher.Enqueue(models.ClassifyBySize(approxTotal), jobID); err != nil {
		return nil, fmt.Errorf("service: enqueue job: %w", err)
	}

	return &UploadResult{ImportJobID: jobID, Filename: job.Filename, Status: job.Status}, nil
}

// ErrValidation marks upload-time faults that are user-visible (422), as
// opposed to internal faults (500).
var ErrValidation = fmt.Errorf("validation failed")

// ErrNotFound marks an unknown job ID.
var ErrNotFound = fmt.Errorf("import job not found")

// Progress reads the fast-path cache first, falling back to the durable
// store on a miss (§4.3, §4.12).
func (s *ImportService) Progress(ctx context.Context, jobID string) (repository.Progress, error) {
	if cached, ok, err := s.progress.Get(ctx, jobID); err == nil && ok {
		return cached, nil
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return repository.Progress{}, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if job == nil {
		return repository.Progress{}, ErrNotFound
	}

	p := repository.Progress{
		JobID:            job.ID,
		Status:           job.Status,
		TotalRows:        job.TotalRows,
		ProcessedRows:    job.ProcessedRows,
		SuccessfulRows:   job.SuccessfulRows,
		ErrorRows:        job.ErrorRows,
		LastProcessedRow: job.LastProcessedRow,
	}
	_ = s.progress.Put(ctx, p)
	return p, nil
}

// Errors paginates a job's error records (§4.4, §4.12).
func (s *ImportService) Errors(ctx context.Context, jobID string, filter repository.ErrorFilter) ([]models.ErrorRecord, int64, error) {
	return s.errors.ListByJob(ctx, jobID, filter)
}

// Summary reports the job's terminal/near-terminal state alongside its
// error-type histogram and derived rates (§4.12).
type Summary struct {
	JobID          string                          `json:"import_job_id"`
	Status         string                          `json:"status"`
	TotalRows      int                             `json:"total_rows"`
	SuccessfulRows int                              `json:"successful_rows"`
	ErrorRows      int                              `json:"error_rows"`
	SuccessRate    float64                          `json:"success_rate"`
	ErrorRate      float64                          `json:"error_rate"`
	ProcessingTime string                           `json:"processing_time"`
	Histogram      []repository.ErrorHistogramEntry `json:"error_histogram"`
}

func (s *ImportService) Summary(ctx context.Context, jobID string) (*Summary, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if job == nil {
		return nil, ErrNotFound
	}

	histogram, err := s.errors.Histogram(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("service: error histogram: %w", err)
	}

	summary := &Summary{
		JobID:          job.ID,
		Status:         job.Status,
		TotalRows:      job.TotalRows,
		SuccessfulRows: job.SuccessfulRows,
		ErrorRows:      job.ErrorRows,
		Histogram:      histogram,
	}
	if job.TotalRows > 0 {
		summary.SuccessRate = round2(float64(job.SuccessfulRows) / float64(job.TotalRows) * 100)
		summary.ErrorRate = round2(float64(job.ErrorRows) / float64(job.TotalRows) * 100)
	}
	if job.StartedAt != nil {
		end := time.Now()
		if job.CompletedAt != nil {
			end = *job.CompletedAt
		}
		summary.ProcessingTime = end.Sub(*job.StartedAt).Round(time.Second).String()
	}

	return summary, nil
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func saveUpload(fileHeader *multipart.FileHeader, destPath string) error {
	src, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}
