package repository

import (
	"context"

	"github.com/nanichang/employee-import-engine/internal/models"
)

// ErrorFilter narrows ListByJob results (§4.4).
type ErrorFilter struct {
	ErrorType string
	RowStart  int
	RowEnd    int
	Search    string
	Page      int
	PerPage   int
}

// ErrorHistogramEntry is one row of the per-job error-type histogram.
type ErrorHistogramEntry struct {
	ErrorType string
	Count     int64
}

// ErrorRepository is the append-only per-job error store (C4).
type ErrorRepository interface {
	Append(ctx context.Context, e *models.ErrorRecord) error
	AppendMany(ctx context.Context, errs []models.ErrorRecord) error
	ListByJob(ctx context.Context, jobID string, filter ErrorFilter) (records []models.ErrorRecord, total int64, err error)
	Histogram(ctx context.Context, jobID string) ([]ErrorHistogramEntry, error)
}
