package repository

import (
	"context"

	"github.com/nanichang/employee-import-engine/internal/models"
)

// JobRepository persists ImportJob rows and drives status transitions (C10/C11).
type JobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	FindByID(ctx context.Context, id string) (*models.ImportJob, error)
	// UpdateStatus transitions status, stamping started_at on the move to
	// processing and completed_at on terminal transitions.
	UpdateStatus(ctx context.Context, id string, status models.JobStatus) error
	// ResetProgress zeroes the four counters after an integrity-check
	// failure (§4.8). It leaves Tries unchanged.
	ResetProgress(ctx context.Context, id string) error
	IncrementTries(ctx context.Context, id string) error
	// CommitChunk atomically advances counters/last_processed_row for one
	// chunk commit (§4.10 step 5).
	CommitChunk(ctx context.Context, id string, deltaSuccessful, deltaError int, lastProcessedRow, totalRows int) error
	// DeleteCascade removes the job and all rows it owns (ledger, errors,
	// resumption log) in a single transaction (§3 ownership).
	DeleteCascade(ctx context.Context, id string) error
	// ListPending returns non-terminal jobs (pending or stuck processing),
	// oldest first, for the processor binary's recovery sweep (§4.10,
	// crash-resumption case).
	ListPending(ctx context.Context, limit int) ([]models.ImportJob, error)
}
