package repository

import (
	"context"

	"github.com/nanichang/employee-import-engine/internal/models"
)

// LedgerRepository is the per-job idempotency ledger (C2).
type LedgerRepository interface {
	// RecordProcessed inserts a ledger row. A duplicate-key error (the
	// worker re-applying a row it already persisted) is swallowed and
	// reported via the bool return, not as an error.
	RecordProcessed(ctx context.Context, jobID string, row int, employeeNumber, email *string, status models.LedgerStatus) (alreadyRecorded bool, err error)
	// MarkSkipped flips a previously processed row's status to skipped,
	// used when the duplicate detector retroactively marks an earlier row.
	MarkSkipped(ctx context.Context, jobID string, row int) error
	WasEmployeeNumberProcessed(ctx context.Context, jobID, employeeNumber string) (bool, error)
	WasEmailProcessed(ctx context.Context, jobID, email string) (bool, error)
	WasRowProcessed(ctx context.Context, jobID string, row int) (bool, error)
	// ListProcessed returns every processed/skipped entry for jobID in row
	// order, used to reprime the duplicate detector's in-memory state when
	// a job resumes mid-file (§4.6 resume case).
	ListProcessed(ctx context.Context, jobID string) ([]models.LedgerEntry, error)
	ClearForJob(ctx context.Context, jobID string) error
}
