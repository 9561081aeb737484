package repository

import (
	"context"

	"github.com/nanichang/employee-import-engine/internal/models"
)

// ResumptionLogRepository is the append-only observability trail (C13).
type ResumptionLogRepository interface {
	Append(ctx context.Context, evt *models.ResumptionLogEvent) error
	ListByJob(ctx context.Context, jobID string) ([]models.ResumptionLogEvent, error)
}
