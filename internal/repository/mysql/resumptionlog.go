package mysql

import (
	"context"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"

	"gorm.io/gorm"
)

type resumptionLogRepository struct {
	db *gorm.DB
}

func NewResumptionLogRepository(db *gorm.DB) repository.ResumptionLogRepository {
	return &resumptionLogRepository{db: db}
}

func (r *resumptionLogRepository) Append(ctx context.Context, evt *models.ResumptionLogEvent) error {
	evt.CreatedAt = time.Now().Unix()
	return r.db.WithContext(ctx).Create(evt).Error
}

func (r *resumptionLogRepository) ListByJob(ctx context.Context, jobID string) ([]models.ResumptionLogEvent, error) {
	var events []models.ResumptionLogEvent
	err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("created_at ASC").Find(&events).Error
	return events, err
}
