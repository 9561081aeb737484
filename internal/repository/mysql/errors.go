package mysql

import (
	"context"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"

	"gorm.io/gorm"
)

type errorRepository struct {
	db *gorm.DB
}

func NewErrorRepository(db *gorm.DB) repository.ErrorRepository {
	return &errorRepository{db: db}
}

func (r *errorRepository) Append(ctx context.Context, e *models.ErrorRecord) error {
	e.CreatedAt = time.Now().Unix()
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *errorRepository) AppendMany(ctx context.Context, errs []models.ErrorRecord) error {
	if len(errs) == 0 {
		return nil
	}
	now := time.Now().Unix()
	for i := range errs {
		errs[i].CreatedAt = now
	}
	return r.db.WithContext(ctx).Create(&errs).Error
}

func (r *errorRepository) ListByJob(ctx context.Context, jobID string, filter repository.ErrorFilter) ([]models.ErrorRecord, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.ErrorRecord{}).Where("job_id = ?", jobID)

	if filter.ErrorType != "" {
		q = q.Where("error_type = ?", filter.ErrorType)
	}
	if filter.RowStart > 0 {
		q = q.Where("row_number >= ?", filter.RowStart)
	}
	if filter.RowEnd > 0 {
		q = q.Where("row_number <= ?", filter.RowEnd)
	}
	if filter.Search != "" {
		q = q.Where("message LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}

	var records []models.ErrorRecord
	err := q.Order("row_number ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error

	return records, total, err
}

func (r *errorRepository) Histogram(ctx context.Context, jobID string) ([]repository.ErrorHistogramEntry, error) {
	var rows []repository.ErrorHistogramEntry
	err := r.db.WithContext(ctx).Model(&models.ErrorRecord{}).
		Select("error_type, count(*) as count").
		Where("job_id = ?", jobID).
		Group("error_type").
		Scan(&rows).Error
	return rows, err
}
