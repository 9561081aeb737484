package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"

	"gorm.io/gorm"
)

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) repository.JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	now := time.Now().Unix()
	job.CreatedAt = now
	job.UpdatedAt = now
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *jobRepository) FindByID(ctx context.Context, id string) (*models.ImportJob, error) {
	var job models.ImportJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) UpdateStatus(ctx context.Context, id string, status models.JobStatus) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now().Unix(),
	}
	now := time.Now()
	switch status {
	case models.JobProcessing:
		updates["started_at"] = now
	case models.JobCompleted, models.JobFailed:
		updates["completed_at"] = now
	}
	return r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", id).Updates(updates).Error
}

func (r *jobRepository) ResetProgress(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"processed_rows":      0,
		"successful_rows":     0,
		"error_rows":          0,
		"last_processed_row":  0,
		"updated_at":          time.Now().Unix(),
	}).Error
}

func (r *jobRepository) IncrementTries(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.ImportJob{}).Where("id = ?", id).
		UpdateColumn("tries", gorm.Expr("tries + ?", 1)).Error
}

// CommitChunk is the single transactional write backing §4.10 step 5:
// counters advance together, never partially.
func (r *jobRepository) CommitChunk(ctx context.Context, id string, deltaSuccessful, deltaError int, lastProcessedRow, totalRows int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"successful_rows":    gorm.Expr("successful_rows + ?", deltaSuccessful),
			"error_rows":         gorm.Expr("error_rows + ?", deltaError),
			"processed_rows":     gorm.Expr("processed_rows + ?", deltaSuccessful+deltaError),
			"last_processed_row": lastProcessedRow,
			"updated_at":         time.Now().Unix(),
		}
		if totalRows > 0 {
			updates["total_rows"] = totalRows
		}
		return tx.Model(&models.ImportJob{}).Where("id = ?", id).Updates(updates).Error
	})
}

// ListPending returns non-terminal jobs oldest first, bounded by limit, so
// the processor binary can re-enqueue work left over from a crash or a
// cold start (§4.10, crash-resumption case). Processing is safe to
// re-attempt because JobLock (C9) rejects concurrent claims.
func (r *jobRepository) ListPending(ctx context.Context, limit int) ([]models.ImportJob, error) {
	var jobs []models.ImportJob
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{string(models.JobPending), string(models.JobProcessing)}).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// DeleteCascade removes a job and everything it owns in one transaction
// (§3 ownership: ledger, errors, resumption log are cascade-deleted).
func (r *jobRepository) DeleteCascade(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", id).Delete(&models.LedgerEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&models.ErrorRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", id).Delete(&models.ResumptionLogEvent{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.ImportJob{}).Error
	})
}
