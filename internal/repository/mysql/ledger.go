package mysql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"

	"gorm.io/gorm"
)

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

// RecordProcessed inserts a ledger row; a duplicate-key error means the
// worker is re-applying a row it already persisted on a prior attempt,
// which is success-without-error, not a failure (§4.2).
func (r *ledgerRepository) RecordProcessed(ctx context.Context, jobID string, row int, employeeNumber, email *string, status models.LedgerStatus) (bool, error) {
	entry := models.LedgerEntry{
		JobID:          jobID,
		RowNumber:      row,
		EmployeeNumber: employeeNumber,
		Email:          email,
		Status:         string(status),
		ProcessedAt:    time.Now(),
	}
	err := r.db.WithContext(ctx).Create(&entry).Error
	if err == nil {
		return false, nil
	}
	if isDuplicateKeyError(err) {
		return true, nil
	}
	return false, err
}

// MarkSkipped supersedes a row a later row in the same file has claimed
// the key of. It must also null employee_number/email: those columns sit
// under uniq_job_empnum/uniq_job_email regardless of status, so leaving
// them set would make the winning row's own RecordProcessed insert collide
// with this "skipped" row and get swallowed by isDuplicateKeyError as a
// false replay, leaving the winning row with no ledger entry at all (§4.6).
func (r *ledgerRepository) MarkSkipped(ctx context.Context, jobID string, row int) error {
	return r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("job_id = ? AND row_number = ?", jobID, row).
		Updates(map[string]interface{}{
			"status":          string(models.LedgerSkipped),
			"employee_number": nil,
			"email":           nil,
		}).Error
}

func (r *ledgerRepository) WasEmployeeNumberProcessed(ctx context.Context, jobID, employeeNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("job_id = ? AND employee_number = ? AND status = ?", jobID, employeeNumber, string(models.LedgerProcessed)).
		Count(&count).Error
	return count > 0, err
}

func (r *ledgerRepository) WasEmailProcessed(ctx context.Context, jobID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("job_id = ? AND email = ? AND status = ?", jobID, email, string(models.LedgerProcessed)).
		Count(&count).Error
	return count > 0, err
}

func (r *ledgerRepository) WasRowProcessed(ctx context.Context, jobID string, row int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LedgerEntry{}).
		Where("job_id = ? AND row_number = ?", jobID, row).
		Count(&count).Error
	return count > 0, err
}

func (r *ledgerRepository) ListProcessed(ctx context.Context, jobID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("job_id = ? AND status IN ?", jobID, []string{string(models.LedgerProcessed), string(models.LedgerSkipped)}).
		Order("row_number ASC").
		Find(&entries).Error
	return entries, err
}

func (r *ledgerRepository) ClearForJob(ctx context.Context, jobID string) error {
	return r.db.WithContext(ctx).Where("job_id = ?", jobID).Delete(&models.LedgerEntry{}).Error
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || errors.Is(err, gorm.ErrDuplicatedKey)
}
