package mysql

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"

	"gorm.io/gorm"
)

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) repository.EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) FindByEmployeeNumber(ctx context.Context, employeeNumber string) (*models.Employee, error) {
	var e models.Employee
	err := r.db.WithContext(ctx).Where("employee_number = ?", employeeNumber).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepository) FindByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var e models.Employee
	err := r.db.WithContext(ctx).Where("email_normalized = ?", strings.ToLower(email)).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *employeeRepository) FindManyByKeys(ctx context.Context, employeeNumbers, emails []string) ([]models.Employee, error) {
	var rows []models.Employee
	if len(employeeNumbers) == 0 && len(emails) == 0 {
		return rows, nil
	}
	normalizedEmails := make([]string, len(emails))
	for i, e := range emails {
		normalizedEmails[i] = strings.ToLower(e)
	}
	err := r.db.WithContext(ctx).
		Where("employee_number IN ? OR email_normalized IN ?", employeeNumbers, normalizedEmails).
		Find(&rows).Error
	return rows, err
}

// Upsert probes for an existing row by employee_number, then by email,
// before deciding insert vs. update -- the same probe-then-write shape the
// segmentation repository used, generalized to two candidate keys instead
// of one composite key.
func (r *employeeRepository) Upsert(ctx context.Context, e *models.Employee) (*models.Employee, repository.UpsertResult, error) {
	e.EmailNormalized = strings.ToLower(e.Email)

	var byNumber, byEmail models.Employee
	numberErr := r.db.WithContext(ctx).Where("employee_number = ?", e.EmployeeNumber).First(&byNumber).Error
	emailErr := r.db.WithContext(ctx).Where("email_normalized = ?", e.EmailNormalized).First(&byEmail).Error

	foundByNumber := numberErr == nil
	foundByEmail := emailErr == nil

	if numberErr != nil && !errors.Is(numberErr, gorm.ErrRecordNotFound) {
		log.Printf("upsert_error employee_number=%s email=%s error=%v", e.EmployeeNumber, e.Email, numberErr)
		return nil, repository.UpsertNoOp, numberErr
	}
	if emailErr != nil && !errors.Is(emailErr, gorm.ErrRecordNotFound) {
		log.Printf("upsert_error employee_number=%s email=%s error=%v", e.EmployeeNumber, e.Email, emailErr)
		return nil, repository.UpsertNoOp, emailErr
	}

	if foundByNumber && foundByEmail && byNumber.ID != byEmail.ID {
		log.Printf("upsert_conflict employee_number=%s email=%s existing_id_by_number=%d existing_id_by_email=%d",
			e.EmployeeNumber, e.Email, byNumber.ID, byEmail.ID)
		return nil, repository.UpsertNoOp, repository.ErrCrossKeyConflict
	}

	if !foundByNumber && !foundByEmail {
		now := time.Now().Unix()
		e.CreatedAt = now
		e.UpdatedAt = now
		if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
			log.Printf("upsert_error employee_number=%s email=%s error=%v", e.EmployeeNumber, e.Email, err)
			return nil, repository.UpsertNoOp, err
		}
		return e, repository.UpsertInserted, nil
	}

	existing := byNumber
	if !foundByNumber {
		existing = byEmail
	}

	e.ID = existing.ID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().Unix()

	updates := map[string]interface{}{
		"employee_number":  e.EmployeeNumber,
		"first_name":       e.FirstName,
		"last_name":        e.LastName,
		"email":            e.Email,
		"email_normalized": e.EmailNormalized,
		"department":       e.Department,
		"salary_cents":     e.SalaryCents,
		"currency":         e.Currency,
		"country_code":     e.CountryCode,
		"start_date":       e.StartDate,
		"updated_at":       e.UpdatedAt,
	}

	if err := r.db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", e.ID).Updates(updates).Error; err != nil {
		log.Printf("upsert_error employee_number=%s email=%s error=%v", e.EmployeeNumber, e.Email, err)
		return nil, repository.UpsertNoOp, err
	}

	return e, repository.UpsertUpdated, nil
}
