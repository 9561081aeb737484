package repository

import (
	"context"
	"errors"

	"github.com/nanichang/employee-import-engine/internal/models"
)

// ErrCrossKeyConflict is returned when employee_number and email resolve
// to two different existing rows (§4.1) -- a business_rule error, not a
// system failure.
var ErrCrossKeyConflict = errors.New("employee_number and email match different existing employees")

// UpsertResult mirrors the three observable outcomes of an Employee upsert.
type UpsertResult int

const (
	UpsertInserted UpsertResult = iota
	UpsertUpdated
	UpsertNoOp
)

// EmployeeRepository persists canonical employee rows (C1).
type EmployeeRepository interface {
	// Upsert finds an existing row by employee_number OR email (case-folded)
	// and updates it; inserts if none exists. Returns ErrCrossKeyConflict if
	// employee_number and email match two different existing rows.
	Upsert(ctx context.Context, e *models.Employee) (*models.Employee, UpsertResult, error)
	FindByEmployeeNumber(ctx context.Context, employeeNumber string) (*models.Employee, error)
	FindByEmail(ctx context.Context, email string) (*models.Employee, error)
	FindManyByKeys(ctx context.Context, employeeNumbers, emails []string) ([]models.Employee, error)
}
