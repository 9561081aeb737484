package mysql

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
	"github.com/nanichang/employee-import-engine/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockedDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	return gdb, mock, func() { db.Close() }
}

func TestEmployeeRepositoryInterface(t *testing.T) {
	var _ repository.EmployeeRepository = (*employeeRepository)(nil)
}

func TestNewEmployeeRepository(t *testing.T) {
	repo := NewEmployeeRepository(nil)
	if repo == nil {
		t.Fatal("NewEmployeeRepository should not return nil")
	}
	if _, ok := repo.(*employeeRepository); !ok {
		t.Error("NewEmployeeRepository should return *employeeRepository")
	}
}

func TestUpsertResultValues(t *testing.T) {
	tests := []struct {
		name     string
		result   repository.UpsertResult
		expected int
	}{
		{"inserted", repository.UpsertInserted, 0},
		{"updated", repository.UpsertUpdated, 1},
		{"noop", repository.UpsertNoOp, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.result) != tt.expected {
				t.Errorf("got %d, want %d", int(tt.result), tt.expected)
			}
		})
	}
}

func TestUpsertInsertsWhenNoExistingRow(t *testing.T) {
	gdb, mock, closeFn := newMockedDB(t)
	defer closeFn()

	mock.ExpectQuery("SELECT \\* FROM `employees` WHERE employee_number").
		WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectQuery("SELECT \\* FROM `employees` WHERE email_normalized").
		WillReturnRows(sqlmock.NewRows(nil))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `employees`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewEmployeeRepository(gdb)
	_, result, err := repo.Upsert(context.Background(), &models.Employee{
		EmployeeNumber: "E1",
		FirstName:      "Ann",
		LastName:       "Lee",
		Email:          "A@X.co",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if result != repository.UpsertInserted {
		t.Errorf("result = %v, want UpsertInserted", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestContextHandling(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	select {
	case <-ctx.Done():
		t.Error("context should not be cancelled immediately")
	default:
	}

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(50 * time.Millisecond):
		t.Error("context should be cancelled after cancel()")
	}
}

var _ = sql.ErrNoRows
