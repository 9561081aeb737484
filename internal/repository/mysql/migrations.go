package mysql

import (
	"github.com/nanichang/employee-import-engine/internal/models"

	"gorm.io/gorm"
)

// RunMigrations auto-migrates every table the Import Engine owns.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Employee{},
		&models.ImportJob{},
		&models.LedgerEntry{},
		&models.ErrorRecord{},
		&models.ResumptionLogEvent{},
	)
}
