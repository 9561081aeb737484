package models

import "time"

// LedgerStatus records what happened to a row the last time the worker
// applied it, so a retry can tell replay from new work (§4.2).
type LedgerStatus string

const (
	LedgerProcessed LedgerStatus = "processed"
	LedgerSkipped   LedgerStatus = "skipped"
	LedgerError     LedgerStatus = "error"
)

// LedgerEntry is the per-job idempotency record. Unique per
// (job_id, employee_number) and per (job_id, email); employee_number and
// email are nullable so that rows which failed validation before a key
// could be extracted don't collide with each other under the unique index.
type LedgerEntry struct {
	ID             uint64  `gorm:"primaryKey;autoIncrement"`
	JobID          string  `gorm:"size:36;not null;uniqueIndex:uniq_job_empnum;uniqueIndex:uniq_job_email;uniqueIndex:uniq_job_row"`
	RowNumber      int     `gorm:"not null;uniqueIndex:uniq_job_row"`
	EmployeeNumber *string `gorm:"size:50;uniqueIndex:uniq_job_empnum"`
	Email          *string `gorm:"size:255;uniqueIndex:uniq_job_email"`
	Status         string  `gorm:"size:10;not null"`
	ProcessedAt    time.Time
}

func (LedgerEntry) TableName() string { return "import_processed_records" }
