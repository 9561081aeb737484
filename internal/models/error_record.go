package models

import "gorm.io/datatypes"

// ErrorType is the row-level error taxonomy (§7).
type ErrorType string

const (
	ErrorValidation   ErrorType = "validation"
	ErrorDuplicate    ErrorType = "duplicate"
	ErrorFormat       ErrorType = "format"
	ErrorBusinessRule ErrorType = "business_rule"
	ErrorSystem       ErrorType = "system"
)

// ErrorRecord is an append-only, per-job, per-row categorized error.
type ErrorRecord struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	JobID     string         `gorm:"size:36;not null;index:idx_job_row;index:idx_job_type"`
	RowNumber int            `gorm:"not null;index:idx_job_row"`
	ErrorType string         `gorm:"size:20;not null;index:idx_job_type"`
	Message   string         `gorm:"size:1000;not null"`
	RowData   datatypes.JSON `gorm:"type:json"`
	CreatedAt int64
}

func (ErrorRecord) TableName() string { return "import_errors" }
