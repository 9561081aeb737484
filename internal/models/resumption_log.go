package models

import "gorm.io/datatypes"

// ResumptionEventType enumerates lifecycle observability events (C13).
type ResumptionEventType string

const (
	EventAttempt        ResumptionEventType = "attempt"
	EventSuccess        ResumptionEventType = "success"
	EventFailure        ResumptionEventType = "failure"
	EventIntegrityCheck ResumptionEventType = "integrity_check"
	EventLockRenewal    ResumptionEventType = "lock_renewal"
)

// ResumptionLogEvent is an append-only observability trail of everything
// that happened to a job across attempts: lock acquisitions/renewals,
// integrity checks, and terminal outcomes.
type ResumptionLogEvent struct {
	ID              uint64         `gorm:"primaryKey;autoIncrement"`
	JobID           string         `gorm:"size:36;not null;index"`
	EventType       string         `gorm:"size:20;not null"`
	AttemptNumber   int
	ResumedFromRow  int
	Details         string         `gorm:"size:500"`
	Metadata        datatypes.JSON `gorm:"type:json"`
	CreatedAt       int64
}

func (ResumptionLogEvent) TableName() string { return "import_resumption_logs" }
