package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobStatus is the import job lifecycle state.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// SizeClass buckets a job for dispatcher queue routing.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// ClassifyBySize maps an approximate row count to a SizeClass (C11).
func ClassifyBySize(totalRows int) SizeClass {
	switch {
	case totalRows < 1000:
		return SizeSmall
	case totalRows < 10000:
		return SizeMedium
	default:
		return SizeLarge
	}
}

// ImportJob is a single import attempt record. Counters are only
// monotonically non-decreasing within one processing episode; an
// integrity-check failure resets them for a fresh episode (§4.8).
type ImportJob struct {
	ID                 string `gorm:"primaryKey;size:36"`
	Filename            string `gorm:"size:255;not null"`
	FilePath            string `gorm:"size:1024;not null"`
	Status              string `gorm:"size:20;not null;index"`
	TotalRows           int
	ProcessedRows       int
	SuccessfulRows      int
	ErrorRows           int
	LastProcessedRow    int
	FileSize            int64
	FileHash            string `gorm:"size:64"`
	FileLastModified    time.Time
	SizeClass           string `gorm:"size:10"`
	Tries               int
	StartedAt           *time.Time
	CompletedAt         *time.Time
	ResumptionMetadata  datatypes.JSON `gorm:"type:json"`
	CreatedAt           int64
	UpdatedAt           int64
}

func (ImportJob) TableName() string { return "import_jobs" }

// IsTerminal reports whether the job has reached a final status.
func (j *ImportJob) IsTerminal() bool {
	return JobStatus(j.Status) == JobCompleted || JobStatus(j.Status) == JobFailed
}

// Fingerprint is the (size, hash, mtime) tuple identifying file
// contents-at-upload (C8).
type Fingerprint struct {
	FileSize         int64
	FileHash         string
	FileLastModified time.Time
}

// Matches reports whether the job's stored fingerprint matches fp exactly.
func (j *ImportJob) Matches(fp Fingerprint) bool {
	return j.FileSize == fp.FileSize &&
		j.FileHash == fp.FileHash &&
		j.FileLastModified.Equal(fp.FileLastModified)
}
