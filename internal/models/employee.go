package models

import "time"

// Employee is the canonical, deduplicated employee record. employee_number
// and email are each globally unique; Upsert is the only write path.
type Employee struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement"`
	EmployeeNumber  string     `gorm:"size:50;not null;uniqueIndex:uniq_employee_number"`
	FirstName       string     `gorm:"size:100;not null"`
	LastName        string     `gorm:"size:100;not null"`
	Email           string     `gorm:"size:255;not null"`
	EmailNormalized string     `gorm:"size:255;not null;uniqueIndex:uniq_email_normalized"`
	Department      string     `gorm:"size:100"`
	SalaryCents     *int64     `gorm:""`
	Currency        string     `gorm:"size:3"`
	CountryCode     string     `gorm:"size:2"`
	StartDate       *time.Time `gorm:"type:date"`
	CreatedAt       int64
	UpdatedAt       int64
}

func (Employee) TableName() string { return "employees" }

// Currencies and CountryCodes are process-wide immutable configuration.
// Changing the accepted set requires a restart (see internal/validator).
var Currencies = map[string]struct{}{
	"KES": {}, "USD": {}, "ZAR": {}, "NGN": {}, "GHS": {}, "UGX": {}, "RWF": {}, "TZS": {},
}

var CountryCodes = map[string]struct{}{
	"KE": {}, "NG": {}, "GH": {}, "UG": {}, "ZA": {}, "TZ": {}, "RW": {},
}
