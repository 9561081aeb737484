// Package validator implements the stateless per-row schema contract (C5).
// Validate never touches the database or the filesystem; it is pure given
// its input row and "today".
package validator

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nanichang/employee-import-engine/internal/models"
)

// RawRow is the unparsed, header-mapped view of one data row.
type RawRow struct {
	EmployeeNumber string
	FirstName      string
	LastName       string
	Email          string
	Department     string
	Salary         string
	Currency       string
	CountryCode    string
	StartDate      string
}

// NormalizedRow is a RawRow that has passed every field rule.
type NormalizedRow struct {
	EmployeeNumber string
	FirstName      string
	LastName       string
	Email          string
	Department     string
	SalaryCents    *int64
	Currency       string
	CountryCode    string
	StartDate      *time.Time
}

// FieldError is one field's validation failure.
type FieldError struct {
	Field   string
	Message string
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
var controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)

const (
	maxEmployeeNumberLen = 50
	maxNameLen           = 100
	maxEmailLen          = 255
	maxDepartmentLen     = 100
	maxSalary            = 10_000_000_000 // 10^10
)

// Validate checks raw against the schema in §4.5, applying at most one
// error per field, in field order. now is the reference point for the
// start_date "≤ today" rule, passed in so callers control the timezone
// (UTC if the job does not specify one).
func Validate(raw RawRow, now time.Time) (NormalizedRow, []FieldError) {
	var out NormalizedRow
	var errs []FieldError

	employeeNumber := strings.TrimSpace(raw.EmployeeNumber)
	switch {
	case employeeNumber == "":
		errs = append(errs, FieldError{"employee_number", "required"})
	case len(employeeNumber) > maxEmployeeNumberLen:
		errs = append(errs, FieldError{"employee_number", "exceeds 50 characters"})
	case controlChars.MatchString(employeeNumber):
		errs = append(errs, FieldError{"employee_number", "contains control characters"})
	default:
		out.EmployeeNumber = employeeNumber
	}

	firstName := strings.TrimSpace(raw.FirstName)
	switch {
	case firstName == "":
		errs = append(errs, FieldError{"first_name", "required"})
	case len(firstName) > maxNameLen:
		errs = append(errs, FieldError{"first_name", "exceeds 100 characters"})
	default:
		out.FirstName = firstName
	}

	lastName := strings.TrimSpace(raw.LastName)
	switch {
	case lastName == "":
		errs = append(errs, FieldError{"last_name", "required"})
	case len(lastName) > maxNameLen:
		errs = append(errs, FieldError{"last_name", "exceeds 100 characters"})
	default:
		out.LastName = lastName
	}

	email := strings.TrimSpace(raw.Email)
	switch {
	case email == "":
		errs = append(errs, FieldError{"email", "required"})
	case len(email) > maxEmailLen:
		errs = append(errs, FieldError{"email", "exceeds 255 characters"})
	case !emailPattern.MatchString(email):
		errs = append(errs, FieldError{"email", "not a valid email address"})
	default:
		out.Email = email
	}

	department := strings.TrimSpace(raw.Department)
	if len(department) > maxDepartmentLen {
		errs = append(errs, FieldError{"department", "exceeds 100 characters"})
	} else {
		out.Department = department
	}

	if salary := strings.TrimSpace(raw.Salary); salary != "" {
		cents, err := parseSalaryCents(salary)
		if err != nil {
			errs = append(errs, FieldError{"salary", err.Error()})
		} else {
			out.SalaryCents = &cents
		}
	}

	if currency := strings.TrimSpace(strings.ToUpper(raw.Currency)); currency != "" {
		if _, ok := models.Currencies[currency]; !ok {
			errs = append(errs, FieldError{"currency", "not a recognized currency"})
		} else {
			out.Currency = currency
		}
	}

	if country := strings.TrimSpace(strings.ToUpper(raw.CountryCode)); country != "" {
		if _, ok := models.CountryCodes[country]; !ok {
			errs = append(errs, FieldError{"country_code", "not a recognized country code"})
		} else {
			out.CountryCode = country
		}
	}

	if startDate := strings.TrimSpace(raw.StartDate); startDate != "" {
		parsed, err := time.Parse("2006-01-02", startDate)
		switch {
		case err != nil:
			errs = append(errs, FieldError{"start_date", "must be YYYY-MM-DD"})
		case parsed.After(now):
			errs = append(errs, FieldError{"start_date", "must not be in the future"})
		default:
			out.StartDate = &parsed
		}
	}

	return out, errs
}

// parseSalaryCents rejects anything but digits, at most one '.', and an
// optional leading '-', so "50k" and "66.5k" fail outright rather than
// silently truncating at the first non-numeric rune.
func parseSalaryCents(raw string) (int64, error) {
	for _, r := range raw {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			return 0, errFor("must be a plain number")
		}
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errFor("must be a plain number")
	}
	if value < 0 {
		return 0, errFor("must be >= 0")
	}
	if value > maxSalary {
		return 0, errFor("exceeds maximum salary")
	}

	dot := strings.IndexByte(raw, '.')
	if dot >= 0 && len(raw)-dot-1 > 2 {
		return 0, errFor("at most 2 decimal places")
	}

	return int64(value*100 + 0.5), nil
}

type fieldErrText string

func (e fieldErrText) Error() string { return string(e) }

func errFor(msg string) error { return fieldErrText(msg) }
