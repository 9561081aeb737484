// Package importreader implements the format-agnostic, memory-bounded row
// producer (C7). Two variants -- delimited-text and workbook -- satisfy the
// same Reader capability set; callers never branch on format after Open.
package importreader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingColumns is returned by ValidateHeader when required columns
// are absent.
var ErrMissingColumns = errors.New("missing required columns")

// RequiredColumns are mandatory in every import file (§4.7).
var RequiredColumns = []string{"employee_number", "first_name", "last_name", "email"}

// Row is one data row (header = row 0, excluded), 1-based.
type Row struct {
	Number int
	Fields map[string]string
}

// RowOrErr lets the producer surface a format-level decode failure for one
// row without aborting the whole stream (mapped to error_type=format,
// §7).
type RowOrErr struct {
	Row Row
	Err error
}

// Reader is the capability set every format variant implements (§9).
type Reader interface {
	// ValidateHeader checks that every name in expected is present
	// (case-insensitively, with '_' and ' ' equivalent) among the file's
	// columns. Must be called once before Rows/Seek.
	ValidateHeader(expected []string) error
	// Rows returns a channel yielding one chunk's worth of rows at a time
	// behind the scenes; callers range over it like any row stream. The
	// channel is closed at EOF.
	Rows() <-chan RowOrErr
	// Seek discards rows up to and including `row`, so the next value
	// read from Rows starts at row+1. No format supports random access;
	// this always means read-and-discard from row 1.
	Seek(row int) error
	// Columns returns the header columns as read from the file, for
	// diagnostics.
	Columns() []string
	Close() error
}

// normalizeColumn makes header lookup case-insensitive with '_' and ' '
// treated as equivalent (§4.7). The canonical form uses underscores, so
// the resulting key can be used directly as a RawRow field name.
func normalizeColumn(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// matchHeader builds a normalized-name -> original-index map and reports
// any of `expected` that are absent.
func matchHeader(columns []string, expected []string) (map[string]int, []string) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[normalizeColumn(c)] = i
	}

	var missing []string
	for _, name := range expected {
		if _, ok := index[normalizeColumn(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return index, missing
}

func missingColumnsError(missing []string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
}
