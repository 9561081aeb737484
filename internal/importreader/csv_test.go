package importreader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestCSVReaderValidateHeaderSucceeds(t *testing.T) {
	path := writeTempCSV(t, "employee_number,first_name,last_name,email\nE1,Ann,Lee,a@x.co\n")
	r, err := OpenCSV(path, 0, 0)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer r.Close()

	if err := r.ValidateHeader(RequiredColumns); err != nil {
		t.Fatalf("ValidateHeader: %v", err)
	}
}

func TestCSVReaderValidateHeaderCaseAndUnderscoreInsensitive(t *testing.T) {
	path := writeTempCSV(t, "Employee Number,First Name,Last Name,EMAIL\nE1,Ann,Lee,a@x.co\n")
	r, err := OpenCSV(path, 0, 0)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer r.Close()

	if err := r.ValidateHeader(RequiredColumns); err != nil {
		t.Fatalf("ValidateHeader should tolerate case/space variants: %v", err)
	}
}

func TestCSVReaderValidateHeaderMissingColumn(t *testing.T) {
	path := writeTempCSV(t, "employee_number,first_name,last_name\nE1,Ann,Lee\n")
	r, err := OpenCSV(path, 0, 0)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer r.Close()

	err = r.ValidateHeader(RequiredColumns)
	if err == nil {
		t.Fatal("expected error for missing email column")
	}
}

func TestCSVReaderStreamsRows(t *testing.T) {
	path := writeTempCSV(t, "employee_number,first_name,last_name,email\nE1,Ann,Lee,a@x.co\nE2,Bo,Ng,b@x.co\n")
	r, err := OpenCSV(path, 0, 0)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer r.Close()

	if err := r.ValidateHeader(RequiredColumns); err != nil {
		t.Fatalf("ValidateHeader: %v", err)
	}

	var got []Row
	for roe := range r.Rows() {
		if roe.Err != nil {
			t.Fatalf("unexpected row error: %v", roe.Err)
		}
		got = append(got, roe.Row)
	}

	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0].Number != 1 || got[0].Fields["employee_number"] != "E1" {
		t.Errorf("row 1 mismatch: %+v", got[0])
	}
	if got[1].Number != 2 || got[1].Fields["email"] != "b@x.co" {
		t.Errorf("row 2 mismatch: %+v", got[1])
	}
}

func TestCSVReaderSeekSkipsProcessedRows(t *testing.T) {
	path := writeTempCSV(t, "employee_number,first_name,last_name,email\nE1,Ann,Lee,a@x.co\nE2,Bo,Ng,b@x.co\nE3,Cid,Oh,c@x.co\n")
	r, err := OpenCSV(path, 0, 0)
	if err != nil {
		t.Fatalf("OpenCSV: %v", err)
	}
	defer r.Close()

	if err := r.ValidateHeader(RequiredColumns); err != nil {
		t.Fatalf("ValidateHeader: %v", err)
	}
	if err := r.Seek(1); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	var got []Row
	for roe := range r.Rows() {
		got = append(got, roe.Row)
	}

	if len(got) != 2 {
		t.Fatalf("got %d rows after seek, want 2", len(got))
	}
	if got[0].Number != 2 {
		t.Errorf("first row after seek = %d, want 2", got[0].Number)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		contentType, filename string
		want                  Format
	}{
		{"text/csv", "f.csv", FormatCSV},
		{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "f.xlsx", FormatXLSX},
		{"application/vnd.ms-excel", "f.xls", FormatXLSX},
		{"", "f.csv", FormatCSV},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.contentType, tt.filename)
		if err != nil {
			t.Fatalf("DetectFormat(%q, %q): %v", tt.contentType, tt.filename, err)
		}
		if got != tt.want {
			t.Errorf("DetectFormat(%q, %q) = %q, want %q", tt.contentType, tt.filename, got, tt.want)
		}
	}
}
