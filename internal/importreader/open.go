package importreader

import (
	"fmt"
	"strings"
)

// Format is the detected file format driving which Reader variant Open
// constructs.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps an upload's content-type/filename to a Format. Legacy
// "application/vnd.ms-excel" is routed to the xlsx reader best-effort
// (§6).
func DetectFormat(contentType, filename string) (Format, error) {
	lowerCT := strings.ToLower(contentType)
	switch {
	case strings.Contains(lowerCT, "csv"):
		return FormatCSV, nil
	case strings.Contains(lowerCT, "spreadsheetml"), strings.Contains(lowerCT, "ms-excel"):
		return FormatXLSX, nil
	}

	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return FormatCSV, nil
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"), strings.HasSuffix(strings.ToLower(filename), ".xls"):
		return FormatXLSX, nil
	}

	return "", fmt.Errorf("unrecognized file format for %q (content-type %q)", filename, contentType)
}

// Config bounds the chunk sizes used by each variant (§4.7).
type Config struct {
	CSVChunkSize  int
	XLSXChunkSize int
	CSVDelimiter  rune
}

// Open constructs the Reader variant matching format, seeded with the
// configured chunk size. The caller never branches on format again after
// this call (§9).
func Open(path string, format Format, cfg Config) (Reader, error) {
	switch format {
	case FormatCSV:
		return OpenCSV(path, cfg.CSVDelimiter, cfg.CSVChunkSize)
	case FormatXLSX:
		return OpenXLSX(path, cfg.XLSXChunkSize)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
