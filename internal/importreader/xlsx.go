package importreader

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	// DefaultXLSXChunkSize is the default spreadsheet chunk size (§4.7).
	DefaultXLSXChunkSize = 50
)

// XLSXReader streams the first sheet of a workbook row by row using
// excelize's streaming row iterator, so the whole sheet is never loaded
// into memory at once (§4.7 "workbook" variant).
type XLSXReader struct {
	file      *excelize.File
	sheet     string
	rows      *excelize.Rows
	columns   []string
	colIndex  map[string]int
	chunkSize int
	rowNum    int
}

// OpenXLSX opens path and positions on the first sheet's header row.
func OpenXLSX(path string, chunkSize int) (*XLSXReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, err
	}

	if !rows.Next() {
		f.Close()
		return nil, fmt.Errorf("workbook has no header row")
	}
	header, err := rows.Columns()
	if err != nil {
		f.Close()
		return nil, err
	}

	if chunkSize <= 0 {
		chunkSize = DefaultXLSXChunkSize
	}

	return &XLSXReader{
		file:      f,
		sheet:     sheet,
		rows:      rows,
		columns:   header,
		chunkSize: chunkSize,
	}, nil
}

func (r *XLSXReader) Columns() []string { return r.columns }

func (r *XLSXReader) ValidateHeader(expected []string) error {
	index, missing := matchHeader(r.columns, expected)
	if len(missing) > 0 {
		return missingColumnsError(missing)
	}
	r.colIndex = index
	return nil
}

func (r *XLSXReader) Seek(row int) error {
	for r.rowNum < row {
		if !r.advance() {
			return nil
		}
	}
	return nil
}

// advance moves to the next physical row, blank or not, so Seek counts
// rows the same way Rows numbers them. Rows itself drops blank rows so
// getHighestRow-style overcounting never surfaces as data (§9(c)).
func (r *XLSXReader) advance() bool {
	if !r.rows.Next() {
		return false
	}
	r.rowNum++
	return true
}

func (r *XLSXReader) Rows() <-chan RowOrErr {
	out := make(chan RowOrErr, r.chunkSize)

	go func() {
		defer close(out)
		for r.rows.Next() {
			record, err := r.rows.Columns()
			if err != nil {
				r.rowNum++
				out <- RowOrErr{Row: Row{Number: r.rowNum}, Err: fmt.Errorf("format: %w", err)}
				continue
			}

			r.rowNum++
			if isBlankRow(record) {
				continue
			}

			fields := make(map[string]string, len(r.colIndex))
			for name, idx := range r.colIndex {
				if idx < len(record) {
					fields[name] = record[idx]
				}
			}
			out <- RowOrErr{Row: Row{Number: r.rowNum, Fields: fields}}
		}
	}()

	return out
}

func isBlankRow(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}

func (r *XLSXReader) Close() error {
	return r.file.Close()
}

var _ Reader = (*XLSXReader)(nil)
