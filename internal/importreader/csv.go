package importreader

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// DefaultCSVChunkSize is the default CSV chunk size (§4.7).
	DefaultCSVChunkSize = 100
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVReader streams a delimited-text file (§4.7 "delimited-text" variant).
type CSVReader struct {
	file      *os.File
	reader    *csv.Reader
	columns   []string
	colIndex  map[string]int
	chunkSize int
	rowNum    int
}

// OpenCSV opens path for streaming with the given field delimiter
// (',' if delimiter is zero) and reads the header line.
func OpenCSV(path string, delimiter rune, chunkSize int) (*CSVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if delimiter == 0 {
		delimiter = ','
	}
	if chunkSize <= 0 {
		chunkSize = DefaultCSVChunkSize
	}

	br := bufio.NewReader(f)
	if peeked, err := br.Peek(len(utf8BOM)); err == nil && string(peeked) == string(utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}

	return &CSVReader{
		file:      f,
		reader:    reader,
		columns:   header,
		chunkSize: chunkSize,
	}, nil
}

func (r *CSVReader) Columns() []string { return r.columns }

func (r *CSVReader) ValidateHeader(expected []string) error {
	index, missing := matchHeader(r.columns, expected)
	if len(missing) > 0 {
		return missingColumnsError(missing)
	}
	r.colIndex = index
	return nil
}

// Seek discards rows 1..row by reading and throwing them away, since CSV
// supports no random access (§4.7).
func (r *CSVReader) Seek(row int) error {
	for r.rowNum < row {
		if _, err := r.reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		r.rowNum++
	}
	return nil
}

// Rows streams rows through a channel buffered to exactly one chunk, so
// memory use never exceeds one chunk's worth of in-flight rows plus
// reader state.
func (r *CSVReader) Rows() <-chan RowOrErr {
	out := make(chan RowOrErr, r.chunkSize)

	go func() {
		defer close(out)
		for {
			record, err := r.reader.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				r.rowNum++
				out <- RowOrErr{Row: Row{Number: r.rowNum}, Err: fmt.Errorf("format: %w", err)}
				continue
			}

			r.rowNum++
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

func (r *CSVReader) Close() error { return r.file.Close() }

var _ Reader = (*CSVReader)(nil)
