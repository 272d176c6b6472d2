// pkg/source/csv.go
package source

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimitedReader reads CSV/TSV-style files. Malformed rows are skipped and
// counted, not raised: real-world exports routinely contain a few broken
// lines and one of them must not abort the whole read.
type delimitedReader struct {
	file    *os.File
	csv     *csv.Reader
	logger  *zap.Logger
	path    string
	rowNum  int
	row     []Cell
	err     error
	skipped int
}

func openDelimited(path string, opts Options, logger *zap.Logger) (*delimitedReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	br := bufio.NewReader(f)

	// Strip a UTF-8 byte-order mark if present
	if lead, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			delim = '\t'
		}
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.FieldsPerRecord = -1 // Tolerate inconsistent column counts
	// Leading-space trimming would swallow tab delimiters
	cr.TrimLeadingSpace = delim != '\t'

	return &delimitedReader{
		file:   f,
		csv:    cr,
		logger: logger.Named("csv-reader"),
		path:   path,
	}, nil
}

// Next advances to the next parseable row
func (r *delimitedReader) Next() bool {
	if r.err != nil {
		return false
	}

	for {
		record, err := r.csv.Read()
		r.rowNum++

		if err == nil {
			r.row = toCells(record)
			return true
		}

		if errors.Is(err, io.EOF) {
			return false
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			r.skipped++
			r.logger.Warn("Skipping malformed row",
				zap.String("file", r.path),
				zap.Int("row", r.rowNum),
				zap.Error(err))
			continue
		}

		r.err = &ReadError{Path: r.path, Err: err}
		return false
	}
}

// Row returns the current row
func (r *delimitedReader) Row() []Cell {
	return r.row
}

// Err returns the fatal error that stopped iteration, if any
func (r *delimitedReader) Err() error {
	return r.err
}

// Skipped returns the number of malformed rows dropped so far
func (r *delimitedReader) Skipped() int {
	return r.skipped
}

// Close releases the underlying file
func (r *delimitedReader) Close() error {
	return r.file.Close()
}

func toCells(record []string) []Cell {
	cells := make([]Cell, len(record))
	for i, v := range record {
		cells[i] = Cell{Value: v}
	}
	return cells
}
