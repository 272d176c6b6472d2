// pkg/source/reader.go
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Cell is one raw cell from a source row. Spreadsheet cells may carry a
// hyperlink target alongside their display value; delimited-text cells never
// do. Which of the two is used is decided downstream, where the column's
// hyperlink flag is known.
type Cell struct {
	Value   string // Display value
	Link    string // Hyperlink target, when present
	HasLink bool   // Whether the cell carries a hyperlink
}

// Reader produces a lazy, finite, non-restartable sequence of raw rows. The
// first row yielded is the header row; each subsequent row holds cell values
// aligned by column position.
type Reader interface {
	// Next advances to the next row, returning false at end of input or on
	// a fatal read error (check Err).
	Next() bool
	// Row returns the current row. Valid until the next call to Next.
	Row() []Cell
	// Err returns the fatal error that stopped iteration, if any
	Err() error
	// Skipped returns the number of malformed rows dropped so far
	Skipped() int
	// Close releases the underlying source
	Close() error
}

// Options controls how a source is opened
type Options struct {
	// Sheet selects a worksheet by name for spreadsheet sources. Empty
	// means the workbook's first sheet.
	Sheet string
	// Delimiter is the field separator for delimited-text sources. Zero
	// means comma, or tab for .tsv files.
	Delimiter rune
}

// ReadError is a fatal source failure: the file cannot be opened or read, or
// a requested sheet does not exist. It always aborts a run before any
// database interaction.
type ReadError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read source %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying cause
func (e *ReadError) Unwrap() error {
	return e.Err
}

// Open opens a tabular source, selecting the reader by file extension:
// .xlsx for workbooks, anything else is treated as delimited text.
func Open(path string, opts Options, logger *zap.Logger) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return openWorkbook(path, opts, logger)
	default:
		return openDelimited(path, opts, logger)
	}
}
