// pkg/source/xlsx.go
package source

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// workbookReader streams one worksheet of an XLSX file. Each cell is checked
// for a hyperlink so the transformer can prefer the link target over the
// display text where the column configuration asks for it.
type workbookReader struct {
	file   *excelize.File
	rows   *excelize.Rows
	logger *zap.Logger
	path   string
	sheet  string
	rowNum int
	row    []Cell
	err    error
}

func openWorkbook(path string, opts Options, logger *zap.Logger) (*workbookReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, &ReadError{Path: path, Err: fmt.Errorf("workbook contains no sheets")}
	}

	sheet := opts.Sheet
	if sheet == "" {
		sheet = sheets[0]
	} else if !containsSheet(sheets, sheet) {
		f.Close()
		return nil, &ReadError{
			Path: path,
			Err:  fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(sheets, ", ")),
		}
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, &ReadError{Path: path, Err: err}
	}

	return &workbookReader{
		file:   f,
		rows:   rows,
		logger: logger.Named("xlsx-reader"),
		path:   path,
		sheet:  sheet,
	}, nil
}

// Sheet returns the name of the worksheet being read
func (r *workbookReader) Sheet() string {
	return r.sheet
}

// Next advances to the next worksheet row
func (r *workbookReader) Next() bool {
	if r.err != nil || !r.rows.Next() {
		if r.err == nil {
			if err := r.rows.Error(); err != nil {
				r.err = &ReadError{Path: r.path, Err: err}
			}
		}
		return false
	}

	r.rowNum++

	record, err := r.rows.Columns()
	if err != nil {
		r.err = &ReadError{Path: r.path, Err: err}
		return false
	}

	cells := make([]Cell, len(record))
	for i, v := range record {
		cells[i] = Cell{Value: v}

		cellName, err := excelize.CoordinatesToCellName(i+1, r.rowNum)
		if err != nil {
			continue
		}
		if ok, link, err := r.file.GetCellHyperLink(r.sheet, cellName); err == nil && ok {
			cells[i].Link = link
			cells[i].HasLink = true
		}
	}

	r.row = cells
	return true
}

// Row returns the current row
func (r *workbookReader) Row() []Cell {
	return r.row
}

// Err returns the fatal error that stopped iteration, if any
func (r *workbookReader) Err() error {
	return r.err
}

// Skipped always returns zero: the workbook format does not produce
// per-row parse failures the way delimited text does
func (r *workbookReader) Skipped() int {
	return 0
}

// Close releases the row iterator and the workbook
func (r *workbookReader) Close() error {
	if err := r.rows.Close(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

func containsSheet(sheets []string, name string) bool {
	for _, s := range sheets {
		if s == name {
			return true
		}
	}
	return false
}
