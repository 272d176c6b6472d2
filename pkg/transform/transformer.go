// pkg/transform/transformer.go
package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/model"
	"github.com/ingestkit/tableloader/pkg/source"
)

// timestampLayout is the one accepted text timestamp shape
const timestampLayout = "2006-01-02 15:04"

// Transformer coerces raw cell values into typed values. It is total:
// anything that cannot be coerced becomes null with a logged warning, because
// placeholder dashes, blank cells and malformed dates are expected in real
// exports and must not disqualify an otherwise valid row.
type Transformer struct {
	logger *zap.Logger
	loc    *time.Location
}

// NewTransformer creates a transformer interpreting timestamps in the given
// timezone. A nil location means UTC.
func NewTransformer(logger *zap.Logger, loc *time.Location) *Transformer {
	if loc == nil {
		loc = time.UTC
	}
	return &Transformer{
		logger: logger.Named("transformer"),
		loc:    loc,
	}
}

// TransformRow converts one raw source row into a typed row positionally
// aligned with the resolved schema. Cells beyond the end of a short source
// row are null.
func (t *Transformer) TransformRow(cells []source.Cell, rs *model.ResolvedSchema) model.Row {
	row := make(model.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		if col.SourceIndex >= len(cells) {
			row[i] = model.NullValue(col.FieldType)
			continue
		}
		row[i] = t.Transform(rawValue(cells[col.SourceIndex], col), col.FieldType, col.SQLColumn)
	}
	return row
}

// Transform coerces a single raw value to the column's field type. The
// column name is only used in warnings.
func (t *Transformer) Transform(raw string, ft model.FieldType, column string) model.Value {
	// Null sentinels apply uniformly before any type-specific logic
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "-" {
		return model.NullValue(ft)
	}

	switch ft {
	case model.FieldString:
		return model.StringValue(collapseWhitespace(trimmed))

	case model.FieldNumber:
		num, err := strconv.ParseFloat(collapseWhitespace(trimmed), 64)
		if err != nil {
			t.logger.Warn("Value is not numeric, coerced to null",
				zap.String("column", column),
				zap.String("value", trimmed))
			return model.NullValue(ft)
		}
		return model.NumberValue(num)

	case model.FieldTimestamp:
		ts, ok := t.parseTimestamp(trimmed)
		if !ok {
			t.logger.Warn("Value is not a timestamp, coerced to null",
				zap.String("column", column),
				zap.String("value", trimmed))
			return model.NullValue(ft)
		}
		return model.TimestampValue(ts)

	default:
		return model.NullValue(ft)
	}
}

// parseTimestamp accepts a spreadsheet date serial or a text timestamp,
// interprets it in the configured timezone and returns the UTC instant
func (t *Transformer) parseTimestamp(raw string) (time.Time, bool) {
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		decoded, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		// The serial decodes to wall-clock components; anchor them in
		// the caller's timezone before converting to an instant
		anchored := time.Date(
			decoded.Year(), decoded.Month(), decoded.Day(),
			decoded.Hour(), decoded.Minute(), decoded.Second(),
			decoded.Nanosecond(), t.loc,
		)
		return anchored.UTC(), true
	}

	ts, err := time.ParseInLocation(timestampLayout, raw, t.loc)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// rawValue picks the cell's contribution: the hyperlink target when the cell
// carries one and the column prefers links, otherwise the display value
func rawValue(cell source.Cell, col model.ResolvedColumn) string {
	if cell.HasLink && col.PreferLink {
		return cell.Link
	}
	return cell.Value
}

// collapseWhitespace reduces every run of whitespace, embedded newlines
// included, to a single space
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
