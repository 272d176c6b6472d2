// pkg/loader/loader.go
package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/model"
	"github.com/ingestkit/tableloader/pkg/schema"
)

// DefaultBatchSize is used when no batch size is configured
const DefaultBatchSize = 2000

// BatchInsertError is a fatal failure inserting a batch into the staging
// table. It is never retried: every batch targets the staging table, which
// the promote step discards wholesale when the run aborts.
type BatchInsertError struct {
	Table string
	Batch int
	Err   error
}

// Error implements the error interface
func (e *BatchInsertError) Error() string {
	return fmt.Sprintf("batch %d insert into %s failed: %v", e.Batch, e.Table, e.Err)
}

// Unwrap returns the underlying cause
func (e *BatchInsertError) Unwrap() error {
	return e.Err
}

// Result reports what the loader did with the transformed set
type Result struct {
	Inserted int // Rows confirmed inserted into staging
	Empty    int // All-null rows discarded before loading
}

// Loader partitions transformed rows into batches and bulk-inserts them
type Loader struct {
	logger    *zap.Logger
	batchSize int
}

// New creates a batch loader
func New(logger *zap.Logger, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		logger:    logger.Named("batch-loader"),
		batchSize: batchSize,
	}
}

// Load inserts the rows into the staging table in contiguous batches, one
// multi-row INSERT per batch. Rows whose every value is null are discarded
// and counted; rows with only some nulls are loaded as-is. Any insert
// failure aborts the remainder of the load.
func (l *Loader) Load(
	ctx context.Context,
	execer sqlx.ExecerContext,
	stagingTable string,
	rs *model.ResolvedSchema,
	rows []model.Row,
) (Result, error) {
	var result Result

	loadable := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if row.AllNull() {
			result.Empty++
			continue
		}
		loadable = append(loadable, row)
	}

	if len(loadable) == 0 {
		l.logger.Info("Nothing to load", zap.String("table", stagingTable))
		return result, nil
	}

	columns := strings.Join(schema.QuoteIdentifiers(rs.SQLColumns()), ", ")
	width := len(rs.Columns)

	batchNum := 0
	for start := 0; start < len(loadable); start += l.batchSize {
		end := start + l.batchSize
		if end > len(loadable) {
			end = len(loadable)
		}
		batch := loadable[start:end]
		batchNum++

		query, args := buildInsert(stagingTable, columns, width, batch)

		res, err := execer.ExecContext(ctx, query, args...)
		if err != nil {
			return result, &BatchInsertError{Table: stagingTable, Batch: batchNum, Err: err}
		}

		affected, err := res.RowsAffected()
		if err != nil {
			l.logger.Warn("Couldn't get rows affected", zap.Error(err))
			affected = int64(len(batch))
		}
		result.Inserted += int(affected)

		l.logger.Debug("Batch inserted",
			zap.String("table", stagingTable),
			zap.Int("batch", batchNum),
			zap.Int64("rows", affected))
	}

	l.logger.Info("Load complete",
		zap.String("table", stagingTable),
		zap.Int("inserted", result.Inserted),
		zap.Int("empty", result.Empty))

	return result, nil
}

// buildInsert constructs one multi-row INSERT with $n placeholders
func buildInsert(table, columns string, width int, batch []model.Row) (string, []interface{}) {
	placeholders := make([]string, len(batch))
	args := make([]interface{}, 0, len(batch)*width)

	for i, row := range batch {
		rowPlaceholders := make([]string, width)
		for j, val := range row {
			rowPlaceholders[j] = fmt.Sprintf("$%d", i*width+j+1)
			args = append(args, val.Arg())
		}
		placeholders[i] = fmt.Sprintf("(%s)", strings.Join(rowPlaceholders, ", "))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, columns, strings.Join(placeholders, ", "))

	return query, args
}
