package loader

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/model"
)

// fakeExecer records executed statements and their arguments
type fakeExecer struct {
	queries []string
	args    [][]interface{}
	failOn  int // 1-based call number to fail on; 0 never fails
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...interface{}) (sql.Result, error) {
	call := len(f.queries) + 1
	if f.failOn != 0 && call == f.failOn {
		return nil, fmt.Errorf("simulated insert failure")
	}
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)

	// One multi-row VALUES insert affects one row per placeholder group
	return driver.RowsAffected(strings.Count(query, "(") - 1), nil
}

func testSchema() *model.ResolvedSchema {
	return &model.ResolvedSchema{Columns: []model.ResolvedColumn{
		{SQLColumn: "name", FieldType: model.FieldString},
		{SQLColumn: "score", FieldType: model.FieldNumber},
	}}
}

func TestLoadBatchesAndCounts(t *testing.T) {
	rows := []model.Row{
		{model.StringValue("a"), model.NumberValue(1)},
		{model.NullValue(model.FieldString), model.NullValue(model.FieldNumber)}, // discarded
		{model.StringValue("b"), model.NullValue(model.FieldNumber)},
	}

	execer := &fakeExecer{}
	result, err := New(zap.NewNop(), 1).Load(context.Background(), execer, "wh.people_tmp", testSchema(), rows)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Empty)
	require.Len(t, execer.queries, 2)

	assert.Equal(t, `INSERT INTO wh.people_tmp ("name", "score") VALUES ($1, $2)`, execer.queries[0])
	assert.Equal(t, []interface{}{"a", float64(1)}, execer.args[0])

	// The partially-null row is loaded with a nil argument
	assert.Equal(t, []interface{}{"b", nil}, execer.args[1])
}

func TestLoadMultiRowBatchPlaceholders(t *testing.T) {
	rows := []model.Row{
		{model.StringValue("a"), model.NumberValue(1)},
		{model.StringValue("b"), model.NumberValue(2)},
		{model.StringValue("c"), model.NumberValue(3)},
	}

	execer := &fakeExecer{}
	result, err := New(zap.NewNop(), 2).Load(context.Background(), execer, "wh.t_tmp", testSchema(), rows)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Inserted)
	require.Len(t, execer.queries, 2)
	assert.Contains(t, execer.queries[0], "($1, $2), ($3, $4)")
	assert.Contains(t, execer.queries[1], "($1, $2)")
	assert.Len(t, execer.args[0], 4)
}

func TestLoadAllRowsEmpty(t *testing.T) {
	rows := []model.Row{
		{model.NullValue(model.FieldString), model.NullValue(model.FieldNumber)},
		{model.NullValue(model.FieldString), model.NullValue(model.FieldNumber)},
	}

	execer := &fakeExecer{}
	result, err := New(zap.NewNop(), 10).Load(context.Background(), execer, "wh.t_tmp", testSchema(), rows)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 2, result.Empty)
	assert.Empty(t, execer.queries)
}

func TestLoadFailureIsFatalAndTyped(t *testing.T) {
	rows := []model.Row{
		{model.StringValue("a"), model.NumberValue(1)},
		{model.StringValue("b"), model.NumberValue(2)},
	}

	execer := &fakeExecer{failOn: 2}
	result, err := New(zap.NewNop(), 1).Load(context.Background(), execer, "wh.t_tmp", testSchema(), rows)
	require.Error(t, err)

	var batchErr *BatchInsertError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Batch)
	assert.Equal(t, "wh.t_tmp", batchErr.Table)

	// The first batch had been confirmed before the failure
	assert.Equal(t, 1, result.Inserted)
	assert.Len(t, execer.queries, 1)
}

func TestLoadDefaultBatchSize(t *testing.T) {
	l := New(zap.NewNop(), 0)
	assert.Equal(t, DefaultBatchSize, l.batchSize)
}
