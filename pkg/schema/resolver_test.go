package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/model"
	"github.com/ingestkit/tableloader/pkg/source"
)

func headerRow(headers ...string) []source.Cell {
	cells := make([]source.Cell, len(headers))
	for i, h := range headers {
		cells[i] = source.Cell{Value: h}
	}
	return cells
}

func TestResolveDuplicateHeadersAreSuffixed(t *testing.T) {
	specs := []model.ColumnSpec{
		{Header: "Evidence"},
		{Header: "Evidence"},
		{Header: "Evidence"},
	}

	rs, err := NewResolver(zap.NewNop()).Resolve(
		headerRow("Evidence", "Evidence", "Evidence"), specs, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"evidence", "evidence_2", "evidence_3"}, rs.SQLColumns())
	assert.Equal(t, 0, rs.Columns[0].SourceIndex)
	assert.Equal(t, 1, rs.Columns[1].SourceIndex)
	assert.Equal(t, 2, rs.Columns[2].SourceIndex)
}

func TestResolveDuplicateSourceHeadersExpandOneEntry(t *testing.T) {
	specs := []model.ColumnSpec{{Header: "Evidence", FieldType: model.FieldNumber}}

	rs, err := NewResolver(zap.NewNop()).Resolve(
		headerRow("Evidence", "Evidence", "Evidence"), specs, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"evidence", "evidence_2", "evidence_3"}, rs.SQLColumns())
	for i, col := range rs.Columns {
		assert.Equal(t, i, col.SourceIndex)
		assert.Equal(t, model.FieldNumber, col.FieldType)
	}
}

func TestResolveDuplicateSourceHeadersRespectSkip(t *testing.T) {
	specs := []model.ColumnSpec{
		{Header: "Keep"},
		{Header: "Noise", Skip: true},
	}

	rs, err := NewResolver(zap.NewNop()).Resolve(
		headerRow("Noise", "Keep", "Noise"), specs, nil)
	require.NoError(t, err)

	// Both copies of the skipped header stay out of the output
	assert.Equal(t, []string{"keep"}, rs.SQLColumns())
	assert.Equal(t, 1, rs.Columns[0].SourceIndex)
}

func TestResolveMissingHeaderIsDropped(t *testing.T) {
	specs := []model.ColumnSpec{
		{Header: "Name"},
		{Header: "Nonexistent"},
		{Header: "Score", FieldType: model.FieldNumber},
	}

	rs, err := NewResolver(zap.NewNop()).Resolve(headerRow("Name", "Score"), specs, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "score"}, rs.SQLColumns())
	assert.Equal(t, model.FieldNumber, rs.Columns[1].FieldType)
}

func TestResolveSkipColumnsAreExcluded(t *testing.T) {
	specs := []model.ColumnSpec{
		{Header: "Keep"},
		{Header: "Drop", Skip: true},
		{Header: "Also"},
	}

	rs, err := NewResolver(zap.NewNop()).Resolve(headerRow("Keep", "Drop", "Also"), specs, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep", "also"}, rs.SQLColumns())
	// The skipped column still claimed its source position
	assert.Equal(t, 2, rs.Columns[1].SourceIndex)
}

func TestResolveCountMatchesNonSkippedSpecs(t *testing.T) {
	specs := []model.ColumnSpec{
		{Header: "A"},
		{Header: "B", Skip: true},
		{Header: "C"},
		{Header: "D"},
	}

	rs, err := NewResolver(zap.NewNop()).Resolve(headerRow("A", "B", "C", "D"), specs, nil)
	require.NoError(t, err)
	assert.Len(t, rs.Columns, 3)
}

func TestResolveAppliesOverrides(t *testing.T) {
	number := model.FieldNumber
	yes := true
	specs := []model.ColumnSpec{
		{Header: "Amount"},
		{Header: "Internal"},
	}
	overrides := map[string]model.ColumnOverride{
		"Amount":   {FieldType: &number, NeedIndex: &yes},
		"Internal": {Skip: &yes},
	}

	rs, err := NewResolver(zap.NewNop()).Resolve(headerRow("Amount", "Internal"), specs, overrides)
	require.NoError(t, err)

	require.Len(t, rs.Columns, 1)
	assert.Equal(t, model.FieldNumber, rs.Columns[0].FieldType)
	assert.True(t, rs.Columns[0].NeedIndex)
}

func TestResolveNormalizesHeaderWhitespace(t *testing.T) {
	specs := []model.ColumnSpec{{Header: "Full Name"}}

	rs, err := NewResolver(zap.NewNop()).Resolve(headerRow("  Full \n Name "), specs, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"full_name"}, rs.SQLColumns())
}

func TestResolveConfiguredSQLColumnWins(t *testing.T) {
	specs := []model.ColumnSpec{{Header: "Weird Header!", SQLColumn: "clean_name"}}

	rs, err := NewResolver(zap.NewNop()).Resolve(headerRow("Weird Header!"), specs, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"clean_name"}, rs.SQLColumns())
}

func TestResolveNoMatchesIsAnError(t *testing.T) {
	specs := []model.ColumnSpec{{Header: "Missing"}}

	_, err := NewResolver(zap.NewNop()).Resolve(headerRow("Other"), specs, nil)
	assert.Error(t, err)
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"First Name", "first_name"},
		{"Total ($)", "total"},
		{"2nd Column", "c_2nd_column"},
		{"UPPER", "upper"},
		{"a--b__c", "a_b_c"},
		{"***", "column"},
		{"  spaced  out  ", "spaced_out"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeIdentifier(tt.header), "header %q", tt.header)
	}
}

func TestColumnDefinitions(t *testing.T) {
	rs := &model.ResolvedSchema{Columns: []model.ResolvedColumn{
		{SQLColumn: "id", FieldType: model.FieldString, NotNull: true},
		{SQLColumn: "amount", FieldType: model.FieldNumber},
		{SQLColumn: "seen_at", FieldType: model.FieldTimestamp},
	}}

	defs := ColumnDefinitions(rs)
	assert.Equal(t, []string{
		`"id" TEXT NOT NULL`,
		`"amount" NUMERIC`,
		`"seen_at" TIMESTAMP`,
	}, defs)
}
