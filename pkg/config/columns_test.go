package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ingestkit/tableloader/pkg/model"
)

func writeJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadColumnSpecs(t *testing.T) {
	path := writeJSON(t, "columns.json", `[
		{"header": "Name", "notNull": true},
		{"header": "Score", "fieldType": "number", "needIndex": true},
		{"header": "Seen", "fieldType": "timestamp"},
		{"header": "Link", "isHyperlink": false}
	]`)

	specs, err := LoadColumnSpecs(path)
	require.NoError(t, err)
	require.Len(t, specs, 4)

	assert.Equal(t, model.FieldString, specs[0].FieldType)
	assert.True(t, specs[0].NotNull)
	assert.Equal(t, model.FieldNumber, specs[1].FieldType)
	assert.Equal(t, model.FieldTimestamp, specs[2].FieldType)
	assert.False(t, specs[3].PreferLink())
	assert.True(t, specs[0].PreferLink())
}

func TestLoadColumnSpecsRejectsUnknownFields(t *testing.T) {
	path := writeJSON(t, "columns.json", `[{"header": "Name", "typ": "string"}]`)

	_, err := LoadColumnSpecs(path)
	assert.Error(t, err)
}

func TestLoadColumnSpecsRejectsUnknownFieldType(t *testing.T) {
	path := writeJSON(t, "columns.json", `[{"header": "Name", "fieldType": "boolean"}]`)

	_, err := LoadColumnSpecs(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fieldType")
}

func TestLoadColumnSpecsRequiresHeader(t *testing.T) {
	path := writeJSON(t, "columns.json", `[{"sqlColumn": "orphan"}]`)

	_, err := LoadColumnSpecs(path)
	assert.Error(t, err)
}

func TestLoadColumnSpecsEmptyArray(t *testing.T) {
	path := writeJSON(t, "columns.json", `[]`)

	_, err := LoadColumnSpecs(path)
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	path := writeJSON(t, "overrides.json", `{
		"Score": {"fieldType": "number", "needIndex": true},
		"Secret": {"skip": true}
	}`)

	overrides, err := LoadOverrides(path)
	require.NoError(t, err)
	require.Len(t, overrides, 2)

	require.NotNil(t, overrides["Score"].FieldType)
	assert.Equal(t, model.FieldNumber, *overrides["Score"].FieldType)
	require.NotNil(t, overrides["Secret"].Skip)
	assert.True(t, *overrides["Secret"].Skip)
}

func TestLoadOverridesMissingFileIsNotAnError(t *testing.T) {
	overrides, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Nil(t, overrides)
}

func TestOverrideApply(t *testing.T) {
	number := model.FieldNumber
	name := "renamed"
	yes := true

	spec := model.ColumnSpec{Header: "Amount"}
	merged := spec.Apply(model.ColumnOverride{
		SQLColumn: &name,
		FieldType: &number,
		Primary:   &yes,
	})

	assert.Equal(t, "renamed", merged.SQLColumn)
	assert.Equal(t, model.FieldNumber, merged.FieldType)
	assert.True(t, merged.Primary)
	// Untouched fields keep their values
	assert.Equal(t, "Amount", merged.Header)
	assert.False(t, merged.Skip)
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{
		Postgres:  &PostgresConfig{},
		BatchSize: 2000,
		Timezone:  "Asia/Kolkata",
	}
	assert.NoError(t, cfg.Validate())

	cfg.BatchSize = 0
	assert.Error(t, cfg.Validate())

	cfg.BatchSize = 100
	cfg.Timezone = "Not/AZone"
	assert.Error(t, cfg.Validate())
}
