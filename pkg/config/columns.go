// pkg/config/columns.go
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ingestkit/tableloader/pkg/model"
)

// LoadColumnSpecs reads the column configuration file: a JSON array of
// ColumnSpec objects in destination order. Unknown fields are rejected so a
// typo fails here instead of silently propagating through a run.
func LoadColumnSpecs(path string) ([]model.ColumnSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open column configuration %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var specs []model.ColumnSpec
	if err := dec.Decode(&specs); err != nil {
		return nil, fmt.Errorf("failed to parse column configuration %s: %w", path, err)
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("column configuration %s defines no columns", path)
	}

	for i, spec := range specs {
		if spec.Header == "" {
			return nil, fmt.Errorf("column configuration %s: entry %d has no header", path, i)
		}
	}

	return specs, nil
}

// LoadOverrides reads the optional sibling overrides file: a JSON object
// mapping header text to a partial ColumnSpec. A missing file is not an
// error; an unreadable or malformed one is.
func LoadOverrides(path string) (map[string]model.ColumnOverride, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open overrides %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()

	var overrides map[string]model.ColumnOverride
	if err := dec.Decode(&overrides); err != nil {
		return nil, fmt.Errorf("failed to parse overrides %s: %w", path, err)
	}

	return overrides, nil
}
