// pkg/model/field.go
package model

import (
	"encoding/json"
	"fmt"
)

// FieldType is the closed set of destination column types. Adding a type
// means touching every switch over FieldType, which is the point.
type FieldType int

const (
	// FieldString maps to TEXT
	FieldString FieldType = iota
	// FieldNumber maps to NUMERIC
	FieldNumber
	// FieldTimestamp maps to TIMESTAMP
	FieldTimestamp
)

// String returns the configuration-file spelling of the field type
func (ft FieldType) String() string {
	switch ft {
	case FieldString:
		return "string"
	case FieldNumber:
		return "number"
	case FieldTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("FieldType(%d)", int(ft))
	}
}

// SQLType returns the PostgreSQL column type for the field type
func (ft FieldType) SQLType() string {
	switch ft {
	case FieldString:
		return "TEXT"
	case FieldNumber:
		return "NUMERIC"
	case FieldTimestamp:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

// MarshalJSON encodes the field type as its configuration spelling
func (ft FieldType) MarshalJSON() ([]byte, error) {
	return json.Marshal(ft.String())
}

// UnmarshalJSON decodes a field type, rejecting unknown spellings so a bad
// configuration fails at load time rather than mid-run
func (ft *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "string", "":
		*ft = FieldString
	case "number":
		*ft = FieldNumber
	case "timestamp":
		*ft = FieldTimestamp
	default:
		return fmt.Errorf("unknown fieldType %q (expected string, number or timestamp)", s)
	}
	return nil
}
