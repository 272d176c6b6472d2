// pkg/swap/target.go
package swap

import (
	"fmt"
	"strings"
)

// stagingSuffix is appended to the destination table name to form the
// staging table name
const stagingSuffix = "_tmp"

// Target identifies the destination table of a run
type Target struct {
	Schema string
	Table  string
}

// ParseTarget parses a "schema.table" destination identifier
func ParseTarget(name string) (Target, error) {
	parts := strings.Split(name, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Target{}, fmt.Errorf("destination %q must be of the form schema.table", name)
	}
	return Target{Schema: parts[0], Table: parts[1]}, nil
}

// Qualified returns the fully qualified destination table name
func (t Target) Qualified() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Table)
}

// StagingTable returns the unqualified staging table name
func (t Target) StagingTable() string {
	return t.Table + stagingSuffix
}

// StagingQualified returns the fully qualified staging table name
func (t Target) StagingQualified() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.StagingTable())
}
