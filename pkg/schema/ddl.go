// pkg/schema/ddl.go
package schema

import (
	"fmt"
	"strings"

	"github.com/ingestkit/tableloader/pkg/model"
)

// ColumnDefinitions creates PostgreSQL column definitions for the resolved
// schema, one per column, without the table-level primary key clause
func ColumnDefinitions(rs *model.ResolvedSchema) []string {
	definitions := make([]string, 0, len(rs.Columns))

	for _, col := range rs.Columns {
		def := fmt.Sprintf("%s %s", QuoteIdentifier(col.SQLColumn), col.FieldType.SQLType())
		if col.NotNull {
			def += " NOT NULL"
		}
		definitions = append(definitions, def)
	}

	return definitions
}

// QuoteIdentifier properly quotes and escapes a PostgreSQL identifier
func QuoteIdentifier(name string) string {
	return fmt.Sprintf("\"%s\"", strings.ReplaceAll(name, "\"", "\"\""))
}

// QuoteIdentifiers quotes a list of identifiers, preserving order
func QuoteIdentifiers(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = QuoteIdentifier(name)
	}
	return quoted
}
