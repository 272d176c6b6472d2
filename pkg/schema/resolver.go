// pkg/schema/resolver.go
package schema

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ingestkit/tableloader/pkg/model"
	"github.com/ingestkit/tableloader/pkg/source"
)

// Resolver reconciles configured columns against a source's actual header row
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a new schema resolver
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("schema-resolver")}
}

// Resolve builds the run's column schema. Configured columns are processed in
// configuration order; each claims the first unclaimed source header whose
// whitespace-normalized text matches exactly. Columns with no match are
// dropped with a warning. Skip columns claim their header but never reach the
// output. A source containing more copies of a header than the configuration
// lists gets one additional resolved column per extra copy, so duplicated
// source columns are kept rather than silently dropped. Destination
// identifiers that collide are suffixed _2, _3, ... in first-seen order; the
// first occurrence keeps the bare name.
func (r *Resolver) Resolve(
	headerRow []source.Cell,
	specs []model.ColumnSpec,
	overrides map[string]model.ColumnOverride,
) (*model.ResolvedSchema, error) {
	if len(headerRow) == 0 {
		return nil, fmt.Errorf("source header row is empty")
	}

	headers := make([]string, len(headerRow))
	for i, cell := range headerRow {
		headers[i] = normalizeHeader(cell.Value)
	}

	merged := make([]model.ColumnSpec, len(specs))
	for i, spec := range specs {
		if o, ok := overrides[spec.Header]; ok {
			spec = spec.Apply(o)
		}
		merged[i] = spec
	}

	claimed := make([]bool, len(headers))
	resolved := make([]model.ResolvedColumn, 0, len(merged))

	for _, spec := range merged {
		idx := claimHeader(headers, claimed, normalizeHeader(spec.Header))
		if idx < 0 {
			r.logger.Warn("Configured header not found in source, column dropped",
				zap.String("header", spec.Header))
			continue
		}

		if spec.Skip {
			continue
		}

		resolved = append(resolved, resolvedColumn(spec, idx))
	}

	// Extra source copies of a configured header: each becomes another
	// resolved column under that entry's configuration and picks up an
	// occurrence suffix below
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		spec, ok := specForHeader(merged, h)
		if !ok {
			continue
		}
		claimed[i] = true
		if spec.Skip {
			continue
		}
		resolved = append(resolved, resolvedColumn(spec, i))
	}

	if len(resolved) == 0 {
		return nil, fmt.Errorf("no configured column matched the source headers")
	}

	disambiguate(resolved)

	return &model.ResolvedSchema{Columns: resolved}, nil
}

// resolvedColumn builds the schema entry for a configured column matched at
// the given source position
func resolvedColumn(spec model.ColumnSpec, idx int) model.ResolvedColumn {
	name := spec.SQLColumn
	if name == "" {
		name = SanitizeIdentifier(spec.Header)
	}

	return model.ResolvedColumn{
		SQLColumn:   name,
		FieldType:   spec.FieldType,
		Primary:     spec.Primary,
		NotNull:     spec.NotNull,
		NeedIndex:   spec.NeedIndex,
		PreferLink:  spec.PreferLink(),
		SourceIndex: idx,
	}
}

// specForHeader finds the first configured column whose normalized header
// matches the already-normalized source header
func specForHeader(specs []model.ColumnSpec, header string) (model.ColumnSpec, bool) {
	for _, spec := range specs {
		if normalizeHeader(spec.Header) == header {
			return spec, true
		}
	}
	return model.ColumnSpec{}, false
}

// claimHeader finds the first unclaimed source position matching the wanted
// header, claiming it so duplicate headers pair off positionally
func claimHeader(headers []string, claimed []bool, want string) int {
	for i, h := range headers {
		if !claimed[i] && h == want {
			claimed[i] = true
			return i
		}
	}
	return -1
}

// disambiguate suffixes colliding destination identifiers with a 1-based
// occurrence number, leaving the first occurrence bare
func disambiguate(cols []model.ResolvedColumn) {
	seen := make(map[string]int, len(cols))
	for i := range cols {
		name := cols[i].SQLColumn
		seen[name]++
		if seen[name] > 1 {
			cols[i].SQLColumn = fmt.Sprintf("%s_%d", name, seen[name])
		}
	}
}

// normalizeHeader collapses interior whitespace and trims, so header matching
// survives the stray spaces and newlines spreadsheet exports produce
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(h), " ")
}

// SanitizeIdentifier derives a destination identifier from header text:
// lowercase, with every run of non-alphanumeric characters collapsed to a
// single underscore, guarded against a leading digit.
func SanitizeIdentifier(header string) string {
	var sb strings.Builder
	lastUnderscore := false

	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore && sb.Len() > 0 {
			sb.WriteRune('_')
			lastUnderscore = true
		}
	}

	name := strings.TrimRight(sb.String(), "_")
	if name == "" {
		return "column"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "c_" + name
	}
	return name
}
