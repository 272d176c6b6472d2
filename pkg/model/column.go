// pkg/model/column.go
package model

// ColumnSpec describes one configured destination column
type ColumnSpec struct {
	Header      string    `json:"header"`                // Expected source header text
	SQLColumn   string    `json:"sqlColumn,omitempty"`   // Destination identifier; sanitized Header when empty
	FieldType   FieldType `json:"fieldType,omitempty"`   // string | number | timestamp
	Primary     bool      `json:"primary,omitempty"`     // Part of the primary key
	NotNull     bool      `json:"notNull,omitempty"`     // NOT NULL constraint
	Skip        bool      `json:"skip,omitempty"`        // Exclude from output entirely
	NeedIndex   bool      `json:"needIndex,omitempty"`   // Create an index on this column
	IsHyperlink *bool     `json:"isHyperlink,omitempty"` // Spreadsheet only; nil means "prefer link when present"
}

// PreferLink reports whether a spreadsheet cell's link target should be used
// over its display text. Only an explicit false disables the preference.
func (c ColumnSpec) PreferLink() bool {
	return c.IsHyperlink == nil || *c.IsHyperlink
}

// ColumnOverride is a partial ColumnSpec merged onto a configured column by
// header text before resolution. Set fields win over the spec's values.
type ColumnOverride struct {
	SQLColumn   *string    `json:"sqlColumn,omitempty"`
	FieldType   *FieldType `json:"fieldType,omitempty"`
	Primary     *bool      `json:"primary,omitempty"`
	NotNull     *bool      `json:"notNull,omitempty"`
	Skip        *bool      `json:"skip,omitempty"`
	NeedIndex   *bool      `json:"needIndex,omitempty"`
	IsHyperlink *bool      `json:"isHyperlink,omitempty"`
}

// Apply returns the spec with the override's set fields merged in
func (c ColumnSpec) Apply(o ColumnOverride) ColumnSpec {
	if o.SQLColumn != nil {
		c.SQLColumn = *o.SQLColumn
	}
	if o.FieldType != nil {
		c.FieldType = *o.FieldType
	}
	if o.Primary != nil {
		c.Primary = *o.Primary
	}
	if o.NotNull != nil {
		c.NotNull = *o.NotNull
	}
	if o.Skip != nil {
		c.Skip = *o.Skip
	}
	if o.NeedIndex != nil {
		c.NeedIndex = *o.NeedIndex
	}
	if o.IsHyperlink != nil {
		c.IsHyperlink = o.IsHyperlink
	}
	return c
}

// ResolvedColumn is one entry of a ResolvedSchema: a configured column that
// matched a source header, with its final destination identifier.
type ResolvedColumn struct {
	SQLColumn   string    // Final, duplicate-free destination identifier
	FieldType   FieldType // Destination type
	Primary     bool      // Part of the primary key
	NotNull     bool      // NOT NULL constraint
	NeedIndex   bool      // Index wanted on the staging table
	PreferLink  bool      // Use a cell's hyperlink target when present
	SourceIndex int       // Position of the matched header in the source row
}

// ResolvedSchema is the ordered, immutable column list for one run, produced
// once by reconciling configuration against the source's actual header row.
type ResolvedSchema struct {
	Columns []ResolvedColumn
}

// SQLColumns returns the destination identifiers in schema order
func (rs *ResolvedSchema) SQLColumns() []string {
	names := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		names[i] = col.SQLColumn
	}
	return names
}

// PrimaryKeys returns the identifiers flagged as primary, in schema order
func (rs *ResolvedSchema) PrimaryKeys() []string {
	var keys []string
	for _, col := range rs.Columns {
		if col.Primary {
			keys = append(keys, col.SQLColumn)
		}
	}
	return keys
}
