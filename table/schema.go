// Package table implements the multi-column table manager described in
// §4.6: one companion column file set per table, a manifest (per-column
// metadata + aggregate statistics), and the row-level overlay that
// realizes UPDATE/DELETE on top of the immutable columnar pages (§4.6a).
package table

import (
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/storage"
)

// ColumnDef describes one column's name and on-disk type.
type ColumnDef struct {
	Name string
	Type format.DataType
}

// Schema is an ordered list of column definitions.
type Schema struct {
	Columns []ColumnDef
}

// ColumnIndex returns the ordinal position of name, or -1 if absent.
func (s Schema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}

	return -1
}

// Validate checks the schema is non-empty and free of duplicate names.
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return &errs.TypeError{Context: "schema", Message: "table must have at least one column"}
	}

	seen := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if _, dup := seen[c.Name]; dup {
			return &errs.ConflictError{Kind: "column", Name: c.Name}
		}
		seen[c.Name] = struct{}{}
	}

	return nil
}

// TableStatistics summarizes one Writer.Finalize() or Table.Persist() pass (§4.6's
// manifest statistics block), independent of the storage package's
// on-disk encoding of the same information.
type TableStatistics struct {
	TableName          string
	TotalRows          uint64
	TotalColumns        uint32
	BytesAfterCompress uint64
	PerColumn          []storage.ColumnStat
}
