package engine

import (
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/index"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/table"
)

// dataTypeByName maps the lowercase type names sql/parser records on
// ast.ColumnDef (itself mirroring format.DataType.String()) back to the
// DataType enum CREATE TABLE needs.
var dataTypeByName = map[string]format.DataType{
	format.TypeInt32.String():     format.TypeInt32,
	format.TypeInt64.String():     format.TypeInt64,
	format.TypeFloat32.String():   format.TypeFloat32,
	format.TypeFloat64.String():   format.TypeFloat64,
	format.TypeBool.String():      format.TypeBool,
	format.TypeString.String():    format.TypeString,
	format.TypeDate32.String():    format.TypeDate32,
	format.TypeTimestamp.String(): format.TypeTimestamp,
}

func (d *Database) createTableFromAST(s *ast.CreateTable) error {
	cols := make([]table.ColumnDef, len(s.Columns))
	for i, c := range s.Columns {
		typ, ok := dataTypeByName[c.Type]
		if !ok {
			return &errs.TypeError{Context: "CREATE TABLE", Message: "unknown column type " + c.Type}
		}
		cols[i] = table.ColumnDef{Name: c.Name, Type: typ}
	}

	return d.CreateTable(s.Table, table.Schema{Columns: cols})
}

var indexKindFromAST = map[ast.IndexKind]index.Kind{
	ast.IndexBTree:  index.KindBTree,
	ast.IndexHash:   index.KindHash,
	ast.IndexBitmap: index.KindBitmap,
}

// createIndexFromAST resolves the USING clause (if any) to a concrete
// index.Kind. CREATE INDEX without USING (ast.IndexAuto) on a single
// column defers to index.Recommend's cardinality heuristic (§4.7) instead
// of silently defaulting to one structure; a query-shaped operator hint
// isn't available at DDL time, so the equality-favoring branch (isRange =
// false) is used. Multiple columns always build a composite-hash index,
// since Recommend has no multi-column variant.
func (d *Database) createIndexFromAST(s *ast.CreateIndex) error {
	if len(s.Columns) > 1 {
		return d.CreateIndex(s.Name, s.Table, s.Columns, index.KindCompositeHash)
	}

	kind, ok := indexKindFromAST[s.Kind]
	if !ok {
		if s.Kind != ast.IndexAuto {
			return &errs.TypeError{Context: "CREATE INDEX", Message: "unknown index kind"}
		}

		t, err := d.table(s.Table)
		if err != nil {
			return err
		}
		colIdx := t.Schema.ColumnIndex(s.Columns[0])
		if colIdx < 0 {
			return &errs.NameError{Kind: "column", Name: s.Columns[0]}
		}

		kind = index.Recommend(t.ColumnCardinality(colIdx), false)
	}

	return d.CreateIndex(s.Name, s.Table, s.Columns, kind)
}
