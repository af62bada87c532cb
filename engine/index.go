package engine

import (
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/index"
	"github.com/lyradb/lyradb/value"
)

// CreateIndex builds and registers a new index over table/columns (§4.7).
// The index is populated by one pass over the table's currently live rows;
// rows inserted afterward are not added to the index. applyIndexFilter
// unions an index lookup's matches with the §4.6a overlay's row ids, so
// those rows still reach the scan.
func (d *Database) CreateIndex(name, tableName string, columns []string, kind index.Kind) error {
	t, err := d.table(tableName)
	if err != nil {
		return err
	}
	if len(columns) == 0 {
		return &errs.TypeError{Context: "CreateIndex", Message: "at least one column is required"}
	}

	colIdx := make([]int, len(columns))
	for i, c := range columns {
		idx := t.Schema.ColumnIndex(c)
		if idx < 0 {
			return &errs.NameError{Kind: "column", Name: c}
		}
		colIdx[i] = idx
	}

	rows, err := t.Rows()
	if err != nil {
		return err
	}

	var info *index.Info
	switch kind {
	case index.KindBTree:
		info, err = d.indexes.CreateBTree(name, tableName, columns[0], t.ColumnCardinality(colIdx[0]))
		if err == nil {
			for _, r := range rows {
				info.BTree.Insert(r.Values[colIdx[0]], r.RowID)
			}
		}
	case index.KindHash:
		info, err = d.indexes.CreateHash(name, tableName, columns[0], t.ColumnCardinality(colIdx[0]))
		if err == nil {
			for _, r := range rows {
				info.Hash.Insert(r.Values[colIdx[0]], r.RowID)
			}
		}
	case index.KindCompositeHash:
		info, err = d.indexes.CreateCompositeHash(name, tableName, columns, uint64(len(rows)))
		if err == nil {
			for _, r := range rows {
				vals := make([]value.Value, len(colIdx))
				for i, ci := range colIdx {
					vals[i] = r.Values[ci]
				}
				info.Composite.Insert(vals, r.RowID)
			}
		}
	case index.KindBitmap:
		info, err = d.indexes.CreateBitmap(name, tableName, columns[0], t.ColumnCardinality(colIdx[0]))
		if err == nil {
			for _, r := range rows {
				info.Bitmap.Set(r.Values[colIdx[0]], r.RowID)
			}
		}
	default:
		return &errs.TypeError{Context: "CreateIndex", Message: "unknown index kind"}
	}

	return err
}

// DropIndex removes name from the registry (§4.7).
func (d *Database) DropIndex(name string) error {
	return d.indexes.Drop(name)
}
