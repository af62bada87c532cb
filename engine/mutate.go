package engine

import (
	"github.com/lyradb/lyradb/eval"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/table"
	"github.com/lyradb/lyradb/value"
)

// InsertRow appends one row to table (§4.6a).
func (d *Database) InsertRow(tableName string, values []value.Value) error {
	t, err := d.table(tableName)
	if err != nil {
		return err
	}

	if err := t.InsertRow(values); err != nil {
		return err
	}

	d.cache.Invalidate(tableName)

	return nil
}

// UpdateRows evaluates pred against every live row of table, tombstones
// each match and appends its replacement with assign's columns
// overridden, and returns the number of rows touched (§4.6a). A nil pred
// matches every row.
func (d *Database) UpdateRows(tableName string, pred ast.Expr, assign map[string]value.Value) (int, error) {
	t, err := d.table(tableName)
	if err != nil {
		return 0, err
	}

	rows, err := t.Rows()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range rows {
		matched, err := matchesPredicate(t.Schema, pred, r.Values)
		if err != nil {
			return count, err
		}
		if !matched {
			continue
		}

		next := append([]value.Value(nil), r.Values...)
		for col, v := range assign {
			if idx := t.Schema.ColumnIndex(col); idx >= 0 {
				next[idx] = v
			}
		}

		t.ReplaceByRowID(r.RowID, next)
		count++
	}

	if count > 0 {
		d.cache.Invalidate(tableName)
	}

	return count, nil
}

// DeleteRows tombstones every live row of table matching pred, returning
// the count removed (§4.6a). A nil pred matches every row.
func (d *Database) DeleteRows(tableName string, pred ast.Expr) (int, error) {
	t, err := d.table(tableName)
	if err != nil {
		return 0, err
	}

	rows, err := t.Rows()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, r := range rows {
		matched, err := matchesPredicate(t.Schema, pred, r.Values)
		if err != nil {
			return count, err
		}
		if !matched {
			continue
		}

		t.DeleteByRowID(r.RowID)
		count++
	}

	if count > 0 {
		d.cache.Invalidate(tableName)
	}

	return count, nil
}

// matchesPredicate evaluates pred (which may be nil, matching every row)
// against one row's values, bound unqualified since UPDATE/DELETE
// predicates never carry a table alias.
func matchesPredicate(schema table.Schema, pred ast.Expr, values []value.Value) (bool, error) {
	if pred == nil {
		return true, nil
	}

	row := eval.NewRow()
	for i, c := range schema.Columns {
		row.Set("", c.Name, values[i])
	}

	v, err := eval.Eval(pred, row)
	if err != nil {
		return false, err
	}

	truthy, ok := value.IsTruthy(v)
	if !ok {
		return false, nil
	}

	return truthy, nil
}
