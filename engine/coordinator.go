package engine

import (
	"context"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/exec"
	"github.com/lyradb/lyradb/plan"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/sql/parser"
	"github.com/lyradb/lyradb/value"
)

// Query runs a SELECT statement end to end (§4.15): cache probe, parse,
// plan/optimize, compile to physical operators, execute, materialize, and
// cache the result tagged by every base table it read. A cache failure is
// never fatal (§7) — Get simply reports a miss, never an error.
func (d *Database) Query(ctx context.Context, sql string) (*exec.QueryResult, error) {
	if cached, ok := d.cache.Get(sql); ok {
		return cached, nil
	}

	var tables []string

	result, err, _ := d.cache.Singleflight(sql, func() (*exec.QueryResult, error) {
		res, tbls, runErr := d.runQuery(ctx, sql)
		tables = tbls

		return res, runErr
	})
	if err != nil {
		return nil, err
	}

	d.cache.Put(sql, result, tables)

	return result, nil
}

func (d *Database) runQuery(ctx context.Context, sql string) (*exec.QueryResult, []string, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return nil, nil, err
	}

	sel, ok := stmt.(*ast.Select)
	if !ok {
		return nil, nil, &errs.TypeError{Context: "Query", Message: "statement is not a SELECT; use Execute"}
	}

	root, err := plan.Build(sel, d)
	if err != nil {
		return nil, nil, err
	}
	root = plan.Optimize(root)

	op, err := d.compile(root)
	if err != nil {
		return nil, nil, err
	}

	result, err := materialize(ctx, op)
	if err != nil {
		return nil, nil, err
	}

	return result, plan.ReferencedTables(root), nil
}

func materialize(ctx context.Context, op exec.Operator) (*exec.QueryResult, error) {
	if err := op.Open(ctx); err != nil {
		return nil, err
	}
	defer op.Close()

	fields := op.Fields()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	result := &exec.QueryResult{Columns: cols}

	for {
		batch, err := op.Next(ctx)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}

		for i := 0; i < batch.RowCount; i++ {
			row := make([]value.Value, len(batch.Fields))
			for c := range batch.Fields {
				row[c] = batch.Columns[c][i]
			}
			result.Rows = append(result.Rows, row)
		}
	}

	return result, nil
}

// Execute runs a non-SELECT statement (§4.15's write path) and reports the
// number of rows it affected (0 for DDL, 1 for INSERT, the match count for
// UPDATE/DELETE).
func (d *Database) Execute(ctx context.Context, sql string) (int, error) {
	stmt, err := parser.Parse(sql)
	if err != nil {
		return 0, err
	}

	switch s := stmt.(type) {
	case *ast.CreateTable:
		return 0, d.createTableFromAST(s)
	case *ast.DropTable:
		return 0, d.DropTable(s.Table)
	case *ast.CreateIndex:
		return 0, d.createIndexFromAST(s)
	case *ast.DropIndex:
		return 0, d.DropIndex(s.Name)
	case *ast.Insert:
		return 1, d.insertFromAST(s)
	case *ast.Update:
		assign, err := d.assignmentsFromAST(s.Assignments)
		if err != nil {
			return 0, err
		}

		return d.UpdateRows(s.Table, s.Where, assign)
	case *ast.Delete:
		return d.DeleteRows(s.Table, s.Where)
	case *ast.Select:
		return 0, &errs.TypeError{Context: "Execute", Message: "statement is a SELECT; use Query"}
	default:
		return 0, &errs.TypeError{Context: "Execute", Message: "unsupported statement"}
	}
}

func (d *Database) insertFromAST(ins *ast.Insert) error {
	t, err := d.table(ins.Table)
	if err != nil {
		return err
	}

	values := make([]value.Value, len(t.Schema.Columns))
	if len(ins.Columns) == 0 {
		if len(ins.Values) != len(values) {
			return &errs.TypeError{Context: "INSERT", Message: "value count does not match schema"}
		}
		for i, e := range ins.Values {
			v, err := evalLiteral(e)
			if err != nil {
				return err
			}
			values[i] = v
		}
	} else {
		for i := range values {
			values[i] = value.Null()
		}
		for i, col := range ins.Columns {
			idx := t.Schema.ColumnIndex(col)
			if idx < 0 {
				return &errs.NameError{Kind: "column", Name: col}
			}
			v, err := evalLiteral(ins.Values[i])
			if err != nil {
				return err
			}
			values[idx] = v
		}
	}

	return d.InsertRow(ins.Table, values)
}

func (d *Database) assignmentsFromAST(assignments []ast.Assignment) (map[string]value.Value, error) {
	out := make(map[string]value.Value, len(assignments))
	for _, a := range assignments {
		v, err := evalLiteral(a.Value)
		if err != nil {
			return nil, err
		}
		out[a.Column] = v
	}

	return out, nil
}

// evalLiteral returns the value of expr when it is an *ast.Literal, the
// shape INSERT and UPDATE's SET clause accept; any other expression is a
// TypeError.
func evalLiteral(expr ast.Expr) (value.Value, error) {
	if lit, ok := expr.(*ast.Literal); ok {
		return lit.Value, nil
	}

	return value.Null(), &errs.TypeError{Context: "INSERT/UPDATE", Message: "only literal values are supported"}
}
