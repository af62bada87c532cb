package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/sql/ast"
)

func TestParseSelectStarFromTable(t *testing.T) {
	stmt, err := Parse("SELECT * FROM orders")
	require.NoError(t, err)

	sel, ok := stmt.(*ast.Select)
	require.True(t, ok)
	require.Len(t, sel.Columns, 1)
	_, isStar := sel.Columns[0].Expr.(*ast.StarExpr)
	require.True(t, isStar)
	require.Equal(t, "orders", sel.From.Table)
}

func TestParseSelectWithWhereAndAlias(t *testing.T) {
	stmt, err := Parse("SELECT id AS oid FROM orders o WHERE o.amount > 100 AND o.amount < 200")
	require.NoError(t, err)

	sel := stmt.(*ast.Select)
	require.Equal(t, "oid", sel.Columns[0].Alias)
	require.Equal(t, "o", sel.From.Alias)

	bin, ok := sel.Where.(*ast.BinaryOp)
	require.True(t, ok)
	require.Equal(t, "AND", bin.Op)
}

func TestParseSelectJoinOnClause(t *testing.T) {
	stmt, err := Parse("SELECT * FROM orders o LEFT JOIN customers c ON o.customer_id = c.id")
	require.NoError(t, err)

	sel := stmt.(*ast.Select)
	require.Len(t, sel.Joins, 1)
	require.Equal(t, ast.JoinLeft, sel.Joins[0].Kind)
	require.Equal(t, "customers", sel.Joins[0].Right.Table)
}

func TestParseSelectGroupByHavingOrderByLimit(t *testing.T) {
	stmt, err := Parse("SELECT customer_id, SUM(amount) FROM orders GROUP BY customer_id HAVING SUM(amount) > 10 ORDER BY customer_id DESC LIMIT 5 OFFSET 2")
	require.NoError(t, err)

	sel := stmt.(*ast.Select)
	require.Len(t, sel.GroupBy, 1)
	require.NotNil(t, sel.Having)
	require.Len(t, sel.OrderBy, 1)
	require.Equal(t, ast.Desc, sel.OrderBy[0].Direction)
	require.True(t, sel.HasLimit)
	require.Equal(t, int64(5), sel.Limit)
	require.True(t, sel.HasOffset)
	require.Equal(t, int64(2), sel.Offset)
}

func TestParseSelectAggregateFuncCallIsAggregate(t *testing.T) {
	stmt, err := Parse("SELECT COUNT(*) FROM orders")
	require.NoError(t, err)

	sel := stmt.(*ast.Select)
	fn := sel.Columns[0].Expr.(*ast.FuncCall)
	require.Equal(t, "COUNT", fn.Name)
	require.True(t, fn.IsAggregate)
	require.True(t, fn.IsStarArg)
}

func TestParseExpressionPrecedence(t *testing.T) {
	stmt, err := Parse("SELECT 1 + 2 * 3 FROM t")
	require.NoError(t, err)

	sel := stmt.(*ast.Select)
	bin := sel.Columns[0].Expr.(*ast.BinaryOp)
	require.Equal(t, "+", bin.Op)
	rhs := bin.Right.(*ast.BinaryOp)
	require.Equal(t, "*", rhs.Op)
}

func TestParseInExpr(t *testing.T) {
	stmt, err := Parse("SELECT * FROM t WHERE x IN (1, 2, 3)")
	require.NoError(t, err)

	sel := stmt.(*ast.Select)
	in := sel.Where.(*ast.InExpr)
	require.Len(t, in.List, 3)
}

func TestParseInsertWithColumnList(t *testing.T) {
	stmt, err := Parse("INSERT INTO orders (id, amount) VALUES (1, 99.5)")
	require.NoError(t, err)

	ins, ok := stmt.(*ast.Insert)
	require.True(t, ok)
	require.Equal(t, []string{"id", "amount"}, ins.Columns)
	require.Len(t, ins.Values, 2)
}

func TestParseUpdateWithWhere(t *testing.T) {
	stmt, err := Parse("UPDATE orders SET amount = 5 WHERE id = 1")
	require.NoError(t, err)

	upd, ok := stmt.(*ast.Update)
	require.True(t, ok)
	require.Len(t, upd.Assignments, 1)
	require.Equal(t, "amount", upd.Assignments[0].Column)
	require.NotNil(t, upd.Where)
}

func TestParseDeleteWithWhere(t *testing.T) {
	stmt, err := Parse("DELETE FROM orders WHERE id = 1")
	require.NoError(t, err)

	del, ok := stmt.(*ast.Delete)
	require.True(t, ok)
	require.Equal(t, "orders", del.Table)
	require.NotNil(t, del.Where)
}

func TestParseCreateTableWithNotNull(t *testing.T) {
	stmt, err := Parse("CREATE TABLE orders (id int64 NOT NULL, amount float64)")
	require.NoError(t, err)

	ct, ok := stmt.(*ast.CreateTable)
	require.True(t, ok)
	require.Len(t, ct.Columns, 2)
	require.False(t, ct.Columns[0].Nullable)
	require.True(t, ct.Columns[1].Nullable)
}

func TestParseCreateIndexDefaultsToAutoKind(t *testing.T) {
	stmt, err := Parse("CREATE INDEX ix_orders_id ON orders (id)")
	require.NoError(t, err)

	ci, ok := stmt.(*ast.CreateIndex)
	require.True(t, ok)
	require.Equal(t, ast.IndexAuto, ci.Kind)
}

func TestParseCreateIndexExplicitUsingHash(t *testing.T) {
	stmt, err := Parse("CREATE INDEX ix_orders_cust ON orders (customer_id) HASH")
	require.NoError(t, err)

	ci := stmt.(*ast.CreateIndex)
	require.Equal(t, ast.IndexHash, ci.Kind)
}

func TestParseCreateIndexCompositeColumns(t *testing.T) {
	stmt, err := Parse("CREATE INDEX ix_multi ON orders (customer_id, amount)")
	require.NoError(t, err)

	ci := stmt.(*ast.CreateIndex)
	require.Equal(t, []string{"customer_id", "amount"}, ci.Columns)
}

func TestParseDropTableAndIndex(t *testing.T) {
	stmt, err := Parse("DROP TABLE orders")
	require.NoError(t, err)
	dt, ok := stmt.(*ast.DropTable)
	require.True(t, ok)
	require.Equal(t, "orders", dt.Table)

	stmt2, err := Parse("DROP INDEX ix_orders_id")
	require.NoError(t, err)
	di, ok := stmt2.(*ast.DropIndex)
	require.True(t, ok)
	require.Equal(t, "ix_orders_id", di.Name)
}

func TestParseUnsupportedStatementErrors(t *testing.T) {
	_, err := Parse("FROB orders")
	require.Error(t, err)
}

func TestParseMissingFromErrors(t *testing.T) {
	_, err := Parse("SELECT 1")
	require.Error(t, err)
}
