package eval

import (
	"testing"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/value"
	"github.com/stretchr/testify/require"
)

func litRow(t *testing.T, alias, col string, v value.Value) *Row {
	t.Helper()
	row := NewRow()
	row.Set(alias, col, v)

	return row
}

func TestEvalColumnRefQualifiedAndBare(t *testing.T) {
	row := NewRow()
	row.Set("t", "x", value.Int(5))

	v, err := Eval(&ast.ColumnRef{Table: "t", Column: "x"}, row)
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Int())

	v, err = Eval(&ast.ColumnRef{Column: "x"}, row)
	require.NoError(t, err)
	require.Equal(t, int64(5), v.Int())
}

func TestEvalColumnRefMissingErrors(t *testing.T) {
	row := NewRow()
	_, err := Eval(&ast.ColumnRef{Column: "missing"}, row)
	require.Error(t, err)
	var nameErr *errs.NameError
	require.ErrorAs(t, err, &nameErr)
}

func TestEvalAndOrNullPropagation(t *testing.T) {
	row := litRow(t, "", "a", value.Null())

	and := &ast.BinaryOp{Op: "AND", Left: &ast.ColumnRef{Column: "a"}, Right: &ast.Literal{Value: value.Bool(false)}}
	v, err := Eval(and, row)
	require.NoError(t, err)
	require.Equal(t, value.Bool(false), v)

	or := &ast.BinaryOp{Op: "OR", Left: &ast.ColumnRef{Column: "a"}, Right: &ast.Literal{Value: value.Bool(true)}}
	v, err = Eval(or, row)
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), v)
}

func TestEvalComparisonNullIsNull(t *testing.T) {
	row := litRow(t, "", "a", value.Null())
	expr := &ast.BinaryOp{Op: "=", Left: &ast.ColumnRef{Column: "a"}, Right: &ast.Literal{Value: value.Int(1)}}

	v, err := Eval(expr, row)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestEvalComparisonOperators(t *testing.T) {
	row := NewRow()
	cases := []struct {
		op   string
		want bool
	}{
		{"=", false}, {"<>", true}, {"!=", true},
		{"<", true}, {">", false}, {"<=", true}, {">=", false},
	}
	for _, c := range cases {
		expr := &ast.BinaryOp{Op: c.op, Left: &ast.Literal{Value: value.Int(1)}, Right: &ast.Literal{Value: value.Int(2)}}
		v, err := Eval(expr, row)
		require.NoError(t, err)
		require.Equal(t, c.want, v.Bool(), "op %s", c.op)
	}
}

func TestEvalArithIntStaysInt(t *testing.T) {
	row := NewRow()
	expr := &ast.BinaryOp{Op: "-", Left: &ast.Literal{Value: value.Int(5)}, Right: &ast.Literal{Value: value.Int(2)}}
	v, err := Eval(expr, row)
	require.NoError(t, err)
	require.Equal(t, value.KindInt, v.Kind())
	require.Equal(t, int64(3), v.Int())
}

func TestEvalDivisionByZero(t *testing.T) {
	row := NewRow()
	expr := &ast.BinaryOp{Op: "/", Left: &ast.Literal{Value: value.Int(1)}, Right: &ast.Literal{Value: value.Int(0)}}
	_, err := Eval(expr, row)
	require.ErrorIs(t, err, errs.ErrDivisionByZero)
}

func TestEvalModuloByZero(t *testing.T) {
	row := NewRow()
	expr := &ast.BinaryOp{Op: "%", Left: &ast.Literal{Value: value.Int(1)}, Right: &ast.Literal{Value: value.Int(0)}}
	_, err := Eval(expr, row)
	require.ErrorIs(t, err, errs.ErrModuloByZero)
}

func TestEvalArithNullPropagates(t *testing.T) {
	row := NewRow()
	expr := &ast.BinaryOp{Op: "+", Left: &ast.Literal{Value: value.Null()}, Right: &ast.Literal{Value: value.Int(1)}}
	v, err := Eval(expr, row)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestEvalLikeWildcards(t *testing.T) {
	row := NewRow()
	cases := []struct {
		s, p string
		want bool
	}{
		{"hello", "h%", true},
		{"hello", "%llo", true},
		{"hello", "h_llo", true},
		{"hello", "world", false},
		{"hello", "ell", true},
	}
	for _, c := range cases {
		expr := &ast.BinaryOp{Op: "LIKE", Left: &ast.Literal{Value: value.Str(c.s)}, Right: &ast.Literal{Value: value.Str(c.p)}}
		v, err := Eval(expr, row)
		require.NoError(t, err)
		require.Equal(t, c.want, v.Bool(), "%q like %q", c.s, c.p)
	}
}

func TestEvalInExprWithNullHandling(t *testing.T) {
	row := NewRow()

	in := &ast.InExpr{Expr: &ast.Literal{Value: value.Int(2)}, List: []ast.Expr{
		&ast.Literal{Value: value.Int(1)}, &ast.Literal{Value: value.Int(2)},
	}}
	v, err := Eval(in, row)
	require.NoError(t, err)
	require.Equal(t, value.Bool(true), v)

	inMiss := &ast.InExpr{Expr: &ast.Literal{Value: value.Int(9)}, List: []ast.Expr{
		&ast.Literal{Value: value.Int(1)}, &ast.Literal{Value: value.Null()},
	}}
	v, err = Eval(inMiss, row)
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestEvalFuncCallBuiltins(t *testing.T) {
	row := NewRow()

	v, err := Eval(&ast.FuncCall{Name: "UPPER", Args: []ast.Expr{&ast.Literal{Value: value.Str("abc")}}}, row)
	require.NoError(t, err)
	require.Equal(t, "ABC", v.Str())

	v, err = Eval(&ast.FuncCall{Name: "LENGTH", Args: []ast.Expr{&ast.Literal{Value: value.Str("abcd")}}}, row)
	require.NoError(t, err)
	require.Equal(t, int64(4), v.Int())

	v, err = Eval(&ast.FuncCall{Name: "SUBSTR", Args: []ast.Expr{
		&ast.Literal{Value: value.Str("hello")},
		&ast.Literal{Value: value.Int(2)},
		&ast.Literal{Value: value.Int(3)},
	}}, row)
	require.NoError(t, err)
	require.Equal(t, "ell", v.Str())

	v, err = Eval(&ast.FuncCall{Name: "ABS", Args: []ast.Expr{&ast.Literal{Value: value.Int(-4)}}}, row)
	require.NoError(t, err)
	require.Equal(t, int64(4), v.Int())

	v, err = Eval(&ast.FuncCall{Name: "COALESCE", Args: []ast.Expr{
		&ast.Literal{Value: value.Null()}, &ast.Literal{Value: value.Int(7)},
	}}, row)
	require.NoError(t, err)
	require.Equal(t, int64(7), v.Int())
}

func TestEvalFuncCallAggregateRejected(t *testing.T) {
	row := NewRow()
	_, err := Eval(&ast.FuncCall{Name: "SUM", IsAggregate: true, Args: []ast.Expr{&ast.Literal{Value: value.Int(1)}}}, row)
	require.Error(t, err)
}

func TestColumnNameDerivation(t *testing.T) {
	require.Equal(t, "aliased", ColumnName(ast.SelectItem{Alias: "aliased", Expr: &ast.ColumnRef{Column: "x"}}))
	require.Equal(t, "x", ColumnName(ast.SelectItem{Expr: &ast.ColumnRef{Column: "x"}}))
	require.Equal(t, "sum(...)", ColumnName(ast.SelectItem{Expr: &ast.FuncCall{Name: "SUM"}}))
}
