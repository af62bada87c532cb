// Package eval implements the scalar and batch-aggregate expression
// evaluator described in §4.12: type coercion, three-valued logic,
// arithmetic with zero-division checks, LIKE pattern matching, built-in
// scalar functions, and null-skipping aggregates.
package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/value"
)

// Row is a name -> value binding for one materialized row, keyed by both
// "alias.column" and bare "column" so qualified and unqualified
// ast.ColumnRef lookups both resolve (§4.12's "row (name -> value)").
type Row struct {
	byQualified map[string]value.Value
	byBare      map[string]value.Value
}

// NewRow returns an empty Row with no (alias, column->value) bindings.
func NewRow() *Row {
	return &Row{byQualified: make(map[string]value.Value), byBare: make(map[string]value.Value)}
}

// Set records column's value under alias (if non-empty) and unqualified.
func (r *Row) Set(alias, column string, v value.Value) {
	if alias != "" {
		r.byQualified[alias+"."+column] = v
	}
	r.byBare[column] = v
}

// Get resolves a possibly-qualified column reference.
func (r *Row) Get(table, column string) (value.Value, bool) {
	if table != "" {
		v, ok := r.byQualified[table+"."+column]

		return v, ok
	}
	v, ok := r.byBare[column]

	return v, ok
}

// Eval evaluates expr against row, applying §3's comparison/coercion rules
// and §4.12's arithmetic, LIKE, and built-in function semantics.
func Eval(expr ast.Expr, row *Row) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return e.Value, nil
	case *ast.ColumnRef:
		v, ok := row.Get(e.Table, e.Column)
		if !ok {
			name := e.Column
			if e.Table != "" {
				name = e.Table + "." + e.Column
			}

			return value.Null(), &errs.NameError{Kind: "column", Name: name}
		}

		return v, nil
	case *ast.UnaryOp:
		return evalUnary(e, row)
	case *ast.BinaryOp:
		return evalBinary(e, row)
	case *ast.InExpr:
		return evalIn(e, row)
	case *ast.FuncCall:
		return evalFunc(e, row)
	case *ast.StarExpr:
		return value.Null(), &errs.TypeError{Context: "*", Message: "cannot evaluate * outside a projection list"}
	default:
		return value.Null(), &errs.TypeError{Context: "expr", Message: fmt.Sprintf("unsupported expression %T", expr)}
	}
}

func evalUnary(e *ast.UnaryOp, row *Row) (value.Value, error) {
	v, err := Eval(e.Operand, row)
	if err != nil {
		return value.Null(), err
	}

	switch e.Op {
	case "NOT":
		return value.Not(v), nil
	case "-":
		if v.IsNull() {
			return value.Null(), nil
		}
		if v.Kind() == value.KindInt {
			return value.Int(-v.Int()), nil
		}
		f, ok := v.AsFloat64()
		if !ok {
			return value.Null(), &errs.TypeError{Context: "unary -", Message: "operand is not numeric"}
		}

		return value.Float(-f), nil
	default:
		return value.Null(), &errs.TypeError{Context: "unary", Message: "unknown operator " + e.Op}
	}
}

func evalBinary(e *ast.BinaryOp, row *Row) (value.Value, error) {
	switch e.Op {
	case "AND":
		l, err := Eval(e.Left, row)
		if err != nil {
			return value.Null(), err
		}
		r, err := Eval(e.Right, row)
		if err != nil {
			return value.Null(), err
		}

		return value.And(l, r), nil
	case "OR":
		l, err := Eval(e.Left, row)
		if err != nil {
			return value.Null(), err
		}
		r, err := Eval(e.Right, row)
		if err != nil {
			return value.Null(), err
		}

		return value.Or(l, r), nil
	}

	l, err := Eval(e.Left, row)
	if err != nil {
		return value.Null(), err
	}
	r, err := Eval(e.Right, row)
	if err != nil {
		return value.Null(), err
	}

	switch e.Op {
	case "=", "<>", "!=", "<", ">", "<=", ">=":
		return evalComparison(e.Op, l, r), nil
	case "+":
		return value.Add(l, r)
	case "-", "*", "/", "%":
		return evalArith(e.Op, l, r)
	case "LIKE":
		return evalLike(l, r)
	default:
		return value.Null(), &errs.TypeError{Context: "binary", Message: "unknown operator " + e.Op}
	}
}

// evalComparison implements §3: null compared to anything is null.
func evalComparison(op string, l, r value.Value) value.Value {
	if l.IsNull() || r.IsNull() {
		return value.Null()
	}

	cmp, ok := value.Compare(l, r)
	if !ok {
		return value.Null()
	}

	switch op {
	case "=":
		return value.Bool(cmp == 0)
	case "<>", "!=":
		return value.Bool(cmp != 0)
	case "<":
		return value.Bool(cmp < 0)
	case ">":
		return value.Bool(cmp > 0)
	case "<=":
		return value.Bool(cmp <= 0)
	case ">=":
		return value.Bool(cmp >= 0)
	default:
		return value.Null()
	}
}

// evalArith implements §4.12's `-`, `*`, `/`, `%`, with `/`/`%` by zero
// failing as ArithmeticError.
func evalArith(op string, l, r value.Value) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.Null(), nil
	}

	lf, lok := l.AsFloat64()
	rf, rok := r.AsFloat64()
	if !lok || !rok {
		return value.Null(), &errs.TypeError{Context: "arith", Message: "operands must be numeric"}
	}

	bothInt := l.Kind() == value.KindInt && r.Kind() == value.KindInt

	switch op {
	case "-":
		if bothInt {
			return value.Int(l.Int() - r.Int()), nil
		}

		return value.Float(lf - rf), nil
	case "*":
		if bothInt {
			return value.Int(l.Int() * r.Int()), nil
		}

		return value.Float(lf * rf), nil
	case "/":
		if rf == 0 {
			return value.Null(), errs.ErrDivisionByZero
		}
		if bothInt && r.Int() != 0 && l.Int()%r.Int() == 0 {
			return value.Int(l.Int() / r.Int()), nil
		}

		return value.Float(lf / rf), nil
	case "%":
		if rf == 0 {
			return value.Null(), errs.ErrModuloByZero
		}
		if bothInt {
			return value.Int(l.Int() % r.Int()), nil
		}

		return value.Float(modFloat(lf, rf)), nil
	default:
		return value.Null(), &errs.TypeError{Context: "arith", Message: "unknown operator " + op}
	}
}

func modFloat(a, b float64) float64 {
	for a >= b {
		a -= b
	}

	return a
}

// evalLike implements §4.12's LIKE: `%` matches any length, `_` matches one
// char; absent wildcards degenerate to a substring match.
func evalLike(l, r value.Value) (value.Value, error) {
	if l.IsNull() || r.IsNull() {
		return value.Null(), nil
	}
	if l.Kind() != value.KindString || r.Kind() != value.KindString {
		return value.Null(), &errs.TypeError{Context: "LIKE", Message: "operands must be strings"}
	}

	return value.Bool(likeMatch(l.Str(), r.Str())), nil
}

func likeMatch(s, pattern string) bool {
	if !strings.ContainsAny(pattern, "%_") {
		return strings.Contains(s, pattern)
	}

	return likeMatchRec(s, pattern)
}

func likeMatchRec(s, p string) bool {
	if p == "" {
		return s == ""
	}
	if p[0] == '%' {
		if likeMatchRec(s, p[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatchRec(s[i+1:], p[1:]) {
				return true
			}
		}

		return false
	}
	if s == "" {
		return false
	}
	if p[0] == '_' || p[0] == s[0] {
		return likeMatchRec(s[1:], p[1:])
	}

	return false
}

func evalIn(e *ast.InExpr, row *Row) (value.Value, error) {
	l, err := Eval(e.Expr, row)
	if err != nil {
		return value.Null(), err
	}
	if l.IsNull() {
		return value.Null(), nil
	}

	sawNull := false
	for _, item := range e.List {
		v, err := Eval(item, row)
		if err != nil {
			return value.Null(), err
		}
		if v.IsNull() {
			sawNull = true

			continue
		}
		if value.Equal(l, v) {
			return value.Bool(true), nil
		}
	}

	if sawNull {
		return value.Null(), nil
	}

	return value.Bool(false), nil
}

func evalFunc(e *ast.FuncCall, row *Row) (value.Value, error) {
	if e.IsAggregate {
		return value.Null(), &errs.TypeError{Context: e.Name, Message: "aggregate functions must be evaluated over a batch, not a single row"}
	}

	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := Eval(a, row)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}

	switch e.Name {
	case "UPPER":
		return callUpperLower(args, strings.ToUpper)
	case "LOWER":
		return callUpperLower(args, strings.ToLower)
	case "LENGTH":
		if len(args) != 1 {
			return value.Null(), &errs.TypeError{Context: "LENGTH", Message: "expects 1 argument"}
		}
		if args[0].IsNull() {
			return value.Null(), nil
		}

		return value.Int(int64(len(args[0].Str()))), nil
	case "SUBSTR":
		return callSubstr(args)
	case "ROUND":
		return callRound(args)
	case "ABS":
		return callAbs(args)
	case "COALESCE":
		for _, a := range args {
			if !a.IsNull() {
				return a, nil
			}
		}

		return value.Null(), nil
	default:
		return value.Null(), &errs.TypeError{Context: e.Name, Message: "unknown function"}
	}
}

func callUpperLower(args []value.Value, f func(string) string) (value.Value, error) {
	if len(args) != 1 {
		return value.Null(), &errs.TypeError{Context: "UPPER/LOWER", Message: "expects 1 argument"}
	}
	if args[0].IsNull() {
		return value.Null(), nil
	}

	return value.Str(f(args[0].Str())), nil
}

// callSubstr implements §4.12's `SUBSTR(s, start1, len)`, 1-indexed.
func callSubstr(args []value.Value) (value.Value, error) {
	if len(args) != 3 {
		return value.Null(), &errs.TypeError{Context: "SUBSTR", Message: "expects 3 arguments"}
	}
	if args[0].IsNull() || args[1].IsNull() || args[2].IsNull() {
		return value.Null(), nil
	}

	s := args[0].Str()
	start := int(args[1].Int()) - 1
	length := int(args[2].Int())

	if start < 0 {
		start = 0
	}
	if start >= len(s) || length <= 0 {
		return value.Str(""), nil
	}
	end := start + length
	if end > len(s) {
		end = len(s)
	}

	return value.Str(s[start:end]), nil
}

func callRound(args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Null(), &errs.TypeError{Context: "ROUND", Message: "expects 2 arguments"}
	}
	if args[0].IsNull() || args[1].IsNull() {
		return value.Null(), nil
	}

	f, ok := args[0].AsFloat64()
	if !ok {
		return value.Null(), &errs.TypeError{Context: "ROUND", Message: "first argument must be numeric"}
	}
	digits := args[1].Int()

	mult := pow10(digits)
	r := float64(int64(f*mult+signOf(f)*0.5)) / mult

	return value.Float(r), nil
}

func signOf(f float64) float64 {
	if f < 0 {
		return -1
	}

	return 1
}

func pow10(n int64) float64 {
	v := 1.0
	if n >= 0 {
		for i := int64(0); i < n; i++ {
			v *= 10
		}
	} else {
		for i := int64(0); i < -n; i++ {
			v /= 10
		}
	}

	return v
}

func callAbs(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Null(), &errs.TypeError{Context: "ABS", Message: "expects 1 argument"}
	}
	if args[0].IsNull() {
		return value.Null(), nil
	}

	if args[0].Kind() == value.KindInt {
		i := args[0].Int()
		if i < 0 {
			i = -i
		}

		return value.Int(i), nil
	}

	f, ok := args[0].AsFloat64()
	if !ok {
		return value.Null(), &errs.TypeError{Context: "ABS", Message: "argument must be numeric"}
	}
	if f < 0 {
		f = -f
	}

	return value.Float(f), nil
}

// ColumnName derives a display name for a SELECT item lacking an explicit
// alias, used by the executor to label result columns.
func ColumnName(item ast.SelectItem) string {
	if item.Alias != "" {
		return item.Alias
	}

	switch e := item.Expr.(type) {
	case *ast.ColumnRef:
		return e.Column
	case *ast.FuncCall:
		return strings.ToLower(e.Name) + "(...)"
	case *ast.Literal:
		return e.Value.String()
	default:
		return "?column?"
	}
}

// FormatFloatKey formats f in the shortest 'g' form that round-trips. The
// aggregate operator does not use it: its group-by keys come from
// value.Value.String.
func FormatFloatKey(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
