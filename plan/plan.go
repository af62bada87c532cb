// Package plan implements the logical plan described in §4.11: a tagged
// union of node kinds (Scan, Filter, Project, Join, Aggregate, Sort,
// Limit) built from a parsed ast.Select, plus the fixpoint rewrite rules
// (predicate pushdown, column pruning, sort elimination, limit-before-sort
// partial-sort substitution) and the zone-map pruning rewrite added in
// §9a. Joins are not reordered.
package plan

import (
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/table"
)

// Kind tags which variant a Node is (§9's "tagged union (sum type) of node
// kinds with shared metadata").
type Kind uint8

const (
	ScanKind Kind = iota
	FilterKind
	ProjectKind
	JoinKind
	AggregateKind
	SortKind
	LimitKind
)

// ColumnOut is one output column of a Project or Aggregate node: the
// expression producing it and its display name.
type ColumnOut struct {
	Expr ast.Expr
	Name string
}

// Node is one logical plan node. Only the fields relevant to Kind are
// populated; this mirrors a sum type while staying a single Go struct per
// §9's design note on polymorphic plan nodes.
type Node struct {
	Kind Kind

	// Scan
	Table             string
	Alias             string
	RequiredColumns   []string // column pruning result; nil means "all"
	ZoneMapPredicate  ast.Expr // §9a: pushed-down range predicate usable for page skipping

	// Filter
	Predicate ast.Expr

	// Project
	Columns []ColumnOut

	// Join
	JoinKind  ast.JoinKind
	Algorithm string
	On        ast.Expr

	// Aggregate
	GroupBy    []ast.Expr
	Aggregates []ColumnOut

	// Sort
	SortKeys []ast.OrderKey
	Partial  bool
	K        int64

	// Limit
	N      int64
	Offset int64

	Child *Node
	Left  *Node
	Right *Node
}

// Catalog is the minimal schema lookup the planner needs to validate
// table references and expand `SELECT *` (§4.9a); engine.Database
// implements it.
type Catalog interface {
	Schema(tableName string) (table.Schema, bool)
}

// Build compiles a parsed ast.Select into an unoptimized logical plan,
// validating table references against cat and expanding `*` (§4.9a) at
// plan time. Column references are not checked here; they are resolved
// when expressions are evaluated.
func Build(sel *ast.Select, cat Catalog) (*Node, error) {
	schema, ok := cat.Schema(sel.From.Table)
	if !ok {
		return nil, &errs.NameError{Kind: "table", Name: sel.From.Table}
	}

	root := &Node{Kind: ScanKind, Table: sel.From.Table, Alias: aliasOr(sel.From)}

	for _, j := range sel.Joins {
		if _, ok := cat.Schema(j.Right.Table); !ok {
			return nil, &errs.NameError{Kind: "table", Name: j.Right.Table}
		}
		right := &Node{Kind: ScanKind, Table: j.Right.Table, Alias: aliasOr(j.Right)}
		root = &Node{Kind: JoinKind, Left: root, Right: right, JoinKind: j.Kind, Algorithm: "hash", On: j.On}
	}

	if sel.Where != nil {
		root = &Node{Kind: FilterKind, Child: root, Predicate: sel.Where}
	}

	hasAgg := len(sel.GroupBy) > 0 || containsAggregate(sel.Columns)
	if hasAgg {
		aggs := collectAggregates(sel.Columns)
		root = &Node{Kind: AggregateKind, Child: root, GroupBy: sel.GroupBy, Aggregates: aggs}

		if sel.Having != nil {
			root = &Node{Kind: FilterKind, Child: root, Predicate: sel.Having}
		}
	}

	cols, err := expandColumns(sel.Columns, schema, root.Alias)
	if err != nil {
		return nil, err
	}
	root = &Node{Kind: ProjectKind, Child: root, Columns: cols}

	if len(sel.OrderBy) > 0 {
		root = &Node{Kind: SortKind, Child: root, SortKeys: sel.OrderBy}
	}

	if sel.HasLimit {
		root = &Node{Kind: LimitKind, Child: root, N: sel.Limit, Offset: sel.Offset}
	}

	return root, nil
}

func aliasOr(ref ast.TableRef) string {
	if ref.Alias != "" {
		return ref.Alias
	}

	return ref.Table
}

func containsAggregate(items []ast.SelectItem) bool {
	for _, it := range items {
		if exprContainsAggregate(it.Expr) {
			return true
		}
	}

	return false
}

func exprContainsAggregate(e ast.Expr) bool {
	switch v := e.(type) {
	case *ast.FuncCall:
		return v.IsAggregate
	case *ast.BinaryOp:
		return exprContainsAggregate(v.Left) || exprContainsAggregate(v.Right)
	case *ast.UnaryOp:
		return exprContainsAggregate(v.Operand)
	default:
		return false
	}
}

func collectAggregates(items []ast.SelectItem) []ColumnOut {
	var out []ColumnOut
	seen := make(map[string]bool)
	for _, it := range items {
		collectAggregatesFrom(it.Expr, &out, seen)
	}

	return out
}

func collectAggregatesFrom(e ast.Expr, out *[]ColumnOut, seen map[string]bool) {
	switch v := e.(type) {
	case *ast.FuncCall:
		if v.IsAggregate {
			key := aggregateKey(v)
			if !seen[key] {
				seen[key] = true
				*out = append(*out, ColumnOut{Expr: v, Name: key})
			}

			return
		}
		for _, a := range v.Args {
			collectAggregatesFrom(a, out, seen)
		}
	case *ast.BinaryOp:
		collectAggregatesFrom(v.Left, out, seen)
		collectAggregatesFrom(v.Right, out, seen)
	case *ast.UnaryOp:
		collectAggregatesFrom(v.Operand, out, seen)
	}
}

// aggregateKey builds the stable output-column name used for an aggregate
// expression (e.g. "COUNT(*)", "SUM(salary)").
func aggregateKey(f *ast.FuncCall) string {
	if f.IsStarArg {
		return f.Name + "(*)"
	}
	if len(f.Args) == 1 {
		if col, ok := f.Args[0].(*ast.ColumnRef); ok {
			return f.Name + "(" + col.Column + ")"
		}
	}

	return f.Name + "(...)"
}

// expandColumns resolves the SELECT list against schema, expanding a `*`
// marker into one ColumnOut per schema column in declaration order
// (§4.9a).
func expandColumns(items []ast.SelectItem, schema table.Schema, alias string) ([]ColumnOut, error) {
	var out []ColumnOut
	for _, it := range items {
		if _, ok := it.Expr.(*ast.StarExpr); ok {
			for _, c := range schema.Columns {
				out = append(out, ColumnOut{Expr: &ast.ColumnRef{Table: alias, Column: c.Name}, Name: c.Name})
			}

			continue
		}

		name := it.Alias
		if name == "" {
			name = displayName(it.Expr)
		}
		out = append(out, ColumnOut{Expr: it.Expr, Name: name})
	}

	return out, nil
}

func displayName(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.ColumnRef:
		return v.Column
	case *ast.FuncCall:
		return aggregateKey(v)
	default:
		return "?column?"
	}
}
