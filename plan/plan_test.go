package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/table"
	"github.com/lyradb/lyradb/value"
)

type fakeCatalog map[string]table.Schema

func (c fakeCatalog) Schema(name string) (table.Schema, bool) {
	s, ok := c[name]

	return s, ok
}

func ordersSchema() table.Schema {
	return table.Schema{Columns: []table.ColumnDef{
		{Name: "id"}, {Name: "customer_id"}, {Name: "amount"},
	}}
}

func TestBuildStarExpandsAllColumns(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	sel := &ast.Select{
		Columns: []ast.SelectItem{{Expr: &ast.StarExpr{}}},
		From:    ast.TableRef{Table: "orders"},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)
	require.Equal(t, ProjectKind, root.Kind)
	require.Len(t, root.Columns, 3)
	require.Equal(t, "id", root.Columns[0].Name)
	require.Equal(t, "amount", root.Columns[2].Name)
}

func TestBuildUnknownTableErrors(t *testing.T) {
	cat := fakeCatalog{}
	sel := &ast.Select{From: ast.TableRef{Table: "missing"}}

	_, err := Build(sel, cat)
	require.Error(t, err)
}

func TestBuildWhereWrapsFilter(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	sel := &ast.Select{
		Columns: []ast.SelectItem{{Expr: &ast.ColumnRef{Column: "id"}}},
		From:    ast.TableRef{Table: "orders"},
		Where:   &ast.BinaryOp{Op: ">", Left: &ast.ColumnRef{Column: "amount"}, Right: &ast.Literal{Value: value.Int(0)}},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)
	require.Equal(t, ProjectKind, root.Kind)
	require.Equal(t, FilterKind, root.Child.Kind)
	require.Equal(t, ScanKind, root.Child.Child.Kind)
}

func TestBuildAggregateWithGroupByAndHaving(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	sel := &ast.Select{
		Columns: []ast.SelectItem{
			{Expr: &ast.ColumnRef{Column: "customer_id"}},
			{Expr: &ast.FuncCall{Name: "SUM", IsAggregate: true, Args: []ast.Expr{&ast.ColumnRef{Column: "amount"}}}},
		},
		From:    ast.TableRef{Table: "orders"},
		GroupBy: []ast.Expr{&ast.ColumnRef{Column: "customer_id"}},
		Having:  &ast.BinaryOp{Op: ">", Left: &ast.FuncCall{Name: "SUM", IsAggregate: true, Args: []ast.Expr{&ast.ColumnRef{Column: "amount"}}}, Right: &ast.Literal{Value: value.Int(100)}},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)
	require.Equal(t, ProjectKind, root.Kind)
	require.Equal(t, FilterKind, root.Child.Kind) // HAVING
	require.Equal(t, AggregateKind, root.Child.Child.Kind)
	require.Len(t, root.Child.Child.Aggregates, 1)
	require.Equal(t, "SUM(amount)", root.Child.Child.Aggregates[0].Name)
}

func TestBuildJoinChain(t *testing.T) {
	cat := fakeCatalog{
		"orders":    ordersSchema(),
		"customers": {Columns: []table.ColumnDef{{Name: "id"}, {Name: "name"}}},
	}
	sel := &ast.Select{
		Columns: []ast.SelectItem{{Expr: &ast.StarExpr{}}},
		From:    ast.TableRef{Table: "orders", Alias: "o"},
		Joins: []ast.Join{{
			Kind:  ast.JoinInner,
			Right: ast.TableRef{Table: "customers", Alias: "c"},
			On:    &ast.BinaryOp{Op: "=", Left: &ast.ColumnRef{Table: "o", Column: "customer_id"}, Right: &ast.ColumnRef{Table: "c", Column: "id"}},
		}},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)
	require.Equal(t, ProjectKind, root.Kind)
	require.Equal(t, JoinKind, root.Child.Kind)
}

func TestBuildLimitAndOrderBy(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	sel := &ast.Select{
		Columns:  []ast.SelectItem{{Expr: &ast.ColumnRef{Column: "id"}}},
		From:     ast.TableRef{Table: "orders"},
		OrderBy:  []ast.OrderKey{{Expr: &ast.ColumnRef{Column: "id"}, Direction: ast.Asc}},
		HasLimit: true,
		Limit:    10,
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)
	require.Equal(t, LimitKind, root.Kind)
	require.Equal(t, SortKind, root.Child.Kind)
}

func scanLeaf(n *Node) *Node {
	for n != nil {
		switch n.Kind {
		case ScanKind:
			return n
		case JoinKind:
			return scanLeaf(n.Left)
		default:
			n = n.Child
		}
	}

	return nil
}

func TestOptimizePushesFilterIntoJoinSide(t *testing.T) {
	cat := fakeCatalog{
		"orders":    ordersSchema(),
		"customers": {Columns: []table.ColumnDef{{Name: "id"}, {Name: "name"}}},
	}
	sel := &ast.Select{
		Columns: []ast.SelectItem{{Expr: &ast.StarExpr{}}},
		From:    ast.TableRef{Table: "orders", Alias: "o"},
		Joins: []ast.Join{{
			Kind:  ast.JoinInner,
			Right: ast.TableRef{Table: "customers", Alias: "c"},
			On:    &ast.BinaryOp{Op: "=", Left: &ast.ColumnRef{Table: "o", Column: "customer_id"}, Right: &ast.ColumnRef{Table: "c", Column: "id"}},
		}},
		Where: &ast.BinaryOp{Op: ">", Left: &ast.ColumnRef{Table: "o", Column: "amount"}, Right: &ast.Literal{Value: value.Int(0)}},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)

	optimized := Optimize(root)

	join := optimized.Child
	for join.Kind != JoinKind {
		join = join.Child
	}
	require.Equal(t, FilterKind, join.Left.Kind, "the o.amount > 0 predicate should be pushed onto the left scan")
}

func TestOptimizePrunesByZoneMapOnRangeFilter(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	sel := &ast.Select{
		Columns: []ast.SelectItem{{Expr: &ast.ColumnRef{Column: "id"}}},
		From:    ast.TableRef{Table: "orders"},
		Where:   &ast.BinaryOp{Op: "<", Left: &ast.ColumnRef{Column: "amount"}, Right: &ast.Literal{Value: value.Int(100)}},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)

	optimized := Optimize(root)
	scan := scanLeaf(optimized)
	require.NotNil(t, scan.ZoneMapPredicate)
}

func TestOptimizeEliminatesRedundantSort(t *testing.T) {
	inner := &Node{Kind: ScanKind, Table: "t", Alias: "t"}
	sortKeys := []ast.OrderKey{{Expr: &ast.ColumnRef{Column: "id"}, Direction: ast.Asc}}
	sort1 := &Node{Kind: SortKind, Child: inner, SortKeys: sortKeys}
	sort2 := &Node{Kind: SortKind, Child: sort1, SortKeys: sortKeys}

	optimized := Optimize(sort2)
	require.Equal(t, SortKind, optimized.Kind)
	require.Equal(t, ScanKind, optimized.Child.Kind, "the duplicate inner sort should be eliminated")
}

func TestOptimizeLimitBeforeSortBecomesPartial(t *testing.T) {
	inner := &Node{Kind: ScanKind, Table: "t", Alias: "t"}
	sortKeys := []ast.OrderKey{{Expr: &ast.ColumnRef{Column: "id"}, Direction: ast.Asc}}
	sortNode := &Node{Kind: SortKind, Child: inner, SortKeys: sortKeys}
	limitNode := &Node{Kind: LimitKind, Child: sortNode, N: 5, Offset: 2}

	optimized := Optimize(limitNode)
	require.Equal(t, LimitKind, optimized.Kind)
	require.True(t, optimized.Child.Partial)
	require.Equal(t, int64(7), optimized.Child.K)
}

func TestPruneColumnsRecordsOnlyNeededScanColumns(t *testing.T) {
	cat := fakeCatalog{"orders": ordersSchema()}
	sel := &ast.Select{
		Columns: []ast.SelectItem{{Expr: &ast.ColumnRef{Column: "id"}}},
		From:    ast.TableRef{Table: "orders"},
		Where:   &ast.BinaryOp{Op: ">", Left: &ast.ColumnRef{Column: "amount"}, Right: &ast.Literal{Value: value.Int(0)}},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)

	optimized := Optimize(root)
	scan := scanLeaf(optimized)
	require.ElementsMatch(t, []string{"id", "amount"}, scan.RequiredColumns)
}

func TestReferencedTablesCollectsEveryScan(t *testing.T) {
	cat := fakeCatalog{
		"orders":    ordersSchema(),
		"customers": {Columns: []table.ColumnDef{{Name: "id"}, {Name: "name"}}},
	}
	sel := &ast.Select{
		Columns: []ast.SelectItem{{Expr: &ast.StarExpr{}}},
		From:    ast.TableRef{Table: "orders", Alias: "o"},
		Joins: []ast.Join{{
			Kind:  ast.JoinInner,
			Right: ast.TableRef{Table: "customers", Alias: "c"},
			On:    &ast.BinaryOp{Op: "=", Left: &ast.ColumnRef{Table: "o", Column: "customer_id"}, Right: &ast.ColumnRef{Table: "c", Column: "id"}},
		}},
	}

	root, err := Build(sel, cat)
	require.NoError(t, err)

	tables := ReferencedTables(root)
	require.ElementsMatch(t, []string{"orders", "customers"}, tables)
}
