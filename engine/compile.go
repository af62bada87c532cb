package engine

import (
	"math"

	"github.com/lyradb/lyradb/advisor"
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/exec"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/index"
	"github.com/lyradb/lyradb/plan"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/table"
	"github.com/lyradb/lyradb/value"
)

// compile lowers an optimized plan.Node tree into a tree of exec.Operator
// (§4.13), resolving each Scan against the live table registry, applying
// the zone-map hint left by plan.Optimize (§9a), and opportunistically
// accelerating an equality Filter directly above a Scan through a
// registered index (§4.7, §4.8).
func (d *Database) compile(n *plan.Node) (exec.Operator, error) {
	switch n.Kind {
	case plan.ScanKind:
		return d.compileScan(n)
	case plan.FilterKind:
		child, err := d.compile(n.Child)
		if err != nil {
			return nil, err
		}
		if scanOp, ok := child.(*exec.ScanOperator); ok {
			d.applyIndexFilter(n, scanOp)
		}

		return exec.NewFilter(child, n.Predicate), nil
	case plan.ProjectKind:
		child, err := d.compile(n.Child)
		if err != nil {
			return nil, err
		}

		return exec.NewProject(child, n.Columns), nil
	case plan.JoinKind:
		left, err := d.compile(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.compile(n.Right)
		if err != nil {
			return nil, err
		}

		leftKey, rightKey, extra, ok := splitEquiJoin(n.On, n.Left.Alias, n.Right.Alias)
		if !ok {
			return nil, exec.ErrUnsupportedJoin
		}

		return exec.NewHashJoin(left, right, n.JoinKind, leftKey, rightKey, extra), nil
	case plan.AggregateKind:
		child, err := d.compile(n.Child)
		if err != nil {
			return nil, err
		}

		return exec.NewAggregate(child, n.GroupBy, n.Aggregates), nil
	case plan.SortKind:
		child, err := d.compile(n.Child)
		if err != nil {
			return nil, err
		}
		if n.Partial {
			return exec.NewPartialSort(child, n.SortKeys, n.K), nil
		}

		return exec.NewSort(child, n.SortKeys), nil
	case plan.LimitKind:
		child, err := d.compile(n.Child)
		if err != nil {
			return nil, err
		}

		return exec.NewLimit(child, n.N, n.Offset), nil
	default:
		return nil, &errs.TypeError{Context: "compile", Message: "unknown plan node kind"}
	}
}

func (d *Database) compileScan(n *plan.Node) (*exec.ScanOperator, error) {
	t, err := d.table(n.Table)
	if err != nil {
		return nil, err
	}

	op := exec.NewScan(t, n.Alias, d.batchSize)

	if n.ZoneMapPredicate != nil {
		if filter, ok := d.zoneMapRowFilter(t, n.Alias, n.ZoneMapPredicate); ok {
			op.RowIDFilter = filter
		}
	}

	return op, nil
}

// zoneMapRowFilter converts a pushed-down range predicate into a row-id
// inclusion set via table.PrunedRowIDs (§9a). Only numeric columns are
// supported: value.Compare's cross-kind numeric coercion lets a +/-Inf
// sentinel stand in for a missing bound, but it gives no such sentinel for
// strings, so a range predicate over a string column is simply left
// unaccelerated (the Filter operator above still evaluates it correctly).
func (d *Database) zoneMapRowFilter(t *table.Table, alias string, predicate ast.Expr) (map[uint64]bool, bool) {
	bin, ok := predicate.(*ast.BinaryOp)
	if !ok {
		return nil, false
	}

	col, lit, swapped := splitRangeComparison(bin)
	if col == nil {
		return nil, false
	}
	if col.Table != "" && col.Table != alias {
		return nil, false
	}

	switch lit.Value.Kind() {
	case value.KindInt, value.KindFloat:
	default:
		return nil, false
	}

	colIdx := t.Schema.ColumnIndex(col.Column)
	if colIdx < 0 {
		return nil, false
	}

	op := bin.Op
	if swapped {
		op = flipOp(op)
	}

	lo := value.Float(math.Inf(-1))
	hi := value.Float(math.Inf(1))

	switch op {
	case "<", "<=":
		hi = lit.Value
	case ">", ">=":
		lo = lit.Value
	default:
		return nil, false
	}

	return t.PrunedRowIDs(colIdx, lo, hi), true
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	default:
		return op
	}
}

// splitRangeComparison mirrors plan's private rule of the same name: it
// recognizes `column op literal` or `literal op column`, reporting swapped
// so the caller can flip the operator to keep the column on the left.
func splitRangeComparison(bin *ast.BinaryOp) (*ast.ColumnRef, *ast.Literal, bool) {
	if col, ok := bin.Left.(*ast.ColumnRef); ok {
		if lit, ok := bin.Right.(*ast.Literal); ok {
			return col, lit, false
		}
	}
	if col, ok := bin.Right.(*ast.ColumnRef); ok {
		if lit, ok := bin.Left.(*ast.Literal); ok {
			return col, lit, true
		}
	}

	return nil, nil, false
}

// applyIndexFilter recognizes `column = literal` or `column != literal`
// directly above a Scan and asks advisor.Recommend to pick the cheapest
// strategy among full scan and every index registered on that column
// (§4.7, §4.8): a low-selectivity `!=`, or no index at all, falls back to
// (possibly bloom-accelerated) full scan; otherwise the chosen index's
// search results are unioned with every currently-live overlay row id
// (rows appended since the index was built aren't indexed yet, so they
// must never be excluded — §4.6a) and installed as the scan's row-id
// filter.
func (d *Database) applyIndexFilter(f *plan.Node, scanOp *exec.ScanOperator) {
	bin, ok := f.Predicate.(*ast.BinaryOp)
	if !ok || (bin.Op != "=" && bin.Op != "!=") {
		return
	}

	col, lit, _ := splitEquality(bin)
	if col == nil {
		return
	}
	if col.Table != "" && col.Table != f.Child.Alias {
		return
	}

	t, err := d.table(f.Child.Table)
	if err != nil {
		return
	}

	candidates := d.indexes.IndexesOnColumn(f.Child.Table, col.Column)
	if len(candidates) == 0 {
		d.applyBloomFilter(t, col, bin.Op, lit, scanOp)

		return
	}

	op := advisor.OpEq
	if bin.Op == "!=" {
		op = advisor.OpNeq
	}

	colIdx := t.Schema.ColumnIndex(col.Column)
	var cardinality uint64
	if colIdx >= 0 {
		cardinality = t.ColumnCardinality(colIdx)
	}

	pred := advisor.Predicate{Column: col.Column, Op: op, Cardinality: cardinality}
	est := d.advisor.Recommend(pred, t.RowCount(), candidates)
	if est.Strategy == advisor.StrategyFullScan || len(est.IndexesUsed) == 0 || bin.Op != "=" {
		// Selectivity guard picked full scan (§8 scenario 5), or the
		// predicate is `!=`, which no index here accelerates directly
		// (an index only narrows to the matching keys, the opposite of
		// what `!=` needs).
		return
	}

	var ix *index.Info
	for _, c := range candidates {
		if c.Name == est.IndexesUsed[0] {
			ix = c

			break
		}
	}
	if ix == nil {
		return
	}

	var matches []uint64
	switch ix.Kind {
	case index.KindHash:
		matches = ix.Hash.Search(lit.Value)
	case index.KindBitmap:
		matches = ix.Bitmap.Search(lit.Value)
	case index.KindBTree:
		matches = ix.BTree.Search(lit.Value)
	default:
		return
	}

	if n := t.RowCount(); n > 0 {
		d.advisor.Observe(col.Column, advisor.OpEq, float64(len(matches))/float64(n))
	}

	filter := make(map[uint64]bool, len(matches))
	for _, id := range matches {
		filter[id] = true
	}
	for id := range scanOp.RowIDFilter {
		filter[id] = true // already-narrowed zone-map set stays honored
	}
	for _, r := range t.Overlay().Rows() {
		filter[r.RowID] = true
	}

	scanOp.RowIDFilter = filter
}

// applyBloomFilter is the fallback §9a pre-filter for an equality
// predicate on a string column with no index registered: each page's
// bloom filter rules out whole pages that cannot contain the probed
// value before falling through to a full scan over the rest. Anything
// else (non-string probe, `!=`, an unresolved column) is left for the
// Filter operator to evaluate directly.
func (d *Database) applyBloomFilter(t *table.Table, col *ast.ColumnRef, op string, lit *ast.Literal, scanOp *exec.ScanOperator) {
	if op != "=" || lit.Value.Kind() != value.KindString {
		return
	}

	colIdx := t.Schema.ColumnIndex(col.Column)
	if colIdx < 0 || t.Schema.Columns[colIdx].Type != format.TypeString {
		return
	}

	filter := t.BloomPrunedRowIDs(colIdx, lit.Value.Str())
	for id := range scanOp.RowIDFilter {
		filter[id] = true
	}

	scanOp.RowIDFilter = filter
}

func splitEquality(bin *ast.BinaryOp) (*ast.ColumnRef, *ast.Literal, bool) {
	if col, ok := bin.Left.(*ast.ColumnRef); ok {
		if lit, ok := bin.Right.(*ast.Literal); ok {
			return col, lit, false
		}
	}
	if col, ok := bin.Right.(*ast.ColumnRef); ok {
		if lit, ok := bin.Left.(*ast.Literal); ok {
			return col, lit, true
		}
	}

	return nil, nil, false
}

// splitEquiJoin extracts the two sides of an equi-join ON clause: a
// top-level `leftAlias.col = rightAlias.col` conjunct becomes (leftKey,
// rightKey), with anything else in the (AND-only) conjunction folded into
// extra, evaluated as a post-match filter per exec.NewHashJoin's contract.
func splitEquiJoin(on ast.Expr, leftAlias, rightAlias string) (leftKey, rightKey, extra ast.Expr, ok bool) {
	conjuncts := flattenAnd(on)

	var remaining []ast.Expr
	for _, c := range conjuncts {
		bin, isBin := c.(*ast.BinaryOp)
		if isBin && bin.Op == "=" && leftKey == nil {
			if lc, lok := bin.Left.(*ast.ColumnRef); lok {
				if rc, rok := bin.Right.(*ast.ColumnRef); rok {
					if lc.Table == leftAlias && rc.Table == rightAlias {
						leftKey, rightKey = lc, rc

						continue
					}
					if lc.Table == rightAlias && rc.Table == leftAlias {
						leftKey, rightKey = rc, lc

						continue
					}
				}
			}
		}
		remaining = append(remaining, c)
	}

	if leftKey == nil {
		return nil, nil, nil, false
	}
	if len(remaining) > 0 {
		extra = remaining[0]
		for _, e := range remaining[1:] {
			extra = &ast.BinaryOp{Op: "AND", Left: extra, Right: e}
		}
	}

	return leftKey, rightKey, extra, true
}

func flattenAnd(e ast.Expr) []ast.Expr {
	bin, ok := e.(*ast.BinaryOp)
	if !ok || bin.Op != "AND" {
		return []ast.Expr{e}
	}

	return append(flattenAnd(bin.Left), flattenAnd(bin.Right)...)
}
