package plan

import "github.com/lyradb/lyradb/sql/ast"

// Optimize applies every rewrite rule to a fixpoint (§4.11): predicate
// pushdown across Project and into Join children, column pruning from the
// root downward, sort elimination, LIMIT-before-ORDER-BY partial-sort
// substitution, and the zone-map pushdown added in §9a. Joins keep the
// order in which the query wrote them; no rule reorders them.
func Optimize(root *Node) *Node {
	for {
		next, changed := rewriteOnce(root)
		root = next
		if !changed {
			break
		}
	}

	pruneColumns(root, nil)

	return root
}

func rewriteOnce(n *Node) (*Node, bool) {
	if n == nil {
		return nil, false
	}

	changed := false

	n.Child, changed = orChanged(n.Child, changed)
	n.Left, changed = orChanged(n.Left, changed)
	n.Right, changed = orChanged(n.Right, changed)

	switch n.Kind {
	case FilterKind:
		if rewritten, ok := pushFilterIntoJoin(n); ok {
			return rewritten, true
		}
		if rewritten, ok := pruneByZoneMap(n); ok {
			return rewritten, true
		}
	case SortKind:
		if n.Child != nil && n.Child.Kind == SortKind && sameKeys(n.SortKeys, n.Child.SortKeys) {
			return n.Child, true
		}
	case LimitKind:
		if n.Child != nil && n.Child.Kind == SortKind && !n.Child.Partial {
			n.Child.Partial = true
			n.Child.K = n.N + n.Offset

			return n, true
		}
	}

	return n, changed
}

func orChanged(n *Node, changed bool) (*Node, bool) {
	if n == nil {
		return nil, changed
	}
	next, c := rewriteOnce(n)

	return next, changed || c
}

func sameKeys(a, b []ast.OrderKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Direction != b[i].Direction {
			return false
		}
		ac, aok := a[i].Expr.(*ast.ColumnRef)
		bc, bok := b[i].Expr.(*ast.ColumnRef)
		if !aok || !bok || ac.Column != bc.Column {
			return false
		}
	}

	return true
}

// pushFilterIntoJoin splits a Filter sitting directly above a Join into
// per-side conjuncts (§4.11's "predicate pushdown ... into the child of
// Filter"): a conjunct referencing only one side's alias is pushed down as
// a Filter wrapping that side's subtree; any remainder stays at the
// original Filter's position, now wrapping the (possibly rewritten) Join.
func pushFilterIntoJoin(f *Node) (*Node, bool) {
	if f.Child == nil || f.Child.Kind != JoinKind {
		return f, false
	}

	join := f.Child
	leftAliases := collectAliases(join.Left)
	rightAliases := collectAliases(join.Right)

	conjuncts := splitConjuncts(f.Predicate)

	var remaining []ast.Expr
	pushedLeft, pushedRight := false, false

	for _, c := range conjuncts {
		refs := collectColumnAliases(c)
		switch {
		case onlyIn(refs, leftAliases):
			join.Left = &Node{Kind: FilterKind, Child: join.Left, Predicate: c}
			pushedLeft = true
		case onlyIn(refs, rightAliases):
			join.Right = &Node{Kind: FilterKind, Child: join.Right, Predicate: c}
			pushedRight = true
		default:
			remaining = append(remaining, c)
		}
	}

	if !pushedLeft && !pushedRight {
		return f, false
	}

	if len(remaining) == 0 {
		return join, true
	}

	f.Predicate = joinConjuncts(remaining)

	return f, true
}

// pruneByZoneMap recognizes a Filter directly above a Scan whose predicate
// is a range comparison (<, >, <=, >=) on one of the scan's own columns,
// and records it on the Scan node as a zone-map hint (§9a). The engine
// matches the same predicate against each page's min/max statistics and
// restricts the scan to the row ids of pages that can satisfy it; the scan
// still decodes every page. The Filter operator itself still runs,
// unchanged, for correctness — the zone map is a pure acceleration, never
// a substitute for evaluation.
func pruneByZoneMap(f *Node) (*Node, bool) {
	if f.Child == nil || f.Child.Kind != ScanKind {
		return f, false
	}
	if f.Child.ZoneMapPredicate != nil {
		return f, false // already applied
	}

	bin, ok := f.Predicate.(*ast.BinaryOp)
	if !ok || !isRangeOp(bin.Op) {
		return f, false
	}

	col, lit := splitRangeComparison(bin)
	if col == nil || lit == nil {
		return f, false
	}
	if col.Table != "" && col.Table != f.Child.Alias {
		return f, false
	}

	f.Child.ZoneMapPredicate = bin

	return f, true
}

func isRangeOp(op string) bool {
	switch op {
	case "<", ">", "<=", ">=":
		return true
	default:
		return false
	}
}

// splitRangeComparison recognizes `column op literal` or `literal op
// column` and returns the column/literal pair, or (nil, nil) if bin isn't
// shaped that way.
func splitRangeComparison(bin *ast.BinaryOp) (*ast.ColumnRef, *ast.Literal) {
	if col, ok := bin.Left.(*ast.ColumnRef); ok {
		if lit, ok := bin.Right.(*ast.Literal); ok {
			return col, lit
		}
	}
	if col, ok := bin.Right.(*ast.ColumnRef); ok {
		if lit, ok := bin.Left.(*ast.Literal); ok {
			return col, lit
		}
	}

	return nil, nil
}

func splitConjuncts(e ast.Expr) []ast.Expr {
	bin, ok := e.(*ast.BinaryOp)
	if !ok || bin.Op != "AND" {
		return []ast.Expr{e}
	}

	return append(splitConjuncts(bin.Left), splitConjuncts(bin.Right)...)
}

func joinConjuncts(exprs []ast.Expr) ast.Expr {
	result := exprs[0]
	for _, e := range exprs[1:] {
		result = &ast.BinaryOp{Op: "AND", Left: result, Right: e}
	}

	return result
}

func collectAliases(n *Node) map[string]bool {
	out := make(map[string]bool)
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.Kind == ScanKind {
			out[n.Alias] = true
		}
		walk(n.Child)
		walk(n.Left)
		walk(n.Right)
	}
	walk(n)

	return out
}

func collectColumnAliases(e ast.Expr) map[string]bool {
	out := make(map[string]bool)
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch v := e.(type) {
		case *ast.ColumnRef:
			out[v.Table] = true
		case *ast.BinaryOp:
			walk(v.Left)
			walk(v.Right)
		case *ast.UnaryOp:
			walk(v.Operand)
		case *ast.InExpr:
			walk(v.Expr)
			for _, it := range v.List {
				walk(it)
			}
		case *ast.FuncCall:
			for _, a := range v.Args {
				walk(a)
			}
		}
	}
	walk(e)

	return out
}

func onlyIn(refs, aliases map[string]bool) bool {
	if len(refs) == 0 {
		return false
	}
	for a := range refs {
		if !aliases[a] {
			return false
		}
	}

	return true
}

// pruneColumns computes, top-down, the set of columns each Scan actually
// needs and records it on the node (§4.11's "column pruning from the root
// downward"). needed == nil at the call site means "no constraint yet
// observed" (i.e. the root); it accumulates as the walk descends.
func pruneColumns(n *Node, needed map[string]bool) {
	if n == nil {
		return
	}

	switch n.Kind {
	case ProjectKind:
		child := make(map[string]bool)
		for _, c := range n.Columns {
			addRefs(c.Expr, child)
		}
		pruneColumns(n.Child, child)
	case FilterKind:
		child := cloneSet(needed)
		addRefs(n.Predicate, child)
		pruneColumns(n.Child, child)
	case AggregateKind:
		child := make(map[string]bool)
		for _, g := range n.GroupBy {
			addRefs(g, child)
		}
		for _, a := range n.Aggregates {
			addRefs(a.Expr, child)
		}
		pruneColumns(n.Child, child)
	case SortKind:
		child := cloneSet(needed)
		for _, k := range n.SortKeys {
			addRefs(k.Expr, child)
		}
		pruneColumns(n.Child, child)
	case LimitKind:
		pruneColumns(n.Child, needed)
	case JoinKind:
		child := cloneSet(needed)
		addRefs(n.On, child)
		pruneColumns(n.Left, child)
		pruneColumns(n.Right, child)
	case ScanKind:
		if needed == nil {
			n.RequiredColumns = nil

			return
		}
		cols := make([]string, 0, len(needed))
		for c := range needed {
			if c != "" {
				cols = append(cols, c)
			}
		}
		n.RequiredColumns = cols
	}
}

func cloneSet(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func addRefs(e ast.Expr, set map[string]bool) {
	if set == nil || e == nil {
		return
	}
	switch v := e.(type) {
	case *ast.ColumnRef:
		set[v.Column] = true
	case *ast.BinaryOp:
		addRefs(v.Left, set)
		addRefs(v.Right, set)
	case *ast.UnaryOp:
		addRefs(v.Operand, set)
	case *ast.InExpr:
		addRefs(v.Expr, set)
		for _, it := range v.List {
			addRefs(it, set)
		}
	case *ast.FuncCall:
		for _, a := range v.Args {
			addRefs(a, set)
		}
	}
}

// ReferencedTables returns the set of base table names touched anywhere in
// the plan, used by the coordinator to tag result-cache entries (§4.14,
// §4.15).
func ReferencedTables(n *Node) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil {
			return
		}
		if n.Kind == ScanKind && !seen[n.Table] {
			seen[n.Table] = true
			out = append(out, n.Table)
		}
		walk(n.Child)
		walk(n.Left)
		walk(n.Right)
	}
	walk(n)

	return out
}
