package exec

import (
	"context"
	"sort"
	"strings"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/eval"
	"github.com/lyradb/lyradb/plan"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/value"
)

// accumulator folds one aggregate function's running state across a group
// (§4.13): count, sum, min, max; avg is derived as sum/count at finalize.
// Every accumulator but COUNT(*) skips null inputs (§8's "Aggregate
// skip-null").
type accumulator struct {
	fn       string
	count    int64
	sum      float64
	sumIsInt bool
	sumInt   int64
	min, max value.Value
	hasRange bool
}

func newAccumulator(fn string) *accumulator { return &accumulator{fn: fn, sumIsInt: true} }

func (a *accumulator) observe(v value.Value, isStarCount bool) {
	if isStarCount {
		a.count++

		return
	}
	if v.IsNull() {
		return
	}

	a.count++

	if v.Kind() == value.KindInt {
		a.sumInt += v.Int()
	} else {
		a.sumIsInt = false
	}
	a.sum += v.Float()

	if !a.hasRange {
		a.min, a.max = v, v
		a.hasRange = true

		return
	}
	if c, ok := value.Compare(v, a.min); ok && c < 0 {
		a.min = v
	}
	if c, ok := value.Compare(v, a.max); ok && c > 0 {
		a.max = v
	}
}

func (a *accumulator) finalize() value.Value {
	switch a.fn {
	case "COUNT":
		return value.Int(a.count)
	case "SUM":
		if a.count == 0 {
			return value.Null()
		}
		if a.sumIsInt {
			return value.Int(a.sumInt)
		}

		return value.Float(a.sum)
	case "AVG":
		if a.count == 0 {
			return value.Null()
		}

		return value.Float(a.sum / float64(a.count))
	case "MIN":
		if !a.hasRange {
			return value.Null()
		}

		return a.min
	case "MAX":
		if !a.hasRange {
			return value.Null()
		}

		return a.max
	default:
		return value.Null()
	}
}

type groupState struct {
	keyValues []value.Value
	accs      []*accumulator
}

// AggregateOperator implements §4.13's GROUP BY / whole-batch aggregation:
// it fully consumes its child (a hash table over the grouping tuple
// inherently requires seeing every row), then emits one output row per
// group (or a single row when there is no GROUP BY).
type AggregateOperator struct {
	child      Operator
	groupBy    []ast.Expr
	aggregates []plan.ColumnOut
	fields     []Field

	groups map[string]*groupState
	order  []string
	pos    int
	done   bool
}

// NewAggregate wraps child with a GROUP BY (possibly empty) and aggregate
// projection list.
func NewAggregate(child Operator, groupBy []ast.Expr, aggregates []plan.ColumnOut) *AggregateOperator {
	fields := make([]Field, 0, len(groupBy)+len(aggregates))
	for i := range groupBy {
		fields = append(fields, Field{Name: groupByName(i)})
	}
	for _, a := range aggregates {
		fields = append(fields, Field{Name: a.Name})
	}

	return &AggregateOperator{child: child, groupBy: groupBy, aggregates: aggregates, fields: fields, groups: make(map[string]*groupState)}
}

func groupByName(i int) string { return "?group" + string(rune('0'+i)) }

func (a *AggregateOperator) Fields() []Field { return a.fields }

func (a *AggregateOperator) Open(ctx context.Context) error { return a.child.Open(ctx) }

func (a *AggregateOperator) Next(ctx context.Context) (*Batch, error) {
	if !a.done {
		if err := a.consume(ctx); err != nil {
			return nil, err
		}
		a.done = true
	}

	if a.pos >= len(a.order) {
		return nil, nil
	}

	out := NewBatch(a.fields, 1)
	g := a.groups[a.order[a.pos]]
	a.pos++

	values := make([]value.Value, 0, len(a.fields))
	values = append(values, g.keyValues...)
	for _, acc := range g.accs {
		values = append(values, acc.finalize())
	}
	out.Append(values, 0)

	return out, nil
}

func (a *AggregateOperator) consume(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := a.child.Next(ctx)
		if err != nil {
			return err
		}
		if b == nil {
			break
		}

		for i := 0; i < b.RowCount; i++ {
			row := b.Row(i)

			keyValues := make([]value.Value, len(a.groupBy))
			for g, expr := range a.groupBy {
				v, err := eval.Eval(expr, row)
				if err != nil {
					return err
				}
				keyValues[g] = v
			}

			key := groupKey(keyValues)
			state, ok := a.groups[key]
			if !ok {
				accs := make([]*accumulator, len(a.aggregates))
				for ai, agg := range a.aggregates {
					fn, ok := agg.Expr.(*ast.FuncCall)
					if !ok {
						return &errs.TypeError{Context: "aggregate", Message: "expected a function call"}
					}
					accs[ai] = newAccumulator(fn.Name)
				}
				state = &groupState{keyValues: keyValues, accs: accs}
				a.groups[key] = state
				a.order = append(a.order, key)
			}

			for ai, agg := range a.aggregates {
				fn := agg.Expr.(*ast.FuncCall)
				if fn.IsStarArg {
					state.accs[ai].observe(value.Null(), true)

					continue
				}
				v, err := eval.Eval(fn.Args[0], row)
				if err != nil {
					return err
				}
				state.accs[ai].observe(v, false)
			}
		}
	}

	if len(a.groupBy) == 0 && len(a.order) == 0 {
		// no rows and no GROUP BY: emit one accumulator row with zero/null
		// aggregates (e.g. COUNT(*) over an empty table is 0).
		accs := make([]*accumulator, len(a.aggregates))
		for ai, agg := range a.aggregates {
			fn := agg.Expr.(*ast.FuncCall)
			accs[ai] = newAccumulator(fn.Name)
		}
		a.groups[""] = &groupState{accs: accs}
		a.order = []string{""}
	}

	sort.Strings(a.order)

	return nil
}

func groupKey(values []value.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.Kind().String() + ":" + v.String()
	}

	return strings.Join(parts, "\x1f")
}

func (a *AggregateOperator) Close() error { return a.child.Close() }
