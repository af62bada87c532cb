package exec

import (
	"context"

	"github.com/lyradb/lyradb/eval"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/value"
)

// FilterOperator evaluates Predicate over every row of its child's batches
// into a boolean selection vector and gathers survivors (§4.13). The
// scalar path here is the correctness reference the spec calls for; no
// SIMD path is implemented.
type FilterOperator struct {
	child     Operator
	predicate ast.Expr
}

// NewFilter wraps child with a row predicate.
func NewFilter(child Operator, predicate ast.Expr) *FilterOperator {
	return &FilterOperator{child: child, predicate: predicate}
}

func (f *FilterOperator) Fields() []Field { return f.child.Fields() }

func (f *FilterOperator) Open(ctx context.Context) error { return f.child.Open(ctx) }

func (f *FilterOperator) Next(ctx context.Context) (*Batch, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in, err := f.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		if in == nil {
			return nil, nil
		}

		out := NewBatch(in.Fields, in.RowCount)
		for i := 0; i < in.RowCount; i++ {
			keep, err := f.evalKeep(in, i)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}

			values := make([]value.Value, len(in.Fields))
			for c := range in.Fields {
				values[c] = in.Columns[c][i]
			}
			out.Append(values, in.RowIDs[i])
		}

		if out.RowCount > 0 {
			return out, nil
		}
		// this batch had no survivors; pull the next one rather than
		// returning an empty batch (keeps callers from special-casing).
	}
}

func (f *FilterOperator) evalKeep(b *Batch, i int) (bool, error) {
	v, err := eval.Eval(f.predicate, b.Row(i))
	if err != nil {
		return false, err
	}

	truthy, ok := value.IsTruthy(v)

	return ok && truthy, nil
}

func (f *FilterOperator) Close() error { return f.child.Close() }
