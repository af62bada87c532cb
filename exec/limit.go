package exec

import (
	"context"

	"github.com/lyradb/lyradb/value"
)

// LimitOperator skips Offset rows of its child's output and emits at most
// N (§4.13).
type LimitOperator struct {
	child  Operator
	n      int64
	offset int64

	skipped int64
	emitted int64
}

// NewLimit wraps child with a row count n and a skip count offset.
func NewLimit(child Operator, n, offset int64) *LimitOperator {
	return &LimitOperator{child: child, n: n, offset: offset}
}

func (l *LimitOperator) Fields() []Field { return l.child.Fields() }

func (l *LimitOperator) Open(ctx context.Context) error { return l.child.Open(ctx) }

func (l *LimitOperator) Next(ctx context.Context) (*Batch, error) {
	if l.emitted >= l.n {
		return nil, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		in, err := l.child.Next(ctx)
		if err != nil {
			return nil, err
		}
		if in == nil {
			return nil, nil
		}

		out := NewBatch(in.Fields, in.RowCount)
		for i := 0; i < in.RowCount && l.emitted < l.n; i++ {
			if l.skipped < l.offset {
				l.skipped++

				continue
			}

			out.Append(rowValues(in, i), in.RowIDs[i])
			l.emitted++
		}

		if out.RowCount > 0 {
			return out, nil
		}
		if l.emitted >= l.n {
			return nil, nil
		}
	}
}

func rowValues(b *Batch, i int) []value.Value {
	values := make([]value.Value, len(b.Fields))
	for c := range b.Fields {
		values[c] = b.Columns[c][i]
	}

	return values
}

func (l *LimitOperator) Close() error { return l.child.Close() }
