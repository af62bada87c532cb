package exec

import (
	"context"
	"sort"

	"github.com/lyradb/lyradb/eval"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/value"
)

// SortOperator fully consumes its child, computes a permutation over the
// first sort key (§4.13 — "using the first sort key"), and reorders every
// column to match. When Partial and K are set (LIMIT k pushed below ORDER
// BY per §4.11's rewrite rule), the whole input is still sorted
// (O(n log n)) and then cut to its first k rows.
type SortOperator struct {
	child Operator
	keys  []ast.OrderKey

	partial bool
	k       int64

	rows  []sortedRow
	pos   int
	ready bool
}

type sortedRow struct {
	values []value.Value
	rowID  uint64
}

// NewSort wraps child, ordering by keys (only the first key is compared;
// ties keep input order, i.e. a stable sort).
func NewSort(child Operator, keys []ast.OrderKey) *SortOperator {
	return &SortOperator{child: child, keys: keys}
}

// NewPartialSort is NewSort with a bound k: only the first k rows of the
// sorted output are materialized (§4.11's limit-before-sort rewrite).
func NewPartialSort(child Operator, keys []ast.OrderKey, k int64) *SortOperator {
	return &SortOperator{child: child, keys: keys, partial: true, k: k}
}

func (s *SortOperator) Fields() []Field { return s.child.Fields() }

func (s *SortOperator) Open(ctx context.Context) error { return s.child.Open(ctx) }

func (s *SortOperator) consume(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		b, err := s.child.Next(ctx)
		if err != nil {
			return err
		}
		if b == nil {
			break
		}
		for i := 0; i < b.RowCount; i++ {
			values := make([]value.Value, len(b.Fields))
			for c := range b.Fields {
				values[c] = b.Columns[c][i]
			}
			s.rows = append(s.rows, sortedRow{values: values, rowID: b.RowIDs[i]})
		}
	}

	if len(s.keys) > 0 {
		key := s.keys[0]
		fields := s.child.Fields()

		sort.SliceStable(s.rows, func(i, j int) bool {
			vi, _ := eval.Eval(key.Expr, rowOf(fields, s.rows[i].values))
			vj, _ := eval.Eval(key.Expr, rowOf(fields, s.rows[j].values))

			cmp, ok := value.Compare(vi, vj)
			if !ok {
				// nulls sort last regardless of direction
				if vi.IsNull() && !vj.IsNull() {
					return false
				}

				return vj.IsNull()
			}
			if key.Direction == ast.Desc {
				return cmp > 0
			}

			return cmp < 0
		})
	}

	if s.partial && int64(len(s.rows)) > s.k {
		s.rows = s.rows[:s.k]
	}

	s.ready = true

	return nil
}

func rowOf(fields []Field, values []value.Value) *eval.Row {
	row := eval.NewRow()
	for i, f := range fields {
		row.Set(f.Alias, f.Name, values[i])
	}

	return row
}

func (s *SortOperator) Next(ctx context.Context) (*Batch, error) {
	if !s.ready {
		if err := s.consume(ctx); err != nil {
			return nil, err
		}
	}

	if s.pos >= len(s.rows) {
		return nil, nil
	}

	out := NewBatch(s.Fields(), len(s.rows)-s.pos)
	for s.pos < len(s.rows) {
		r := s.rows[s.pos]
		s.pos++
		out.Append(r.values, r.rowID)
	}

	return out, nil
}

func (s *SortOperator) Close() error { return s.child.Close() }
