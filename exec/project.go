package exec

import (
	"context"

	"github.com/lyradb/lyradb/eval"
	"github.com/lyradb/lyradb/plan"
	"github.com/lyradb/lyradb/value"
)

// ProjectOperator selects and reorders columns, re-indexing the batch's
// column map to the projected expressions (§4.13).
type ProjectOperator struct {
	child   Operator
	columns []plan.ColumnOut
	fields  []Field
}

// NewProject wraps child, evaluating columns for each output row.
func NewProject(child Operator, columns []plan.ColumnOut) *ProjectOperator {
	fields := make([]Field, len(columns))
	for i, c := range columns {
		fields[i] = Field{Name: c.Name}
	}

	return &ProjectOperator{child: child, columns: columns, fields: fields}
}

func (p *ProjectOperator) Fields() []Field { return p.fields }

func (p *ProjectOperator) Open(ctx context.Context) error { return p.child.Open(ctx) }

func (p *ProjectOperator) Next(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in, err := p.child.Next(ctx)
	if err != nil {
		return nil, err
	}
	if in == nil {
		return nil, nil
	}

	out := NewBatch(p.fields, in.RowCount)
	for i := 0; i < in.RowCount; i++ {
		row := in.Row(i)

		values := make([]value.Value, len(p.columns))
		for c, col := range p.columns {
			v, err := eval.Eval(col.Expr, row)
			if err != nil {
				return nil, err
			}
			values[c] = v
		}

		out.Append(values, in.RowIDs[i])
	}

	return out, nil
}

func (p *ProjectOperator) Close() error { return p.child.Close() }
