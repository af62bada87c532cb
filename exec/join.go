package exec

import (
	"context"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/eval"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/value"
)

// HashJoinOperator materializes the right (build) side into a hash table
// keyed by the join key, then probes with the left (probe) side streaming
// (§4.13). Only INNER and LEFT are supported; LEFT emits unmatched left
// rows with nulls on the right side. Equi-join only — ExtraPredicate, if
// non-nil, is evaluated as an additional per-candidate-pair filter after
// the equi-key match (e.g. a compound ON clause), never as a substitute
// for it.
type HashJoinOperator struct {
	left, right        Operator
	kind               ast.JoinKind
	leftKey, rightKey  ast.Expr
	extraPredicate     ast.Expr

	fields []Field

	buildDone bool
	table     map[string][]joinRow
	rightNull []value.Value

	pendingLeft   *Batch
	pendingLeftAt int
	pendingOut    []joinMatch
	pendingAt     int
}

type joinRow struct {
	values []value.Value
	rowID  uint64
}

type joinMatch struct {
	leftIdx int
	right   joinRow
	matched bool
}

// NewHashJoin builds a HashJoinOperator. leftKey/rightKey are the two
// sides of the equi-join comparison extracted from the ON clause.
func NewHashJoin(left, right Operator, kind ast.JoinKind, leftKey, rightKey, extraPredicate ast.Expr) *HashJoinOperator {
	fields := append(append([]Field{}, left.Fields()...), right.Fields()...)

	rightNull := make([]value.Value, len(right.Fields()))
	for i := range rightNull {
		rightNull[i] = value.Null()
	}

	return &HashJoinOperator{
		left: left, right: right, kind: kind,
		leftKey: leftKey, rightKey: rightKey, extraPredicate: extraPredicate,
		fields: fields, rightNull: rightNull,
	}
}

func (j *HashJoinOperator) Fields() []Field { return j.fields }

func (j *HashJoinOperator) Open(ctx context.Context) error {
	if err := j.left.Open(ctx); err != nil {
		return err
	}

	return j.right.Open(ctx)
}

func (j *HashJoinOperator) buildRightSide(ctx context.Context) error {
	j.table = make(map[string][]joinRow)
	for {
		b, err := j.right.Next(ctx)
		if err != nil {
			return err
		}
		if b == nil {
			break
		}
		for i := 0; i < b.RowCount; i++ {
			key, err := eval.Eval(j.rightKey, b.Row(i))
			if err != nil {
				return err
			}
			if key.IsNull() {
				continue
			}
			k := key.String() + ":" + key.Kind().String()
			values := make([]value.Value, len(b.Fields))
			for c := range b.Fields {
				values[c] = b.Columns[c][i]
			}
			j.table[k] = append(j.table[k], joinRow{values: values, rowID: b.RowIDs[i]})
		}
	}
	j.buildDone = true

	return nil
}

func (j *HashJoinOperator) Next(ctx context.Context) (*Batch, error) {
	if !j.buildDone {
		if err := j.buildRightSide(ctx); err != nil {
			return nil, err
		}
	}

	batchSize := format.DefaultBatchSize

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if j.pendingLeft == nil {
			b, err := j.left.Next(ctx)
			if err != nil {
				return nil, err
			}
			if b == nil {
				return nil, nil
			}
			j.pendingLeft = b
			j.pendingLeftAt = 0
		}

		out := NewBatch(j.fields, batchSize)

		for j.pendingLeftAt < j.pendingLeft.RowCount && out.RowCount < batchSize {
			i := j.pendingLeftAt
			j.pendingLeftAt++

			leftRow := j.pendingLeft.Row(i)
			key, err := eval.Eval(j.leftKey, leftRow)
			if err != nil {
				return nil, err
			}

			leftValues := make([]value.Value, len(j.pendingLeft.Fields))
			for c := range j.pendingLeft.Fields {
				leftValues[c] = j.pendingLeft.Columns[c][i]
			}

			matched := false
			if !key.IsNull() {
				k := key.String() + ":" + key.Kind().String()
				for _, rr := range j.table[k] {
					if j.extraPredicate != nil {
						combined := combineRow(j.pendingLeft.Fields, leftValues, j.right.Fields(), rr.values)
						keep, err := evalExtra(j.extraPredicate, combined)
						if err != nil {
							return nil, err
						}
						if !keep {
							continue
						}
					}
					matched = true
					out.Append(append(append([]value.Value(nil), leftValues...), rr.values...), j.pendingLeft.RowIDs[i])
				}
			}

			if !matched && j.kind == ast.JoinLeft {
				out.Append(append(append([]value.Value(nil), leftValues...), j.rightNull...), j.pendingLeft.RowIDs[i])
			}
		}

		if j.pendingLeftAt >= j.pendingLeft.RowCount {
			j.pendingLeft = nil
		}

		if out.RowCount > 0 {
			return out, nil
		}
		if j.pendingLeft == nil {
			continue // pull the next left batch
		}
	}
}

func combineRow(leftFields []Field, leftValues []value.Value, rightFields []Field, rightValues []value.Value) *eval.Row {
	row := eval.NewRow()
	for i, f := range leftFields {
		row.Set(f.Alias, f.Name, leftValues[i])
	}
	for i, f := range rightFields {
		row.Set(f.Alias, f.Name, rightValues[i])
	}

	return row
}

func evalExtra(pred ast.Expr, row *eval.Row) (bool, error) {
	v, err := eval.Eval(pred, row)
	if err != nil {
		return false, err
	}

	truthy, ok := value.IsTruthy(v)

	return ok && truthy, nil
}

func (j *HashJoinOperator) Close() error {
	if err := j.left.Close(); err != nil {
		return err
	}

	return j.right.Close()
}

// ErrUnsupportedJoin is returned by the plan compiler when an ON clause
// has no equi-join conjunct relating the two sides (§4.13: "Equi-join
// only").
var ErrUnsupportedJoin = &errs.TypeError{Context: "join", Message: "ON clause has no equi-join predicate relating both sides"}
