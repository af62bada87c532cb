// Package exec implements the vectorized physical operators described in
// §4.13: Scan, Filter, Project, hash Join, Aggregate, Sort, and Limit,
// each pulling fixed-size batches from its child and preserving the
// cross-column row-order invariant within a batch.
package exec

import (
	"context"

	"github.com/lyradb/lyradb/eval"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/value"
)

// Field names one column of a Batch: its table alias (empty for a
// post-Project/Aggregate output column) and its column name.
type Field struct {
	Alias string
	Name  string
}

// Batch is a vectorized slice of rows: one []value.Value per Field, all of
// length RowCount, plus each source row's id (used by UPDATE/DELETE and by
// the overlay-aware scan). Cross-column order is an invariant every
// operator must preserve in its output (§4.13).
type Batch struct {
	Fields   []Field
	Columns  [][]value.Value
	RowIDs   []uint64
	RowCount int
}

// NewBatch allocates an empty batch with the given fields and capacity.
func NewBatch(fields []Field, capacity int) *Batch {
	cols := make([][]value.Value, len(fields))
	for i := range cols {
		cols[i] = make([]value.Value, 0, capacity)
	}

	return &Batch{Fields: fields, Columns: cols, RowIDs: make([]uint64, 0, capacity)}
}

// ColIndex returns the field index matching (alias, name), resolving an
// unqualified name against any field sharing that Name when alias is
// empty or doesn't match directly, or -1 if not found.
func (b *Batch) ColIndex(alias, name string) int {
	if alias != "" {
		for i, f := range b.Fields {
			if f.Alias == alias && f.Name == name {
				return i
			}
		}
	}
	for i, f := range b.Fields {
		if f.Name == name {
			return i
		}
	}

	return -1
}

// Row builds an eval.Row for row i of the batch.
func (b *Batch) Row(i int) *eval.Row {
	row := eval.NewRow()
	for c, f := range b.Fields {
		row.Set(f.Alias, f.Name, b.Columns[c][i])
	}

	return row
}

// Append adds one row (in field order) plus its source row id to the batch.
func (b *Batch) Append(values []value.Value, rowID uint64) {
	for i, v := range values {
		b.Columns[i] = append(b.Columns[i], v)
	}
	b.RowIDs = append(b.RowIDs, rowID)
	b.RowCount++
}

// Operator is a pull-based vectorized physical operator (§4.13, §5: the
// cancellation flag is a context.Context checked only between batches).
type Operator interface {
	Open(ctx context.Context) error
	// Next returns the next batch, or a nil batch with a nil error at
	// end of input.
	Next(ctx context.Context) (*Batch, error)
	Close() error
	// Fields reports the operator's output schema.
	Fields() []Field
}

// QueryResult is the coordinator-facing materialized result of a read
// query (§4.14, §4.15): column names and row-major values.
type QueryResult struct {
	Columns []string
	Rows    [][]value.Value
}

// ByteFootprint estimates r's in-memory size for the result cache's
// byte-capacity accounting (§4.14).
func (r *QueryResult) ByteFootprint() int64 {
	size := int64(0)
	for _, row := range r.Rows {
		for _, v := range row {
			size += valueFootprint(v)
		}
	}

	return size
}

func valueFootprint(v value.Value) int64 {
	switch v.Kind() {
	case value.KindString:
		return int64(len(v.Str())) + 16
	default:
		return 16
	}
}

// rowCountHintUnknown names the batch-size default as a row-count hint for
// where a cardinality estimate isn't available; nothing in exec uses it.
const rowCountHintUnknown = format.DefaultBatchSize
