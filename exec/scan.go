package exec

import (
	"context"

	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/table"
	"github.com/lyradb/lyradb/value"
)

// ScanOperator reads every live row of a table.Table (base pages minus
// tombstones, plus overlay rows, per §4.6a) and emits it in fixed-size
// batches (§4.13's Scan). RowIDFilter, when non-nil, restricts the scan to
// exactly that row-id set, letting the coordinator drive an index-selected
// scan through the same operator (§4.8's cost-based strategies all still
// terminate in a Scan).
type ScanOperator struct {
	tbl       *table.Table
	alias     string
	batchSize int

	RowIDFilter map[uint64]bool // nil means "every live row"

	rows []table.RowOverlay
	pos  int
	cols []string // schema column names in order
}

// NewScan creates a ScanOperator over tbl, emitting fields under alias.
func NewScan(tbl *table.Table, alias string, batchSize int) *ScanOperator {
	if batchSize <= 0 {
		batchSize = format.DefaultBatchSize
	}

	cols := make([]string, len(tbl.Schema.Columns))
	for i, c := range tbl.Schema.Columns {
		cols[i] = c.Name
	}

	return &ScanOperator{tbl: tbl, alias: alias, batchSize: batchSize, cols: cols}
}

func (s *ScanOperator) Fields() []Field {
	out := make([]Field, len(s.cols))
	for i, c := range s.cols {
		out[i] = Field{Alias: s.alias, Name: c}
	}

	return out
}

func (s *ScanOperator) Open(ctx context.Context) error {
	rows, err := s.tbl.Rows()
	if err != nil {
		return err
	}
	s.rows = rows
	s.pos = 0

	return nil
}

func (s *ScanOperator) Next(ctx context.Context) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.pos >= len(s.rows) {
		return nil, nil
	}

	batch := NewBatch(s.Fields(), s.batchSize)
	for s.pos < len(s.rows) && batch.RowCount < s.batchSize {
		row := s.rows[s.pos]
		s.pos++

		if s.RowIDFilter != nil && !s.RowIDFilter[row.RowID] {
			continue
		}

		batch.Append(append([]value.Value(nil), row.Values...), row.RowID)
	}

	if batch.RowCount == 0 {
		return s.Next(ctx)
	}

	return batch, nil
}

func (s *ScanOperator) Close() error { return nil }
