package table

import (
	"golang.org/x/sync/errgroup"

	"github.com/lyradb/lyradb/column"
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/storage"
	"github.com/lyradb/lyradb/value"
)

// Table is the in-memory, queryable view of one table: its schema, one
// column.Writer per column holding the base (pre-overlay) data, and the
// overlay realizing UPDATE/DELETE (§3, §4.6a).
type Table struct {
	Name    string
	Schema  Schema
	BaseDir string

	columns []*column.Writer
	overlay *Overlay
}

// New creates an empty Table ready for inserts.
func New(name string, schema Schema, baseDir string) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	cols := make([]*column.Writer, len(schema.Columns))
	for i, c := range schema.Columns {
		opts := []column.WriterOption{}
		if c.Type == format.TypeString {
			opts = append(opts, column.WithBloomFilter())
		}
		cols[i] = column.NewWriter(c.Name, uint32(i), c.Type, opts...)
	}

	return &Table{Name: name, Schema: schema, BaseDir: baseDir, columns: cols, overlay: NewOverlay()}, nil
}

// InsertRow appends one row to the overlay's append-only row vector, so it
// is immediately visible to scans without requiring the base pages to be
// re-finalized.
func (t *Table) InsertRow(values []value.Value) error {
	if len(values) != len(t.Schema.Columns) {
		return &errs.TypeError{Context: t.Name, Message: "row arity does not match schema"}
	}

	t.InsertRowAt(values)

	return nil
}

// BaseRowCount returns the number of rows committed to finalized base
// pages (excludes overlay rows).
func (t *Table) BaseRowCount() uint64 {
	if len(t.columns) == 0 {
		return 0
	}

	return t.columns[0].RowCount()
}

// Overlay exposes the table's row-level overlay.
func (t *Table) Overlay() *Overlay { return t.overlay }

// ColumnWriter returns the in-progress base column writer for colIdx.
func (t *Table) ColumnWriter(colIdx int) *column.Writer { return t.columns[colIdx] }

// RowCount returns the total visible row count: base rows not tombstoned,
// plus overlay rows.
func (t *Table) RowCount() uint64 {
	base := t.BaseRowCount()
	live := uint64(0)
	for i := uint64(0); i < base; i++ {
		if !t.overlay.IsTombstoned(i) {
			live++
		}
	}

	return live + uint64(len(t.overlay.Rows()))
}

// Column reads every live value of one column, base pages first (skipping
// tombstoned row ids) followed by overlay rows in append order — the scan
// order described in §4.6a.
func (t *Table) Column(colIdx int) ([]value.Value, error) {
	cw := t.columns[colIdx]
	reader := column.NewReader(t.Schema.Columns[colIdx].Type, cw.Pages(), cw.NullBitmap())

	out := make([]value.Value, 0, t.RowCount())

	rowID := uint64(0)
	for p := 0; p < reader.PageCount(); p++ {
		vals, err := reader.ReadPage(p)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			if !t.overlay.IsTombstoned(rowID) {
				out = append(out, v)
			}
			rowID++
		}
	}

	for _, r := range t.overlay.Rows() {
		if !t.overlay.IsTombstoned(r.RowID) {
			out = append(out, r.Values[colIdx])
		}
	}

	return out, nil
}

// Rows materializes every live row as a (rowID, values) pair, base rows
// first then overlay rows, for use by predicate evaluation in UPDATE and
// DELETE (§4.6a).
func (t *Table) Rows() ([]RowOverlay, error) {
	out := make([]RowOverlay, 0, t.RowCount())

	cols := make([][]value.Value, len(t.columns))
	for i := range t.columns {
		vals, err := t.rawBaseColumn(i)
		if err != nil {
			return nil, err
		}
		cols[i] = vals
	}

	base := t.BaseRowCount()
	for row := uint64(0); row < base; row++ {
		if t.overlay.IsTombstoned(row) {
			continue
		}
		values := make([]value.Value, len(cols))
		for i := range cols {
			values[i] = cols[i][row]
		}
		out = append(out, RowOverlay{RowID: row, Values: values})
	}

	for _, r := range t.overlay.Rows() {
		if !t.overlay.IsTombstoned(r.RowID) {
			out = append(out, r)
		}
	}

	return out, nil
}

// rawBaseColumn reads one base column's values without consulting the
// overlay tombstone set (used internally by Rows, which applies it once
// across all columns together).
func (t *Table) rawBaseColumn(colIdx int) ([]value.Value, error) {
	cw := t.columns[colIdx]
	reader := column.NewReader(t.Schema.Columns[colIdx].Type, cw.Pages(), cw.NullBitmap())

	out := make([]value.Value, 0, cw.RowCount())
	for p := 0; p < reader.PageCount(); p++ {
		vals, err := reader.ReadPage(p)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}

	return out, nil
}

// DeleteByRowID tombstones a row, visible to both base and overlay rows
// since both share the same row id space (§4.6a).
func (t *Table) DeleteByRowID(rowID uint64) { t.overlay.Tombstone(rowID) }

// ReplaceByRowID tombstones the old row and appends its replacement to the
// overlay, realizing UPDATE without mutating any finalized page (§4.6a).
func (t *Table) ReplaceByRowID(rowID uint64, values []value.Value) {
	t.overlay.Tombstone(rowID)
	t.InsertRowAt(values)
}

// InsertRowAt is InsertRow without the arity check, used internally by
// ReplaceByRowID which already knows the row shape is valid.
func (t *Table) InsertRowAt(values []value.Value) {
	rowID := t.BaseRowCount() + uint64(len(t.overlay.Rows()))
	t.overlay.Append(rowID, values)
}

// PrunedRowIDs returns the set of row ids that a zone-map range predicate
// [lo, hi] on the column at colIdx cannot rule out (§9a): a base page
// whose recorded min/max statistics don't intersect [lo, hi] contributes
// no row ids, without decoding that page's body. Overlay rows are always
// included since they're already resident in memory.
func (t *Table) PrunedRowIDs(colIdx int, lo, hi value.Value) map[uint64]bool {
	cw := t.columns[colIdx]

	out := make(map[uint64]bool)
	rowID := uint64(0)
	for _, p := range cw.Pages() {
		if p.Stats.MayContainRange(lo, hi) {
			for i := uint32(0); i < p.RowCount; i++ {
				out[rowID+uint64(i)] = true
			}
		}
		rowID += uint64(p.RowCount)
	}

	for _, r := range t.overlay.Rows() {
		out[r.RowID] = true
	}

	return out
}

// BloomPrunedRowIDs returns the set of row ids that an equality predicate
// `column = probe` on a string column cannot rule out (§9a): a page whose
// bloom filter reports probe absent contributes no row ids, without
// decoding that page's body. A page with no bloom filter (a non-string
// column, or one written without column.WithBloomFilter) is conservatively
// included in full. Overlay rows are always included since they're
// already resident in memory.
func (t *Table) BloomPrunedRowIDs(colIdx int, probe string) map[uint64]bool {
	cw := t.columns[colIdx]
	needle := []byte(probe)

	out := make(map[uint64]bool)
	rowID := uint64(0)
	for _, p := range cw.Pages() {
		if p.Bloom == nil || p.Bloom.MightContain(needle) {
			for i := uint32(0); i < p.RowCount; i++ {
				out[rowID+uint64(i)] = true
			}
		}
		rowID += uint64(p.RowCount)
	}

	for _, r := range t.overlay.Rows() {
		out[r.RowID] = true
	}

	return out
}

// ColumnCardinality returns the table-wide distinct-value estimate for the
// column at colIdx (the max per-page sketch estimate across its pages,
// the same figure table.Persist records into TableStatistics), used by
// the index advisor (§4.8) and CREATE INDEX's kind recommendation (§4.7).
func (t *Table) ColumnCardinality(colIdx int) uint64 {
	return distinctEstimate(t.columns[colIdx])
}

// Finalize flushes every column's in-progress page, without folding the
// overlay (call Compact for that).
func (t *Table) Finalize() error {
	for _, cw := range t.columns {
		if err := cw.Finalize(); err != nil {
			return err
		}
	}

	return nil
}

// Persist folds the overlay into fresh base pages (Compact) and writes the
// table's companion `.lycol` files plus its `.lyta` manifest under BaseDir,
// the on-disk counterpart of an in-memory Table (§4.6, §6's Flush/Compact
// API). The table remains fully usable afterward with a cleared overlay.
func (t *Table) Persist() (TableStatistics, error) {
	if err := t.Compact(); err != nil {
		return TableStatistics{}, err
	}

	stats := TableStatistics{TableName: t.Name, TotalRows: t.RowCount(), TotalColumns: uint32(len(t.columns))}

	colMeta := make([]storage.TableColumnMetadata, len(t.columns))
	for i, cw := range t.columns {
		size, err := writeColumnFile(t.BaseDir, t.Name, t.Schema.Columns[i], cw)
		if err != nil {
			return TableStatistics{}, err
		}

		colMeta[i] = storage.TableColumnMetadata{
			ColumnID:  uint32(i),
			Size:      size,
			PageCount: uint32(len(cw.Pages())),
		}

		nullCount := cw.NullBitmap().PopCount()
		stats.PerColumn = append(stats.PerColumn, storage.ColumnStat{
			Name:        t.Schema.Columns[i].Name,
			NullCount:   uint64(nullCount),
			DistinctEst: distinctEstimate(cw),
		})
		stats.BytesAfterCompress += size
	}

	if err := writeTableFile(t.BaseDir, t.Name, t.Schema, colMeta, stats); err != nil {
		return TableStatistics{}, err
	}

	return stats, nil
}

// Compact rewrites the table's base columns from every currently live row
// (base pages minus tombstones, plus overlay rows) and clears the overlay,
// folding UPDATE/DELETE history into fresh immutable pages (§4.6, §4.6a).
func (t *Table) Compact() error {
	rows, err := t.Rows()
	if err != nil {
		return err
	}

	newColumns := make([]*column.Writer, len(t.Schema.Columns))
	for i, c := range t.Schema.Columns {
		opts := []column.WriterOption{}
		if c.Type == format.TypeString {
			opts = append(opts, column.WithBloomFilter())
		}
		newColumns[i] = column.NewWriter(c.Name, uint32(i), c.Type, opts...)
	}

	for _, row := range rows {
		for i, v := range row.Values {
			var appendErr error
			if v.IsNull() {
				appendErr = newColumns[i].AppendNull()
			} else {
				appendErr = newColumns[i].AppendValue(v)
			}
			if appendErr != nil {
				return appendErr
			}
		}
	}

	// Each column's codec selection and page encoding is independent of the
	// others, so fan Finalize out across columns during compaction.
	var g errgroup.Group
	for _, cw := range newColumns {
		cw := cw
		g.Go(cw.Finalize)
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t.columns = newColumns
	t.overlay.Clear()

	return nil
}
