package table

import (
	"os"
	"path/filepath"

	"github.com/lyradb/lyradb/column"
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/storage"
	"github.com/lyradb/lyradb/value"
)

// Writer instantiates one column.Writer per schema column, writing each to
// its own companion `.lycol` file under baseDir, then assembles and writes
// the table's `.lyta` manifest on Finalize (§4.6).
type Writer struct {
	name    string
	schema  Schema
	baseDir string

	columns []*column.Writer
	rows    uint64
}

// NewWriter instantiates one ColumnWriter per column (§4.6's
// `TableWriter(filepath, schema, base_dir)`).
func NewWriter(name string, schema Schema, baseDir string) (*Writer, error) {
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

	return &Writer{name: name, schema: schema, baseDir: baseDir, columns: cols}, nil
}

// AppendRow appends one row's values in schema column order.
func (w *Writer) AppendRow(values []value.Value) error {
	if len(values) != len(w.columns) {
		return &errs.TypeError{Context: w.name, Message: "row arity does not match schema"}
	}

	for i, v := range values {
		var err error
		if v.IsNull() {
			err = w.columns[i].AppendNull()
		} else {
			err = w.columns[i].AppendValue(v)
		}
		if err != nil {
			return err
		}
	}

	w.rows++

	return nil
}

// ColumnWriter returns the column writer for colID (§4.6's
// `write_column_pages`), for callers appending to one column directly
// rather than row-at-a-time.
func (w *Writer) ColumnWriter(colID int) *column.Writer { return w.columns[colID] }

// Finalize closes every column writer, writes each companion `.lycol`
// file, assembles the manifest, and writes the `.lyta` table file (§4.6).
func (w *Writer) Finalize() (TableStatistics, error) {
	stats := TableStatistics{TableName: w.name, TotalRows: w.rows, TotalColumns: uint32(len(w.columns))}

	colMeta := make([]storage.TableColumnMetadata, len(w.columns))
	for i, cw := range w.columns {
		if err := cw.Finalize(); err != nil {
			return TableStatistics{}, err
		}

		size, err := writeColumnFile(w.baseDir, w.name, w.schema.Columns[i], cw)
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
			Name:        w.schema.Columns[i].Name,
			NullCount:   uint64(nullCount),
			DistinctEst: distinctEstimate(cw),
		})
		stats.BytesAfterCompress += size
	}

	if err := writeTableFile(w.baseDir, w.name, w.schema, colMeta, stats); err != nil {
		return TableStatistics{}, err
	}

	return stats, nil
}

func distinctEstimate(cw *column.Writer) uint64 {
	var max uint64
	for _, p := range cw.Pages() {
		if p.Stats.DistinctEst > max {
			max = p.Stats.DistinctEst
		}
	}

	return max
}

func writeColumnFile(baseDir, tableName string, col ColumnDef, cw *column.Writer) (uint64, error) {
	path := filepath.Join(baseDir, tableName+"."+col.Name+".lycol")

	f, err := os.Create(path)
	if err != nil {
		return 0, &errs.IOError{Path: path, Err: err}
	}
	defer f.Close()

	header := storage.ColumnFileHeader{
		Version:     format.CurrentVersion,
		TableName:   tableName,
		RowCount:    cw.RowCount(),
		ColumnCount: 1,
	}

	written := 0

	n, err := f.Write(storage.EncodeColumnFileHeader(header))
	if err != nil {
		return 0, &errs.IOError{Path: path, Err: err}
	}
	written += n

	entries := make([]storage.PageIndexEntry, len(cw.Pages()))
	probe := storage.EncodePageIndex(entries) // same length regardless of field values, used to size the block
	offset := uint64(written) + uint64(len(probe))
	for i, p := range cw.Pages() {
		entries[i] = storage.PageIndexEntry{
			PageID: p.Page.Header.PageID,
			Offset: offset,
			Size:   uint64(len(p.Page.Body)) + storage.HeaderSize,
			Codec:  p.Page.Header.CodecID,
			CRC:    p.Page.Header.CRC,
		}
		offset += entries[i].Size
	}

	idxBytes := storage.EncodePageIndex(entries)
	n, err = f.Write(idxBytes)
	if err != nil {
		return 0, &errs.IOError{Path: path, Err: err}
	}
	written += n

	for _, p := range cw.Pages() {
		n, err = f.Write(p.Page.Header.Bytes())
		if err != nil {
			return 0, &errs.IOError{Path: path, Err: err}
		}
		written += n

		n, err = f.Write(p.Page.Body)
		if err != nil {
			return 0, &errs.IOError{Path: path, Err: err}
		}
		written += n
	}

	return uint64(written), nil
}

func writeTableFile(baseDir, tableName string, schema Schema, colMeta []storage.TableColumnMetadata, stats TableStatistics) error {
	path := filepath.Join(baseDir, tableName+".lyta")

	f, err := os.Create(path)
	if err != nil {
		return &errs.IOError{Path: path, Err: err}
	}
	defer f.Close()

	header := storage.TableFileHeader{
		Version:     format.CurrentVersion,
		RowCount:    stats.TotalRows,
		ColumnCount: uint32(len(schema.Columns)),
	}

	if _, err := f.Write(storage.EncodeTableFileHeader(header)); err != nil {
		return &errs.IOError{Path: path, Err: err}
	}

	for _, m := range colMeta {
		if _, err := f.Write(storage.EncodeTableColumnMetadata(m)); err != nil {
			return &errs.IOError{Path: path, Err: err}
		}
	}

	ts := storage.TableStatistics{
		TotalRows:           stats.TotalRows,
		TotalColumns:        stats.TotalColumns,
		BytesAfterCompress:  stats.BytesAfterCompress,
		TableName:           tableName,
		Timestamp:           storage.NowTimestamp(),
		PerColumn:           stats.PerColumn,
	}

	if _, err := f.Write(storage.EncodeTableStatistics(ts)); err != nil {
		return &errs.IOError{Path: path, Err: err}
	}

	return nil
}
