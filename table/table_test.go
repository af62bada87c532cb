package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/value"
)

func sampleSchema() Schema {
	return Schema{Columns: []ColumnDef{
		{Name: "id", Type: format.TypeInt64},
		{Name: "name", Type: format.TypeString},
	}}
}

func TestTableInsertAndColumnScan(t *testing.T) {
	tbl, err := New("people", sampleSchema(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(1), value.Str("alice")}))
	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(2), value.Str("bob")}))

	ids, err := tbl.Column(0)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Equal(t, int64(1), ids[0].Int())
	require.Equal(t, int64(2), ids[1].Int())

	require.Equal(t, uint64(2), tbl.RowCount())
}

func TestTableDeleteByRowID(t *testing.T) {
	tbl, err := New("people", sampleSchema(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(1), value.Str("alice")}))
	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(2), value.Str("bob")}))

	tbl.DeleteByRowID(0)
	require.Equal(t, uint64(1), tbl.RowCount())

	ids, err := tbl.Column(0)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, int64(2), ids[0].Int())
}

func TestTableReplaceByRowID(t *testing.T) {
	tbl, err := New("people", sampleSchema(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(1), value.Str("alice")}))
	tbl.ReplaceByRowID(0, []value.Value{value.Int(1), value.Str("alicia")})

	names, err := tbl.Column(1)
	require.NoError(t, err)
	require.Len(t, names, 1)
	require.Equal(t, "alicia", names[0].Str())
}

func TestTableCompactFoldsOverlay(t *testing.T) {
	tbl, err := New("people", sampleSchema(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(1), value.Str("alice")}))
	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(2), value.Str("bob")}))
	tbl.DeleteByRowID(0)

	require.NoError(t, tbl.Compact())
	require.Equal(t, uint64(1), tbl.RowCount())
	require.Equal(t, 0, tbl.Overlay().TombstoneCount())

	ids, err := tbl.Column(0)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	require.Equal(t, int64(2), ids[0].Int())
}

func TestTableRowsMaterializesLiveRows(t *testing.T) {
	tbl, err := New("people", sampleSchema(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(1), value.Str("alice")}))
	require.NoError(t, tbl.InsertRow([]value.Value{value.Int(2), value.Str("bob")}))
	tbl.DeleteByRowID(1)

	rows, err := tbl.Rows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(1), rows[0].Values[0].Int())
}

func TestSchemaRejectsDuplicateColumns(t *testing.T) {
	_, err := New("t", Schema{Columns: []ColumnDef{
		{Name: "a", Type: format.TypeInt64},
		{Name: "a", Type: format.TypeInt64},
	}}, t.TempDir())
	require.Error(t, err)
}

func TestWriterFinalizeWritesFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter("people", sampleSchema(), dir)
	require.NoError(t, err)

	require.NoError(t, w.AppendRow([]value.Value{value.Int(1), value.Str("alice")}))
	require.NoError(t, w.AppendRow([]value.Value{value.Int(2), value.Str("bob")}))

	stats, err := w.Finalize()
	require.NoError(t, err)
	require.Equal(t, uint64(2), stats.TotalRows)
	require.Len(t, stats.PerColumn, 2)
}
