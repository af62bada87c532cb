package lyradb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/table"
	"github.com/lyradb/lyradb/value"
)

func TestOpenCreateInsertQuery(t *testing.T) {
	db, err := lyradb.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	schema := table.Schema{Columns: []table.ColumnDef{
		{Name: "id", Type: format.TypeInt64},
		{Name: "name", Type: format.TypeString},
	}}
	require.NoError(t, db.CreateTable("widgets", schema))
	require.Contains(t, db.ListTables(), "widgets")

	require.NoError(t, db.InsertRow("widgets", []value.Value{value.Int(1), value.Str("sprocket")}))
	require.NoError(t, db.InsertRow("widgets", []value.Value{value.Int(2), value.Str("cog")}))

	ctx := context.Background()
	res, err := db.Query(ctx, "SELECT name FROM widgets WHERE id = 2")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	require.Equal(t, "cog", res.Rows[0][0].Str())

	n, err := db.DeleteRows("widgets", nil)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
