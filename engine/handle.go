package engine

import (
	"context"
	"os"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/exec"
	"github.com/lyradb/lyradb/index"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/table"
	"github.com/lyradb/lyradb/value"
)

// Handle is the public database handle (§6): one per open directory,
// wrapping a Database with the exact operation set the top-level lyradb
// package re-exports.
type Handle struct {
	db *Database
}

// Open creates dir if needed and returns a Handle over it (§6's
// `Open(dir, opts...)`).
func Open(dir string, opts ...Option) (*Handle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &errs.IOError{Path: dir, Err: err}
	}

	db, err := newDatabase(dir, opts...)
	if err != nil {
		return nil, err
	}

	return &Handle{db: db}, nil
}

// Close flushes every table to disk and releases the handle. A Handle
// must not be used after Close (§5).
func (h *Handle) Close() error {
	return h.Flush()
}

// CreateTable registers a new empty table (§4.6).
func (h *Handle) CreateTable(name string, schema table.Schema) error {
	return h.db.CreateTable(name, schema)
}

// DropTable removes a table and every index registered on it (§4.6, §4.7).
func (h *Handle) DropTable(name string) error {
	return h.db.DropTable(name)
}

// ListTables returns every registered table name.
func (h *Handle) ListTables() []string {
	return h.db.ListTables()
}

// InsertRow appends one row (§4.6a).
func (h *Handle) InsertRow(tableName string, values []value.Value) error {
	return h.db.InsertRow(tableName, values)
}

// UpdateRows applies assign to every row of table matching pred, returning
// the number of rows touched (§4.6a).
func (h *Handle) UpdateRows(tableName string, pred ast.Expr, assign map[string]value.Value) (int, error) {
	return h.db.UpdateRows(tableName, pred, assign)
}

// DeleteRows removes every row of table matching pred, returning the
// number removed (§4.6a).
func (h *Handle) DeleteRows(tableName string, pred ast.Expr) (int, error) {
	return h.db.DeleteRows(tableName, pred)
}

// CreateIndex builds and registers a new index (§4.7).
func (h *Handle) CreateIndex(name, tableName string, columns []string, kind index.Kind) error {
	return h.db.CreateIndex(name, tableName, columns, kind)
}

// DropIndex removes a registered index (§4.7).
func (h *Handle) DropIndex(name string) error {
	return h.db.DropIndex(name)
}

// Query runs a SELECT statement (§4.15).
func (h *Handle) Query(ctx context.Context, sql string) (*exec.QueryResult, error) {
	return h.db.Query(ctx, sql)
}

// Execute runs a non-SELECT statement (§4.15).
func (h *Handle) Execute(ctx context.Context, sql string) (int, error) {
	return h.db.Execute(ctx, sql)
}

// Flush compacts and persists every open table to its companion files
// under the handle's directory (§4.6, §6).
func (h *Handle) Flush() error {
	for _, name := range h.db.ListTables() {
		t, err := h.db.table(name)
		if err != nil {
			return err
		}
		if _, err := t.Persist(); err != nil {
			return err
		}
	}

	return nil
}

// Compact folds every open table's overlay into fresh base pages in
// memory, without writing to disk (§4.6a; call Flush to persist).
func (h *Handle) Compact() error {
	for _, name := range h.db.ListTables() {
		t, err := h.db.table(name)
		if err != nil {
			return err
		}
		if err := t.Compact(); err != nil {
			return err
		}
	}

	return nil
}
