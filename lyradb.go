// Package lyradb provides an embeddable, single-process analytical
// database: columnar storage with adaptive page compression, a buffer
// cache, single- and multi-column indexes, a cost-based index advisor,
// and a small SQL dialect (SELECT/INSERT/UPDATE/DELETE/CREATE/DROP)
// compiled through a rule-rewritten logical plan into vectorized
// physical operators.
//
// # Core Features
//
//   - Columnar page storage with RLE, dictionary, bitpacking, delta, and
//     general-purpose (zstd/lz4) codecs, chosen per column by sampling
//   - A 2Q buffer cache and an append-only row overlay realizing
//     UPDATE/DELETE on top of immutable pages
//   - B-tree, hash, composite-hash, and bitmap indexes with a cost-based
//     advisor recommending a strategy per predicate
//   - A SQL lexer/parser/planner/optimizer and vectorized executor
//   - A TTL+LRU result cache keyed by normalized query fingerprint, with
//     table-tagged invalidation and singleflight de-duplication of
//     concurrent misses
//
// # Basic Usage
//
//	db, err := lyradb.Open("/var/lib/lyradb/mydb")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	err = db.CreateTable("events", table.Schema{Columns: []table.ColumnDef{
//	    {Name: "id", Type: format.TypeInt64},
//	    {Name: "kind", Type: format.TypeString},
//	}})
//
//	_, err = db.Execute(ctx, `INSERT INTO events VALUES (1, 'login')`)
//
//	result, err := db.Query(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
//
// # Package Structure
//
// This package is a thin wrapper around engine.Handle, the coordinator
// that owns the table/index registries and the result cache. For direct
// access to the storage, codec, index, or planner layers, use their
// respective packages.
package lyradb

import (
	"context"

	"github.com/lyradb/lyradb/engine"
	"github.com/lyradb/lyradb/exec"
	"github.com/lyradb/lyradb/index"
	"github.com/lyradb/lyradb/sql/ast"
	"github.com/lyradb/lyradb/table"
	"github.com/lyradb/lyradb/value"
)

// DB is an open database handle (§6). A DB is not safe for concurrent use
// by multiple goroutines issuing overlapping mutations to the same table;
// concurrent read-only Query calls are safe.
type DB struct {
	h *engine.Handle
}

// Option configures a DB at Open time; see engine.WithLogger,
// engine.WithBatchSize, and engine.WithCacheOptions.
type Option = engine.Option

// Open opens (creating if necessary) the database rooted at dir.
//
// Example:
//
//	db, err := lyradb.Open("/var/lib/lyradb/mydb", engine.WithBatchSize(2048))
func Open(dir string, opts ...Option) (*DB, error) {
	h, err := engine.Open(dir, opts...)
	if err != nil {
		return nil, err
	}

	return &DB{h: h}, nil
}

// Close flushes every table to disk and releases the handle.
func (db *DB) Close() error { return db.h.Close() }

// CreateTable registers a new empty table with the given column schema.
func (db *DB) CreateTable(name string, schema table.Schema) error {
	return db.h.CreateTable(name, schema)
}

// DropTable removes a table and every index registered on it.
func (db *DB) DropTable(name string) error { return db.h.DropTable(name) }

// ListTables returns every registered table name.
func (db *DB) ListTables() []string { return db.h.ListTables() }

// InsertRow appends one row, values given in schema column order.
func (db *DB) InsertRow(tableName string, values []value.Value) error {
	return db.h.InsertRow(tableName, values)
}

// UpdateRows applies assign to every row of table matching pred (nil
// matches every row), returning the number of rows touched.
func (db *DB) UpdateRows(tableName string, pred ast.Expr, assign map[string]value.Value) (int, error) {
	return db.h.UpdateRows(tableName, pred, assign)
}

// DeleteRows removes every row of table matching pred (nil matches every
// row), returning the number removed.
func (db *DB) DeleteRows(tableName string, pred ast.Expr) (int, error) {
	return db.h.DeleteRows(tableName, pred)
}

// CreateIndex builds and registers a new index over table/columns.
func (db *DB) CreateIndex(name, tableName string, columns []string, kind index.Kind) error {
	return db.h.CreateIndex(name, tableName, columns, kind)
}

// DropIndex removes a registered index.
func (db *DB) DropIndex(name string) error { return db.h.DropIndex(name) }

// Query runs a SELECT statement, returning its column names and rows.
//
// Example:
//
//	result, err := db.Query(ctx, "SELECT id FROM events WHERE kind = 'login'")
func (db *DB) Query(ctx context.Context, sql string) (*exec.QueryResult, error) {
	return db.h.Query(ctx, sql)
}

// Execute runs a non-SELECT statement (DDL, INSERT, UPDATE, DELETE),
// returning the number of rows it affected.
func (db *DB) Execute(ctx context.Context, sql string) (int, error) {
	return db.h.Execute(ctx, sql)
}

// Flush compacts and persists every open table to disk.
func (db *DB) Flush() error { return db.h.Flush() }

// Compact folds every open table's UPDATE/DELETE overlay into fresh base
// pages in memory, without writing to disk.
func (db *DB) Compact() error { return db.h.Compact() }
