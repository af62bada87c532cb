// Package engine implements the coordinator described in §4.15: the single
// entry point tying parse -> validate -> plan -> optimize -> execute ->
// materialize -> cache together, plus the table/index registries a running
// database holds open (§4.7's "Relocate the registry onto the database
// handle").
package engine

import (
	"log/slog"
	"sync"

	"github.com/lyradb/lyradb/advisor"
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/index"
	internaloptions "github.com/lyradb/lyradb/internal/options"
	"github.com/lyradb/lyradb/qcache"
	"github.com/lyradb/lyradb/table"
)

// Database is the coordinator's mutable state: every open table, the
// index registry, the index advisor's learned selectivity model, and the
// result cache (§4.14, §4.15, §4.7).
type Database struct {
	mu sync.RWMutex

	dir    string
	tables map[string]*table.Table

	indexes *index.Manager
	advisor *advisor.Advisor
	cache   *qcache.Cache

	batchSize int
	log       *slog.Logger
}

// Option configures a Database at Open time, using the pack's generic
// functional-options type (internal/options) rather than a plain closure
// — engine is new code with no prior convention to preserve, so it adopts
// the teacher's fuller idiom directly (§7a).
type Option = internaloptions.Option[*Database]

// WithLogger overrides the structured logger used by the database and the
// result cache it constructs.
func WithLogger(l *slog.Logger) Option {
	return internaloptions.NoError[*Database](func(d *Database) { d.log = l })
}

// WithBatchSize overrides the vectorized batch size physical operators
// pull at (§4.13's default of 1024).
func WithBatchSize(n int) Option {
	return internaloptions.NoError[*Database](func(d *Database) { d.batchSize = n })
}

// WithCacheOptions passes through qcache construction options (TTL,
// capacity bounds) to the database's result cache.
func WithCacheOptions(opts ...qcache.Option) Option {
	return internaloptions.NoError[*Database](func(d *Database) {
		opts = append(opts, qcache.WithLogger(d.log))
		d.cache = qcache.New(opts...)
	})
}

func newDatabase(dir string, opts ...Option) (*Database, error) {
	d := &Database{
		dir:       dir,
		tables:    make(map[string]*table.Table),
		indexes:   index.NewManager(),
		advisor:   advisor.New(),
		batchSize: 1024,
		log:       slog.Default(),
	}

	if err := internaloptions.Apply(d, opts...); err != nil {
		return nil, err
	}

	if d.cache == nil {
		d.cache = qcache.New(qcache.WithLogger(d.log))
	}

	return d, nil
}

// Schema implements plan.Catalog, resolving tableName against the open
// table registry (§4.9a).
func (d *Database) Schema(tableName string) (table.Schema, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tables[tableName]
	if !ok {
		return table.Schema{}, false
	}

	return t.Schema, true
}

func (d *Database) table(name string) (*table.Table, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	t, ok := d.tables[name]
	if !ok {
		return nil, &errs.NameError{Kind: "table", Name: name}
	}

	return t, nil
}

// CreateTable registers a new empty table under name (§4.6).
func (d *Database) CreateTable(name string, schema table.Schema) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tables[name]; exists {
		return &errs.ConflictError{Kind: "table", Name: name}
	}

	t, err := table.New(name, schema, d.dir)
	if err != nil {
		return err
	}

	d.tables[name] = t
	d.log.Debug("engine: table created", "table", name)

	return nil
}

// DropTable removes name and every index registered on it (§4.6, §4.7).
func (d *Database) DropTable(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.tables[name]; !ok {
		return &errs.NameError{Kind: "table", Name: name}
	}

	delete(d.tables, name)
	d.indexes.DropTable(name)
	d.cache.Invalidate(name)

	return nil
}

// ListTables returns every registered table name.
func (d *Database) ListTables() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.tables))
	for name := range d.tables {
		out = append(out, name)
	}

	return out
}
