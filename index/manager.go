package index

import (
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/internal/catalog"
)

// Kind identifies which index structure an Info entry wraps (§4.7).
type Kind uint8

const (
	KindBTree Kind = iota + 1
	KindHash
	KindCompositeHash
	KindBitmap
)

func (k Kind) String() string {
	switch k {
	case KindBTree:
		return "btree"
	case KindHash:
		return "hash"
	case KindCompositeHash:
		return "composite-hash"
	case KindBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// Info is one registered index's metadata plus its structure, keyed by
// index name in the Manager (§4.7's "index manager: registry of indexes
// keyed by index name, carrying (table name, column list, kind,
// cardinality hint)").
type Info struct {
	Name            string
	Table           string
	Columns         []string
	Kind            Kind
	CardinalityHint uint64

	BTree     *BTree
	Hash      *Hash
	Composite *CompositeHash
	Bitmap    *Bitmap
}

// Manager is the per-database-handle index registry (§4.7, §9's "Relocate
// the registry onto the database handle").
type Manager struct {
	byName  *catalog.Registry[*Info]
	byTable map[string][]*Info
}

// NewManager returns an empty index registry.
func NewManager() *Manager {
	return &Manager{
		byName:  catalog.NewRegistry[*Info]("index"),
		byTable: make(map[string][]*Info),
	}
}

func (m *Manager) register(info *Info) error {
	if err := m.byName.Add(info.Name, info); err != nil {
		return err
	}
	m.byTable[info.Table] = append(m.byTable[info.Table], info)

	return nil
}

// CreateBTree registers a new empty B-tree index.
func (m *Manager) CreateBTree(name, table, column string, cardinalityHint uint64) (*Info, error) {
	info := &Info{Name: name, Table: table, Columns: []string{column}, Kind: KindBTree, CardinalityHint: cardinalityHint, BTree: NewBTree()}
	if err := m.register(info); err != nil {
		return nil, err
	}

	return info, nil
}

// CreateHash registers a new empty single-column hash index.
func (m *Manager) CreateHash(name, table, column string, cardinalityHint uint64) (*Info, error) {
	info := &Info{Name: name, Table: table, Columns: []string{column}, Kind: KindHash, CardinalityHint: cardinalityHint, Hash: NewHash()}
	if err := m.register(info); err != nil {
		return nil, err
	}

	return info, nil
}

// CreateCompositeHash registers a new empty multi-column hash index.
func (m *Manager) CreateCompositeHash(name, table string, columns []string, cardinalityHint uint64) (*Info, error) {
	info := &Info{Name: name, Table: table, Columns: columns, Kind: KindCompositeHash, CardinalityHint: cardinalityHint, Composite: NewCompositeHash()}
	if err := m.register(info); err != nil {
		return nil, err
	}

	return info, nil
}

// CreateBitmap registers a new empty bitmap index.
func (m *Manager) CreateBitmap(name, table, column string, cardinalityHint uint64) (*Info, error) {
	info := &Info{Name: name, Table: table, Columns: []string{column}, Kind: KindBitmap, CardinalityHint: cardinalityHint, Bitmap: NewBitmap(int(cardinalityHint))}
	if err := m.register(info); err != nil {
		return nil, err
	}

	return info, nil
}

// Drop atomically removes name from the registry.
func (m *Manager) Drop(name string) error {
	info, ok := m.byName.Get(name)
	if !ok {
		return &errs.NameError{Kind: "index", Name: name}
	}

	m.byName.Remove(name)
	list := m.byTable[info.Table]
	for i, ix := range list {
		if ix.Name == name {
			m.byTable[info.Table] = append(list[:i], list[i+1:]...)

			break
		}
	}

	return nil
}

// Get returns the registered index named name.
func (m *Manager) Get(name string) (*Info, bool) { return m.byName.Get(name) }

// IndexesOnTable returns every index registered on table, in creation order.
func (m *Manager) IndexesOnTable(table string) []*Info {
	return append([]*Info(nil), m.byTable[table]...)
}

// IndexesOnColumn returns every index on table that covers column (as a
// single-column index, or as the leading column of a composite one).
func (m *Manager) IndexesOnColumn(table, column string) []*Info {
	var out []*Info
	for _, ix := range m.byTable[table] {
		if len(ix.Columns) > 0 && ix.Columns[0] == column {
			out = append(out, ix)
		}
	}

	return out
}

// DropTable removes every index registered on table, used when the table
// itself is dropped.
func (m *Manager) DropTable(table string) {
	for _, ix := range m.byTable[table] {
		m.byName.Remove(ix.Name)
	}
	delete(m.byTable, table)
}

// Names lists every registered index name.
func (m *Manager) Names() []string { return m.byName.Names() }

// Recommend implements §4.7's recommendation heuristic: cardinality < 100
// -> bitmap; range query -> B-tree; equality + cardinality > 10000 ->
// hash; otherwise B-tree.
func Recommend(cardinality uint64, isRange bool) Kind {
	switch {
	case cardinality < 100:
		return KindBitmap
	case isRange:
		return KindBTree
	case cardinality > 10000:
		return KindHash
	default:
		return KindBTree
	}
}
