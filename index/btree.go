// Package index implements the secondary index structures described in
// §4.7: an ordered B-tree, an open-addressing hash index (single- and
// multi-column), and a bitmap index, plus the index manager registry and
// recommendation heuristic.
package index

import (
	"sort"

	"github.com/lyradb/lyradb/value"
)

// DefaultBranchingFactor is the B-tree's default branching factor (§4.7).
const DefaultBranchingFactor = 256

// btreeEntry is one key's row id list inside a node (§4.7: "each key
// carries a list of row ids, duplicates allowed").
type btreeEntry struct {
	key    value.Value
	rowIDs []uint64
}

// btreeNode is one arena-indexed node: a sorted key/entry array plus child
// indices into the tree's node arena (not ref-counted pointers, per the
// arena-and-index representation the design favors for cache locality and
// straightforward serialization).
type btreeNode struct {
	entries  []btreeEntry
	children []int // indices into BTree.nodes; empty for leaves
	leaf     bool
}

// BTree is a self-balancing ordered index over value.Value keys (§4.7).
type BTree struct {
	branch int
	nodes  []*btreeNode
	root   int
}

// NewBTree creates an empty BTree with the default branching factor.
func NewBTree() *BTree { return NewBTreeWithBranch(DefaultBranchingFactor) }

// NewBTreeWithBranch creates an empty BTree with a custom branching factor.
func NewBTreeWithBranch(branch int) *BTree {
	t := &BTree{branch: branch}
	t.root = t.newNode(true)

	return t
}

func (t *BTree) newNode(leaf bool) int {
	t.nodes = append(t.nodes, &btreeNode{leaf: leaf})

	return len(t.nodes) - 1
}

func (t *BTree) node(i int) *btreeNode { return t.nodes[i] }

// Insert adds rowID under key, appending to an existing key's row id list
// if the key is already present (duplicates allowed).
func (t *BTree) Insert(key value.Value, rowID uint64) {
	root := t.node(t.root)
	if len(root.entries) == t.maxKeys() {
		newRootIdx := t.newNode(false)
		newRoot := t.node(newRootIdx)
		newRoot.children = []int{t.root}
		t.root = newRootIdx
		t.splitChild(newRootIdx, 0)
	}
	t.insertNonFull(t.root, key, rowID)
}

func (t *BTree) maxKeys() int { return 2*t.branch - 1 }

func (t *BTree) insertNonFull(idx int, key value.Value, rowID uint64) {
	n := t.node(idx)

	pos, found := t.search(n, key)
	if found {
		n.entries[pos].rowIDs = append(n.entries[pos].rowIDs, rowID)

		return
	}

	if n.leaf {
		n.entries = append(n.entries, btreeEntry{})
		copy(n.entries[pos+1:], n.entries[pos:])
		n.entries[pos] = btreeEntry{key: key, rowIDs: []uint64{rowID}}

		return
	}

	child := pos
	if len(t.node(n.children[child]).entries) == t.maxKeys() {
		t.splitChild(idx, child)
		if cmp, ok := value.Compare(key, n.entries[child].key); ok && cmp > 0 {
			child++
		} else if ok && cmp == 0 {
			n.entries[child].rowIDs = append(n.entries[child].rowIDs, rowID)

			return
		}
	}
	t.insertNonFull(n.children[child], key, rowID)
}

// splitChild splits the full child at children[ci] of node parentIdx,
// promoting its median entry into parentIdx (§4.7: "a full root splits by
// promoting the median into a new parent"; the same rule applies to any
// full non-root child encountered on the way down).
func (t *BTree) splitChild(parentIdx, ci int) {
	parent := t.node(parentIdx)
	fullIdx := parent.children[ci]
	full := t.node(fullIdx)

	mid := len(full.entries) / 2
	medianEntry := full.entries[mid]

	newIdx := t.newNode(full.leaf)
	newNode := t.node(newIdx)
	newNode.entries = append(newNode.entries, full.entries[mid+1:]...)
	if !full.leaf {
		newNode.children = append(newNode.children, full.children[mid+1:]...)
		full.children = full.children[:mid+1]
	}
	full.entries = full.entries[:mid]

	parent.entries = append(parent.entries, btreeEntry{})
	copy(parent.entries[ci+1:], parent.entries[ci:])
	parent.entries[ci] = medianEntry

	parent.children = append(parent.children, 0)
	copy(parent.children[ci+2:], parent.children[ci+1:])
	parent.children[ci+1] = newIdx
}

// search returns the insertion position of key within n's sorted entries
// and whether key is already present there.
func (t *BTree) search(n *btreeNode, key value.Value) (int, bool) {
	pos := sort.Search(len(n.entries), func(i int) bool {
		cmp, ok := value.Compare(key, n.entries[i].key)

		return ok && cmp <= 0
	})
	if pos < len(n.entries) {
		if cmp, ok := value.Compare(key, n.entries[pos].key); ok && cmp == 0 {
			return pos, true
		}
	}

	return pos, false
}

// Search returns the row ids associated with key, or nil if absent.
func (t *BTree) Search(key value.Value) []uint64 {
	return t.searchNode(t.root, key)
}

func (t *BTree) searchNode(idx int, key value.Value) []uint64 {
	n := t.node(idx)
	pos, found := t.search(n, key)
	if found {
		return n.entries[pos].rowIDs
	}
	if n.leaf {
		return nil
	}

	return t.searchNode(n.children[pos], key)
}

// Range returns every row id whose key lies in [lo, hi], visiting children
// in order and emitting row ids as encountered (§4.7).
func (t *BTree) Range(lo, hi value.Value) []uint64 {
	var out []uint64
	t.rangeNode(t.root, lo, hi, &out)

	return out
}

func (t *BTree) rangeNode(idx int, lo, hi value.Value, out *[]uint64) {
	n := t.node(idx)
	for i, e := range n.entries {
		if !n.leaf {
			if cLo, ok := value.Compare(e.key, lo); !ok || cLo >= 0 {
				t.rangeNode(n.children[i], lo, hi, out)
			}
		}

		cLo, okLo := value.Compare(e.key, lo)
		cHi, okHi := value.Compare(e.key, hi)
		if okLo && okHi && cLo >= 0 && cHi <= 0 {
			*out = append(*out, e.rowIDs...)
		}
	}
	if !n.leaf {
		last := len(n.entries)
		if cLo, ok := value.Compare(n.entries[last-1].key, hi); !ok || cLo <= 0 {
			t.rangeNode(n.children[last], lo, hi, out)
		}
	}
}

// LessThan returns every row id whose key is strictly less than key.
func (t *BTree) LessThan(key value.Value) []uint64 {
	var out []uint64
	t.boundNode(t.root, key, true, &out)

	return out
}

// GreaterThan returns every row id whose key is strictly greater than key.
func (t *BTree) GreaterThan(key value.Value) []uint64 {
	var out []uint64
	t.boundNode(t.root, key, false, &out)

	return out
}

func (t *BTree) boundNode(idx int, key value.Value, less bool, out *[]uint64) {
	n := t.node(idx)
	for i, e := range n.entries {
		if !n.leaf {
			t.boundNode(n.children[i], key, less, out)
		}
		cmp, ok := value.Compare(e.key, key)
		if !ok {
			continue
		}
		if (less && cmp < 0) || (!less && cmp > 0) {
			*out = append(*out, e.rowIDs...)
		}
	}
	if !n.leaf {
		t.boundNode(n.children[len(n.entries)], key, less, out)
	}
}
