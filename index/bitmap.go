package index

import "github.com/lyradb/lyradb/value"

// DefaultBitmapCapacityHint is the initial row-id capacity a new Bitmap
// preallocates for each key's bitset. Per §4.7a's Open Question
// resolution, this is a sizing hint for geometric growth, not a hard cap
// like the 1,000,000-row limit in original_source.
const DefaultBitmapCapacityHint = 1024

type rowBitset struct {
	words []uint64
}

func newRowBitset(capacityHint int) *rowBitset {
	return &rowBitset{words: make([]uint64, (capacityHint+63)/64)}
}

func (b *rowBitset) set(rowID uint64) {
	idx := rowID / 64
	if int(idx) >= len(b.words) {
		grown := make([]uint64, idx+1)
		copy(grown, b.words)
		b.words = grown
	}
	b.words[idx] |= 1 << (rowID % 64)
}

func (b *rowBitset) get(rowID uint64) bool {
	idx := rowID / 64
	if int(idx) >= len(b.words) {
		return false
	}

	return b.words[idx]&(1<<(rowID%64)) != 0
}

// Bitmap maps each distinct key to a bitset of row ids (§4.7), intended for
// low-cardinality columns (< 1000 distinct values).
type Bitmap struct {
	capacityHint int
	sets         map[string]*rowBitset
	maxRowID     uint64
}

// NewBitmap creates an empty Bitmap; capacityHint sizes the initial bitset
// allocated for each newly seen key (default DefaultBitmapCapacityHint if
// <= 0).
func NewBitmap(capacityHint int) *Bitmap {
	if capacityHint <= 0 {
		capacityHint = DefaultBitmapCapacityHint
	}

	return &Bitmap{capacityHint: capacityHint, sets: make(map[string]*rowBitset)}
}

// Set marks rowID as present under key.
func (b *Bitmap) Set(key value.Value, rowID uint64) {
	k := keyString(key)
	set, ok := b.sets[k]
	if !ok {
		set = newRowBitset(b.capacityHint)
		b.sets[k] = set
	}
	set.set(rowID)
	if rowID > b.maxRowID {
		b.maxRowID = rowID
	}
}

// Search returns every row id set under key.
func (b *Bitmap) Search(key value.Value) []uint64 {
	set, ok := b.sets[keyString(key)]
	if !ok {
		return nil
	}

	return bitsetRowIDs(set)
}

// Or returns the union of row ids set under any of keys.
func (b *Bitmap) Or(keys ...value.Value) []uint64 {
	union := newRowBitset(b.capacityHint)
	for _, k := range keys {
		set, ok := b.sets[keyString(k)]
		if !ok {
			continue
		}
		for i, w := range set.words {
			if i >= len(union.words) {
				grown := make([]uint64, i+1)
				copy(grown, union.words)
				union.words = grown
			}
			union.words[i] |= w
		}
	}

	return bitsetRowIDs(union)
}

// And returns the intersection of row ids set under every key, early-
// exiting as soon as one key has no rows (§4.7).
func (b *Bitmap) And(keys ...value.Value) []uint64 {
	if len(keys) == 0 {
		return nil
	}

	var sets []*rowBitset
	for _, k := range keys {
		set, ok := b.sets[keyString(k)]
		if !ok {
			return nil
		}
		sets = append(sets, set)
	}

	out := make([]uint64, 0)
	for rowID := uint64(0); rowID <= b.maxRowID; rowID++ {
		all := true
		for _, s := range sets {
			if !s.get(rowID) {
				all = false

				break
			}
		}
		if all {
			out = append(out, rowID)
		}
	}

	return out
}

// Not returns every observed row id NOT set under key.
func (b *Bitmap) Not(key value.Value) []uint64 {
	set, ok := b.sets[keyString(key)]
	out := make([]uint64, 0)
	for rowID := uint64(0); rowID <= b.maxRowID; rowID++ {
		if ok && set.get(rowID) {
			continue
		}
		for _, s := range b.sets {
			if s.get(rowID) {
				out = append(out, rowID)

				break
			}
		}
	}

	return out
}

func bitsetRowIDs(set *rowBitset) []uint64 {
	out := make([]uint64, 0)
	for wi, w := range set.words {
		for bit := 0; bit < 64; bit++ {
			if w&(1<<uint(bit)) != 0 {
				out = append(out, uint64(wi*64+bit))
			}
		}
	}

	return out
}
