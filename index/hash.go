package index

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/lyradb/lyradb/value"
)

// DefaultLoadFactor is the threshold above which Hash resizes (§4.7).
const DefaultLoadFactor = 0.75

type hashSlot struct {
	used      bool
	tombstone bool
	key       string
	rowIDs    []uint64
}

// Hash is an open-addressing, linear-probing hash index over stringified
// keys (§4.7). Collision chains never merge on delete; deletions install
// tombstones instead.
type Hash struct {
	slots []hashSlot
	count int // used, non-tombstone slots
}

// NewHash creates an empty Hash with a small initial capacity.
func NewHash() *Hash {
	return &Hash{slots: make([]hashSlot, 16)}
}

// Insert records rowID under key.
func (h *Hash) Insert(key value.Value, rowID uint64) {
	h.InsertKey(keyString(key), rowID)
}

// InsertKey is Insert over an already-stringified key, used directly by
// CompositeHash.
func (h *Hash) InsertKey(key string, rowID uint64) {
	if float64(h.count+1)/float64(len(h.slots)) > DefaultLoadFactor {
		h.resize()
	}

	idx := h.probe(key)
	if h.slots[idx].used && !h.slots[idx].tombstone {
		h.slots[idx].rowIDs = append(h.slots[idx].rowIDs, rowID)

		return
	}

	h.slots[idx] = hashSlot{used: true, key: key, rowIDs: []uint64{rowID}}
	h.count++
}

// Search returns the row ids associated with key.
func (h *Hash) Search(key value.Value) []uint64 { return h.SearchKey(keyString(key)) }

// SearchKey is Search over an already-stringified key.
func (h *Hash) SearchKey(key string) []uint64 {
	idx, ok := h.find(key)
	if !ok {
		return nil
	}

	return h.slots[idx].rowIDs
}

// Contains reports whether key has any associated row ids.
func (h *Hash) Contains(key value.Value) bool {
	_, ok := h.find(keyString(key))

	return ok
}

// Delete removes rowID from key's list, installing a tombstone if the list
// becomes empty (§4.7: "deletions install tombstones").
func (h *Hash) Delete(key value.Value, rowID uint64) {
	idx, ok := h.find(keyString(key))
	if !ok {
		return
	}

	slot := &h.slots[idx]
	for i, id := range slot.rowIDs {
		if id == rowID {
			slot.rowIDs = append(slot.rowIDs[:i], slot.rowIDs[i+1:]...)

			break
		}
	}
	if len(slot.rowIDs) == 0 {
		slot.tombstone = true
		h.count--
	}
}

// RemoveValue removes rowID from every key's list across the whole index.
func (h *Hash) RemoveValue(rowID uint64) {
	for i := range h.slots {
		slot := &h.slots[i]
		if !slot.used || slot.tombstone {
			continue
		}
		for j, id := range slot.rowIDs {
			if id == rowID {
				slot.rowIDs = append(slot.rowIDs[:j], slot.rowIDs[j+1:]...)

				break
			}
		}
		if len(slot.rowIDs) == 0 {
			slot.tombstone = true
			h.count--
		}
	}
}

func (h *Hash) find(key string) (int, bool) {
	idx := h.probe(key)

	return idx, h.slots[idx].used && !h.slots[idx].tombstone
}

// probe returns the slot index for key via linear probing, stopping at the
// first empty (never-used) slot or an exact, non-tombstoned match.
func (h *Hash) probe(key string) int {
	start := int(xxhash.Sum64String(key) % uint64(len(h.slots)))
	for i := 0; i < len(h.slots); i++ {
		idx := (start + i) % len(h.slots)
		slot := h.slots[idx]
		if !slot.used {
			return idx
		}
		if !slot.tombstone && slot.key == key {
			return idx
		}
	}

	return start
}

func (h *Hash) resize() {
	old := h.slots
	h.slots = make([]hashSlot, len(old)*2)
	h.count = 0
	for _, slot := range old {
		if !slot.used || slot.tombstone || len(slot.rowIDs) == 0 {
			continue
		}
		idx := h.probe(slot.key)
		h.slots[idx] = hashSlot{used: true, key: slot.key, rowIDs: slot.rowIDs}
		h.count++
	}
}

// keyString stringifies a value.Value into the canonical form hashed by
// both Hash and CompositeHash.
func keyString(v value.Value) string {
	switch v.Kind() {
	case value.KindInt:
		return "i:" + strconv.FormatInt(v.Int(), 10)
	case value.KindFloat:
		return "f:" + strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case value.KindString:
		return "s:" + v.Str()
	case value.KindBool:
		if v.Bool() {
			return "b:1"
		}

		return "b:0"
	default:
		return "n:"
	}
}

// compositeSeparator joins the components of a composite key (§4.7). Each
// component is prefixed with its byte length, so a "\x1f" inside a string
// value cannot move a component boundary.
const compositeSeparator = "\x1f"

// CompositeKey joins multiple column values into one lossless composite
// key so that (a,b) != (ab, "") (§3's "Index entry").
func CompositeKey(values []value.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		k := keyString(v)
		parts[i] = strconv.Itoa(len(k)) + ":" + k
	}

	return strings.Join(parts, compositeSeparator)
}
