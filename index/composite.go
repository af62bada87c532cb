package index

import "github.com/lyradb/lyradb/value"

// CompositeHash indexes a tuple of column values as one joined key,
// otherwise behaving exactly like Hash (§4.7).
type CompositeHash struct {
	h *Hash
}

// NewCompositeHash creates an empty CompositeHash.
func NewCompositeHash() *CompositeHash {
	return &CompositeHash{h: NewHash()}
}

// Insert records rowID under the composite key formed from values.
func (c *CompositeHash) Insert(values []value.Value, rowID uint64) {
	c.h.InsertKey(CompositeKey(values), rowID)
}

// Search returns the row ids associated with the composite key.
func (c *CompositeHash) Search(values []value.Value) []uint64 {
	return c.h.SearchKey(CompositeKey(values))
}

// Delete removes rowID from the composite key's list.
func (c *CompositeHash) Delete(values []value.Value, rowID uint64) {
	idx, ok := c.h.find(CompositeKey(values))
	if !ok {
		return
	}

	slot := &c.h.slots[idx]
	for i, id := range slot.rowIDs {
		if id == rowID {
			slot.rowIDs = append(slot.rowIDs[:i], slot.rowIDs[i+1:]...)

			break
		}
	}
	if len(slot.rowIDs) == 0 {
		slot.tombstone = true
		c.h.count--
	}
}
