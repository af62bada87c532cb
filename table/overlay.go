package table

import "github.com/lyradb/lyradb/value"

// Overlay realizes UPDATE/DELETE on top of immutable columnar pages
// (§4.6a): a tombstone bitmap over base row ids plus an append-only vector
// of new/updated rows. A scan consults base pages filtered by the
// tombstone set, then walks overlay rows in append order.
type Overlay struct {
	tombstones map[uint64]struct{}
	rows       []RowOverlay
}

// RowOverlay is one row materialized outside the columnar pages, either a
// freshly inserted row or the replacement for an UPDATEd one.
type RowOverlay struct {
	RowID  uint64
	Values []value.Value
}

// NewOverlay returns an empty Overlay.
func NewOverlay() *Overlay {
	return &Overlay{tombstones: make(map[uint64]struct{})}
}

// Tombstone marks a base row id as deleted or superseded.
func (o *Overlay) Tombstone(rowID uint64) { o.tombstones[rowID] = struct{}{} }

// IsTombstoned reports whether rowID has been deleted or superseded.
func (o *Overlay) IsTombstoned(rowID uint64) bool {
	_, ok := o.tombstones[rowID]

	return ok
}

// Append adds a new or replacement row to the overlay under rowID, a
// synthetic row id the caller assigns (offset from the base table's row
// count).
func (o *Overlay) Append(rowID uint64, values []value.Value) {
	o.rows = append(o.rows, RowOverlay{RowID: rowID, Values: append([]value.Value(nil), values...)})
}

// Rows returns the overlay rows in append order.
func (o *Overlay) Rows() []RowOverlay { return o.rows }

// TombstoneCount returns the number of tombstoned base rows.
func (o *Overlay) TombstoneCount() int { return len(o.tombstones) }

// Clear resets the overlay, used after Compact() folds it into new base
// pages.
func (o *Overlay) Clear() {
	o.tombstones = make(map[uint64]struct{})
	o.rows = nil
}
