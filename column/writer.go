// Package column implements the per-column append/finalize path and the
// matching page-by-page reader described in §4.5: an ordered list of
// codec-compressed pages, a null bitmap aligned to row id, and per-page
// statistics (min/max/null count/distinct estimate) refreshed on finalize.
package column

import (
	"github.com/lyradb/lyradb/codec"
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/storage"
	"github.com/lyradb/lyradb/value"
)

// PageEntry is one finalized, immutable page plus the statistics and
// bloom filter computed for it at finalize time.
type PageEntry struct {
	Page      storage.Page
	Stats     Stats
	NullCount uint64
	RowCount  uint32
	Bloom     *BloomFilter // non-nil only for string columns
}

// Writer accumulates values for one column, finalizing a page as soon as
// the in-progress body reaches format.MaxPageBytes (§4.5).
type Writer struct {
	name     string
	columnID uint32
	typ      format.DataType
	selector *codec.Selector

	pages []PageEntry

	pendingInts    []int64  // used for integer and fixed-size-via-bits encodings
	pendingStrings []string // used for string columns only
	pendingNulls   *Bitmap  // per-page null bitmap, reset on finalize
	nullBitmap     *Bitmap  // column-wide null bitmap, accumulated across pages
	rowCount       uint64
	nextPageID     uint64

	bloomEnabled bool
}

// WriterOption configures a Writer at construction, in the pack's
// functional-options idiom.
type WriterOption func(*Writer)

// WithBloomFilter enables a per-page bloom filter for string columns,
// consulted for equality predicates on columns that have no index (§9a).
func WithBloomFilter() WriterOption { return func(w *Writer) { w.bloomEnabled = true } }

// NewWriter creates a Writer for a column of the given name/id/type.
func NewWriter(name string, columnID uint32, typ format.DataType, opts ...WriterOption) *Writer {
	w := &Writer{
		name:         name,
		columnID:     columnID,
		typ:          typ,
		selector:     codec.NewSelector(),
		pendingNulls: NewBitmap(),
		nullBitmap:   NewBitmap(),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w
}

// AppendValue copies v's fixed representation into the in-progress page,
// then finalizes that page if it has reached format.MaxPageBytes (§4.5's
// append_value).
func (w *Writer) AppendValue(v value.Value) error {
	if w.typ == format.TypeString {
		s, ok := asString(v)
		if !ok {
			return &errs.TypeError{Context: w.name, Message: "expected string value"}
		}
		w.pendingStrings = append(w.pendingStrings, s)
	} else {
		i, ok := asFixedInt(v, w.typ)
		if !ok {
			return &errs.TypeError{Context: w.name, Message: "value incompatible with column type " + w.typ.String()}
		}
		w.pendingInts = append(w.pendingInts, i)
	}

	w.pendingNulls.Append(false)
	w.rowCount++

	return w.maybeFinalize()
}

// AppendNull writes a zeroed slot and sets the null bit (§4.5's
// append_null).
func (w *Writer) AppendNull() error {
	if w.typ == format.TypeString {
		w.pendingStrings = append(w.pendingStrings, "")
	} else {
		w.pendingInts = append(w.pendingInts, 0)
	}

	w.pendingNulls.Append(true)
	w.rowCount++

	return w.maybeFinalize()
}

func (w *Writer) pendingCount() int {
	if w.typ == format.TypeString {
		return len(w.pendingStrings)
	}

	return len(w.pendingInts)
}

func (w *Writer) maybeFinalize() error {
	if w.pendingBytesEstimate() >= format.MaxPageBytes {
		return w.flush()
	}

	return nil
}

func (w *Writer) pendingBytesEstimate() int {
	if w.typ == format.TypeString {
		total := 0
		for _, s := range w.pendingStrings {
			total += len(s) + 4
		}

		return total
	}

	return len(w.pendingInts) * w.typ.FixedSize()
}

// Finalize flushes any in-progress page (§4.5's finalize()).
func (w *Writer) Finalize() error {
	if w.pendingCount() == 0 {
		return nil
	}

	return w.flush()
}

// Pages returns the finalized pages written so far.
func (w *Writer) Pages() []PageEntry { return w.pages }

// NullBitmap returns the column-wide null bitmap accumulated across every
// finalized page.
func (w *Writer) NullBitmap() *Bitmap { return w.nullBitmap }

// RowCount returns the total number of values (including nulls) appended.
func (w *Writer) RowCount() uint64 { return w.rowCount }

func (w *Writer) flush() error {
	if w.typ == format.TypeString {
		return w.flushStrings()
	}

	return w.flushFixed()
}

func (w *Writer) flushFixed() error {
	values := w.pendingInts
	valueSize := w.typ.FixedSize()

	var choice codec.Choice
	if w.typ.IsInteger() {
		choice = w.selector.SelectInts(values)
	} else {
		raw := intsToFixedBytesForType(values, w.typ)
		choice = w.selector.SelectGeneric(raw, valueSize)
	}

	raw := intsToFixedBytesForType(values, w.typ)
	enc, err := w.encodeFixed(choice.Codec, raw, valueSize)
	if err != nil {
		return err
	}

	entry := w.buildEntry(enc, choice.Codec, uint64(len(raw)), uint32(len(values)))

	stats := NewStats()
	for i, iv := range values {
		if w.pendingNulls.Get(i) {
			stats.Observe(value.Null())
		} else {
			stats.Observe(valueFromFixed(iv, w.typ))
		}
	}
	entry.Stats = *stats
	entry.NullCount = uint64(w.pendingNulls.PopCount())

	w.commit(entry)
	w.pendingInts = nil

	return nil
}

func (w *Writer) flushStrings() error {
	values := w.pendingStrings
	choice := w.selector.SelectStrings(values)

	var enc []byte
	var err error
	var originalSize uint64
	if choice.Codec == format.CodecDictionary {
		dict := codec.NewDictionaryCodec()
		enc, err = dict.EncodeStrings(values)
		for _, s := range values {
			originalSize += uint64(len(s))
		}
	} else {
		frame := encodeStringFrame(values)
		originalSize = uint64(len(frame))
		enc, err = w.encodeFixed(choice.Codec, frame, 1)
	}
	if err != nil {
		return err
	}

	entry := w.buildEntry(enc, choice.Codec, originalSize, uint32(len(values)))

	stats := NewStats()
	var bloom *BloomFilter
	if w.bloomEnabled {
		bloom = NewBloomFilter(1024, 4)
	}
	for i, s := range values {
		if w.pendingNulls.Get(i) {
			stats.Observe(value.Null())
		} else {
			stats.Observe(value.Str(s))
			if bloom != nil {
				bloom.Add([]byte(s))
			}
		}
	}
	entry.Stats = *stats
	entry.NullCount = uint64(w.pendingNulls.PopCount())
	entry.Bloom = bloom

	w.commit(entry)
	w.pendingStrings = nil

	return nil
}

func (w *Writer) encodeFixed(id format.CodecID, raw []byte, valueSize int) ([]byte, error) {
	fc, err := codec.ByID(id)
	if err != nil {
		return nil, err
	}

	return fc.Encode(raw, valueSize)
}

func (w *Writer) buildEntry(encoded []byte, codecID format.CodecID, originalSize uint64, rowCount uint32) PageEntry {
	pageID := w.nextPageID
	w.nextPageID++

	page := storage.NewPage(pageID, w.columnID, rowCount, codecID, originalSize, encoded)

	return PageEntry{Page: page, RowCount: rowCount}
}

func (w *Writer) commit(entry PageEntry) {
	w.pages = append(w.pages, entry)
	for i := 0; i < w.pendingNulls.Len(); i++ {
		w.nullBitmap.Append(w.pendingNulls.Get(i))
	}
	w.pendingNulls = NewBitmap()
}

func asString(v value.Value) (string, bool) {
	if v.Kind() == value.KindString {
		return v.Str(), true
	}

	return "", false
}

func asFixedInt(v value.Value, typ format.DataType) (int64, bool) {
	switch typ {
	case format.TypeInt32, format.TypeInt64, format.TypeDate32, format.TypeTimestamp:
		if v.Kind() == value.KindInt {
			return v.Int(), true
		}

		return 0, false
	case format.TypeFloat32, format.TypeFloat64:
		if v.Kind() == value.KindFloat {
			return int64(floatBitsForType(v.Float(), typ)), true
		}
		if v.Kind() == value.KindInt {
			return int64(floatBitsForType(float64(v.Int()), typ)), true
		}

		return 0, false
	case format.TypeBool:
		if v.Kind() == value.KindBool {
			if v.Bool() {
				return 1, true
			}

			return 0, true
		}

		return 0, false
	default:
		return 0, false
	}
}

func valueFromFixed(i int64, typ format.DataType) value.Value {
	switch typ {
	case format.TypeFloat32, format.TypeFloat64:
		return value.Float(floatFromBitsForType(uint64(i), typ))
	case format.TypeBool:
		return value.Bool(i != 0)
	default:
		return value.Int(i)
	}
}
