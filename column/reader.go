package column

import (
	"github.com/lyradb/lyradb/codec"
	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/value"
)

// Reader decodes a column's finalized pages back into values (§4.5's read
// path: "page-by-page decode under the codec recorded in the header,
// producing a vector of values and a null bitmap aligned to it").
type Reader struct {
	typ        format.DataType
	pages      []PageEntry
	nullBitmap *Bitmap
}

// NewReader builds a Reader over a set of finalized pages.
func NewReader(typ format.DataType, pages []PageEntry, nullBitmap *Bitmap) *Reader {
	return &Reader{typ: typ, pages: pages, nullBitmap: nullBitmap}
}

// PageCount returns the number of pages.
func (r *Reader) PageCount() int { return len(r.pages) }

// ReadPage decodes page i, returning one value.Value per row in order,
// with nulls resolved against the aligned null bitmap.
func (r *Reader) ReadPage(i int) ([]value.Value, error) {
	entry := r.pages[i]

	if err := entry.Page.Verify(); err != nil {
		return nil, err
	}

	rowOffset := r.rowOffsetOf(i)

	if r.typ == format.TypeString {
		return r.readStringPage(entry, rowOffset)
	}

	return r.readFixedPage(entry, rowOffset)
}

func (r *Reader) rowOffsetOf(i int) int {
	offset := 0
	for j := 0; j < i; j++ {
		offset += int(r.pages[j].RowCount)
	}

	return offset
}

func (r *Reader) readFixedPage(entry PageEntry, rowOffset int) ([]value.Value, error) {
	size := r.typ.FixedSize()

	fc, err := codec.ByID(entry.Page.Header.CodecID)
	if err != nil {
		return nil, err
	}

	raw, err := fc.Decode(entry.Page.Body, size, int(entry.Page.Header.OriginalSize)/size)
	if err != nil {
		return nil, err
	}

	ints, err := bytesToIntsForType(raw, r.typ)
	if err != nil {
		return nil, err
	}

	out := make([]value.Value, len(ints))
	for i, iv := range ints {
		if r.nullBitmap != nil && r.nullBitmap.Get(rowOffset+i) {
			out[i] = value.Null()

			continue
		}
		out[i] = valueFromFixed(iv, r.typ)
	}

	return out, nil
}

func (r *Reader) readStringPage(entry PageEntry, rowOffset int) ([]value.Value, error) {
	var strs []string

	if entry.Page.Header.CodecID == format.CodecDictionary {
		dict := codec.NewDictionaryCodec()
		var err error
		strs, err = dict.DecodeStrings(entry.Page.Body, int(entry.Page.Header.RowCount))
		if err != nil {
			return nil, err
		}
	} else {
		fc, err := codec.ByID(entry.Page.Header.CodecID)
		if err != nil {
			return nil, err
		}

		frameLen := frameLenFor(entry)
		frame, err := fc.Decode(entry.Page.Body, 1, frameLen)
		if err != nil {
			return nil, err
		}

		strs, err = decodeStringFrame(frame)
		if err != nil {
			return nil, err
		}
	}

	out := make([]value.Value, len(strs))
	for i, s := range strs {
		if r.nullBitmap != nil && r.nullBitmap.Get(rowOffset+i) {
			out[i] = value.Null()

			continue
		}
		out[i] = value.Str(s)
	}

	return out, nil
}

// frameLenFor recovers the encoded string-frame byte length for a page
// whose body was run through a byte-oriented FixedCodec (valueSize=1); the
// frame's own leading count plus per-entry length prefixes make its total
// size recoverable only after decoding, so callers instead pass the
// recorded pre-encode size from the page header.
func frameLenFor(entry PageEntry) int {
	return int(entry.Page.Header.OriginalSize)
}
