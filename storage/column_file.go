package storage

import (
	"math"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
)

// PageIndexEntry locates one page inside a column file's page stream and
// records its codec/compression stats (§6's page_index entries).
type PageIndexEntry struct {
	PageID uint64
	Offset uint64
	Size   uint64
	Codec  format.CodecID
	Ratio  float64
	CRC    uint32
}

// ColumnFileHeader is the fixed prefix of a `.lycol` file (§6).
type ColumnFileHeader struct {
	Version             uint32
	TableName           string
	RowCount            uint64
	ColumnCount         uint32
	CompressionEnabled  bool
	HeaderCRC           uint32
}

// EncodeColumnFileHeader serializes the LYCO header up to and including its
// own CRC (computed over every preceding field).
func EncodeColumnFileHeader(h ColumnFileHeader) []byte {
	body := make([]byte, 0, 4+4+2+len(h.TableName)+8+4+1)
	body = format.Endian.AppendUint32(body, format.ColumnMagic)
	body = format.Endian.AppendUint32(body, h.Version)
	body = format.Endian.AppendUint16(body, uint16(len(h.TableName)))
	body = append(body, h.TableName...)
	body = format.Endian.AppendUint64(body, h.RowCount)
	body = format.Endian.AppendUint32(body, h.ColumnCount)
	if h.CompressionEnabled {
		body = append(body, 1)
	} else {
		body = append(body, 0)
	}

	crc := CRC32(body)
	out := append(body, make([]byte, 4)...)
	format.Endian.PutUint32(out[len(body):], crc)

	return out
}

// DecodeColumnFileHeader parses a LYCO header from the start of data and
// returns the header plus the number of bytes consumed.
func DecodeColumnFileHeader(data []byte) (ColumnFileHeader, int, error) {
	if len(data) < 4+4+2 {
		return ColumnFileHeader{}, 0, &errs.FrameError{Reason: "column file header truncated"}
	}
	if format.Endian.Uint32(data[0:4]) != format.ColumnMagic {
		return ColumnFileHeader{}, 0, &errs.FrameError{Reason: "column file magic mismatch"}
	}

	version := format.Endian.Uint32(data[4:8])
	nameLen := int(format.Endian.Uint16(data[8:10]))
	off := 10
	if len(data) < off+nameLen+8+4+1+4 {
		return ColumnFileHeader{}, 0, &errs.FrameError{Reason: "column file header truncated"}
	}

	name := string(data[off : off+nameLen])
	off += nameLen
	rowCount := format.Endian.Uint64(data[off : off+8])
	off += 8
	columnCount := format.Endian.Uint32(data[off : off+4])
	off += 4
	compression := data[off] != 0
	off++

	headerBody := data[:off]
	crc := format.Endian.Uint32(data[off : off+4])
	off += 4

	if CRC32(headerBody) != crc {
		return ColumnFileHeader{}, 0, &errs.FrameError{Reason: "column file header CRC mismatch"}
	}

	h := ColumnFileHeader{
		Version:            version,
		TableName:          name,
		RowCount:           rowCount,
		ColumnCount:        columnCount,
		CompressionEnabled: compression,
		HeaderCRC:          crc,
	}

	return h, off, nil
}

// EncodePageIndex serializes the page index block (§6's page_index:
// count:u32, entries[...]).
func EncodePageIndex(entries []PageIndexEntry) []byte {
	out := make([]byte, 0, 4+len(entries)*(8+8+8+1+8+4))
	out = format.Endian.AppendUint32(out, uint32(len(entries)))
	for _, e := range entries {
		out = format.Endian.AppendUint64(out, e.PageID)
		out = format.Endian.AppendUint64(out, e.Offset)
		out = format.Endian.AppendUint64(out, e.Size)
		out = append(out, byte(e.Codec))
		out = format.Endian.AppendUint64(out, ratioBits(e.Ratio))
		out = format.Endian.AppendUint32(out, e.CRC)
	}

	return out
}

// DecodePageIndex parses the page index block and returns the entries plus
// bytes consumed.
func DecodePageIndex(data []byte) ([]PageIndexEntry, int, error) {
	if len(data) < 4 {
		return nil, 0, &errs.FrameError{Reason: "page index truncated"}
	}

	count := int(format.Endian.Uint32(data[:4]))
	off := 4
	entries := make([]PageIndexEntry, count)

	const entrySize = 8 + 8 + 8 + 1 + 8 + 4
	for i := 0; i < count; i++ {
		if off+entrySize > len(data) {
			return nil, 0, &errs.FrameError{Reason: "page index entry truncated"}
		}
		e := PageIndexEntry{
			PageID: format.Endian.Uint64(data[off:]),
			Offset: format.Endian.Uint64(data[off+8:]),
			Size:   format.Endian.Uint64(data[off+16:]),
			Codec:  format.CodecID(data[off+24]),
			Ratio:  ratioFromBits(format.Endian.Uint64(data[off+25:])),
			CRC:    format.Endian.Uint32(data[off+33:]),
		}
		entries[i] = e
		off += entrySize
	}

	return entries, off, nil
}

func ratioBits(r float64) uint64     { return math.Float64bits(r) }
func ratioFromBits(b uint64) float64 { return math.Float64frombits(b) }
