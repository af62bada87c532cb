package storage

import (
	"time"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
)

// TableFileHeader is the fixed prefix of a `.lyta` file (§6).
type TableFileHeader struct {
	Version     uint32
	RowCount    uint64
	ColumnCount uint32
	SchemaID    uint32
	HeaderCRC   uint32
}

// TableColumnMetadata describes one column's companion file (§6).
type TableColumnMetadata struct {
	ColumnID  uint32
	Offset    uint64
	Size      uint64
	Codec     format.CodecID
	PageCount uint32
	Ratio     float64
	CRC       uint32
}

// ColumnStat holds per-column aggregate statistics inside TableStatistics.
type ColumnStat struct {
	Name         string
	NullCount    uint64
	DistinctEst  uint64
}

// TableStatistics is the aggregated statistics block appended after the
// per-column metadata array (§4.6, §6).
type TableStatistics struct {
	TotalRows            uint64
	TotalColumns          uint32
	BytesBeforeCompress  uint64
	BytesAfterCompress   uint64
	OverallRatio         float64
	Timestamp            int64 // unix nanos
	TableName            string
	TableVersion         uint32
	PerColumn            []ColumnStat
}

// EncodeTableFileHeader serializes the LYTA header up to and including its
// own CRC.
func EncodeTableFileHeader(h TableFileHeader) []byte {
	body := make([]byte, 0, 4+4+8+4+4)
	body = format.Endian.AppendUint32(body, format.TableMagic)
	body = format.Endian.AppendUint32(body, h.Version)
	body = format.Endian.AppendUint64(body, h.RowCount)
	body = format.Endian.AppendUint32(body, h.ColumnCount)
	body = format.Endian.AppendUint32(body, h.SchemaID)

	crc := CRC32(body)
	out := append(body, make([]byte, 4)...)
	format.Endian.PutUint32(out[len(body):], crc)

	return out
}

// DecodeTableFileHeader parses a LYTA header and returns bytes consumed.
func DecodeTableFileHeader(data []byte) (TableFileHeader, int, error) {
	const fixed = 4 + 4 + 8 + 4 + 4
	if len(data) < fixed+4 {
		return TableFileHeader{}, 0, &errs.FrameError{Reason: "table file header truncated"}
	}
	if format.Endian.Uint32(data[0:4]) != format.TableMagic {
		return TableFileHeader{}, 0, &errs.FrameError{Reason: "table file magic mismatch"}
	}

	headerBody := data[:fixed]
	crc := format.Endian.Uint32(data[fixed : fixed+4])
	if CRC32(headerBody) != crc {
		return TableFileHeader{}, 0, &errs.FrameError{Reason: "table file header CRC mismatch"}
	}

	h := TableFileHeader{
		Version:     format.Endian.Uint32(data[4:8]),
		RowCount:    format.Endian.Uint64(data[8:16]),
		ColumnCount: format.Endian.Uint32(data[16:20]),
		SchemaID:    format.Endian.Uint32(data[20:24]),
		HeaderCRC:   crc,
	}

	return h, fixed + 4, nil
}

const tableColumnMetaSize = 4 + 8 + 8 + 1 + 3 + 4 + 8 + 4 // 40 bytes, +3 pad per §6

// EncodeTableColumnMetadata serializes one TableColumnMetadata record.
func EncodeTableColumnMetadata(m TableColumnMetadata) []byte {
	out := make([]byte, 0, tableColumnMetaSize)
	out = format.Endian.AppendUint32(out, m.ColumnID)
	out = format.Endian.AppendUint64(out, m.Offset)
	out = format.Endian.AppendUint64(out, m.Size)
	out = append(out, byte(m.Codec))
	out = append(out, 0, 0, 0) // +3 pad per §6
	out = format.Endian.AppendUint32(out, m.PageCount)
	out = format.Endian.AppendUint64(out, ratioBits(m.Ratio))
	out = format.Endian.AppendUint32(out, m.CRC)

	return out
}

// DecodeTableColumnMetadata parses one TableColumnMetadata record.
func DecodeTableColumnMetadata(data []byte) (TableColumnMetadata, error) {
	if len(data) < tableColumnMetaSize {
		return TableColumnMetadata{}, &errs.FrameError{Reason: "table column metadata truncated"}
	}

	m := TableColumnMetadata{
		ColumnID:  format.Endian.Uint32(data[0:4]),
		Offset:    format.Endian.Uint64(data[4:12]),
		Size:      format.Endian.Uint64(data[12:20]),
		Codec:     format.CodecID(data[20]),
		PageCount: format.Endian.Uint32(data[24:28]),
		Ratio:     ratioFromBits(format.Endian.Uint64(data[28:36])),
		CRC:       format.Endian.Uint32(data[36:40]),
	}

	return m, nil
}

// EncodeTableStatistics serializes the aggregated statistics block.
func EncodeTableStatistics(s TableStatistics) []byte {
	out := make([]byte, 0, 64+len(s.TableName)+len(s.PerColumn)*24)
	out = format.Endian.AppendUint64(out, s.TotalRows)
	out = format.Endian.AppendUint32(out, s.TotalColumns)
	out = format.Endian.AppendUint64(out, s.BytesBeforeCompress)
	out = format.Endian.AppendUint64(out, s.BytesAfterCompress)
	out = format.Endian.AppendUint64(out, ratioBits(s.OverallRatio))
	out = format.Endian.AppendUint64(out, uint64(s.Timestamp))
	out = format.Endian.AppendUint16(out, uint16(len(s.TableName)))
	out = append(out, s.TableName...)
	out = format.Endian.AppendUint32(out, s.TableVersion)
	out = format.Endian.AppendUint32(out, uint32(len(s.PerColumn)))
	for _, c := range s.PerColumn {
		out = format.Endian.AppendUint16(out, uint16(len(c.Name)))
		out = append(out, c.Name...)
		out = format.Endian.AppendUint64(out, c.NullCount)
		out = format.Endian.AppendUint64(out, c.DistinctEst)
	}

	return out
}

// DecodeTableStatistics parses the aggregated statistics block and returns
// bytes consumed.
func DecodeTableStatistics(data []byte) (TableStatistics, int, error) {
	const fixed = 8 + 4 + 8 + 8 + 8 + 8 + 2
	if len(data) < fixed {
		return TableStatistics{}, 0, &errs.FrameError{Reason: "table statistics truncated"}
	}

	off := 0
	s := TableStatistics{}
	s.TotalRows = format.Endian.Uint64(data[off:])
	off += 8
	s.TotalColumns = format.Endian.Uint32(data[off:])
	off += 4
	s.BytesBeforeCompress = format.Endian.Uint64(data[off:])
	off += 8
	s.BytesAfterCompress = format.Endian.Uint64(data[off:])
	off += 8
	s.OverallRatio = ratioFromBits(format.Endian.Uint64(data[off:]))
	off += 8
	s.Timestamp = int64(format.Endian.Uint64(data[off:]))
	off += 8
	nameLen := int(format.Endian.Uint16(data[off:]))
	off += 2
	if len(data) < off+nameLen+4 {
		return TableStatistics{}, 0, &errs.FrameError{Reason: "table statistics truncated"}
	}
	s.TableName = string(data[off : off+nameLen])
	off += nameLen
	s.TableVersion = format.Endian.Uint32(data[off:])
	off += 4

	if len(data) < off+4 {
		return TableStatistics{}, 0, &errs.FrameError{Reason: "table statistics truncated"}
	}
	numCols := int(format.Endian.Uint32(data[off:]))
	off += 4

	s.PerColumn = make([]ColumnStat, numCols)
	for i := 0; i < numCols; i++ {
		if len(data) < off+2 {
			return TableStatistics{}, 0, &errs.FrameError{Reason: "table statistics column truncated"}
		}
		l := int(format.Endian.Uint16(data[off:]))
		off += 2
		if len(data) < off+l+16 {
			return TableStatistics{}, 0, &errs.FrameError{Reason: "table statistics column truncated"}
		}
		name := string(data[off : off+l])
		off += l
		nullCount := format.Endian.Uint64(data[off:])
		off += 8
		distinct := format.Endian.Uint64(data[off:])
		off += 8
		s.PerColumn[i] = ColumnStat{Name: name, NullCount: nullCount, DistinctEst: distinct}
	}

	return s, off, nil
}

// NowTimestamp is the nanosecond unix timestamp stamped into a new
// TableStatistics block at finalize.
func NowTimestamp() int64 { return time.Now().UnixNano() }
