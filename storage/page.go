// Package storage implements the on-disk page, column-file, and table-file
// formats described in §4.3 and §6: fixed 48-byte page headers, CRC-32
// checksums (reflected polynomial 0xEDB88320, i.e. the standard IEEE
// table), and the `.lycol`/`.lyta` container formats.
package storage

import (
	"hash/crc32"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
)

// Page header field offsets, mirroring the fixed-header-with-named-offsets
// style used for the pack's other binary container formats.
const (
	offMagic         = 0x00 // [4]byte
	offPageID        = 0x04 // u64
	offColumnID      = 0x0C // u32
	offRowCount      = 0x10 // u32
	offCodecID       = 0x14 // u8
	offReserved      = 0x15 // [7]byte, rounds the header to 48 bytes
	offOriginalSize  = 0x1C // u64
	offEncodedSize   = 0x24 // u64
	offCRC           = 0x2C // u32
	pageHeaderLength = 0x30 // 48
)

// PageHeader is the fixed-size record at the start of every page (§4.3).
type PageHeader struct {
	PageID       uint64
	ColumnID     uint32
	RowCount     uint32
	CodecID      format.CodecID
	OriginalSize uint64
	EncodedSize  uint64
	CRC          uint32
}

// Bytes serializes h into a 48-byte page header.
func (h *PageHeader) Bytes() []byte {
	buf := make([]byte, pageHeaderLength)
	copy(buf[offMagic:], format.PageMagic)
	format.Endian.PutUint64(buf[offPageID:], h.PageID)
	format.Endian.PutUint32(buf[offColumnID:], h.ColumnID)
	format.Endian.PutUint32(buf[offRowCount:], h.RowCount)
	buf[offCodecID] = byte(h.CodecID)
	format.Endian.PutUint64(buf[offOriginalSize:], h.OriginalSize)
	format.Endian.PutUint64(buf[offEncodedSize:], h.EncodedSize)
	format.Endian.PutUint32(buf[offCRC:], h.CRC)

	return buf
}

// ParsePageHeader reads a 48-byte page header from data, rejecting an
// unrecognized magic.
func ParsePageHeader(data []byte) (PageHeader, error) {
	if len(data) < pageHeaderLength {
		return PageHeader{}, &errs.FrameError{Reason: "page header truncated"}
	}
	if string(data[offMagic:offMagic+4]) != format.PageMagic {
		return PageHeader{}, &errs.FrameError{Reason: "page magic mismatch"}
	}

	h := PageHeader{
		PageID:       format.Endian.Uint64(data[offPageID:]),
		ColumnID:     format.Endian.Uint32(data[offColumnID:]),
		RowCount:     format.Endian.Uint32(data[offRowCount:]),
		CodecID:      format.CodecID(data[offCodecID]),
		OriginalSize: format.Endian.Uint64(data[offOriginalSize:]),
		EncodedSize:  format.Endian.Uint64(data[offEncodedSize:]),
		CRC:          format.Endian.Uint32(data[offCRC:]),
	}

	return h, nil
}

// HeaderSize is the fixed page header length in bytes (48, per §4.3/§6).
const HeaderSize = pageHeaderLength

// CRC32 computes the CRC-32 of body using the reflected polynomial
// 0xEDB88320 (the standard library's crc32.IEEE table implements exactly
// this polynomial, so no third-party checksum library is needed here —
// see DESIGN.md).
func CRC32(body []byte) uint32 {
	return crc32.ChecksumIEEE(body)
}

// Page is a fully materialized page: header plus encoded body.
type Page struct {
	Header PageHeader
	Body   []byte
}

// Verify recomputes the CRC of p.Body and compares it with the header's
// recorded CRC, detecting any single-byte flip in the body (§8 "Page
// integrity").
func (p *Page) Verify() error {
	if CRC32(p.Body) != p.Header.CRC {
		return &errs.FrameError{Reason: "page body CRC mismatch"}
	}

	return nil
}

// NewPage builds a Page, computing and stamping the body CRC.
func NewPage(pageID uint64, columnID uint32, rowCount uint32, codecID format.CodecID, originalSize uint64, body []byte) Page {
	h := PageHeader{
		PageID:       pageID,
		ColumnID:     columnID,
		RowCount:     rowCount,
		CodecID:      codecID,
		OriginalSize: originalSize,
		EncodedSize:  uint64(len(body)),
		CRC:          CRC32(body),
	}

	return Page{Header: h, Body: body}
}
