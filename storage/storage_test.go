package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/format"
)

func TestPageHeaderRoundTrip(t *testing.T) {
	body := []byte("hello-page-body")
	p := NewPage(7, 3, 2, format.CodecRLE, 32, body)

	raw := p.Header.Bytes()
	require.Len(t, raw, HeaderSize)

	parsed, err := ParsePageHeader(raw)
	require.NoError(t, err)
	require.Equal(t, p.Header, parsed)
	require.NoError(t, p.Verify())
}

func TestPageIntegrityDetectsBitFlip(t *testing.T) {
	body := []byte("some column page body bytes")
	p := NewPage(1, 1, 4, format.CodecUncompressed, uint64(len(body)), body)

	require.NoError(t, p.Verify())

	corrupted := append([]byte(nil), p.Body...)
	corrupted[0] ^= 0x01
	p.Body = corrupted

	require.Error(t, p.Verify())
}

func TestColumnFileHeaderRoundTrip(t *testing.T) {
	h := ColumnFileHeader{
		Version:            format.CurrentVersion,
		TableName:          "employees",
		RowCount:           5,
		ColumnCount:        3,
		CompressionEnabled: true,
	}

	raw := EncodeColumnFileHeader(h)
	parsed, n, err := DecodeColumnFileHeader(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Equal(t, h.TableName, parsed.TableName)
	require.Equal(t, h.RowCount, parsed.RowCount)
	require.Equal(t, h.ColumnCount, parsed.ColumnCount)
	require.True(t, parsed.CompressionEnabled)
}

func TestColumnFileHeaderRejectsBadMagic(t *testing.T) {
	h := ColumnFileHeader{TableName: "t", RowCount: 1, ColumnCount: 1}
	raw := EncodeColumnFileHeader(h)
	raw[0] ^= 0xFF

	_, _, err := DecodeColumnFileHeader(raw)
	require.Error(t, err)
}

func TestPageIndexRoundTrip(t *testing.T) {
	entries := []PageIndexEntry{
		{PageID: 1, Offset: 48, Size: 100, Codec: format.CodecDelta, Ratio: 0.5, CRC: 123},
		{PageID: 2, Offset: 148, Size: 200, Codec: format.CodecBitpack, Ratio: 0.25, CRC: 456},
	}

	raw := EncodePageIndex(entries)
	parsed, n, err := DecodePageIndex(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Equal(t, entries, parsed)
}

func TestTableFileHeaderRoundTrip(t *testing.T) {
	h := TableFileHeader{Version: format.CurrentVersion, RowCount: 10, ColumnCount: 4, SchemaID: 77}
	raw := EncodeTableFileHeader(h)

	parsed, n, err := DecodeTableFileHeader(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Equal(t, h.RowCount, parsed.RowCount)
	require.Equal(t, h.SchemaID, parsed.SchemaID)
}

func TestTableStatisticsRoundTrip(t *testing.T) {
	s := TableStatistics{
		TotalRows:           100,
		TotalColumns:        3,
		BytesBeforeCompress: 4096,
		BytesAfterCompress:  1024,
		OverallRatio:        0.25,
		Timestamp:           1234567,
		TableName:           "departments",
		TableVersion:        1,
		PerColumn: []ColumnStat{
			{Name: "dept_id", NullCount: 0, DistinctEst: 3},
			{Name: "name", NullCount: 1, DistinctEst: 3},
		},
	}

	raw := EncodeTableStatistics(s)
	parsed, n, err := DecodeTableStatistics(raw)
	require.NoError(t, err)
	require.Equal(t, len(raw), n)
	require.Equal(t, s, parsed)
}
