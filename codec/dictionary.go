package codec

import (
	"sort"

	"github.com/lyradb/lyradb/format"
)

// DictionaryCodec implements dictionary encoding over a sequence of strings
// (§4.1). Wire format:
//
//	num_entries: u32
//	entries: num_entries × [len: u16, bytes: len]   (sorted by frequency desc)
//	values: num_values × u32 ids
//
// Entries are sorted by descending frequency so the most common values get
// the smallest ids, which helps a downstream varint-style codec shrink the
// id stream further.
type DictionaryCodec struct{}

var _ StringCodec = DictionaryCodec{}

func NewDictionaryCodec() DictionaryCodec { return DictionaryCodec{} }

func (DictionaryCodec) ID() format.CodecID { return format.CodecDictionary }

func (DictionaryCodec) EncodeStrings(values []string) ([]byte, error) {
	freq := make(map[string]int, len(values))
	for _, v := range values {
		freq[v]++
	}

	entries := make([]string, 0, len(freq))
	for v := range freq {
		entries = append(entries, v)
	}
	sort.Slice(entries, func(i, j int) bool {
		if freq[entries[i]] != freq[entries[j]] {
			return freq[entries[i]] > freq[entries[j]]
		}

		return entries[i] < entries[j] // stable tie-break for determinism
	})

	idOf := make(map[string]uint32, len(entries))
	for i, v := range entries {
		idOf[v] = uint32(i)
	}

	out := make([]byte, 0, 4+len(entries)*8+len(values)*4)
	out = format.Endian.AppendUint32(out, uint32(len(entries)))
	for _, e := range entries {
		if len(e) > 0xFFFF {
			return nil, newFrameError("dictionary: entry exceeds 65535 bytes")
		}
		out = format.Endian.AppendUint16(out, uint16(len(e)))
		out = append(out, e...)
	}
	for _, v := range values {
		out = format.Endian.AppendUint32(out, idOf[v])
	}

	return out, nil
}

func (DictionaryCodec) DecodeStrings(data []byte, count int) ([]string, error) {
	if len(data) < 4 {
		return nil, newFrameError("dictionary: truncated header")
	}

	numEntries := int(format.Endian.Uint32(data[:4]))
	off := 4

	entries := make([]string, numEntries)
	for i := 0; i < numEntries; i++ {
		if off+2 > len(data) {
			return nil, newFrameError("dictionary: truncated entry length")
		}
		l := int(format.Endian.Uint16(data[off : off+2]))
		off += 2
		if off+l > len(data) {
			return nil, newFrameError("dictionary: truncated entry bytes")
		}
		entries[i] = string(data[off : off+l])
		off += l
	}

	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return nil, newFrameError("dictionary: truncated id stream")
		}
		id := format.Endian.Uint32(data[off : off+4])
		off += 4
		if int(id) >= len(entries) {
			return nil, newFrameError("dictionary: id out of range")
		}
		out = append(out, entries[id])
	}

	return out, nil
}

// EstimateRatioStrings is applicable when distinct/total <= 0.1 (§4.2 step 3).
func (DictionaryCodec) EstimateRatioStrings(sample []string) float64 {
	if len(sample) == 0 {
		return 1.5
	}

	seen := make(map[string]struct{}, len(sample))
	origBytes := 0
	for _, s := range sample {
		seen[s] = struct{}{}
		origBytes += len(s)
	}
	distinct := len(seen)

	if float64(distinct)/float64(len(sample)) > 0.1 {
		return 1.5 // gate fails; caller should not pick this codec
	}

	entryBytes := 0
	for s := range seen {
		entryBytes += 2 + len(s)
	}
	encodedBytes := 4 + entryBytes + len(sample)*4
	if origBytes == 0 {
		return 1.5
	}

	return float64(encodedBytes) / float64(origBytes)
}
