package column

import (
	"math"

	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
)

// floatBitsForType reinterprets f as the IEEE-754 bit pattern for typ,
// carried in an int64 so the writer's pending buffer stays a single
// []int64 regardless of column type.
func floatBitsForType(f float64, typ format.DataType) uint64 {
	if typ == format.TypeFloat32 {
		return uint64(math.Float32bits(float32(f)))
	}

	return math.Float64bits(f)
}

func floatFromBitsForType(bits uint64, typ format.DataType) float64 {
	if typ == format.TypeFloat32 {
		return float64(math.Float32frombits(uint32(bits)))
	}

	return math.Float64frombits(bits)
}

// intsToFixedBytesForType serializes values as a contiguous little-endian
// byte stream sized per typ.FixedSize(), the in-progress page body layout
// described in §4.5.
func intsToFixedBytesForType(values []int64, typ format.DataType) []byte {
	size := typ.FixedSize()
	out := make([]byte, len(values)*size)
	for i, v := range values {
		switch size {
		case 1:
			out[i] = byte(v)
		case 4:
			format.Endian.PutUint32(out[i*4:i*4+4], uint32(v))
		case 8:
			format.Endian.PutUint64(out[i*8:i*8+8], uint64(v))
		}
	}

	return out
}

// bytesToIntsForType is the inverse of intsToFixedBytesForType.
func bytesToIntsForType(data []byte, typ format.DataType) ([]int64, error) {
	size := typ.FixedSize()
	if size == 0 || len(data)%size != 0 {
		return nil, &errs.FrameError{Reason: "column page body not a multiple of value size"}
	}

	n := len(data) / size
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		switch size {
		case 1:
			out[i] = int64(data[i])
		case 4:
			out[i] = int64(int32(format.Endian.Uint32(data[i*4 : i*4+4])))
		case 8:
			out[i] = int64(format.Endian.Uint64(data[i*8 : i*8+8]))
		}
	}

	return out, nil
}

// encodeStringFrame serializes a string sequence as a length-prefixed
// frame (count:u32, then len:u32+bytes per entry) so it can be passed
// through a byte-oriented FixedCodec (valueSize=1) without assuming an
// unescaped separator is safe for arbitrary UTF-8 content.
func encodeStringFrame(values []string) []byte {
	total := 4
	for _, s := range values {
		total += 4 + len(s)
	}
	out := make([]byte, 0, total)
	out = format.Endian.AppendUint32(out, uint32(len(values)))
	for _, s := range values {
		out = format.Endian.AppendUint32(out, uint32(len(s)))
		out = append(out, s...)
	}

	return out
}

// decodeStringFrame is the inverse of encodeStringFrame.
func decodeStringFrame(data []byte) ([]string, error) {
	if len(data) < 4 {
		return nil, &errs.FrameError{Reason: "string frame truncated"}
	}

	count := int(format.Endian.Uint32(data[:4]))
	off := 4
	out := make([]string, count)
	for i := 0; i < count; i++ {
		if off+4 > len(data) {
			return nil, &errs.FrameError{Reason: "string frame entry truncated"}
		}
		l := int(format.Endian.Uint32(data[off:]))
		off += 4
		if off+l > len(data) {
			return nil, &errs.FrameError{Reason: "string frame entry truncated"}
		}
		out[i] = string(data[off : off+l])
		off += l
	}

	return out, nil
}
