package codec

import "github.com/lyradb/lyradb/format"

// bytesToInts reinterprets a fixed-width byte stream as signed 64-bit
// integers, sign-extending 4-byte elements. Used by the integer codecs
// (delta, bitpack) so they can satisfy FixedCodec over the raw page body.
func bytesToInts(data []byte, valueSize int) ([]int64, error) {
	if valueSize != 4 && valueSize != 8 {
		return nil, newFrameError("unsupported integer value size")
	}
	if len(data)%valueSize != 0 {
		return nil, newFrameError("data not a multiple of value size")
	}

	n := len(data) / valueSize
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		switch valueSize {
		case 4:
			out[i] = int64(int32(format.Endian.Uint32(data[i*4 : i*4+4])))
		case 8:
			out[i] = int64(format.Endian.Uint64(data[i*8 : i*8+8]))
		}
	}

	return out, nil
}

// intsToFixedBytes is the inverse of bytesToInts.
func intsToFixedBytes(values []int64, valueSize int) []byte {
	out := make([]byte, len(values)*valueSize)
	for i, v := range values {
		switch valueSize {
		case 4:
			format.Endian.PutUint32(out[i*4:i*4+4], uint32(int32(v)))
		case 8:
			format.Endian.PutUint64(out[i*8:i*8+8], uint64(v))
		}
	}

	return out
}

var (
	_ FixedCodec = DeltaCodec{}
	_ FixedCodec = BitpackCodec{}
)
