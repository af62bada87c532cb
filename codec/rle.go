package codec

import (
	"github.com/lyradb/lyradb/format"
)

// RLECodec implements run-length encoding over fixed-size elements (§4.1).
//
// Wire format: a sequence of (count: u32, value: valueSize bytes) groups.
// Decoding emits count copies of value for each group, in order.
type RLECodec struct{}

var _ FixedCodec = RLECodec{}

func NewRLECodec() RLECodec { return RLECodec{} }

func (RLECodec) ID() format.CodecID { return format.CodecRLE }

// Encode groups consecutive equal elements. Suitable when the average run
// length is at least ~1.4 elements. Each run costs a 4-byte count plus one
// value, so the output is smaller than the input only once runs average
// more than (4+valueSize)/valueSize elements (2 for 4-byte values, 1.5 for
// 8-byte values).
func (RLECodec) Encode(data []byte, valueSize int) ([]byte, error) {
	if valueSize <= 0 {
		return nil, newFrameError("rle: invalid value size")
	}
	if len(data)%valueSize != 0 {
		return nil, newFrameError("rle: data not a multiple of value size")
	}

	n := len(data) / valueSize
	out := make([]byte, 0, len(data)/2+8)

	i := 0
	for i < n {
		value := data[i*valueSize : (i+1)*valueSize]
		run := 1
		for i+run < n && bytesEqual(data[(i+run)*valueSize:(i+run+1)*valueSize], value) {
			run++
		}

		out = format.Endian.AppendUint32(out, uint32(run))
		out = append(out, value...)
		i += run
	}

	return out, nil
}

// Decode reconstructs the original element stream from RLE groups.
func (RLECodec) Decode(data []byte, valueSize int, count int) ([]byte, error) {
	if valueSize <= 0 {
		return nil, newFrameError("rle: invalid value size")
	}

	out := make([]byte, 0, count*valueSize)
	off := 0
	emitted := 0

	for off < len(data) {
		if off+4 > len(data) {
			return nil, newFrameError("rle: truncated run count")
		}

		run := int(format.Endian.Uint32(data[off : off+4]))
		off += 4

		if off+valueSize > len(data) {
			return nil, newFrameError("rle: truncated run value")
		}
		value := data[off : off+valueSize]
		off += valueSize

		for j := 0; j < run; j++ {
			out = append(out, value...)
		}
		emitted += run
	}

	if emitted != count {
		return nil, newFrameError("rle: decoded count mismatch")
	}

	return out, nil
}

// EstimateRatio samples the stream and predicts the encoded/original ratio
// from the observed average run length: each run costs 4+valueSize bytes
// regardless of length, so ratio ≈ (4+valueSize) / (avgRun * valueSize).
func (RLECodec) EstimateRatio(sample []byte, valueSize int) float64 {
	if valueSize <= 0 || len(sample) < valueSize {
		return 1.5
	}

	n := len(sample) / valueSize
	runs := 0
	i := 0
	for i < n {
		value := sample[i*valueSize : (i+1)*valueSize]
		run := 1
		for i+run < n && bytesEqual(sample[(i+run)*valueSize:(i+run+1)*valueSize], value) {
			run++
		}
		runs++
		i += run
	}
	if runs == 0 {
		return 1.5
	}

	avgRun := float64(n) / float64(runs)
	groupCost := float64(4 + valueSize)

	ratio := groupCost / (avgRun * float64(valueSize))
	if ratio > 1.5 {
		ratio = 1.5
	}

	return ratio
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
