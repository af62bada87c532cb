package codec

import (
	"encoding/binary"

	"github.com/lyradb/lyradb/format"
)

// DeltaCodec implements delta encoding over a stream of signed 64-bit
// integers (§4.1). Wire format:
//
//	first_value: i64
//	num_values: u32
//	body: zigzag-varint encoded per-element deltas
//
// Reconstruction is a running sum starting from first_value. Zigzag maps
// signed deltas to unsigned varints so small negative and positive deltas
// both cost one byte, the same trick the teacher's timestamp delta encoder
// uses for delta-of-delta values.
type DeltaCodec struct{}

func NewDeltaCodec() DeltaCodec { return DeltaCodec{} }

func (DeltaCodec) ID() format.CodecID { return format.CodecDelta }

// Encode implements FixedCodec by reinterpreting data as valueSize-wide
// signed integers (4 or 8 bytes) before delta-encoding.
func (c DeltaCodec) Encode(data []byte, valueSize int) ([]byte, error) {
	values, err := bytesToInts(data, valueSize)
	if err != nil {
		return nil, err
	}

	return c.EncodeInts(values)
}

// Decode implements FixedCodec, reconstructing the original valueSize-wide
// integer stream.
func (c DeltaCodec) Decode(data []byte, valueSize int, count int) ([]byte, error) {
	values, err := c.DecodeInts(data)
	if err != nil {
		return nil, err
	}
	if len(values) != count {
		return nil, newFrameError("delta: decoded count mismatch")
	}

	return intsToFixedBytes(values, valueSize), nil
}

// EstimateRatio implements FixedCodec in terms of EstimateRatioInts.
func (c DeltaCodec) EstimateRatio(sample []byte, valueSize int) float64 {
	values, err := bytesToInts(sample, valueSize)
	if err != nil {
		return 1.5
	}

	return c.EstimateRatioInts(values)
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// EncodeInts delta-encodes a slice of int64 values.
func (DeltaCodec) EncodeInts(values []int64) ([]byte, error) {
	header := make([]byte, 8+4)
	if len(values) > 0 {
		format.Endian.PutUint64(header[0:8], uint64(values[0]))
	}
	format.Endian.PutUint32(header[8:12], uint32(len(values)))

	body := make([]byte, 0, len(values)*2)
	var varintBuf [binary.MaxVarintLen64]byte
	prev := int64(0)
	for i, v := range values {
		if i == 0 {
			prev = v

			continue
		}
		delta := v - prev
		n := binary.PutUvarint(varintBuf[:], zigzagEncode(delta))
		body = append(body, varintBuf[:n]...)
		prev = v
	}

	return append(header, body...), nil
}

// DecodeInts reconstructs the int64 values from a delta-encoded frame.
func (DeltaCodec) DecodeInts(data []byte) ([]int64, error) {
	if len(data) < 12 {
		return nil, newFrameError("delta: truncated header")
	}

	first := int64(format.Endian.Uint64(data[0:8]))
	numValues := int(format.Endian.Uint32(data[8:12]))
	body := data[12:]

	out := make([]int64, numValues)
	if numValues == 0 {
		return out, nil
	}

	out[0] = first
	prev := first
	off := 0
	for i := 1; i < numValues; i++ {
		zz, n := binary.Uvarint(body[off:])
		if n <= 0 {
			return nil, newFrameError("delta: truncated varint body")
		}
		off += n
		delta := zigzagDecode(zz)
		prev += delta
		out[i] = prev
	}

	return out, nil
}

// SuitabilityInts returns the fraction of consecutive pairs with a
// non-negative delta (§4.2 step 1: delta is favored when this is >= 0.8).
func (DeltaCodec) SuitabilityInts(sample []int64) float64 {
	if len(sample) < 2 {
		return 0
	}

	nonNeg := 0
	for i := 1; i < len(sample); i++ {
		if sample[i]-sample[i-1] >= 0 {
			nonNeg++
		}
	}

	return float64(nonNeg) / float64(len(sample)-1)
}

// EstimateRatioInts predicts the delta-encoded/raw-i64 ratio by measuring
// the average varint length of zigzag-encoded deltas in the sample.
func (DeltaCodec) EstimateRatioInts(sample []int64) float64 {
	if len(sample) == 0 {
		return 1.5
	}
	if len(sample) == 1 {
		return 12.0 / 8.0
	}

	bodyBytes := 0
	var varintBuf [binary.MaxVarintLen64]byte
	for i := 1; i < len(sample); i++ {
		delta := sample[i] - sample[i-1]
		n := binary.PutUvarint(varintBuf[:], zigzagEncode(delta))
		bodyBytes += n
	}

	encoded := 12 + bodyBytes
	orig := len(sample) * 8

	return float64(encoded) / float64(orig)
}
