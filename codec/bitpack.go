package codec

import (
	"math/bits"

	"github.com/lyradb/lyradb/format"
)

// BitpackCodec implements fixed-width bitpacking over a stream of signed
// 64-bit integers (§4.1). Wire format:
//
//	bit_width: u8
//	num_values: u32
//	min_value: i64
//	body: num_values × bit_width bits, LSB-first
//
// bit_width = ceil(log2(max-min+1)), clamped to [1,64].
type BitpackCodec struct{}

func NewBitpackCodec() BitpackCodec { return BitpackCodec{} }

func (BitpackCodec) ID() format.CodecID { return format.CodecBitpack }

// Encode implements FixedCodec by reinterpreting data as valueSize-wide
// signed integers before bitpacking.
func (c BitpackCodec) Encode(data []byte, valueSize int) ([]byte, error) {
	values, err := bytesToInts(data, valueSize)
	if err != nil {
		return nil, err
	}

	return c.EncodeInts(values)
}

// Decode implements FixedCodec, reconstructing the original valueSize-wide
// integer stream.
func (c BitpackCodec) Decode(data []byte, valueSize int, count int) ([]byte, error) {
	values, err := c.DecodeInts(data)
	if err != nil {
		return nil, err
	}
	if len(values) != count {
		return nil, newFrameError("bitpack: decoded count mismatch")
	}

	return intsToFixedBytes(values, valueSize), nil
}

// EstimateRatio implements FixedCodec in terms of EstimateRatioInts.
func (c BitpackCodec) EstimateRatio(sample []byte, valueSize int) float64 {
	values, err := bytesToInts(sample, valueSize)
	if err != nil {
		return 1.5
	}

	return c.EstimateRatioInts(values)
}

// BitWidthFor computes the bit width needed to represent every value in
// [min, max] as an unsigned offset from min.
func BitWidthFor(min, max int64) int {
	if max < min {
		return 1
	}
	span := uint64(max - min)
	w := bits.Len64(span)
	if w == 0 {
		w = 1
	}
	if w > 64 {
		w = 64
	}

	return w
}

// EncodeInts bitpacks a slice of int64 values.
func (BitpackCodec) EncodeInts(values []int64) ([]byte, error) {
	if len(values) == 0 {
		return append([]byte{1, 0, 0, 0, 0}, make([]byte, 8)...), nil
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	width := BitWidthFor(min, max)

	header := make([]byte, 1+4+8)
	header[0] = byte(width)
	format.Endian.PutUint32(header[1:5], uint32(len(values)))
	format.Endian.PutUint64(header[5:13], uint64(min))

	bodyBits := width * len(values)
	body := make([]byte, (bodyBits+7)/8)

	bitPos := 0
	for _, v := range values {
		offset := uint64(v - min)
		writeBits(body, bitPos, width, offset)
		bitPos += width
	}

	return append(header, body...), nil
}

// DecodeInts reconstructs the int64 values from a bitpacked frame.
func (BitpackCodec) DecodeInts(data []byte) ([]int64, error) {
	if len(data) < 13 {
		return nil, newFrameError("bitpack: truncated header")
	}

	width := int(data[0])
	if width < 0 || width > 64 {
		return nil, newFrameError("bitpack: invalid bit width")
	}
	numValues := int(format.Endian.Uint32(data[1:5]))
	min := int64(format.Endian.Uint64(data[5:13]))
	body := data[13:]

	if numValues == 0 {
		return []int64{}, nil
	}
	if width == 0 {
		out := make([]int64, numValues)
		for i := range out {
			out[i] = min
		}

		return out, nil
	}

	needed := (width*numValues + 7) / 8
	if len(body) < needed {
		return nil, newFrameError("bitpack: truncated body")
	}

	out := make([]int64, numValues)
	bitPos := 0
	for i := 0; i < numValues; i++ {
		offset := readBits(body, bitPos, width)
		out[i] = min + int64(offset)
		bitPos += width
	}

	return out, nil
}

// EstimateRatioInts predicts the bitpacked/raw-i64 ratio from min/max/count
// without encoding the whole stream (§4.2 step 1).
func (BitpackCodec) EstimateRatioInts(sample []int64) float64 {
	if len(sample) == 0 {
		return 1.5
	}

	min, max := sample[0], sample[0]
	for _, v := range sample[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	width := BitWidthFor(min, max)

	encodedBits := 13*8 + width*len(sample)
	origBits := len(sample) * 64

	return float64(encodedBits) / float64(origBits)
}

func writeBits(dst []byte, bitPos, width int, value uint64) {
	for b := 0; b < width; b++ {
		if value&(1<<uint(b)) != 0 {
			bit := bitPos + b
			dst[bit/8] |= 1 << uint(bit%8)
		}
	}
}

func readBits(src []byte, bitPos, width int) uint64 {
	var v uint64
	for b := 0; b < width; b++ {
		bit := bitPos + b
		if src[bit/8]&(1<<uint(bit%8)) != 0 {
			v |= 1 << uint(b)
		}
	}

	return v
}
