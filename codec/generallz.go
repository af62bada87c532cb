package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/internal/pool"
)

// GeneralAlgo selects the block backend behind GeneralLZCodec.
type GeneralAlgo uint8

const (
	GeneralAlgoZstd GeneralAlgo = iota
	GeneralAlgoLZ4
)

// zstdDecoderPool and zstdEncoderPool amortize encoder/decoder setup cost
// across pages, mirroring the warmed-up-encoder pattern the teacher uses
// for its Zstd compressor.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("codec: failed to create zstd decoder: %v", err))
		}

		return d
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		e, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderCRC(false))
		if err != nil {
			panic(fmt.Sprintf("codec: failed to create zstd encoder: %v", err))
		}

		return e
	},
}

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

// GeneralLZCodec implements the "general-purpose dictionary-LZ" codec from
// §4.1: an opaque, self-describing block codec used as the fallback when no
// specialized codec (RLE, dictionary, bitpacking, delta) beats the minimum
// compression ratio gate. Encode never returns the input verbatim: the zstd
// backend always returns a zstd frame, even one larger than the input, and
// the lz4 backend returns an error when the block does not compress.
type GeneralLZCodec struct {
	algo GeneralAlgo
}

var _ FixedCodec = GeneralLZCodec{}

func NewGeneralLZCodec(algo GeneralAlgo) GeneralLZCodec {
	return GeneralLZCodec{algo: algo}
}

func (GeneralLZCodec) ID() format.CodecID { return format.CodecGeneralLZ }

func (c GeneralLZCodec) Encode(data []byte, _ int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch c.algo {
	case GeneralAlgoLZ4:
		return c.encodeLZ4(data)
	default:
		return c.encodeZstd(data)
	}
}

func (c GeneralLZCodec) Decode(data []byte, _ int, count int) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	switch c.algo {
	case GeneralAlgoLZ4:
		return c.decodeLZ4(data)
	default:
		return c.decodeZstd(data)
	}
}

func (c GeneralLZCodec) encodeZstd(data []byte) ([]byte, error) {
	enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(enc)

	return enc.EncodeAll(data, nil), nil
}

func (c GeneralLZCodec) decodeZstd(data []byte) ([]byte, error) {
	dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, newFrameError("general-lz: zstd decode failed: " + err.Error())
	}

	return out, nil
}

func (c GeneralLZCodec) encodeLZ4(data []byte) ([]byte, error) {
	buf := pool.GetPageBuffer()
	defer pool.PutPageBuffer(buf)
	buf.Grow(lz4.CompressBlockBound(len(data)))
	dst := buf.B[:cap(buf.B)]

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, newFrameError("general-lz: lz4 encode failed: " + err.Error())
	}
	if n == 0 {
		// lz4 reports n==0 when the block did not compress; caller falls
		// back to uncompressed per §4.1.
		return nil, newFrameError("general-lz: incompressible")
	}

	out := make([]byte, 4+n)
	format.Endian.PutUint32(out[:4], uint32(len(data)))
	copy(out[4:], dst[:n])

	return out, nil
}

func (c GeneralLZCodec) decodeLZ4(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, newFrameError("general-lz: truncated lz4 frame")
	}
	origSize := int(format.Endian.Uint32(data[:4]))
	dst := make([]byte, origSize)

	n, err := lz4.UncompressBlock(data[4:], dst)
	if err != nil {
		return nil, newFrameError("general-lz: lz4 decode failed: " + err.Error())
	}

	return dst[:n], nil
}

// EstimateRatio samples up to the caller-provided slice (the selector caps
// this at 4 KiB/64 KiB per §4.2) and actually runs the backend, since the
// general-purpose codec has no cheap closed-form ratio estimate.
func (c GeneralLZCodec) EstimateRatio(sample []byte, _ int) float64 {
	if len(sample) == 0 {
		return 1.0
	}

	encoded, err := c.Encode(sample, 0)
	if err != nil || len(encoded) == 0 {
		return 1.5
	}

	return float64(len(encoded)) / float64(len(sample))
}
