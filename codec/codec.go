// Package codec implements the page-body compression codecs described in
// §4.1: run-length encoding, dictionary encoding, bitpacking, delta
// encoding, and a general-purpose dictionary-LZ fallback, plus the
// sampling-based selector in §4.2 that picks among them.
//
// Every codec here operates on a fixed-size-element byte stream (the
// in-progress page body before it is finalized) except the dictionary
// codec, which operates directly on a sequence of strings. All codecs
// satisfy the round-trip law: Decode(Encode(x)) == x, bit-exact, for any
// input satisfying the codec's precondition.
package codec

import (
	"github.com/lyradb/lyradb/errs"
	"github.com/lyradb/lyradb/format"
)

// FixedCodec compresses and decompresses a contiguous byte stream of
// fixed-size elements (e.g. 4-byte int32s, 8-byte float64s).
type FixedCodec interface {
	// ID returns the codec's on-disk identifier.
	ID() format.CodecID
	// Encode compresses data, which must be a multiple of valueSize bytes.
	Encode(data []byte, valueSize int) ([]byte, error)
	// Decode reconstructs the original data; count is the number of
	// fixed-size elements originally encoded.
	Decode(data []byte, valueSize int, count int) ([]byte, error)
	// EstimateRatio returns an estimated encoded/original size ratio in
	// (0, 1.5] computed from a sample, without encoding the whole stream.
	EstimateRatio(sample []byte, valueSize int) float64
}

// StringCodec compresses and decompresses a sequence of variable-length
// strings, used by the dictionary codec.
type StringCodec interface {
	ID() format.CodecID
	EncodeStrings(values []string) ([]byte, error)
	DecodeStrings(data []byte, count int) ([]string, error)
	EstimateRatioStrings(sample []string) float64
}

// Choice is the outcome of codec selection (§4.2): which codec to use and
// the ratio that justified it.
type Choice struct {
	Codec          format.CodecID
	EstimatedRatio float64
}

// newFrameError is a small helper so every codec reports truncated/malformed
// input the same way (§4.1's "Failure modes").
func newFrameError(reason string) error {
	return &errs.FrameError{Reason: reason}
}
