package codec

import "github.com/lyradb/lyradb/format"

// NoopCodec passes data through unchanged. Used whenever the selector
// determines no codec shrinks the input (§4.1, §4.2 step 4).
type NoopCodec struct{}

var _ FixedCodec = NoopCodec{}

func NewNoopCodec() NoopCodec { return NoopCodec{} }

func (NoopCodec) ID() format.CodecID { return format.CodecUncompressed }

func (NoopCodec) Encode(data []byte, _ int) ([]byte, error) { return data, nil }

func (NoopCodec) Decode(data []byte, _ int, _ int) ([]byte, error) { return data, nil }

func (NoopCodec) EstimateRatio(_ []byte, _ int) float64 { return 1.0 }
