package codec

import (
	"github.com/lyradb/lyradb/format"
)

// DefaultMinCompressionRatio is the gate below which the selector falls
// back to the general-purpose codec (§4.2 step 4).
const DefaultMinCompressionRatio = 0.95

// MaxBinarySampleBytes and MaxGenericSampleBytes bound how much of a stream
// the selector inspects (§4.2's closing paragraph: "never looks at the
// whole stream").
const (
	MaxBinarySampleBytes  = 4 * 1024
	MaxGenericSampleBytes = 64 * 1024
)

// Selector picks a codec for a column's in-progress page using sampled
// statistics, per §4.2's four-step procedure.
type Selector struct {
	MinCompressionRatio float64
	GeneralPurpose      FixedCodec
	Dictionary          StringCodec
}

// NewSelector builds a Selector with the default minimum compression ratio
// and a zstd-backed general-purpose fallback.
func NewSelector() *Selector {
	return &Selector{
		MinCompressionRatio: DefaultMinCompressionRatio,
		GeneralPurpose:      NewGeneralLZCodec(GeneralAlgoZstd),
		Dictionary:          NewDictionaryCodec(),
	}
}

// SelectInts chooses a codec for an integer column (§4.2 step 1).
func (s *Selector) SelectInts(values []int64) Choice {
	sample := sampleInts(values, MaxBinarySampleBytes/8)

	best := Choice{Codec: format.CodecUncompressed, EstimatedRatio: 1.0}

	delta := NewDeltaCodec()
	if delta.SuitabilityInts(sample) >= 0.8 {
		ratio := delta.EstimateRatioInts(sample)
		if ratio < best.EstimatedRatio {
			best = Choice{Codec: format.CodecDelta, EstimatedRatio: ratio}
		}
	}

	bp := NewBitpackCodec()
	if ratio := bp.EstimateRatioInts(sample); ratio < best.EstimatedRatio {
		best = Choice{Codec: format.CodecBitpack, EstimatedRatio: ratio}
	}

	rle := NewRLECodec()
	rawSample := intsToBytes(sample)
	if ratio := rle.EstimateRatio(rawSample, 8); ratio < best.EstimatedRatio {
		best = Choice{Codec: format.CodecRLE, EstimatedRatio: ratio}
	}

	return s.applyGate(best, rawSample, 8)
}

// SelectGeneric chooses a codec for a generic fixed-size binary stream
// (§4.2 step 2: evaluate RLE for binary data).
func (s *Selector) SelectGeneric(data []byte, valueSize int) Choice {
	sample := data
	if len(sample) > MaxGenericSampleBytes {
		sample = sample[:MaxGenericSampleBytes]
	}

	best := Choice{Codec: format.CodecUncompressed, EstimatedRatio: 1.0}

	rle := NewRLECodec()
	if ratio := rle.EstimateRatio(sample, valueSize); ratio < best.EstimatedRatio {
		best = Choice{Codec: format.CodecRLE, EstimatedRatio: ratio}
	}

	return s.applyGate(best, sample, valueSize)
}

// SelectStrings chooses a codec for a string-sequence column (§4.2 step 3).
func (s *Selector) SelectStrings(values []string) Choice {
	sample := values
	total := 0
	for i, v := range values {
		total += len(v)
		if total > MaxGenericSampleBytes && i > 0 {
			sample = values[:i]

			break
		}
	}

	best := Choice{Codec: format.CodecUncompressed, EstimatedRatio: 1.0}

	distinct := distinctCount(sample)
	if len(sample) > 0 && float64(distinct)/float64(len(sample)) <= 0.1 {
		if ratio := s.Dictionary.EstimateRatioStrings(sample); ratio < best.EstimatedRatio {
			best = Choice{Codec: format.CodecDictionary, EstimatedRatio: ratio}
		}
	}

	if best.EstimatedRatio >= s.MinCompressionRatio {
		raw := joinStrings(sample)
		genRatio := s.GeneralPurpose.EstimateRatio(raw, 1)
		if genRatio < best.EstimatedRatio {
			best = Choice{Codec: format.CodecGeneralLZ, EstimatedRatio: genRatio}
		}
		if genRatio >= s.MinCompressionRatio {
			best = Choice{Codec: format.CodecUncompressed, EstimatedRatio: 1.0}
		}
	}

	return best
}

// applyGate implements §4.2 step 4: if nothing beats MinCompressionRatio,
// fall back to the general-purpose codec; if that doesn't shrink either,
// choose uncompressed.
func (s *Selector) applyGate(best Choice, sample []byte, valueSize int) Choice {
	if best.EstimatedRatio < s.MinCompressionRatio {
		return best
	}

	genRatio := s.GeneralPurpose.EstimateRatio(sample, valueSize)
	if genRatio < s.MinCompressionRatio {
		return Choice{Codec: format.CodecGeneralLZ, EstimatedRatio: genRatio}
	}

	return Choice{Codec: format.CodecUncompressed, EstimatedRatio: 1.0}
}

func sampleInts(values []int64, maxCount int) []int64 {
	if len(values) <= maxCount {
		return values
	}

	return values[:maxCount]
}

func intsToBytes(values []int64) []byte {
	out := make([]byte, len(values)*8)
	for i, v := range values {
		format.Endian.PutUint64(out[i*8:i*8+8], uint64(v))
	}

	return out
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}

	return len(seen)
}

func joinStrings(values []string) []byte {
	total := 0
	for _, v := range values {
		total += len(v) + 1
	}
	out := make([]byte, 0, total)
	for _, v := range values {
		out = append(out, v...)
		out = append(out, 0)
	}

	return out
}
