package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/format"
)

func TestRLERoundTrip(t *testing.T) {
	c := NewRLECodec()

	values := make([]int32, 1000)
	for i := range values {
		values[i] = 42
	}
	data := int32sToBytes(values)

	encoded, err := c.Encode(data, 4)
	require.NoError(t, err)
	require.Less(t, len(encoded), 32)

	decoded, err := c.Decode(encoded, 4, len(values))
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestRLERoundTripMixedRuns(t *testing.T) {
	c := NewRLECodec()
	values := []int32{1, 1, 1, 2, 3, 3, 4, 4, 4, 4}
	data := int32sToBytes(values)

	encoded, err := c.Encode(data, 4)
	require.NoError(t, err)

	decoded, err := c.Decode(encoded, 4, len(values))
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestBitpackRoundTrip(t *testing.T) {
	values := make([]int64, 1024)
	for i := range values {
		values[i] = int64(i % 16)
	}

	bp := NewBitpackCodec()
	encoded, err := bp.EncodeInts(values)
	require.NoError(t, err)
	require.Equal(t, 4, int(encoded[0])) // bit_width = ceil(log2(16)) = 4

	decoded, err := bp.DecodeInts(encoded)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestDeltaRoundTrip(t *testing.T) {
	values := []int64{1000, 1005, 1010, 1010, 995, 2000, 2000}

	d := NewDeltaCodec()
	encoded, err := d.EncodeInts(values)
	require.NoError(t, err)

	decoded, err := d.DecodeInts(encoded)
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestDictionaryRoundTrip(t *testing.T) {
	values := []string{"a", "b", "a", "a", "c", "b", "a"}

	dict := NewDictionaryCodec()
	encoded, err := dict.EncodeStrings(values)
	require.NoError(t, err)

	decoded, err := dict.DecodeStrings(encoded, len(values))
	require.NoError(t, err)
	require.Equal(t, values, decoded)
}

func TestGeneralLZRoundTrip(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i % 7)
	}

	g := NewGeneralLZCodec(GeneralAlgoZstd)
	encoded, err := g.Encode(data, 1)
	require.NoError(t, err)

	decoded, err := g.Decode(encoded, 1, len(data))
	require.NoError(t, err)
	require.Equal(t, data, decoded)
}

func TestSelectorPicksRLEForConstantColumn(t *testing.T) {
	values := make([]int64, 2000)
	for i := range values {
		values[i] = 7
	}

	s := NewSelector()
	choice := s.SelectInts(values)
	require.Equal(t, format.CodecRLE, choice.Codec)
	require.Less(t, choice.EstimatedRatio, 0.95)
}

func TestSelectorPicksBitpackForUniformSmallRange(t *testing.T) {
	values := make([]int64, 1024)
	for i := range values {
		values[i] = int64(i % 16)
	}

	s := NewSelector()
	choice := s.SelectInts(values)
	require.Equal(t, format.CodecBitpack, choice.Codec)
	require.LessOrEqual(t, choice.EstimatedRatio, 1.0)
}

func int32sToBytes(values []int32) []byte {
	out := make([]byte, len(values)*4)
	for i, v := range values {
		out[i*4] = byte(v)
		out[i*4+1] = byte(v >> 8)
		out[i*4+2] = byte(v >> 16)
		out[i*4+3] = byte(v >> 24)
	}

	return out
}
