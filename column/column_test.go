package column

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lyradb/lyradb/format"
	"github.com/lyradb/lyradb/value"
)

func TestWriterReaderRoundTripInts(t *testing.T) {
	w := NewWriter("id", 1, format.TypeInt64)
	for i := int64(0); i < 500; i++ {
		require.NoError(t, w.AppendValue(value.Int(i)))
	}
	require.NoError(t, w.AppendNull())
	require.NoError(t, w.Finalize())

	r := NewReader(format.TypeInt64, w.Pages(), w.NullBitmap())
	require.Equal(t, 1, r.PageCount())

	vals, err := r.ReadPage(0)
	require.NoError(t, err)
	require.Len(t, vals, 501)
	require.Equal(t, int64(0), vals[0].Int())
	require.Equal(t, int64(499), vals[499].Int())
	require.True(t, vals[500].IsNull())
}

func TestWriterReaderRoundTripStrings(t *testing.T) {
	w := NewWriter("name", 2, format.TypeString, WithBloomFilter())
	names := []string{"alice", "bob", "alice", "carol", "alice", "bob"}
	for _, n := range names {
		require.NoError(t, w.AppendValue(value.Str(n)))
	}
	require.NoError(t, w.Finalize())

	r := NewReader(format.TypeString, w.Pages(), w.NullBitmap())
	vals, err := r.ReadPage(0)
	require.NoError(t, err)
	require.Len(t, vals, len(names))
	for i, n := range names {
		require.Equal(t, n, vals[i].Str())
	}

	entry := w.Pages()[0]
	require.NotNil(t, entry.Bloom)
	require.True(t, entry.Bloom.MightContain([]byte("alice")))
}

func TestWriterReaderRoundTripFloats(t *testing.T) {
	w := NewWriter("score", 3, format.TypeFloat64)
	scores := []float64{1.5, -2.25, 0, 3.75}
	for _, s := range scores {
		require.NoError(t, w.AppendValue(value.Float(s)))
	}
	require.NoError(t, w.Finalize())

	r := NewReader(format.TypeFloat64, w.Pages(), w.NullBitmap())
	vals, err := r.ReadPage(0)
	require.NoError(t, err)
	for i, s := range scores {
		require.InDelta(t, s, vals[i].Float(), 1e-9)
	}
}

func TestWriterFinalizesPageOnSizeOverflow(t *testing.T) {
	w := NewWriter("big", 4, format.TypeInt64)
	for i := 0; i < 20000; i++ {
		require.NoError(t, w.AppendValue(value.Int(int64(i))))
	}
	require.NoError(t, w.Finalize())

	require.Greater(t, len(w.Pages()), 1)
}

func TestStatsMinMaxNullCount(t *testing.T) {
	s := NewStats()
	s.Observe(value.Int(5))
	s.Observe(value.Int(1))
	s.Observe(value.Null())
	s.Observe(value.Int(9))

	require.Equal(t, int64(1), s.Min.Int())
	require.Equal(t, int64(9), s.Max.Int())
	require.Equal(t, uint64(1), s.NullCount)
}

func TestStatsMayContainRange(t *testing.T) {
	s := NewStats()
	for _, v := range []int64{10, 20, 30} {
		s.Observe(value.Int(v))
	}

	require.True(t, s.MayContainRange(value.Int(15), value.Int(25)))
	require.False(t, s.MayContainRange(value.Int(100), value.Int(200)))
}

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	b := NewBloomFilter(256, 4)
	keys := []string{"apple", "banana", "cherry", "date"}
	for _, k := range keys {
		b.Add([]byte(k))
	}
	for _, k := range keys {
		require.True(t, b.MightContain([]byte(k)))
	}
}

func TestBitmapRoundTrip(t *testing.T) {
	b := NewBitmap()
	pattern := []bool{true, false, false, true, true, false, true}
	for _, p := range pattern {
		b.Append(p)
	}

	raw := b.Bytes()
	restored := BitmapFromBytes(raw, len(pattern))
	for i, p := range pattern {
		require.Equal(t, p, restored.Get(i))
	}
}
