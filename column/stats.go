package column

import (
	"math"
	"math/bits"

	"github.com/cespare/xxhash/v2"

	"github.com/lyradb/lyradb/value"
)

// Stats holds the page-level statistics refreshed on every finalize (§4.5):
// min, max, null count, and a bounded distinct-count estimate.
type Stats struct {
	Min         value.Value
	Max         value.Value
	NullCount   uint64
	DistinctEst uint64

	hasRange bool
	sketch   distinctSketch
}

// NewStats returns an empty Stats accumulator.
func NewStats() *Stats {
	return &Stats{sketch: newDistinctSketch()}
}

// Observe folds v into the running min/max/null-count/distinct-estimate.
func (s *Stats) Observe(v value.Value) {
	if v.Kind() == value.KindNull {
		s.NullCount++

		return
	}

	if !s.hasRange {
		s.Min, s.Max = v, v
		s.hasRange = true
	} else {
		if c, ok := value.Compare(v, s.Min); ok && c < 0 {
			s.Min = v
		}
		if c, ok := value.Compare(v, s.Max); ok && c > 0 {
			s.Max = v
		}
	}

	s.sketch.add(v)
	s.DistinctEst = s.sketch.estimate()
}

// MayContainRange reports whether [lo, hi] could overlap this page's value
// range, letting a scan skip decoding the page outright when it cannot
// (§9a zone maps, grounded on original_source's zone_map.h).
func (s *Stats) MayContainRange(lo, hi value.Value) bool {
	if !s.hasRange {
		return true
	}
	if c, ok := value.Compare(hi, s.Min); ok && c < 0 {
		return false
	}
	if c, ok := value.Compare(lo, s.Max); ok && c > 0 {
		return false
	}

	return true
}

// distinctSketch is an exact set for small cardinalities and an
// upper-bounded HyperLogLog-style estimator beyond that threshold (§4.5:
// "exact for <= 1024 distinct values").
const exactThreshold = 1024

type distinctSketch struct {
	exact    map[uint64]struct{}
	hll      []uint8 // register array, used once len(exact) exceeds exactThreshold
	hllBits  uint
	overflow bool
}

func newDistinctSketch() distinctSketch {
	return distinctSketch{
		exact:   make(map[uint64]struct{}, 64),
		hllBits: 10, // 1024 registers
	}
}

func (d *distinctSketch) add(v value.Value) {
	h := hashValue(v)

	if !d.overflow {
		d.exact[h] = struct{}{}
		if len(d.exact) > exactThreshold {
			d.overflow = true
			d.hll = make([]uint8, 1<<d.hllBits)
			for k := range d.exact {
				d.addHLL(k)
			}
			d.exact = nil
		}

		return
	}

	d.addHLL(h)
}

func (d *distinctSketch) addHLL(h uint64) {
	idx := h >> (64 - d.hllBits)
	rest := h<<d.hllBits | (1 << (d.hllBits - 1)) // keep at least one set bit
	rank := uint8(bits.LeadingZeros64(rest) + 1)
	if rank > d.hll[idx] {
		d.hll[idx] = rank
	}
}

func (d *distinctSketch) estimate() uint64 {
	if !d.overflow {
		return uint64(len(d.exact))
	}

	m := float64(len(d.hll))
	sum := 0.0
	zeros := 0
	for _, r := range d.hll {
		sum += 1.0 / math.Pow(2, float64(r))
		if r == 0 {
			zeros++
		}
	}

	alpha := 0.7213 / (1.0 + 1.079/m)
	raw := alpha * m * m / sum

	if raw <= 2.5*m && zeros > 0 {
		raw = m * math.Log(m/float64(zeros))
	}

	return uint64(raw)
}

func hashValue(v value.Value) uint64 {
	switch v.Kind() {
	case value.KindInt:
		return xxhash.Sum64String("i:" + itoa(v.Int()))
	case value.KindFloat:
		var buf [8]byte
		raw := math.Float64bits(v.Float())
		for i := 0; i < 8; i++ {
			buf[i] = byte(raw >> (8 * i))
		}

		return xxhash.Sum64(buf[:])
	case value.KindString:
		return xxhash.Sum64String("s:" + v.Str())
	case value.KindBool:
		if v.Bool() {
			return xxhash.Sum64String("b:1")
		}

		return xxhash.Sum64String("b:0")
	default:
		return 0
	}
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}

	neg := i < 0
	if neg {
		i = -i
	}

	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
