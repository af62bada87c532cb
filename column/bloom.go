package column

import "github.com/cespare/xxhash/v2"

// BloomFilter is a fixed-size bit array offering fast negative membership
// tests for a page's string column, grounded on original_source's
// indexes::BloomFilter (bits_ sized in bytes, add/might_exist over raw
// byte spans). The engine consults it (via table.BloomPrunedRowIDs) as a
// cheap page pre-filter for equality predicates on string columns that
// have no index (§9a).
type BloomFilter struct {
	bits    []byte
	numBits uint64
	k       int // number of hash probes
}

// NewBloomFilter allocates a filter sized in bytes, with k independent hash
// probes per element (k=4 is a reasonable default for ~1% false-positive
// rate at moderate load factors).
func NewBloomFilter(sizeBytes int, k int) *BloomFilter {
	if sizeBytes < 8 {
		sizeBytes = 8
	}
	if k < 1 {
		k = 4
	}

	return &BloomFilter{
		bits:    make([]byte, sizeBytes),
		numBits: uint64(sizeBytes) * 8,
		k:       k,
	}
}

// Add records data's membership.
func (b *BloomFilter) Add(data []byte) {
	h1, h2 := bloomSeeds(data)
	for i := 0; i < b.k; i++ {
		bit := (h1 + uint64(i)*h2) % b.numBits
		b.bits[bit/8] |= 1 << (bit % 8)
	}
}

// MightContain reports whether data may have been added; false is certain,
// true is probabilistic.
func (b *BloomFilter) MightContain(data []byte) bool {
	h1, h2 := bloomSeeds(data)
	for i := 0; i < b.k; i++ {
		bit := (h1 + uint64(i)*h2) % b.numBits
		if b.bits[bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}

	return true
}

// bloomSeeds derives two independent hashes from one xxhash pass (Kirsch–
// Mitzenmacher double hashing), avoiding the per-probe reseeded hash calls
// the C++ original uses.
func bloomSeeds(data []byte) (uint64, uint64) {
	h1 := xxhash.Sum64(data)
	h2 := xxhash.Sum64(append(append([]byte(nil), data...), 0xFF))

	return h1, h2
}
