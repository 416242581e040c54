// Package keyfilter accelerates unpadded-mode point queries with a bloom
// filter over the sorted key column, using
// github.com/bits-and-blooms/bloom/v3 to skip a binary search entirely on a
// known-absent key.
package keyfilter

import "github.com/bits-and-blooms/bloom/v3"

// falsePositiveRate is the target false-positive rate for the filter; a
// higher n shrinks the per-key bit budget less aggressively than a fixed bit
// count would.
const falsePositiveRate = 0.01

// Filter wraps a bloom.BloomFilter sized for n expected keys.
type Filter struct {
	bf *bloom.BloomFilter
}

// New returns a Filter sized for n expected elements. n may be 0 for a
// placeholder filter that is replaced once the true count is known.
func New(n int64) *Filter {
	if n <= 0 {
		n = 1
	}
	return &Filter{bf: bloom.NewWithEstimates(uint(n), falsePositiveRate)}
}

// Add records that key is present.
func (f *Filter) Add(key []byte) {
	f.bf.Add(key)
}

// MayContain reports whether key might be present. A false return is a
// definite negative; a true return requires confirmation (e.g. a binary
// search).
func (f *Filter) MayContain(key []byte) bool {
	return f.bf.Test(key)
}
