// Package fastkey provides a fast, non-cryptographic hash over raw key
// bytes using github.com/zeebo/xxh3. It backs the parallel sorter's optional
// hash-based pivot selection (see internal/extsort, Options.HashPivots).
package fastkey

import "github.com/zeebo/xxh3"

// Hash returns a 64-bit hash of key.
func Hash(key []byte) uint64 {
	return xxh3.Hash(key)
}
