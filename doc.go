// Package mmultimap provides two disk-backed, memory-mapped associative
// containers built for workloads that construct a large static index from a
// stream of unordered insertions and then query it repeatedly:
//
//   - [MultiMap] maps a fixed-width unsigned integer key to an arbitrary
//     fixed-size value. Duplicate keys, and duplicate key/value pairs, are
//     allowed.
//   - [MultiSet] is a multimap specialized to an empty value payload.
//
// # Lifecycle
//
// Both containers have a two-phase lifecycle. In the writer phase, any
// number of producers append records concurrently with no ordering
// guarantees. The owner then calls Index, an irreversible writer-to-reader
// transition that sorts the backing file in place and, for a MultiMap with a
// declared key domain, builds a padded direct-address index. After Index,
// the container is read-only; any number of goroutines may query it
// concurrently.
//
//	mm, err := mmultimap.Open[uint64, uint64](mmultimap.Options[uint64, uint64]{
//	    Path:     "/tmp/pairs.mm",
//	    Value:    mmultimap.Uint64Codec{},
//	    MaxKey:   1_000_000, // padded mode
//	})
//	p := mm.NewProducer()
//	p.Append(7, 42)
//	p.Flush()
//	mm.Index(context.Background())
//	mm.ForValuesOf(7, func(v uint64) bool { fmt.Println(v); return true })
//
// # File format
//
// The backing file is a raw, contiguous array of fixed-size (key, value)
// records: no header, no footer, no padding between records, keys and
// big-endian-coded values in big-endian byte order so a raw byte comparison
// of two records matches their (key, value) ordering. The file is the data
// structure; the mapping layer is the sole
// source of truth once the writer phase ends. The padded index, when built,
// lives in memory only and is rebuilt on every Index call.
//
// # Concurrency
//
// Writer phase: many concurrent producers, zero readers; Append is the only
// permitted operation. Reader phase: zero writers, many concurrent readers;
// all read operators are safe to call from any goroutine. The transition
// between phases is single-threaded from the caller's perspective — the
// caller must quiesce all producers before calling Index.
//
// # Non-goals
//
// Dynamic mutation after indexing, transactional atomicity across crashes,
// variable-length values, key types wider than a fixed-width unsigned
// integer, cross-process writer concurrency, and network access are all out
// of scope.
package mmultimap
