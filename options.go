package mmultimap

import "go.uber.org/zap"

// Options configures opening a [MultiMap]. Any pre-existing file at Path is
// removed.
type Options[K Uint, V any] struct {
	// Path is the filesystem path to the backing record file. Required.
	Path string

	// Value describes how to encode/decode the fixed-size value payload.
	// Required; use [EmptyCodec] for a keys-only container (see [MultiSet]).
	Value Codec[V]

	// MaxKey, if non-zero, declares a dense key domain [1, MaxKey] and
	// switches Index into padded mode: a direct-address index is built,
	// enabling O(1) ForValuesOf/ForUniqueValuesOf lookups.
	// If zero, Index runs in unpadded mode: point queries use binary
	// search and ForUniqueValuesOf is unavailable ([ErrMode]).
	MaxKey uint64

	// Parallelism bounds the number of goroutines used by the parallel
	// sample sort. Zero means runtime.GOMAXPROCS(0).
	Parallelism int

	// HashPivots, when true, seeds the sample sort's pivot selection with
	// an xxh3 hash of each candidate key instead of raw numeric comparison.
	// Opt-in; useful when keys arrive in an order adversarial to naive
	// sampling. See internal/extsort.
	HashPivots bool

	// Bloom enables a bloom filter over the key column, built once during
	// Index and consulted before any binary search in unpadded mode to
	// short-circuit known-absent keys (see internal/keyfilter). Has no
	// effect in padded mode, where the direct-address index already
	// answers presence in O(1).
	Bloom bool

	// Logger receives logs for opening the backing file, growth events,
	// the start of Index, and ftruncate/mmap failures. No timing is logged.
	// Nil uses a no-op logger.
	Logger *zap.SugaredLogger

	// ProducerBufferRecords is the number of records each [Producer]
	// buffers before flushing to the backing file's tail. Zero uses a
	// default on the order of a few thousand records.
	ProducerBufferRecords int
}

const defaultProducerBuffer = 4096

func (o Options[K, V]) producerBuffer() int {
	if o.ProducerBufferRecords > 0 {
		return o.ProducerBufferRecords
	}
	return defaultProducerBuffer
}
