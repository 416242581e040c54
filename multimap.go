package mmultimap

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/calvinalkan/mmultimap/internal/extsort"
	"github.com/calvinalkan/mmultimap/internal/fastkey"
	"github.com/calvinalkan/mmultimap/internal/keyfilter"
)

// fastHash hashes raw key bytes for the sample sort's optional hash-based
// pivot selection (see Options.HashPivots).
func fastHash(key []byte) uint64 {
	return fastkey.Hash(key)
}

type phase int32

const (
	phaseWriting phase = iota
	phaseSorted
	phaseIndexed
	phaseClosed
)

// MultiMap is a disk-backed, memory-mapped multimap from a fixed-width
// unsigned integer key to an arbitrary fixed-size value record. Duplicate
// keys, and duplicate (key, value) pairs, are allowed. See the package doc
// for the two-phase writer/reader lifecycle.
type MultiMap[K Uint, V any] struct {
	core *multiMapCore[K, V]
}

// multiMapCore holds the state shared by a MultiMap and its Producers.
type multiMapCore[K Uint, V any] struct {
	phase atomic.Int32

	valueCodec Codec[V]
	keySz      int
	valSz      int
	recordSize int

	maxKey uint64 // 0 means unpadded mode

	producerBufRecords int

	f   *file
	app *appender

	logger *logger

	// populated by Index
	index  []int64 // padded index, len maxKey+2; nil in unpadded mode
	bloom  *keyfilter.Filter
	hashPivots bool
	parallelism int
}

// Open creates a backing file at opts.Path (removing any existing file) and
// returns a MultiMap in the writing phase.
func Open[K Uint, V any](opts Options[K, V]) (*MultiMap[K, V], error) {
	if opts.Value == nil {
		return nil, fmt.Errorf("Value codec is required: %w", ErrIOOpen)
	}

	lg := newLogger(opts.Logger)

	keySz := keySize[K]()
	valSz := opts.Value.Size()
	recordSize := keySz + valSz

	f, err := openFile(opts.Path, recordSize, lg)
	if err != nil {
		return nil, err
	}

	core := &multiMapCore[K, V]{
		valueCodec:         opts.Value,
		keySz:              keySz,
		valSz:              valSz,
		recordSize:         recordSize,
		maxKey:             opts.MaxKey,
		producerBufRecords: opts.producerBuffer(),
		f:                  f,
		app:                &appender{f: f},
		logger:             lg,
		hashPivots:         opts.HashPivots,
		parallelism:        opts.Parallelism,
	}
	core.phase.Store(int32(phaseWriting))

	if opts.Bloom {
		core.bloom = keyfilter.New(0) // sized lazily at Index time
	}

	return &MultiMap[K, V]{core: core}, nil
}

// NewProducer returns a new writer-phase append handle. Any number of
// Producers may be used concurrently; Append on a single Producer is not
// thread-safe.
func (m *MultiMap[K, V]) NewProducer() *Producer[K, V] {
	buf := make([]byte, m.core.producerBufRecords*m.core.recordSize)
	return &Producer[K, V]{mm: m.core, buf: buf}
}

// appendRecords bulk-copies a flushed producer buffer into a reserved tail
// range. The reservation (and any growth it required) happens under the
// tail lock; the bulk copy itself races safely with other producers'
// disjoint ranges and never with index reads (the container is still in the
// writing phase). A grow mid-copy never invalidates the captured data
// slice either: growTo retires the superseded mapping instead of unmapping
// it immediately, and the retired mapping is only actually unmapped once
// Index runs, by which point the caller contract requires every producer to
// have quiesced (see mapping.go, unmapRetired).
func (c *multiMapCore[K, V]) appendRecords(buf []byte) error {
	nrec := int64(len(buf) / c.recordSize)
	if nrec == 0 {
		return nil
	}

	c.app.mu.Lock()
	start := c.app.n
	end := start + nrec
	if end*int64(c.recordSize) > c.f.fileLen {
		if err := c.f.growTo(end); err != nil {
			c.app.mu.Unlock()
			return err
		}
	}
	c.app.n = end
	data := c.f.mapped() // captured while still holding the lock
	c.app.mu.Unlock()

	off := start * int64(c.recordSize)
	copy(data[off:off+int64(len(buf))], buf)
	return nil
}

// Index performs the irreversible writer-to-reader transition: it truncates away any tail slop left by
// geometric growth, sorts the record array in place, and — in padded mode
// (MaxKey != 0) — builds the direct-address key index. The caller must
// ensure all Producers have been Flushed and are no longer in use before
// calling Index, and that no reader runs before it returns.
func (m *MultiMap[K, V]) Index(ctx context.Context) error {
	c := m.core
	if phase(c.phase.Load()) != phaseWriting {
		return ErrPhase
	}

	n := c.app.n
	if err := c.f.truncateTo(n * int64(c.recordSize)); err != nil {
		return err
	}
	// Safe now: the caller contract requires every Producer to have been
	// flushed before Index runs, so no bulk copy can still be in flight
	// against a mapping retired by an earlier growth/remap.
	c.f.unmapRetired()
	c.logger.Infof("indexing %d records (record size %d)", n, c.recordSize)

	data := c.f.mapped()
	less := func(i, j int64) bool {
		ri := data[i*int64(c.recordSize) : (i+1)*int64(c.recordSize)]
		rj := data[j*int64(c.recordSize) : (j+1)*int64(c.recordSize)]
		return bytes.Compare(ri, rj) < 0
	}
	swap := func(i, j int64) {
		ri := data[i*int64(c.recordSize) : (i+1)*int64(c.recordSize)]
		rj := data[j*int64(c.recordSize) : (j+1)*int64(c.recordSize)]
		var tmp [512]byte
		scratch := tmp[:c.recordSize]
		if c.recordSize > len(tmp) {
			scratch = make([]byte, c.recordSize)
		}
		copy(scratch, ri)
		copy(ri, rj)
		copy(rj, scratch)
	}
	keyHash := func(i int64) uint64 {
		ri := data[i*int64(c.recordSize) : i*int64(c.recordSize)+int64(c.keySz)]
		return fastHash(ri)
	}

	if err := extsort.Sort(ctx, n, less, swap, extsort.Options{
		Parallelism: c.parallelism,
		HashPivots:  c.hashPivots,
		KeyHash:     keyHash,
	}); err != nil {
		return err
	}

	c.phase.Store(int32(phaseSorted))

	if c.bloom != nil {
		c.bloom = keyfilter.New(n)
		for i := int64(0); i < n; i++ {
			rec := data[i*int64(c.recordSize) : (i+1)*int64(c.recordSize)]
			c.bloom.Add(rec[:c.keySz])
		}
	}

	if c.maxKey != 0 {
		if err := c.buildIndex(n); err != nil {
			return err
		}
		c.phase.Store(int32(phaseIndexed))
	}

	return nil
}

func (m *MultiMap[K, V]) requirePhaseAtLeast(p phase) error {
	cur := phase(m.core.phase.Load())
	if cur < p || cur == phaseClosed {
		return ErrPhase
	}
	return nil
}

// At returns the record at position i in iteration (sorted) order.
// Requires the container to be sorted or indexed.
func (m *MultiMap[K, V]) At(i int64) (K, V, error) {
	var zk K
	var zv V
	if err := m.requirePhaseAtLeast(phaseSorted); err != nil {
		return zk, zv, err
	}
	c := m.core
	n := c.app.n
	buf := make([]byte, c.recordSize)
	if err := c.f.get(i, n, buf); err != nil {
		return zk, zv, err
	}
	return getKey[K](buf[:c.keySz]), c.valueCodec.Decode(buf[c.keySz:]), nil
}

// Len returns the total number of records.
func (m *MultiMap[K, V]) Len() int64 {
	return m.core.app.n
}

// ForEachPair invokes f on every record in sorted order. f returning false
// stops iteration early. Requires the container to be sorted or indexed.
func (m *MultiMap[K, V]) ForEachPair(f func(key K, value V) bool) error {
	if err := m.requirePhaseAtLeast(phaseSorted); err != nil {
		return err
	}
	c := m.core
	n := c.app.n
	data := c.f.mapped()
	for i := int64(0); i < n; i++ {
		off := i * int64(c.recordSize)
		rec := data[off : off+int64(c.recordSize)]
		k := getKey[K](rec[:c.keySz])
		v := c.valueCodec.Decode(rec[c.keySz:])
		if !f(k, v) {
			break
		}
	}
	return nil
}

// ForValuesOf invokes f on every value stored under key k, in sorted value
// order, stopping early if f returns false. In padded mode this uses the
// direct-address index for O(1) run location; in unpadded
// mode it binary-searches the sorted file for the run's bounds.
func (m *MultiMap[K, V]) ForValuesOf(k K, f func(value V) bool) error {
	if err := m.requirePhaseAtLeast(phaseSorted); err != nil {
		return err
	}
	c := m.core

	lo, hi, err := c.runBounds(k)
	if err != nil {
		return err
	}

	data := c.f.mapped()
	for i := lo; i < hi; i++ {
		off := i * int64(c.recordSize)
		rec := data[off : off+int64(c.recordSize)]
		if !f(c.valueCodec.Decode(rec[c.keySz:])) {
			break
		}
	}
	return nil
}

// ForUniqueValuesOf invokes f once per distinct value stored under key k, in
// sorted order, suppressing adjacent duplicates. Requires
// padded mode ([Options.MaxKey] != 0); in unpadded mode it returns [ErrMode].
func (m *MultiMap[K, V]) ForUniqueValuesOf(k K, f func(value V) bool) error {
	if err := m.requirePhaseAtLeast(phaseSorted); err != nil {
		return err
	}
	c := m.core
	if c.maxKey == 0 {
		return ErrMode
	}
	if err := m.requirePhaseAtLeast(phaseIndexed); err != nil {
		return err
	}

	lo, hi, err := c.runBounds(k)
	if err != nil {
		return err
	}

	data := c.f.mapped()
	var prev []byte
	for i := lo; i < hi; i++ {
		off := i * int64(c.recordSize)
		rec := data[off+int64(c.keySz) : off+int64(c.recordSize)]
		if prev != nil && bytes.Equal(prev, rec) {
			continue
		}
		prevCopy := make([]byte, len(rec))
		copy(prevCopy, rec)
		prev = prevCopy
		if !f(c.valueCodec.Decode(rec)) {
			break
		}
	}
	return nil
}

// runBounds returns the half-open record-index range [lo, hi) for key k.
func (c *multiMapCore[K, V]) runBounds(k K) (lo, hi int64, err error) {
	if k == sentinelOf[K]() {
		return 0, 0, ErrSentinelKey
	}

	if c.maxKey != 0 {
		ku := uint64(k)
		if ku > c.maxKey {
			return 0, 0, nil
		}
		return c.index[ku], c.index[ku+1], nil
	}

	n := c.app.n
	data := c.f.mapped()
	keyAt := func(i int64) K {
		off := i * int64(c.recordSize)
		return getKey[K](data[off : off+int64(c.keySz)])
	}

	if c.bloom != nil {
		var kb [8]byte
		putKey(kb[:c.keySz], k)
		if !c.bloom.MayContain(kb[:c.keySz]) {
			return 0, 0, nil
		}
	}

	lo = int64(sort.Search(int(n), func(i int) bool { return keyAt(int64(i)) >= k }))
	hi = int64(sort.Search(int(n), func(i int) bool { return keyAt(int64(i)) > k }))
	return lo, hi, nil
}

// Close flushes, unmaps, and releases the backing file. Idempotent.
func (m *MultiMap[K, V]) Close() error {
	c := m.core
	if phase(c.phase.Swap(int32(phaseClosed))) == phaseClosed {
		return nil
	}
	return c.f.close()
}
