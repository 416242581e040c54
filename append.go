package mmultimap

import "sync"

// Producer is a single producer's append handle during the writer phase.
// It is not safe for concurrent use by multiple goroutines; it is an
// explicit per-worker buffer rather than one keyed off the calling
// goroutine's identity, so callers pass it around explicitly instead of
// relying on any form of thread-local storage. Any number of Producers may
// be active concurrently.
type Producer[K Uint, V any] struct {
	mm  *multiMapCore[K, V]
	buf []byte // up to capacity() records, recordSize bytes each
	n   int    // records currently buffered
}

func (p *Producer[K, V]) capacity() int {
	return len(p.buf) / p.mm.recordSize
}

// Append copies (key, value) into the producer's local buffer. No
// shared-state contention on this path. When the buffer fills, Append
// flushes it to the backing file's tail under the appender's tail lock.
//
// Append is only valid while the container is in the writing phase; calling
// it afterward returns [ErrPhase]. Appending the sentinel key (the maximum
// representable value of K) returns [ErrSentinelKey] rather than silently
// colliding with the index's internal absent-slot marker.
func (p *Producer[K, V]) Append(key K, value V) error {
	if phase(p.mm.phase.Load()) != phaseWriting {
		return ErrPhase
	}
	if key == sentinelOf[K]() {
		return ErrSentinelKey
	}

	off := p.n * p.mm.recordSize
	putKey(p.buf[off:off+p.mm.keySz], key)
	p.mm.valueCodec.Encode(p.buf[off+p.mm.keySz:off+p.mm.recordSize], value)
	p.n++

	if p.n == p.capacity() {
		return p.Flush()
	}
	return nil
}

// Flush writes any buffered records to the backing file's tail and resets
// the local buffer. Producers should call Flush when done appending, even
// if the buffer never filled; [MultiMap.Index] does not implicitly flush
// outstanding producers.
func (p *Producer[K, V]) Flush() error {
	if p.n == 0 {
		return nil
	}
	if err := p.mm.appendRecords(p.buf[:p.n*p.mm.recordSize]); err != nil {
		return err
	}
	p.n = 0
	return nil
}

// appender is the shared tail-reservation state for a multiMapCore. A
// single mutex guards the logical record count and the backing file's
// length/mapping during reservation and growth, held only for O(1) work per
// buffer flush — not per record. The reservation logic itself lives in
// multiMapCore.appendRecords, which must capture file.mapped() before
// releasing this lock so a producer's bulk copy never observes a stale
// mapping pointer across a concurrent grow.
type appender struct {
	mu sync.Mutex
	n  int64 // logical record count (<= file.recordCount())
	f  *file
}
