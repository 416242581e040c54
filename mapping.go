package mmultimap

import (
	"fmt"
	"sync/atomic"
	"syscall"
)

// Growth policy: double from a small minimum until a large
// threshold, then grow linearly in large chunks.
const (
	minFileBytes     = 1 << 20  // 1 MiB
	largeGrowBytes   = 1 << 26  // 64 MiB
	linearGrowChunk  = 1 << 25  // 32 MiB once past largeGrowBytes
)

// mapping is an immutable snapshot of the current memory mapping: the raw
// mapped bytes. Producers and readers
// capture a *mapping via the file's atomic pointer rather than holding the
// file descriptor's live state directly, so a remap never hands out a stale
// slice mid-copy.
type mapping struct {
	data []byte
}

// file owns the backing file descriptor, its current length, and the memory
// mapping over it. It does not interpret record contents; all offsets here
// are in records of recordSize bytes.
type file struct {
	path       string
	recordSize int

	fd int

	// cur is the live mapping, swapped atomically on grow/remap. Readers
	// on the fast path load it without any lock; the tail lock in
	// appender.go is held while a flush reserves its range and grows.
	cur atomic.Pointer[mapping]

	// fileLen is the current backing-file length in bytes. Mutated only
	// while the tail lock (owned by the appender) is held.
	fileLen int64

	// retired holds mappings superseded by a remap but not yet unmapped.
	// A producer that captured the pointer to one of these under the tail
	// lock may still be mid-copy into it after the lock is released, so
	// munmap on it must wait until the writer phase has quiesced — see
	// unmapRetired. Mutated only while the tail lock is held.
	retired []mapping

	logger *logger
}

// openFile creates (truncating any existing file) and maps a new backing
// file at path, pre-allocated to minFileBytes.
func openFile(path string, recordSize int, lg *logger) (*file, error) {
	if recordSize <= 0 {
		return nil, fmt.Errorf("record size must be > 0: %w", ErrIOOpen)
	}

	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_CREAT|syscall.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, ErrIOOpen)
	}

	f := &file{path: path, recordSize: recordSize, fd: fd, logger: lg}

	if err := f.truncateLocked(minFileBytes); err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}

	if err := f.remapLocked(); err != nil {
		_ = syscall.Close(fd)
		return nil, err
	}

	lg.Debugf("opened backing file %s (record size %d)", path, recordSize)

	return f, nil
}

// recordCount returns the number of records currently addressable given
// fileLen. Callers that need the logical record count during the writer
// phase should track it themselves (fileLen includes unused tail capacity).
func (f *file) recordCount() int64 {
	return f.fileLen / int64(f.recordSize)
}

// mapped returns the current mapping's bytes. Safe to call without holding
// any lock.
func (f *file) mapped() []byte {
	m := f.cur.Load()
	if m == nil {
		return nil
	}
	return m.data
}

// get copies the record at slot i into dst (which must be recordSize
// bytes). Bounds-checked against the logical record count n.
func (f *file) get(i, n int64, dst []byte) error {
	if i < 0 || i >= n {
		return fmt.Errorf("record %d out of [0,%d): %w", i, n, ErrBounds)
	}
	data := f.mapped()
	off := i * int64(f.recordSize)
	copy(dst, data[off:off+int64(f.recordSize)])
	return nil
}

// set writes src (recordSize bytes) into the record at slot i. Bounds are
// checked against the logical record count n.
func (f *file) set(i, n int64, src []byte) error {
	if i < 0 || i >= n {
		return fmt.Errorf("record %d out of [0,%d): %w", i, n, ErrBounds)
	}
	data := f.mapped()
	off := i * int64(f.recordSize)
	copy(data[off:off+int64(f.recordSize)], src)
	return nil
}

// nextFileSize computes the next backing-file length, in bytes, able to
// hold at least needBytes bytes, following the doubling-then-linear
// growth policy above.
func (f *file) nextFileSize(needBytes int64) int64 {
	size := f.fileLen
	if size < minFileBytes {
		size = minFileBytes
	}
	for size < needBytes {
		if size < largeGrowBytes {
			size *= 2
		} else {
			size += linearGrowChunk
		}
	}
	return size
}

// growTo ensures the backing file can hold at least needRecords records,
// growing and remapping if necessary. Caller must hold the tail lock (see
// appender.go); growTo mutates fileLen and replaces the atomic mapping
// pointer, which is how other producers observe the new mapping on their
// next lock acquisition.
func (f *file) growTo(needRecords int64) error {
	needBytes := needRecords * int64(f.recordSize)
	if needBytes <= f.fileLen {
		return nil
	}

	newSize := f.nextFileSize(needBytes)

	f.logger.Debugf("growing %s from %d to %d bytes", f.path, f.fileLen, newSize)

	if err := f.truncateLocked(newSize); err != nil {
		return err
	}

	return f.remapLocked()
}

// truncateTo sets the file to exactly size bytes. Used both for growth and,
// at writer-close, to trim tail slop introduced by geometric growth back to
// exactly N*recordSize before sort runs.
func (f *file) truncateTo(size int64) error {
	if err := f.truncateLocked(size); err != nil {
		return err
	}
	return f.remapLocked()
}

func (f *file) truncateLocked(size int64) error {
	if err := syscall.Ftruncate(f.fd, size); err != nil {
		f.logger.Errorf("ftruncate %s to %d: %v", f.path, size, err)
		return fmt.Errorf("ftruncate to %d: %v: %w", size, err, ErrIOExtend)
	}
	f.fileLen = size
	return nil
}

// remapLocked recreates the mapping after a resize. Caller must hold the
// tail lock.
func (f *file) remapLocked() error {
	old := f.cur.Load()

	if f.fileLen == 0 {
		f.cur.Store(&mapping{data: nil})
	} else {
		data, err := syscall.Mmap(f.fd, 0, int(f.fileLen), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
		if err != nil {
			f.logger.Errorf("mmap %s (%d bytes): %v", f.path, f.fileLen, err)
			return fmt.Errorf("mmap %d bytes: %v: %w", f.fileLen, err, ErrIOMap)
		}
		f.cur.Store(&mapping{data: data})
	}

	if old != nil && old.data != nil {
		// A producer may have captured old's pointer under the tail lock
		// and released the lock before finishing its bulk copy into it —
		// that copy can still be in flight right now. Munmap-ing old here
		// would race it, so old is only retired; it is actually unmapped
		// once the writer phase quiesces (unmapRetired).
		f.retired = append(f.retired, *old)
	}

	return nil
}

// unmapRetired munmaps every mapping superseded by a remap since the last
// call. Safe only once no producer can still be mid-copy into a retired
// mapping — i.e. once the writer phase has quiesced, at Index or Close.
func (f *file) unmapRetired() {
	for _, m := range f.retired {
		if m.data != nil {
			_ = syscall.Munmap(m.data)
		}
	}
	f.retired = nil
}

// close flushes, unmaps, and closes the backing file. Idempotent. The
// caller is assumed to have quiesced all producers, so it is always safe
// to unmap every retired mapping here too.
func (f *file) close() error {
	m := f.cur.Swap(&mapping{})
	if m != nil && m.data != nil {
		_ = syscall.Munmap(m.data)
	}
	f.unmapRetired()
	if f.fd >= 0 {
		fd := f.fd
		f.fd = -1
		_ = syscall.Close(fd)
	}
	return nil
}

// reopenForRead maps an already-sorted file read-only-by-convention (the
// mapping itself remains PROT_READ|PROT_WRITE since MAP_SHARED with
// PROT_READ only would prevent the padded index's in-memory-only nature
// from mattering, but reader phase callers never call set/growTo again).
func reopenForRead(path string, recordSize int, lg *logger) (*file, int64, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %v: %w", path, err, ErrIOOpen)
	}

	var stat syscall.Stat_t
	if err := syscall.Fstat(fd, &stat); err != nil {
		_ = syscall.Close(fd)
		return nil, 0, fmt.Errorf("fstat %s: %v: %w", path, err, ErrIOOpen)
	}

	f := &file{path: path, recordSize: recordSize, fd: fd, fileLen: stat.Size, logger: lg}
	if err := f.remapLocked(); err != nil {
		_ = syscall.Close(fd)
		return nil, 0, err
	}

	n := stat.Size / int64(recordSize)
	return f, n, nil
}
