package mmultimap

import "errors"

// Sentinel errors returned by mmultimap operations.
//
// Callers should use [errors.Is] to check error kinds:
//
//	if errors.Is(err, mmultimap.ErrPhase) {
//	    // programming error: wrong lifecycle phase
//	}
var (
	// ErrIOOpen indicates the backing file could not be created, opened,
	// or truncated.
	ErrIOOpen = errors.New("mmultimap: io open")

	// ErrIOMap indicates the backing file could not be mapped or remapped.
	ErrIOMap = errors.New("mmultimap: io map")

	// ErrIOExtend indicates the filesystem refused to grow the backing
	// file (for example, out of disk space).
	ErrIOExtend = errors.New("mmultimap: io extend")

	// ErrPhase indicates an operation was invoked in the wrong lifecycle
	// phase, e.g. Append after Index, or ForEachPair before Index.
	//
	// This is a programming error.
	ErrPhase = errors.New("mmultimap: wrong phase")

	// ErrMode indicates an operation requires padded mode (a declared
	// MaxKey) but the container was opened without one.
	//
	// This is a programming error.
	ErrMode = errors.New("mmultimap: requires padded mode")

	// ErrBounds indicates a random-access index was out of range.
	ErrBounds = errors.New("mmultimap: index out of bounds")

	// ErrSentinelKey indicates an append used the reserved sentinel key
	// (the maximum representable value of K), which is used internally to
	// mark absent index entries and must never be a legitimate user key.
	ErrSentinelKey = errors.New("mmultimap: key collides with sentinel")

	// ErrClosed indicates the container has already been closed.
	//
	// This is a programming error.
	ErrClosed = errors.New("mmultimap: closed")
)
