// Package extsort implements an in-place parallel sample sort: it sorts a
// logical array of n records, addressed only by index, directly through
// caller-supplied Less/Swap callbacks. Because the callbacks can close over a
// memory-mapped byte slice, the sort runs directly against the mapping — the
// OS pages data in and out as needed, and no temporary file is ever created.
//
// This package implements a parallel quicksort with sampled pivot selection
// (a "sample sort" in the classical sense: a small sample of candidates is
// drawn and a pivot chosen from it before partitioning) and worker fan-out
// via golang.org/x/sync/errgroup, bounded by Options.Parallelism, an
// explicit, per-call parallelism parameter.
package extsort
