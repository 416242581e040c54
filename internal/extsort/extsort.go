package extsort

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Less reports whether the record at index i sorts before the record at
// index j.
type Less func(i, j int64) bool

// Swap exchanges the records at indices i and j.
type Swap func(i, j int64)

// Options configures a Sort call.
type Options struct {
	// Parallelism bounds the number of concurrent goroutines. Zero means
	// runtime.GOMAXPROCS(0).
	Parallelism int

	// HashPivots, when true and KeyHash is non-nil, selects the pivot
	// among three sampled candidates by comparing their hashes rather than
	// the candidates themselves — useful when key order is adversarial to
	// plain median-of-three sampling.
	HashPivots bool

	// KeyHash returns a hash of the key at index i. Required if HashPivots
	// is true.
	KeyHash func(i int64) uint64
}

// sequentialThreshold is the partition size below which Sort stops
// spawning goroutines and finishes with a plain sequential quicksort plus
// insertion-sort base case.
const sequentialThreshold = 1 << 14

const insertionThreshold = 32

// Sort sorts the logical record range [0, n) in place using less/swap. It
// returns ctx.Err() if ctx is cancelled mid-sort.
func Sort(ctx context.Context, n int64, less Less, swap Swap, opts Options) error {
	if n < 2 {
		return nil
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	s := &sorter{less: less, swap: swap, opts: opts}
	s.spawn(g, ctx, 0, n)

	return g.Wait()
}

type sorter struct {
	less Less
	swap Swap
	opts Options
}

// spawn submits [lo, hi) as a single errgroup task: a plain sequential sort
// for small ranges, or parallel, which itself fans further sub-ranges out
// as the partitioning recurses.
func (s *sorter) spawn(g *errgroup.Group, ctx context.Context, lo, hi int64) {
	if hi-lo <= sequentialThreshold {
		g.Go(func() error {
			return s.sequential(ctx, lo, hi)
		})
		return
	}

	g.Go(func() error {
		return s.parallel(g, ctx, lo, hi)
	})
}

func (s *sorter) parallel(g *errgroup.Group, ctx context.Context, lo, hi int64) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if hi-lo <= sequentialThreshold {
		return s.sequential(ctx, lo, hi)
	}

	p := s.partition(lo, hi)

	// Fan the left half out as its own errgroup task when g.SetLimit's cap
	// leaves a slot free, otherwise sort it on this goroutine — this task
	// already holds a slot, so blocking in g.Go for another could deadlock —
	// and finish the right half on this goroutine. The two halves are
	// disjoint index ranges, so concurrent less/swap calls against them
	// never race.
	if !g.TryGo(func() error {
		return s.parallel(g, ctx, lo, p)
	}) {
		if err := s.parallel(g, ctx, lo, p); err != nil {
			return err
		}
	}
	return s.parallel(g, ctx, p+1, hi)
}

// sequential sorts [lo, hi) with a plain introsort-less quicksort + insertion
// sort base case; it never spawns further goroutines.
func (s *sorter) sequential(ctx context.Context, lo, hi int64) error {
	for hi-lo > insertionThreshold {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p := s.partition(lo, hi)
		// Recurse into the smaller half, loop over the larger, to bound
		// stack depth at O(log n).
		if p-lo < hi-p-1 {
			if err := s.sequential(ctx, lo, p); err != nil {
				return err
			}
			lo = p + 1
		} else {
			if err := s.sequential(ctx, p+1, hi); err != nil {
				return err
			}
			hi = p
		}
	}
	s.insertionSort(lo, hi)
	return nil
}

func (s *sorter) insertionSort(lo, hi int64) {
	for i := lo + 1; i < hi; i++ {
		for j := i; j > lo && s.less(j, j-1); j-- {
			s.swap(j, j-1)
		}
	}
}

// partition picks a pivot by sampling three candidates (lo, mid, hi-1) and
// partitions [lo, hi) around it (Lomuto-style), returning the pivot's final
// index.
func (s *sorter) partition(lo, hi int64) int64 {
	mid := lo + (hi-lo)/2
	last := hi - 1

	pivotIdx := s.medianOfThree(lo, mid, last)
	s.swap(pivotIdx, last)
	pivot := last

	i := lo
	for j := lo; j < last; j++ {
		if s.less(j, pivot) {
			s.swap(i, j)
			i++
		}
	}
	s.swap(i, last)
	return i
}

func (s *sorter) medianOfThree(a, b, c int64) int64 {
	if s.opts.HashPivots && s.opts.KeyHash != nil {
		ha, hb, hc := s.opts.KeyHash(a), s.opts.KeyHash(b), s.opts.KeyHash(c)
		return medianIndexByHash(a, b, c, ha, hb, hc)
	}

	// Classic median-of-three by value using the comparator.
	if s.less(a, b) {
		if s.less(b, c) {
			return b
		}
		if s.less(a, c) {
			return c
		}
		return a
	}
	if s.less(a, c) {
		return a
	}
	if s.less(b, c) {
		return c
	}
	return b
}

func medianIndexByHash(a, b, c int64, ha, hb, hc uint64) int64 {
	idx := [3]int64{a, b, c}
	h := [3]uint64{ha, hb, hc}
	// Insertion-sort the three (index, hash) pairs by hash.
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && h[j] < h[j-1]; j-- {
			h[j], h[j-1] = h[j-1], h[j]
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	return idx[1]
}
