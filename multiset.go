package mmultimap

import "context"

// MultiSet is a disk-backed, memory-mapped multiset of fixed-width unsigned
// integer values: a [MultiMap] specialized to an empty value payload. It
// reuses the appender, sorter, and mapping layer verbatim and adds one
// reader operator, ForEachValueCount, that groups the sorted run into
// (value, count) pairs.
type MultiSet[K Uint] struct {
	mm *MultiMap[K, struct{}]
}

// OpenMultiSet creates a backing file at path (removing any existing file)
// and returns a MultiSet in the writing phase. A MultiSet never builds a
// padded index; iteration is always linear over the sorted file.
func OpenMultiSet[K Uint](opts Options[K, struct{}]) (*MultiSet[K], error) {
	opts.Value = EmptyCodec{}
	opts.MaxKey = 0
	mm, err := Open[K, struct{}](opts)
	if err != nil {
		return nil, err
	}
	return &MultiSet[K]{mm: mm}, nil
}

// SetProducer appends values to a [MultiSet] during the writer phase.
type SetProducer[K Uint] struct {
	p *Producer[K, struct{}]
}

// NewProducer returns a new writer-phase append handle.
func (s *MultiSet[K]) NewProducer() *SetProducer[K] {
	return &SetProducer[K]{p: s.mm.NewProducer()}
}

// Append appends value v.
func (p *SetProducer[K]) Append(v K) error {
	return p.p.Append(v, struct{}{})
}

// Flush writes any buffered values to the backing file's tail.
func (p *SetProducer[K]) Flush() error {
	return p.p.Flush()
}

// Index performs the writer-to-reader transition: sort only, no index
// No padded index is built for a multiset.
func (s *MultiSet[K]) Index(ctx context.Context) error {
	return s.mm.Index(ctx)
}

// Len returns the total number of appended values, counted with
// multiplicity.
func (s *MultiSet[K]) Len() int64 {
	return s.mm.Len()
}

// ForEachValueCount scans the sorted array once, grouping adjacent equal
// values into runs, and invokes f(value, count) for each distinct value
// with count >= 1. f returning false stops iteration early.
func (s *MultiSet[K]) ForEachValueCount(f func(value K, count int64) bool) error {
	if err := s.mm.requirePhaseAtLeast(phaseSorted); err != nil {
		return err
	}

	var have bool
	var cur K
	var count int64

	cont := true
	err := s.mm.ForEachPair(func(key K, _ struct{}) bool {
		if !have {
			have, cur, count = true, key, 1
			return true
		}
		if key == cur {
			count++
			return true
		}
		if !f(cur, count) {
			cont = false
			return false
		}
		cur, count = key, 1
		return true
	})
	if err != nil {
		return err
	}
	if cont && have {
		f(cur, count)
	}
	return nil
}

// All ranges over every raw element in sorted order, duplicates included.
func (s *MultiSet[K]) All(f func(value K) bool) error {
	if err := s.mm.requirePhaseAtLeast(phaseSorted); err != nil {
		return err
	}
	return s.mm.ForEachPair(func(key K, _ struct{}) bool {
		return f(key)
	})
}

// At returns the value at position i in sorted order.
func (s *MultiSet[K]) At(i int64) (K, error) {
	k, _, err := s.mm.At(i)
	return k, err
}

// Close flushes, unmaps, and releases the backing file.
func (s *MultiSet[K]) Close() error {
	return s.mm.Close()
}
