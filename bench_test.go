package mmultimap

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

// BenchmarkForUniqueValuesOf measures point-query latency for the padded
// direct-address index.
func BenchmarkForUniqueValuesOf(b *testing.B) {
	const maxKey = 1 << 16
	const n = 1 << 20

	path := filepath.Join(b.TempDir(), "bench.mm")
	mm, err := Open[uint64, uint64](Options[uint64, uint64]{
		Path: path, Value: Uint64Codec{}, MaxKey: maxKey,
	})
	if err != nil {
		b.Fatal(err)
	}
	defer mm.Close()

	p := mm.NewProducer()
	for i := 0; i < n; i++ {
		k := uint64(i%maxKey) + 1
		if err := p.Append(k, uint64(i)); err != nil {
			b.Fatal(err)
		}
	}
	if err := p.Flush(); err != nil {
		b.Fatal(err)
	}
	if err := mm.Index(context.Background()); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := uint64(i%maxKey) + 1
		_ = mm.ForUniqueValuesOf(k, func(uint64) bool { return true })
	}
}

func BenchmarkAppend(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench_append.mm")
	mm, err := Open[uint64, uint64](Options[uint64, uint64]{
		Path: path, Value: Uint64Codec{},
	})
	if err != nil {
		b.Fatal(err)
	}
	defer mm.Close()

	p := mm.NewProducer()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := p.Append(uint64(i)+1, uint64(i)); err != nil {
			b.Fatal(err)
		}
	}
	if err := p.Flush(); err != nil {
		b.Fatal(err)
	}
}

func BenchmarkIndex(b *testing.B) {
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		path := filepath.Join(b.TempDir(), fmt.Sprintf("bench_index_%d.mm", i))
		mm, err := Open[uint64, uint64](Options[uint64, uint64]{
			Path: path, Value: Uint64Codec{}, MaxKey: 1 << 16,
		})
		if err != nil {
			b.Fatal(err)
		}
		p := mm.NewProducer()
		for j := 0; j < 1<<18; j++ {
			if err := p.Append(uint64(j%(1<<16))+1, uint64(j)); err != nil {
				b.Fatal(err)
			}
		}
		if err := p.Flush(); err != nil {
			b.Fatal(err)
		}
		b.StartTimer()

		if err := mm.Index(context.Background()); err != nil {
			b.Fatal(err)
		}

		b.StopTimer()
		mm.Close()
	}
}
