package mmultimap_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/calvinalkan/mmultimap"
)

func Example() {
	dir, err := os.MkdirTemp("", "mmultimap-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	mm, err := mmultimap.Open[uint64, uint64](mmultimap.Options[uint64, uint64]{
		Path:   filepath.Join(dir, "pairs.mm"),
		Value:  mmultimap.Uint64Codec{},
		MaxKey: 10,
	})
	if err != nil {
		panic(err)
	}
	defer mm.Close()

	p := mm.NewProducer()
	pairs := [][2]uint64{{3, 100}, {1, 10}, {3, 200}, {1, 20}, {2, 30}}
	for _, kv := range pairs {
		if err := p.Append(kv[0], kv[1]); err != nil {
			panic(err)
		}
	}
	if err := p.Flush(); err != nil {
		panic(err)
	}

	if err := mm.Index(context.Background()); err != nil {
		panic(err)
	}

	var values []uint64
	err = mm.ForUniqueValuesOf(3, func(v uint64) bool {
		values = append(values, v)
		return true
	})
	if err != nil {
		panic(err)
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	fmt.Println(values)

	// Output:
	// [100 200]
}
