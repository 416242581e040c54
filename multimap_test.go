package mmultimap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func appendAll(t *testing.T, p *Producer[uint64, uint64], pairs [][2]uint64) {
	t.Helper()
	for _, kv := range pairs {
		require.NoError(t, p.Append(kv[0], kv[1]))
	}
	require.NoError(t, p.Flush())
}

// E1: tiny padded multimap.
func TestE1TinyPaddedMultiMap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "e1.mm")
	mm, err := Open[uint64, uint64](Options[uint64, uint64]{
		Path: path, Value: Uint64Codec{}, MaxKey: 3,
	})
	require.NoError(t, err)
	defer mm.Close()

	p := mm.NewProducer()
	appendAll(t, p, [][2]uint64{{1, 10}, {2, 20}, {1, 30}, {3, 40}, {1, 10}})

	require.NoError(t, mm.Index(context.Background()))

	var gotKeys []uint64
	var gotVals []uint64
	require.NoError(t, mm.ForEachPair(func(k, v uint64) bool {
		gotKeys = append(gotKeys, k)
		gotVals = append(gotVals, v)
		return true
	}))
	require.Equal(t, []uint64{1, 1, 1, 2, 3}, gotKeys)
	require.Equal(t, []uint64{10, 10, 30, 20, 40}, gotVals)

	require.EqualValues(t, 5, mm.Len())

	keyCount := 0
	var lastKey uint64
	first := true
	for i := int64(0); i < mm.Len(); i++ {
		k, _, err := mm.At(i)
		require.NoError(t, err)
		if first || k > lastKey {
			keyCount++
			lastKey = k
			first = false
		}
	}
	require.Equal(t, 3, keyCount)

	var unique []uint64
	require.NoError(t, mm.ForUniqueValuesOf(1, func(v uint64) bool {
		unique = append(unique, v)
		return true
	}))
	require.Equal(t, []uint64{10, 30}, unique)
}

// E2: unpadded multimap — same data, no MaxKey.
func TestE2UnpaddedMultiMap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "e2.mm")
	mm, err := Open[uint64, uint64](Options[uint64, uint64]{
		Path: path, Value: Uint64Codec{},
	})
	require.NoError(t, err)
	defer mm.Close()

	p := mm.NewProducer()
	appendAll(t, p, [][2]uint64{{1, 10}, {2, 20}, {1, 30}, {3, 40}, {1, 10}})

	require.NoError(t, mm.Index(context.Background()))

	var gotKeys []uint64
	require.NoError(t, mm.ForEachPair(func(k, _ uint64) bool {
		gotKeys = append(gotKeys, k)
		return true
	}))
	require.Equal(t, []uint64{1, 1, 1, 2, 3}, gotKeys)

	err = mm.ForUniqueValuesOf(1, func(uint64) bool { return true })
	require.ErrorIs(t, err, ErrMode)

	var vals []uint64
	require.NoError(t, mm.ForValuesOf(2, func(v uint64) bool {
		vals = append(vals, v)
		return true
	}))
	require.Equal(t, []uint64{20}, vals)
}

// E6: phase errors.
func TestE6PhaseErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "e6.mm")
	mm, err := Open[uint64, uint64](Options[uint64, uint64]{
		Path: path, Value: Uint64Codec{}, MaxKey: 10,
	})
	require.NoError(t, err)
	defer mm.Close()

	err = mm.ForEachPair(func(uint64, uint64) bool { return true })
	require.ErrorIs(t, err, ErrPhase)

	p := mm.NewProducer()
	require.NoError(t, p.Append(1, 1))
	require.NoError(t, p.Flush())
	require.NoError(t, mm.Index(context.Background()))

	err = p.Append(2, 2)
	require.ErrorIs(t, err, ErrPhase)
}

func TestAppendSentinelKeyRejected(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sentinel.mm")
	mm, err := Open[uint64, uint64](Options[uint64, uint64]{
		Path: path, Value: Uint64Codec{},
	})
	require.NoError(t, err)
	defer mm.Close()

	p := mm.NewProducer()
	err = p.Append(sentinelOf[uint64](), 1)
	require.True(t, errors.Is(err, ErrSentinelKey))
}

func TestComplexValueMultiMap(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "complex.mm")
	mm, err := Open[uint64, Uint64Pair](Options[uint64, Uint64Pair]{
		Path: path, Value: Uint64PairCodec{}, MaxKey: 5,
	})
	require.NoError(t, err)
	defer mm.Close()

	p := mm.NewProducer()
	require.NoError(t, p.Append(2, Uint64Pair{A: 9, B: 1}))
	require.NoError(t, p.Append(2, Uint64Pair{A: 3, B: 7}))
	require.NoError(t, p.Flush())
	require.NoError(t, mm.Index(context.Background()))

	var got []Uint64Pair
	require.NoError(t, mm.ForValuesOf(2, func(v Uint64Pair) bool {
		got = append(got, v)
		return true
	}))
	require.Equal(t, []Uint64Pair{{A: 3, B: 7}, {A: 9, B: 1}}, got)
}

func TestBoundsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bounds.mm")
	mm, err := Open[uint64, uint64](Options[uint64, uint64]{
		Path: path, Value: Uint64Codec{},
	})
	require.NoError(t, err)
	defer mm.Close()

	p := mm.NewProducer()
	require.NoError(t, p.Append(1, 1))
	require.NoError(t, p.Flush())
	require.NoError(t, mm.Index(context.Background()))

	_, _, err = mm.At(5)
	require.ErrorIs(t, err, ErrBounds)
}
