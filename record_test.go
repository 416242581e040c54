package mmultimap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint64CodecRoundTrip(t *testing.T) {
	t.Parallel()

	var c Uint64Codec
	buf := make([]byte, c.Size())

	for _, v := range []uint64{0, 1, 42, 1 << 40, ^uint64(0) - 1} {
		c.Encode(buf, v)
		require.Equal(t, v, c.Decode(buf))
	}
}

func TestUint64PairCodecRoundTripAndOrdering(t *testing.T) {
	t.Parallel()

	var c Uint64PairCodec
	a := make([]byte, c.Size())
	b := make([]byte, c.Size())

	c.Encode(a, Uint64Pair{A: 1, B: 5})
	c.Encode(b, Uint64Pair{A: 1, B: 9})

	require.Equal(t, Uint64Pair{A: 1, B: 5}, c.Decode(a))
	require.Less(t, string(a), string(b), "byte encoding must preserve (A,B) ordering")
}

func TestSentinelOf(t *testing.T) {
	t.Parallel()

	require.Equal(t, uint8(0xFF), sentinelOf[uint8]())
	require.Equal(t, ^uint64(0), sentinelOf[uint64]())
}

func TestPutGetKeyRoundTrip(t *testing.T) {
	t.Parallel()

	buf := make([]byte, keySize[uint64]())
	putKey[uint64](buf, 0xdeadbeef)
	require.Equal(t, uint64(0xdeadbeef), getKey[uint64](buf))
}
