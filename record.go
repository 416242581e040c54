package mmultimap

import "unsafe"

// Uint is the set of key types a [MultiMap] or [MultiSet] may be built over:
// any fixed-width unsigned integer. The reference use is uint64.
type Uint interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// sentinelOf returns the reserved sentinel key value: the maximum
// representable value of K. It is used by the sorter and index to mark
// absent index entries and must never appear as a legitimate user key.
func sentinelOf[K Uint]() K {
	return ^K(0)
}

// keySize returns the on-disk width, in bytes, of K.
func keySize[K Uint]() int {
	var z K
	return int(unsafe.Sizeof(z))
}

// putKey writes k into dst (which must be at least keySize[K]() bytes) in
// big-endian order. Records are compared byte-wise by the sorter, so the
// on-disk key encoding must be
// most-significant-byte-first regardless of host architecture — the same
// convention [Uint64Codec] uses for values.
func putKey[K Uint](dst []byte, k K) {
	n := int(unsafe.Sizeof(k))
	v := uint64(k)
	for i := n - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

// getKey reads a K back out of src (which must be at least keySize[K]()
// bytes), the inverse of putKey.
func getKey[K Uint](src []byte) K {
	var z K
	n := int(unsafe.Sizeof(z))
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(src[i])
	}
	return K(v)
}

// Codec describes how to serialize a fixed-size, bit-copyable value payload
// V to and from a byte slice. Size must be constant for the lifetime of the
// container. Encode must produce bytes whose lexicographic (big-endian-style,
// most-significant-byte-first) ordering matches the desired ordering of V,
// since the sorter and reader operators compare records byte-wise to
// determine (K, V) order.
type Codec[V any] interface {
	// Size returns the fixed encoded width of V, in bytes. May be 0.
	Size() int
	// Encode writes v into dst, which is exactly Size() bytes long.
	Encode(dst []byte, v V)
	// Decode reads a V back out of src, which is exactly Size() bytes long.
	Decode(src []byte) V
}

// EmptyCodec is the zero-size [Codec] used by [MultiSet]: it has no value
// payload, only the key.
type EmptyCodec struct{}

func (EmptyCodec) Size() int                    { return 0 }
func (EmptyCodec) Encode(dst []byte, _ struct{}) {}
func (EmptyCodec) Decode(_ []byte) struct{}      { return struct{}{} }

// Uint64Codec encodes a single big-endian uint64 value, the common case for
// a plain integer-valued multimap.
type Uint64Codec struct{}

func (Uint64Codec) Size() int { return 8 }

func (Uint64Codec) Encode(dst []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

func (Uint64Codec) Decode(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v
}

// Uint64Pair is a two-field value payload: a pair of uint64s, useful for
// containers that need more than one numeric field per record.
type Uint64Pair struct {
	A, B uint64
}

// Uint64PairCodec encodes a [Uint64Pair] as two big-endian uint64s, A then
// B, so byte comparison matches lexicographic (A, B) comparison.
type Uint64PairCodec struct{}

func (Uint64PairCodec) Size() int { return 16 }

func (Uint64PairCodec) Encode(dst []byte, v Uint64Pair) {
	var u Uint64Codec
	u.Encode(dst[0:8], v.A)
	u.Encode(dst[8:16], v.B)
}

func (Uint64PairCodec) Decode(src []byte) Uint64Pair {
	var u Uint64Codec
	return Uint64Pair{A: u.Decode(src[0:8]), B: u.Decode(src[8:16])}
}
