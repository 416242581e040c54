package mmultimap

// buildIndex constructs the padded direct-address index over the now-sorted
// record file. index[k] becomes the record offset of the
// first occurrence of key k, or — after backfill — the offset where the
// next larger present key begins, so that [index[k], index[k+1]) is always
// the (possibly empty) run for k.
func (c *multiMapCore[K, V]) buildIndex(n int64) error {
	size := c.maxKey + 2
	idx := make([]int64, size)
	const absent = int64(-1)
	for i := range idx {
		idx[i] = absent
	}

	data := c.f.mapped()
	tail := n
	for i := int64(0); i < n; i++ {
		off := i * int64(c.recordSize)
		k := getKey[K](data[off : off+int64(c.keySz)])
		ku := uint64(k)
		if ku > c.maxKey {
			// Keys beyond the declared domain are not indexable; the file
			// is sorted, so every remaining record is out of domain too.
			tail = i
			break
		}
		if idx[ku] == absent {
			idx[ku] = i
		}
	}

	// Tail marker: the slot one past the declared domain points one past
	// the last in-domain record (the record count when every key is within
	// the domain), so the last present key's run has a well-defined upper
	// bound.
	idx[c.maxKey+1] = tail

	// Backfill right-to-left: an absent slot inherits the offset of the
	// next larger present key, so run length is always
	// index[k+1] - index[k].
	for k := int64(c.maxKey); k >= 0; k-- {
		if idx[k] == absent {
			idx[k] = idx[k+1]
		}
	}

	c.index = idx
	return nil
}
