package serialize

import (
	"io"
	"sort"
)

// IncMap is an efficiently encoded map linking two increasing sequences,
// used for the cluster header/footer's segment id -> byte offset index.
// Both keys and
// values are written as the delta from the previous entry, so a densely
// packed, monotonically increasing index costs a handful of small varints
// instead of one 8-byte integer per entry.
type IncMap map[uint64]uint64

// WriteIncMap writes m: a varint count, then keys as ascending deltas,
// then values as deltas in the same key order.
func WriteIncMap(w io.Writer, m IncMap) (int, error) {
	keys := sortedKeys(m)

	total, err := WriteVarint(w, uint64(len(keys)))
	if err != nil {
		return total, err
	}

	var last uint64
	for _, k := range keys {
		n, err := WriteVarint(w, k-last)
		total += n
		if err != nil {
			return total, err
		}
		last = k
	}

	last = 0
	for _, k := range keys {
		n, err := WriteVarint(w, m[k]-last)
		total += n
		if err != nil {
			return total, err
		}
		last = m[k]
	}

	return total, nil
}

// ReadIncMap reads an IncMap written by WriteIncMap.
func ReadIncMap(r io.ByteReader) (IncMap, error) {
	size, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}

	keys := make([]uint64, size)
	var last uint64
	for i := range keys {
		d, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		last += d
		keys[i] = last
	}

	m := make(IncMap, size)
	last = 0
	for i := uint64(0); i < size; i++ {
		d, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		last += d
		m[keys[i]] = last
	}

	return m, nil
}

func sortedKeys(m IncMap) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
