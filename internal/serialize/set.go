package serialize

import (
	"io"
	"sort"
)

// Set is a delta-encoded sorted set of ids, used for the registry's set of
// cluster ids.
type Set map[uint64]struct{}

// NewSet builds a Set from a slice of ids.
func NewSet(ids []uint64) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Slice returns the set's members in ascending order.
func (s Set) Slice() []uint64 {
	out := make([]uint64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WriteSet writes s as a varint count followed by ascending deltas.
func WriteSet(w io.Writer, s Set) (int, error) {
	ids := s.Slice()

	total, err := WriteVarint(w, uint64(len(ids)))
	if err != nil {
		return total, err
	}

	var last uint64
	for _, id := range ids {
		n, err := WriteVarint(w, id-last)
		total += n
		if err != nil {
			return total, err
		}
		last = id
	}

	return total, nil
}

// ReadSet reads a Set written by WriteSet.
func ReadSet(r io.ByteReader) (Set, error) {
	size, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}

	s := make(Set, size)
	var last uint64
	for i := uint64(0); i < size; i++ {
		d, err := ReadVarint(r)
		if err != nil {
			return nil, err
		}
		last += d
		s[last] = struct{}{}
	}

	return s, nil
}
