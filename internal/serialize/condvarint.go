package serialize

import "io"

// WriteCondVarint writes v using a cond-varint<bits> encoding: a single
// byte holds the value inline when it fits under cap = (1<<bits)-1;
// otherwise the byte holds cap as a marker and v-cap follows as a plain
// varint. Small values therefore cost a single byte.
func WriteCondVarint(w io.Writer, bits uint8, v uint64) (int, error) {
	cap := condVarintCap(bits)
	if v < cap {
		n, err := w.Write([]byte{byte(v)})
		return n, err
	}
	n, err := w.Write([]byte{byte(cap)})
	if err != nil {
		return n, err
	}
	m, err := WriteVarint(w, v-cap)
	return n + m, err
}

// ReadCondVarint reads a cond-varint<bits> value.
func ReadCondVarint(r io.ByteReader, bits uint8) (uint64, error) {
	cap := condVarintCap(bits)
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if uint64(b) < cap {
		return uint64(b), nil
	}
	rest, err := ReadVarint(r)
	if err != nil {
		return 0, err
	}
	return rest + cap, nil
}

func condVarintCap(bits uint8) uint64 {
	return (uint64(1) << bits) - 1
}
