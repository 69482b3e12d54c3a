package serialize

import "io"

// WriteBlob writes a compact-size length prefix followed by the raw bytes
// of b, the wire form used for an object's opaque payload (a raw
// transaction or block body) inside a cluster file.
func WriteBlob(w io.Writer, b []byte) (int, error) {
	n, err := WriteCompactSize(w, uint64(len(b)))
	if err != nil {
		return n, err
	}
	m, err := w.Write(b)
	return n + m, err
}

// ReadBlob reads a length-prefixed blob written by WriteBlob.
func ReadBlob(r io.Reader) ([]byte, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
