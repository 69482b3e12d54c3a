package chronology

import "io"

// asByteReader adapts any io.Reader to an io.ByteReader, reusing the
// concrete reader's own ReadByte when it already has one (the common case,
// since every decode path in this package runs over a *bufio.Reader or an
// *io.SectionReader-wrapped bufio.Reader) instead of allocating a wrapper.
func asByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &singleByteReader{r}
}

type singleByteReader struct {
	io.Reader
}

func (s *singleByteReader) ReadByte() (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(s.Reader, buf[:])
	return buf[0], err
}
