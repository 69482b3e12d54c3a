package mff

import (
	"io"

	"github.com/iamNilotpal/mffchron/internal/serialize"
)

// multiRefCap is (1<<4)-1: the shared-header-byte cond-varint<4> cap a
// block-mined event's known/unknown member counts are packed under.
const multiRefCap = 15

// writeMultiRefCounts packs knownCount and unknownCount into a single
// header byte (high nibble / low nibble), each following the cond-varint<4>
// rule: 0..14 inline, 15 as a marker with the excess following as a plain
// varint. Order of any trailing varints is known-count first, then
// unknown-count.
func writeMultiRefCounts(w io.Writer, knownCount, unknownCount int) error {
	kNibble := knownCount
	if kNibble >= multiRefCap {
		kNibble = multiRefCap
	}
	uNibble := unknownCount
	if uNibble >= multiRefCap {
		uNibble = multiRefCap
	}

	header := byte(kNibble<<4) | byte(uNibble)
	if _, err := w.Write([]byte{header}); err != nil {
		return err
	}

	if knownCount >= multiRefCap {
		if _, err := serialize.WriteVarint(w, uint64(knownCount-multiRefCap)); err != nil {
			return err
		}
	}
	if unknownCount >= multiRefCap {
		if _, err := serialize.WriteVarint(w, uint64(unknownCount-multiRefCap)); err != nil {
			return err
		}
	}
	return nil
}

// readMultiRefCounts unpacks a header byte written by writeMultiRefCounts.
func readMultiRefCounts(r io.ByteReader) (knownCount, unknownCount int, err error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, 0, err
	}

	knownCount = int(b >> 4)
	if knownCount == multiRefCap {
		extra, err := serialize.ReadVarint(r)
		if err != nil {
			return 0, 0, err
		}
		knownCount = multiRefCap + int(extra)
	}

	unknownCount = int(b & 0x0F)
	if unknownCount == multiRefCap {
		extra, err := serialize.ReadVarint(r)
		if err != nil {
			return 0, 0, err
		}
		unknownCount = multiRefCap + int(extra)
	}

	return knownCount, unknownCount, nil
}
