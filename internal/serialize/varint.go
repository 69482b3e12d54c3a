// Package serialize implements the on-disk primitives shared by the
// registry and object store: the biased 7-bit varint, its signed
// (zigzag) counterpart, the conditional/inline varint used in command
// headers, Bitcoin's compact-size integer, and the delta-encoded map and
// set containers built on top of plain varints.
//
// The varint-based Read* functions (varint, signed varint, cond-varint,
// incmap, set) take an io.ByteReader so callers that already hold a
// buffered reader (the common case when replaying a cluster file) pay no
// extra allocation; ReadHash, ReadCompactSize and ReadBlob take a plain
// io.Reader. Every Write* function takes an io.Writer.
package serialize

import (
	"io"
	"math"

	mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"
)

// WriteVarint writes v using the biased 7-bit varint encoding: each byte
// carries 7 value bits plus a continuation bit (0x80) in its high bit, and
// every continuation byte is biased by +1 so that no encoding is wasted on
// representing the same value two ways.
func WriteVarint(w io.Writer, v uint64) (int, error) {
	var tmp [10]byte
	nel := len(tmp)
	marker := nel
	n := v
	for {
		nel--
		b := byte(n & 0x7F)
		if marker != nel+1 {
			b |= 0x80
		}
		tmp[nel] = b
		if n <= 0x7F {
			break
		}
		n = (n >> 7) - 1
	}
	return w.Write(tmp[nel:marker])
}

// ReadVarint reads a biased 7-bit varint. It returns a FormatError wrapping
// ErrorCodeVarintOverflow if the encoded value would overflow uint64.
func ReadVarint(r io.ByteReader) (uint64, error) {
	var value uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if value > (math.MaxUint64 >> 7) {
			return 0, mffErrors.NewFormatError(nil, mffErrors.ErrorCodeVarintOverflow, "varint: size too large")
		}
		value = (value << 7) | uint64(b&0x7F)
		if b&0x80 != 0 {
			if value == math.MaxUint64 {
				return 0, mffErrors.NewFormatError(nil, mffErrors.ErrorCodeVarintOverflow, "varint: size too large")
			}
			value++
		} else {
			return value, nil
		}
	}
}

// WriteSignedVarint zigzag-encodes v and writes it as an unsigned varint,
// so small-magnitude negative numbers (e.g. backward time corrections) cost
// as few bytes as small positive ones.
func WriteSignedVarint(w io.Writer, v int64) (int, error) {
	return WriteVarint(w, zigzagEncode(v))
}

// ReadSignedVarint reads a zigzag-encoded signed varint.
func ReadSignedVarint(r io.ByteReader) (int64, error) {
	u, err := ReadVarint(r)
	if err != nil {
		return 0, err
	}
	return zigzagDecode(u), nil
}

func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}
