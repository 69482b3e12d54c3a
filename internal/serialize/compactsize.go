package serialize

import (
	"encoding/binary"
	"io"
)

// WriteCompactSize writes v using Bitcoin's peer-to-peer compact-size
// encoding: a bare byte for values under 0xfd, then a 1-byte marker
// (0xfd/0xfe/0xff) followed by a little-endian 2/4/8-byte value. Blob
// length prefixes use this form so raw transaction and block payloads
// stay interoperable with the network encoding they were captured from.
func WriteCompactSize(w io.Writer, v uint64) (int, error) {
	switch {
	case v < 0xfd:
		return w.Write([]byte{byte(v)})
	case v <= 0xffff:
		var buf [3]byte
		buf[0] = 0xfd
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
		return w.Write(buf[:])
	case v <= 0xffffffff:
		var buf [5]byte
		buf[0] = 0xfe
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
		return w.Write(buf[:])
	default:
		var buf [9]byte
		buf[0] = 0xff
		binary.LittleEndian.PutUint64(buf[1:], v)
		return w.Write(buf[:])
	}
}

// ReadCompactSize reads a Bitcoin compact-size integer.
func ReadCompactSize(r io.Reader) (uint64, error) {
	var marker [1]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return 0, err
	}
	switch marker[0] {
	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(buf[:])), nil
	case 0xfe:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint32(buf[:])), nil
	case 0xff:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(buf[:]), nil
	default:
		return uint64(marker[0]), nil
	}
}
