package registry

import (
	"bufio"
	"io"

	mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"
	"github.com/iamNilotpal/mffchron/internal/serialize"
)

var magic = [2]byte{'C', 'Q'}

const version = uint8(1)

// Header is the working index for one cluster file: which segments (chain
// heights) it contains and at what byte offset each one starts. A cluster
// being actively written has a Header that grows with every BeginSegment
// call; a finished cluster's Header, read back in read-only mode, is
// called its footer in spec.md's terminology but shares this same type.
type Header struct {
	ClusterID      uint32
	Version        uint8
	TimestampStart uint64
	Segments       serialize.IncMap // segment id -> byte offset of its first event
}

// NewHeader creates a blank header for a cluster about to be written.
func NewHeader(clusterID uint32, timestampStart uint64) *Header {
	return &Header{
		ClusterID:      clusterID,
		Version:        version,
		TimestampStart: timestampStart,
		Segments:       make(serialize.IncMap),
	}
}

// MarkSegment records that segment begins at byte offset position within
// the cluster.
func (h *Header) MarkSegment(segment uint32, position uint64) {
	h.Segments[uint64(segment)] = position
}

// SegmentPosition returns the byte offset segment starts at, and whether it
// is present in this header at all.
func (h *Header) SegmentPosition(segment uint32) (uint64, bool) {
	pos, ok := h.Segments[uint64(segment)]
	return pos, ok
}

// FirstSegment and LastSegment return the lowest/highest segment id this
// header indexes, or false if the header is empty.
func (h *Header) FirstSegment() (uint32, bool) {
	if len(h.Segments) == 0 {
		return 0, false
	}
	var first uint64
	first = ^uint64(0)
	for k := range h.Segments {
		if k < first {
			first = k
		}
	}
	return uint32(first), true
}

// Floor returns the largest recorded segment ≤ segment, and the byte
// offset it was begun at, used when replay asks to seek to a segment that
// was never itself a BeginSegment boundary (gaps are permitted between
// segments per spec.md §3).
func (h *Header) Floor(segment uint32) (uint32, uint64, bool) {
	var best uint32
	var bestOffset uint64
	found := false
	for k, v := range h.Segments {
		s := uint32(k)
		if s <= segment && (!found || s > best) {
			best, bestOffset, found = s, v, true
		}
	}
	return best, bestOffset, found
}

func (h *Header) LastSegment() (uint32, bool) {
	if len(h.Segments) == 0 {
		return 0, false
	}
	var last uint64
	for k := range h.Segments {
		if k > last {
			last = k
		}
	}
	return uint32(last), true
}

// Write serializes the header: magic "CQ", version byte, 8-byte
// little-endian start timestamp, then the segment incmap.
func (h *Header) Write(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{h.Version}); err != nil {
		return err
	}

	var ts [8]byte
	for i := 0; i < 8; i++ {
		ts[i] = byte(h.TimestampStart >> (8 * i))
	}
	if _, err := w.Write(ts[:]); err != nil {
		return err
	}

	_, err := serialize.WriteIncMap(w, h.Segments)
	return err
}

// ReadHeader deserializes a header written by Write, validating the magic.
func ReadHeader(r io.Reader, clusterID uint32) (*Header, error) {
	br := bufio.NewReader(r)

	var gotMagic [2]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, mffErrors.NewFormatError(
			nil, mffErrors.ErrorCodeMagicMismatch,
			"registry: cluster header magic mismatch",
		).WithDetail("expected", string(magic[:])).WithDetail("got", string(gotMagic[:]))
	}

	v, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if v != version {
		return nil, mffErrors.NewFormatError(
			nil, mffErrors.ErrorCodeVersionMismatch,
			"registry: cluster header version mismatch",
		).WithDetail("expected", version).WithDetail("got", v)
	}

	var tsBuf [8]byte
	if _, err := io.ReadFull(br, tsBuf[:]); err != nil {
		return nil, err
	}
	var ts uint64
	for i := 0; i < 8; i++ {
		ts |= uint64(tsBuf[i]) << (8 * i)
	}

	segments, err := serialize.ReadIncMap(br)
	if err != nil {
		return nil, err
	}

	return &Header{ClusterID: clusterID, Version: v, TimestampStart: ts, Segments: segments}, nil
}
