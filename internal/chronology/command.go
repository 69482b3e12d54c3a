// Package chronology implements the time-relative command framing layer
// of the event log: the one-byte command header (time-delta encoding,
// known flag, opcode), timestamp resolution and its monotonicity check,
// and the serialization Context that replaces the reference
// implementation's process-global dictionaries with an explicit value
// threaded through every encode/decode call.
package chronology

import (
	"io"
	"time"

	"github.com/iamNilotpal/mffchron/internal/serialize"
	mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"
)

// Opcode is the six base commands of the event stream.
type Opcode uint8

const (
	OpcodeTimeSet             Opcode = 0x00
	OpcodeMempoolIn           Opcode = 0x01
	OpcodeMempoolOut          Opcode = 0x02
	OpcodeMempoolInvalidated  Opcode = 0x03
	OpcodeBlockMined          Opcode = 0x04
	OpcodeBlockUnmined        Opcode = 0x05
)

const (
	opcodeMask = 0x07

	flagOffenderPresent byte = 0x08
	flagOffenderKnown   byte = 0x10
	flagKnown           byte = 0x20
)

// timeEncoding is the 2-bit scheme in bits 7-6 of the header byte.
type timeEncoding uint8

const (
	timeDeltaZero timeEncoding = iota
	timeDeltaOne
	timeDeltaTwo
	timeDeltaVarint
)

// futureSanityWindow bounds how far past "now" a decoded timestamp may sit
// before it is treated as corruption rather than clock skew.
const futureSanityWindow = 24 * time.Hour

// Header is the decoded form of a command's leading byte plus its
// resolved absolute timestamp.
type Header struct {
	Opcode          Opcode
	Known           bool
	OffenderPresent bool
	OffenderKnown   bool
	Time            int64
}

// WriteHeader emits the header byte and the time-delta that follows it,
// then advances ctx's clock. The delta is taken from the context's
// current_time before this call; WriteHeader rejects a time that would move
// backwards, per the writer-side monotonicity invariant.
func WriteHeader(w io.Writer, ctx *Context, h Header) error {
	delta := h.Time - ctx.currentTime
	if delta < 0 {
		return mffErrors.NewInvariantError(
			mffErrors.ErrorCodeNonMonotonicTime,
			"chronology: event timestamp precedes last persisted timestamp",
		).WithDetail("previous", ctx.currentTime).WithDetail("attempted", h.Time)
	}

	var enc timeEncoding
	switch delta {
	case 0:
		enc = timeDeltaZero
	case 1:
		enc = timeDeltaOne
	case 2:
		enc = timeDeltaTwo
	default:
		enc = timeDeltaVarint
	}

	b := byte(enc) << 6
	if h.Known {
		b |= flagKnown
	}
	if h.OffenderKnown {
		b |= flagOffenderKnown
	}
	if h.OffenderPresent {
		b |= flagOffenderPresent
	}
	b |= byte(h.Opcode) & opcodeMask

	if _, err := w.Write([]byte{b}); err != nil {
		return err
	}
	if enc == timeDeltaVarint {
		if _, err := serialize.WriteVarint(w, uint64(delta)); err != nil {
			return err
		}
	}

	ctx.currentTime = h.Time
	return nil
}

// ReadHeader decodes a command header and resolves its absolute timestamp
// against ctx's clock, advancing it. It rejects a timestamp implausibly far
// in the future as a FormatError, the corruption signal spec'd for replay.
func ReadHeader(r io.Reader, ctx *Context) (Header, error) {
	br := asByteReader(r)

	raw, err := br.ReadByte()
	if err != nil {
		return Header{}, err
	}

	enc := timeEncoding(raw >> 6)
	h := Header{
		Known:           raw&flagKnown != 0,
		OffenderKnown:   raw&flagOffenderKnown != 0,
		OffenderPresent: raw&flagOffenderPresent != 0,
		Opcode:          Opcode(raw & opcodeMask),
	}

	var delta uint64
	switch enc {
	case timeDeltaZero:
		delta = 0
	case timeDeltaOne:
		delta = 1
	case timeDeltaTwo:
		delta = 2
	default:
		delta, err = serialize.ReadVarint(br)
		if err != nil {
			return Header{}, err
		}
	}

	resolved := ctx.currentTime + int64(delta)
	if resolved > time.Now().Add(futureSanityWindow).Unix() {
		return Header{}, mffErrors.NewFormatError(
			nil, mffErrors.ErrorCodeTimestampOutOfRange,
			"chronology: decoded timestamp is implausibly far in the future",
		).WithDetail("timestamp", resolved)
	}

	h.Time = resolved
	ctx.currentTime = resolved
	return h, nil
}
