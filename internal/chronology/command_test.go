package chronology

import (
	"bytes"
	"testing"

	"github.com/iamNilotpal/mffchron/internal/pager"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	dir := t.TempDir()
	p, err := pager.Open(pager.Path(dir, 0, "cluster"), 0, false, nil)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	// Offset 0 would give a stored object the "unassigned" SID; in a real
	// cluster a command header always precedes an object, so reserve one byte.
	_, err = p.Append([]byte{0})
	require.NoError(t, err)
	return NewContext(p, 0)
}

func TestHeaderRoundTripLiteralDeltas(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetTime(1_558_067_026)

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, ctx, Header{Opcode: OpcodeMempoolIn, Time: 1_558_067_026}))
	require.Equal(t, 1, buf.Len(), "zero delta must cost exactly one byte")

	readCtx := newTestContext(t)
	readCtx.SetTime(1_558_067_026)
	h, err := ReadHeader(&buf, readCtx)
	require.NoError(t, err)
	require.Equal(t, OpcodeMempoolIn, h.Opcode)
	require.Equal(t, int64(1_558_067_026), h.Time)
}

func TestHeaderRoundTripVarintDelta(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetTime(1000)

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, ctx, Header{Opcode: OpcodeBlockMined, Known: true, Time: 1100}))
	require.Greater(t, buf.Len(), 1, "large delta must spill into a varint")

	readCtx := newTestContext(t)
	readCtx.SetTime(1000)
	h, err := ReadHeader(&buf, readCtx)
	require.NoError(t, err)
	require.True(t, h.Known)
	require.Equal(t, int64(1100), h.Time)
	require.Equal(t, int64(1100), readCtx.Time())
}

func TestHeaderRejectsBackwardsTime(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetTime(2000)

	var buf bytes.Buffer
	err := WriteHeader(&buf, ctx, Header{Opcode: OpcodeTimeSet, Time: 1999})
	require.Error(t, err)
}

func TestHeaderEncodesOffenderFlags(t *testing.T) {
	ctx := newTestContext(t)
	ctx.SetTime(0)

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, ctx, Header{
		Opcode:          OpcodeMempoolInvalidated,
		OffenderPresent: true,
		OffenderKnown:   true,
		Time:            0,
	}))

	readCtx := newTestContext(t)
	h, err := ReadHeader(&buf, readCtx)
	require.NoError(t, err)
	require.Equal(t, OpcodeMempoolInvalidated, h.Opcode)
	require.True(t, h.OffenderPresent)
	require.True(t, h.OffenderKnown)
}
