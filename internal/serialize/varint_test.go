package serialize

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 0x7F, 0x80, 0xFF, 1000, 1 << 20, 1 << 40, ^uint64(0)}

	for _, v := range values {
		var buf bytes.Buffer
		_, err := WriteVarint(&buf, v)
		require.NoError(t, err)

		got, err := ReadVarint(bufio.NewReader(&buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestVarintIsPrefixFree(t *testing.T) {
	// A zero followed by more bytes must not be mistaken for a larger value:
	// the continuation bit must be absent on the terminal byte.
	var buf bytes.Buffer
	_, err := WriteVarint(&buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00}, buf.Bytes())
}

func TestSignedVarintRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 2, -2, 1000, -1000, 1 << 30, -(1 << 30)}

	for _, v := range values {
		var buf bytes.Buffer
		_, err := WriteSignedVarint(&buf, v)
		require.NoError(t, err)

		got, err := ReadSignedVarint(bufio.NewReader(&buf))
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestSignedVarintSmallMagnitudeIsCheap(t *testing.T) {
	var pos, neg bytes.Buffer
	_, err := WriteSignedVarint(&pos, 1)
	require.NoError(t, err)
	_, err = WriteSignedVarint(&neg, -1)
	require.NoError(t, err)

	require.Equal(t, 1, pos.Len())
	require.Equal(t, 1, neg.Len())
}
