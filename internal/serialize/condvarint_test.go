package serialize

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCondVarintInlineFitsOneByte(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteCondVarint(&buf, 4, 3)
	require.NoError(t, err)
	require.Equal(t, 1, buf.Len())

	got, err := ReadCondVarint(bufio.NewReader(&buf), 4)
	require.NoError(t, err)
	require.Equal(t, uint64(3), got)
}

func TestCondVarintOverflowsToVarint(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteCondVarint(&buf, 4, 100)
	require.NoError(t, err)
	require.Greater(t, buf.Len(), 1)

	got, err := ReadCondVarint(bufio.NewReader(&buf), 4)
	require.NoError(t, err)
	require.Equal(t, uint64(100), got)
}

func TestCondVarintRoundTripAcrossBoundary(t *testing.T) {
	const bits = 4
	cap := uint64(1<<bits) - 1

	for _, v := range []uint64{0, 1, cap - 1, cap, cap + 1, cap + 500} {
		var buf bytes.Buffer
		_, err := WriteCondVarint(&buf, bits, v)
		require.NoError(t, err)

		got, err := ReadCondVarint(bufio.NewReader(&buf), bits)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}
