package serialize

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIncMapRoundTrip(t *testing.T) {
	m := IncMap{0: 10, 5: 20, 100: 1000}

	var buf bytes.Buffer
	_, err := WriteIncMap(&buf, m)
	require.NoError(t, err)

	got, err := ReadIncMap(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, m, got)
}

func TestIncMapEmpty(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteIncMap(&buf, IncMap{})
	require.NoError(t, err)

	got, err := ReadIncMap(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSetRoundTrip(t *testing.T) {
	s := NewSet([]uint64{7, 3, 900, 1})

	var buf bytes.Buffer
	_, err := WriteSet(&buf, s)
	require.NoError(t, err)

	got, err := ReadSet(bufio.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, s, got)
	require.Equal(t, []uint64{1, 3, 7, 900}, got.Slice())
}
