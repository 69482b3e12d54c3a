package serialize

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactSizeRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000, ^uint64(0)}

	for _, v := range values {
		var buf bytes.Buffer
		_, err := WriteCompactSize(&buf, v)
		require.NoError(t, err)

		got, err := ReadCompactSize(&buf)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestCompactSizeEncodingWidths(t *testing.T) {
	cases := map[uint64]int{
		0xfc:        1,
		0xfd:        3,
		0xffff:      3,
		0x10000:     5,
		0xffffffff:  5,
		0x100000000: 9,
	}

	for v, width := range cases {
		var buf bytes.Buffer
		_, err := WriteCompactSize(&buf, v)
		require.NoError(t, err)
		require.Equal(t, width, buf.Len(), "value %d", v)
	}
}
