package mff

import (
	"testing"

	"github.com/iamNilotpal/mffchron/internal/serialize"
	"github.com/stretchr/testify/require"
)

func TestChainMirrorAppendRequiresContiguousHeight(t *testing.T) {
	m := NewChainMirror()
	require.NoError(t, m.Append(Block{Height: 10}))

	err := m.Append(Block{Height: 12})
	require.Error(t, err)

	tip, ok := m.Tip()
	require.True(t, ok)
	require.Equal(t, uint32(10), tip)
}

func TestChainMirrorAcceptsAnyHeightWhenEmpty(t *testing.T) {
	m := NewChainMirror()
	require.NoError(t, m.Append(Block{Height: 500}))

	tip, ok := m.Tip()
	require.True(t, ok)
	require.Equal(t, uint32(500), tip)
}

func TestChainMirrorEvictsOldestBeyondMaxBlocks(t *testing.T) {
	m := NewChainMirror()
	for i := uint32(0); i < MaxBlocks+3; i++ {
		require.NoError(t, m.Append(Block{Height: i, Hash: serialize.Hash{byte(i)}}))
	}

	blocks := m.Blocks()
	require.Len(t, blocks, MaxBlocks)
	require.Equal(t, uint32(3), blocks[0].Height)
	require.Equal(t, uint32(MaxBlocks+2), blocks[len(blocks)-1].Height)
}

func TestChainMirrorPopLowersTip(t *testing.T) {
	m := NewChainMirror()
	require.NoError(t, m.Append(Block{Height: 1}))
	require.NoError(t, m.Append(Block{Height: 2}))

	popped, err := m.Pop()
	require.NoError(t, err)
	require.Equal(t, uint32(2), popped.Height)

	tip, ok := m.Tip()
	require.True(t, ok)
	require.Equal(t, uint32(1), tip)
}

func TestChainMirrorPopEmptyIsError(t *testing.T) {
	m := NewChainMirror()
	_, err := m.Pop()
	require.Error(t, err)
}

func TestChainMirrorPopToEmptyClearsTip(t *testing.T) {
	m := NewChainMirror()
	require.NoError(t, m.Append(Block{Height: 5}))
	_, err := m.Pop()
	require.NoError(t, err)

	_, ok := m.Tip()
	require.False(t, ok)
}
