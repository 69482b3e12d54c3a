package registry

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClusterForSegmentAdvancesTip(t *testing.T) {
	reg := New(2016)

	require.Equal(t, uint32(0), reg.ClusterForSegment(0))
	require.Equal(t, uint32(0), reg.Tip)

	require.Equal(t, uint32(0), reg.ClusterForSegment(2015))
	require.Equal(t, uint32(1), reg.ClusterForSegment(2016))
	require.Contains(t, reg.Clusters, uint32(0))
	require.Contains(t, reg.Clusters, uint32(1))
	require.Equal(t, uint32(2016), reg.Tip)
}

func TestClusterForSegmentRejectsGoingBackward(t *testing.T) {
	reg := New(2016)
	reg.ClusterForSegment(5000)
	// a lower segment doesn't move the tip or register a new cluster.
	before := len(reg.Clusters)
	got := reg.ClusterForSegment(10)
	require.Equal(t, uint32(0), got)
	require.Equal(t, before, len(reg.Clusters))
	require.Equal(t, uint32(5000), reg.Tip)
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := New(2016)
	reg.ClusterForSegment(100)
	reg.ClusterForSegment(3000)
	reg.ClusterForSegment(5000)

	var buf bytes.Buffer
	require.NoError(t, reg.Write(&buf))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, reg.ClusterSize, got.ClusterSize)
	require.Equal(t, reg.Clusters, got.Clusters)
}

func TestHeaderRoundTrip(t *testing.T) {
	h := NewHeader(3, 1557811967)
	h.MarkSegment(100, 0)
	h.MarkSegment(101, 512)

	var buf bytes.Buffer
	require.NoError(t, h.Write(&buf))

	got, err := ReadHeader(&buf, 3)
	require.NoError(t, err)
	require.Equal(t, h.Version, got.Version)
	require.Equal(t, h.TimestampStart, got.TimestampStart)
	require.Equal(t, h.Segments, got.Segments)

	pos, ok := got.SegmentPosition(101)
	require.True(t, ok)
	require.Equal(t, uint64(512), pos)
}

func TestHeaderRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("XX\x01\x00\x00\x00\x00\x00\x00\x00\x00\x00")
	_, err := ReadHeader(buf, 1)
	require.Error(t, err)
}
