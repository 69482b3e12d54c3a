package mffchron

import (
	"context"
	"testing"

	"github.com/iamNilotpal/mffchron/internal/mff"
	"github.com/iamNilotpal/mffchron/internal/serialize"
	"github.com/iamNilotpal/mffchron/pkg/options"
	"github.com/stretchr/testify/require"
)

func hashFor(b byte) serialize.Hash {
	var h serialize.Hash
	h[0] = b
	return h
}

func newTestOptions(t *testing.T) *options.Options {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DBPath = t.TempDir()
	return &opts
}

func TestChronicleAddRemovePushFlushClose(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, "test", &Config{Options: newTestOptions(t)})
	require.NoError(t, err)

	entry := mff.MempoolEntry{Hash: hashFor(1), Weight: 100, Fee: 10, Outputs: []uint64{50}}
	require.NoError(t, c.AddEntry(entry, 1))
	require.NoError(t, c.RemoveEntry(hashFor(1), mff.RemoveReasonExpiry, nil, nil, 2))

	entry2 := mff.MempoolEntry{Hash: hashFor(2), Weight: 200, Fee: 20}
	require.NoError(t, c.AddEntry(entry2, 3))
	require.NoError(t, c.PushBlock(1, hashFor(100), []serialize.Hash{hashFor(2)}, 4))

	require.NoError(t, c.Flush())
	require.NoError(t, c.Close())

	// Any further call after Close must fail with ErrClosed.
	require.ErrorIs(t, c.Flush(), ErrClosed)
	require.ErrorIs(t, c.Close(), ErrClosed)
}

func TestChronicleReplaysWrittenHistory(t *testing.T) {
	ctx := context.Background()
	opts := newTestOptions(t)

	c, err := New(ctx, "test", &Config{Options: opts})
	require.NoError(t, err)

	entry := mff.MempoolEntry{Hash: hashFor(7), Weight: 1, Fee: 1}
	require.NoError(t, c.AddEntry(entry, 1))
	require.NoError(t, c.PushBlock(1, hashFor(101), []serialize.Hash{hashFor(7)}, 2))
	require.NoError(t, c.Close())

	reopened, err := New(ctx, "test", &Config{Options: opts})
	require.NoError(t, err)
	defer reopened.Close()

	rp := reopened.NewReplayer(nil)
	require.NoError(t, rp.GotoSegment(0))
	require.NoError(t, rp.Iterate())
	require.NoError(t, rp.Close())

	tip, ok := rp.Mirror().Tip()
	require.True(t, ok)
	require.Equal(t, uint32(1), tip)
}
