package mff

import (
	"testing"

	"github.com/iamNilotpal/mffchron/internal/chronology"
	"github.com/iamNilotpal/mffchron/internal/objectstore"
	"github.com/iamNilotpal/mffchron/internal/serialize"
	"github.com/iamNilotpal/mffchron/pkg/options"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *objectstore.Store {
	t.Helper()
	opts := options.NewDefaultOptions()
	opts.DBPath = t.TempDir()
	store, err := objectstore.Open(&opts, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestWriter(t *testing.T) *Writer {
	t.Helper()
	store := newTestStore(t)
	return NewWriter(store, 100, 200, nil, nil)
}

func hashFor(b byte) serialize.Hash {
	var h serialize.Hash
	h[0] = b
	return h
}

func TestWriterAddEntryStoresUnknownThenReferencesKnown(t *testing.T) {
	w := newTestWriter(t)

	obj := &chronology.Object{Hash: hashFor(1), Weight: 200, Fee: 20, Outputs: []uint64{100}}
	require.NoError(t, w.AddEntry(obj, 1000))

	stored, ok := w.Context().Lookup(hashFor(1))
	require.True(t, ok)
	require.NotZero(t, stored.SID)

	again := &chronology.Object{Hash: hashFor(1), Weight: 999, Fee: 999}
	require.NoError(t, w.AddEntry(again, 1001))

	reLookup, ok := w.Context().Lookup(hashFor(1))
	require.True(t, ok)
	require.Equal(t, stored.SID, reLookup.SID)
	require.Equal(t, uint64(200), reLookup.Weight)
}

func TestWriterRemoveEntryDispatchesAllReasons(t *testing.T) {
	w := newTestWriter(t)

	require.NoError(t, w.RemoveEntry(hashFor(1), RemoveReasonExpiry, nil, nil, 1))
	require.NoError(t, w.RemoveEntry(hashFor(2), RemoveReasonSizeLimit, nil, nil, 2))
	require.NoError(t, w.RemoveEntry(hashFor(3), RemoveReasonReorg, nil, []byte("raw"), 3))

	offender := hashFor(9)
	require.NoError(t, w.RemoveEntry(hashFor(4), RemoveReasonConflict, &offender, []byte("raw"), 4))
	require.NoError(t, w.RemoveEntry(hashFor(5), RemoveReasonReplaced, &offender, []byte("raw"), 5))
	require.NoError(t, w.RemoveEntry(hashFor(6), RemoveReasonUnknown, nil, nil, 6))
	require.NoError(t, w.RemoveEntry(hashFor(7), RemoveReasonUnknown, &offender, []byte("raw"), 7))
}

func TestWriterRemoveEntryBlockReasonDefersToPushBlock(t *testing.T) {
	w := newTestWriter(t)

	obj := &chronology.Object{Hash: hashFor(1), Weight: 1, Fee: 1}
	require.NoError(t, w.AddEntry(obj, 1))
	require.NoError(t, w.RemoveEntry(hashFor(1), RemoveReasonBlock, nil, nil, 2))
	require.Len(t, w.pendingConfirmed, 1)

	require.NoError(t, w.PushBlock(1, hashFor(100), nil, 3))
	require.Empty(t, w.pendingConfirmed)

	tip, ok := w.Mirror().Tip()
	require.True(t, ok)
	require.Equal(t, uint32(1), tip)
}

func TestWriterPushBlockThenPopBlockReorg(t *testing.T) {
	w := newTestWriter(t)

	require.NoError(t, w.PushBlock(1, hashFor(1), []serialize.Hash{hashFor(20)}, 1))
	require.NoError(t, w.PushBlock(2, hashFor(2), []serialize.Hash{hashFor(21)}, 2))

	tip, ok := w.Mirror().Tip()
	require.True(t, ok)
	require.Equal(t, uint32(2), tip)

	require.NoError(t, w.PopBlock(2, 3))
	tip, ok = w.Mirror().Tip()
	require.True(t, ok)
	require.Equal(t, uint32(1), tip)
}

func TestWriterFlushAndClose(t *testing.T) {
	w := newTestWriter(t)

	obj := &chronology.Object{Hash: hashFor(1), Weight: 1, Fee: 1}
	require.NoError(t, w.AddEntry(obj, 1))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())
}
