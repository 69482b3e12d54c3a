package mff

import (
	"testing"

	"github.com/iamNilotpal/mffchron/internal/chronology"
	"github.com/iamNilotpal/mffchron/internal/serialize"
	"github.com/stretchr/testify/require"
)

type recordedForget struct {
	hash   serialize.Hash
	reason Reason
}

type recordedDiscard struct {
	hash   serialize.Hash
	raw    []byte
	reason Reason
	cause  *serialize.Hash
}

type recordingDelegate struct {
	received       []*chronology.Object
	receivedByHash []serialize.Hash
	forgotten      []recordedForget
	discarded      []recordedDiscard
	blocks         []*Block
	reorgs         []uint32
	iterations     int
}

func (d *recordingDelegate) ReceiveTransaction(obj *chronology.Object) {
	d.received = append(d.received, obj)
}

func (d *recordingDelegate) ReceiveTransactionByHash(hash serialize.Hash) {
	d.receivedByHash = append(d.receivedByHash, hash)
}

func (d *recordingDelegate) ForgetTransaction(hash serialize.Hash, reason Reason) {
	d.forgotten = append(d.forgotten, recordedForget{hash: hash, reason: reason})
}

func (d *recordingDelegate) DiscardTransaction(hash serialize.Hash, raw []byte, reason Reason, cause *serialize.Hash) {
	d.discarded = append(d.discarded, recordedDiscard{hash: hash, raw: raw, reason: reason, cause: cause})
}

func (d *recordingDelegate) BlockConfirmed(block *Block) {
	d.blocks = append(d.blocks, block)
}

func (d *recordingDelegate) BlockReorged(height uint32) {
	d.reorgs = append(d.reorgs, height)
}

func (d *recordingDelegate) Iterated(fromOffset, toOffset int64) {
	d.iterations++
}

// writeSample drives a small, representative sequence through w: an unknown
// object enters and leaves by expiry, a second enters and is confirmed in a
// block, then a second block is pushed and reorged back out.
func writeSample(t *testing.T, w *Writer) {
	t.Helper()

	require.NoError(t, w.BeginSegment(0))

	obj1 := &chronology.Object{Hash: hashFor(1), Weight: 10, Fee: 1, Outputs: []uint64{5}}
	require.NoError(t, w.AddEntry(obj1, 100))
	require.NoError(t, w.RemoveEntry(hashFor(1), RemoveReasonExpiry, nil, nil, 101))

	obj2 := &chronology.Object{Hash: hashFor(2), Weight: 20, Fee: 2, Outputs: []uint64{6}}
	require.NoError(t, w.AddEntry(obj2, 102))
	require.NoError(t, w.RemoveEntry(hashFor(2), RemoveReasonBlock, nil, nil, 103))
	require.NoError(t, w.PushBlock(1, hashFor(100), nil, 104))

	require.NoError(t, w.PushBlock(2, hashFor(101), []serialize.Hash{hashFor(3)}, 105))
	require.NoError(t, w.PopBlock(2, 106))

	require.NoError(t, w.Flush())
}

func TestReplayerIterateFromStartMatchesWrite(t *testing.T) {
	store := newTestStore(t)
	w := NewWriter(store, 100, 200, nil, nil)
	writeSample(t, w)
	require.NoError(t, w.Close())

	delegate := &recordingDelegate{}
	rp := NewReplayer(store, 100, 200, delegate, nil)
	require.NoError(t, rp.GotoSegment(0))
	require.NoError(t, rp.Iterate())
	require.NoError(t, rp.Close())

	require.Len(t, delegate.received, 2)
	require.Equal(t, hashFor(1), delegate.received[0].Hash)
	require.Equal(t, hashFor(2), delegate.received[1].Hash)

	require.Len(t, delegate.forgotten, 1)
	require.Equal(t, hashFor(1), delegate.forgotten[0].hash)
	require.Equal(t, ReasonExpired, delegate.forgotten[0].reason)

	require.Len(t, delegate.blocks, 2)
	require.Equal(t, uint32(1), delegate.blocks[0].Height)
	require.Len(t, delegate.blocks[0].KnownMembers, 1)
	require.Equal(t, uint32(2), delegate.blocks[1].Height)

	require.Len(t, delegate.reorgs, 1)
	require.Equal(t, uint32(2), delegate.reorgs[0])

	tip, ok := rp.Mirror().Tip()
	require.True(t, ok)
	require.Equal(t, uint32(1), tip)
}

func TestReplayerGotoSegmentSuppressesPrefixButRebuildsState(t *testing.T) {
	store := newTestStore(t)
	w := NewWriter(store, 100, 200, nil, nil)
	writeSample(t, w)
	require.NoError(t, w.Close())

	delegate := &recordingDelegate{}
	rp := NewReplayer(store, 100, 200, delegate, nil)
	require.NoError(t, rp.GotoSegment(1))
	require.NoError(t, rp.Iterate())
	require.NoError(t, rp.Close())

	// Segment 0's events (both mempool-ins, the expiry, and the first
	// block) are rebuilt silently and must not reach the delegate.
	require.Empty(t, delegate.received)
	require.Empty(t, delegate.forgotten)

	// Only the events recorded at or after segment 1's own BeginSegment
	// offset should be emitted: the second block and its reorg.
	require.Len(t, delegate.blocks, 1)
	require.Equal(t, uint32(2), delegate.blocks[0].Height)
	require.Len(t, delegate.reorgs, 1)
}

func TestReplayerKnownReferenceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	w := NewWriter(store, 100, 200, nil, nil)
	require.NoError(t, w.BeginSegment(0))

	obj := &chronology.Object{Hash: hashFor(9), Weight: 30, Fee: 3, Outputs: []uint64{7}}
	require.NoError(t, w.AddEntry(obj, 10))
	// Re-observing the same hash emits a known mempool-in reference.
	require.NoError(t, w.AddEntry(&chronology.Object{Hash: hashFor(9)}, 11))
	require.NoError(t, w.RemoveEntry(hashFor(9), RemoveReasonExpiry, nil, nil, 12))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())

	delegate := &recordingDelegate{}
	rp := NewReplayer(store, 100, 200, delegate, nil)
	require.NoError(t, rp.GotoSegment(0))
	require.NoError(t, rp.Iterate())
	require.NoError(t, rp.Close())

	require.Len(t, delegate.received, 1)
	require.Equal(t, hashFor(9), delegate.received[0].Hash)
	require.Len(t, delegate.receivedByHash, 1)
	require.Equal(t, hashFor(9), delegate.receivedByHash[0])
	require.Len(t, delegate.forgotten, 1)
	require.Equal(t, hashFor(9), delegate.forgotten[0].hash)
}
