package mff

import "github.com/iamNilotpal/mffchron/internal/serialize"

// The interfaces below describe the shape of collaborators that live
// outside this module: an RPC client able to fetch historical blocks and
// transactions from a full node, and the mempool simulator that supplies
// add/remove/confirm/reorg callbacks. Neither is implemented here — network
// transport and RPC clients are out of scope. RemoveEntry dispatches on
// RemoveReason and Chronicle.AddEntry accepts a MempoolEntry; BlockSource
// is not called anywhere in this module.

// BlockSource fetches a full block by hash, used by a caller wanting to
// cross-check a block-mined event's member set against ground truth
// (invariant 7, block consistency) before calling PushBlock.
type BlockSource interface {
	FetchBlock(hash serialize.Hash) (*Block, error)
}

// RemoveReason is why an entry left the mempool mirror, driving the
// dispatch table in RemoveEntry.
type RemoveReason uint8

const (
	RemoveReasonUnknown RemoveReason = iota
	RemoveReasonExpiry
	RemoveReasonSizeLimit
	RemoveReasonReorg
	RemoveReasonBlock
	RemoveReasonConflict
	RemoveReasonReplaced
)

// MempoolEntry is the shape the mempool mirror (or an external simulator
// driving it) hands to the writer on add/remove.
type MempoolEntry struct {
	Hash    serialize.Hash
	Weight  uint64
	Fee     uint64
	Inputs  []InputRef
	Outputs []uint64
}

// InputRef is an unresolved input reference as the mempool mirror sees it,
// before the writer classifies it into an Outpoint state.
type InputRef struct {
	Hash        serialize.Hash
	OutputIndex uint32
}
