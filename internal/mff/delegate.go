package mff

import (
	"github.com/iamNilotpal/mffchron/internal/chronology"
	"github.com/iamNilotpal/mffchron/internal/serialize"
)

// Delegate receives callbacks as the replayer decodes each command. A nil
// Delegate is valid: replay still advances the internal dictionaries, chain
// mirror, and purge queues, it just notifies nobody.
type Delegate interface {
	// ReceiveTransaction is called for a mempool-in event carrying a full
	// (unknown) object.
	ReceiveTransaction(obj *chronology.Object)

	// ReceiveTransactionByHash is called for a mempool-in event that
	// referenced a previously recorded object by id.
	ReceiveTransactionByHash(hash serialize.Hash)

	// ForgetTransaction is called for a mempool-out event: the subject left
	// the mempool for a reason that doesn't invalidate it (expiry, size
	// limit, or an unset-cause unknown removal).
	ForgetTransaction(hash serialize.Hash, reason Reason)

	// DiscardTransaction is called for a mempool-invalidated event: the
	// subject was invalidated, carrying its original raw encoding and,
	// where applicable, the hash of the transaction responsible.
	DiscardTransaction(hash serialize.Hash, raw []byte, reason Reason, cause *serialize.Hash)

	// BlockConfirmed is called for a block-mined event.
	BlockConfirmed(block *Block)

	// BlockReorged is called for a block-unmined event at the given height.
	BlockReorged(height uint32)

	// Iterated reports replay progress: the byte range just consumed.
	Iterated(fromOffset, toOffset int64)
}

// noopDelegate implements Delegate with no-op methods, used when the
// replayer is constructed without one so call sites never need a nil
// check.
type noopDelegate struct{}

func (noopDelegate) ReceiveTransaction(*chronology.Object)                         {}
func (noopDelegate) ReceiveTransactionByHash(serialize.Hash)                       {}
func (noopDelegate) ForgetTransaction(serialize.Hash, Reason)                      {}
func (noopDelegate) DiscardTransaction(serialize.Hash, []byte, Reason, *serialize.Hash) {}
func (noopDelegate) BlockConfirmed(*Block)                                         {}
func (noopDelegate) BlockReorged(uint32)                                           {}
func (noopDelegate) Iterated(int64, int64)                                         {}
