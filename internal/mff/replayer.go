package mff

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/iamNilotpal/mffchron/internal/chronology"
	"github.com/iamNilotpal/mffchron/internal/objectstore"
	"github.com/iamNilotpal/mffchron/internal/pager"
	"github.com/iamNilotpal/mffchron/internal/registry"
	"github.com/iamNilotpal/mffchron/internal/serialize"
	mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"
	"go.uber.org/zap"
)

// countingReader tracks the absolute byte offset of the next unread byte —
// the same coordinate system object SIDs and "known" reference deltas are
// expressed in — over a read-only cluster file.
type countingReader struct {
	r   *bufio.Reader
	pos int64
}

func newCountingReader(r io.Reader, base int64) *countingReader {
	return &countingReader{r: bufio.NewReader(r), pos: base}
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.pos += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.pos++
	}
	return b, err
}

// Replayer decodes a cluster file's command stream and drives a Delegate,
// rebuilding the same dictionaries, chain mirror, and purge-queue state the
// writer produced them from.
type Replayer struct {
	store  *objectstore.Store
	p      *pager.Pager
	header *registry.Header

	ctx    *chronology.Context
	mirror *ChainMirror
	purge  *PurgeQueues

	delegate Delegate
	log      *zap.SugaredLogger

	reader        *countingReader
	suppressUntil int64
}

// NewReplayer creates a replayer reading from store's cluster files. Call
// GotoSegment before the first Iterate.
func NewReplayer(store *objectstore.Store, freezeWindow, chillWindow uint32, delegate Delegate, log *zap.SugaredLogger) *Replayer {
	if delegate == nil {
		delegate = noopDelegate{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Replayer{
		store:    store,
		mirror:   NewChainMirror(),
		purge:    NewPurgeQueues(freezeWindow, chillWindow, log),
		delegate: delegate,
		log:      log,
	}
}

// Mirror exposes the replayer's reconstructed chain mirror.
func (rp *Replayer) Mirror() *ChainMirror { return rp.mirror }

// Purge exposes the replayer's reconstructed purge queues.
func (rp *Replayer) Purge() *PurgeQueues { return rp.purge }

// Context exposes the replayer's chronology context.
func (rp *Replayer) Context() *chronology.Context { return rp.ctx }

// GotoSegment positions the replayer to resume at segment. It opens the
// cluster covering segment and scans from that cluster's own beginning, so
// every dictionary entry and chain-mirror block a later "known" reference
// might point at is rebuilt before any callback fires; only once the scan
// reaches segment's recorded offset (or the nearest one preceding it, since
// segment boundaries may have gaps) does Iterate actually invoke the
// delegate. This costs a silent pass over the skipped prefix of the
// cluster, the price of a sparse segment index.
func (rp *Replayer) GotoSegment(segment uint32) error {
	clusterID := rp.store.Registry().ClusterOf(segment)

	p, header, err := rp.store.OpenReadOnly(clusterID)
	if err != nil {
		return err
	}

	_, offset, ok := header.Floor(segment)
	if !ok {
		p.Close()
		return mffErrors.NewIntegrityError(
			nil, mffErrors.ErrorCodeSegmentOutOfRange,
			"mff: segment not present in cluster header",
		).WithDetail("segment", segment)
	}

	if rp.p != nil {
		rp.p.Close()
	}

	rp.p = p
	rp.header = header
	rp.ctx = chronology.NewContext(p, clusterID)
	rp.ctx.SetTime(int64(header.TimestampStart))
	rp.mirror = NewChainMirror()
	rp.suppressUntil = int64(offset)
	rp.reader = newCountingReader(p.NewSectionReader(0), 0)
	return nil
}

// Close releases the cluster file the replayer currently holds open.
func (rp *Replayer) Close() error {
	if rp.p == nil {
		return nil
	}
	return rp.p.Close()
}

// Iterate decodes commands from the current position to end-of-cluster,
// driving the delegate, chain mirror, and purge queues. A truncated trailing
// record ends iteration without error. GotoSegment must be called first.
func (rp *Replayer) Iterate() error {
	for {
		cmdStart := rp.reader.pos
		h, err := chronology.ReadHeader(rp.reader, rp.ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		emit := cmdStart >= rp.suppressUntil
		if err := rp.dispatch(h, cmdStart, emit); err != nil {
			// A record cut short by the end of the file is a truncated
			// trailing record: no more events, not corruption.
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return err
		}
		if emit {
			rp.delegate.Iterated(cmdStart, rp.reader.pos)
		}
	}
}

// resolveKnown turns a decoded reference delta back into the object it
// names, rejecting one that doesn't resolve within the active cluster's
// dictionary as an integrity violation rather than a silent miss — per the
// cluster-transition rule, a "known" reference can only ever point inside
// the cluster currently being decoded.
func (rp *Replayer) resolveKnown(cmdStart int64, delta uint64) (*chronology.Object, error) {
	id := chronology.Derefer(uint64(cmdStart), delta)
	obj, ok := rp.ctx.LookupID(id)
	if !ok {
		return nil, mffErrors.NewIntegrityError(
			nil, mffErrors.ErrorCodeUnknownReference,
			"mff: known reference does not resolve to a recorded object",
		).WithDetail("id", id).WithDetail("at", cmdStart)
	}
	return obj, nil
}

func (rp *Replayer) dispatch(h chronology.Header, cmdStart int64, emit bool) error {
	switch h.Opcode {
	case chronology.OpcodeMempoolIn:
		return rp.dispatchMempoolIn(h, cmdStart, emit)
	case chronology.OpcodeMempoolOut:
		return rp.dispatchMempoolOut(h, cmdStart, emit)
	case chronology.OpcodeMempoolInvalidated:
		return rp.dispatchMempoolInvalidated(h, cmdStart, emit)
	case chronology.OpcodeBlockMined:
		return rp.dispatchBlockMined(cmdStart, emit)
	case chronology.OpcodeBlockUnmined:
		return rp.dispatchBlockUnmined(emit)
	default:
		return mffErrors.NewFormatError(
			nil, mffErrors.ErrorCodeBadOpcode, "mff: unrecognized opcode",
		).WithDetail("opcode", int(h.Opcode))
	}
}

func (rp *Replayer) dispatchMempoolIn(h chronology.Header, cmdStart int64, emit bool) error {
	if h.Known {
		delta, err := serialize.ReadVarint(rp.reader)
		if err != nil {
			return err
		}
		obj, err := rp.resolveKnown(cmdStart, delta)
		if err != nil {
			return err
		}
		rp.purge.Thaw(obj.SID)
		if emit {
			rp.delegate.ReceiveTransactionByHash(obj.Hash)
		}
		return nil
	}

	obj, err := rp.ctx.Load(rp.reader, rp.reader.pos)
	if err != nil {
		return err
	}
	if emit {
		rp.delegate.ReceiveTransaction(obj)
	}
	return nil
}

func (rp *Replayer) dispatchMempoolOut(h chronology.Header, cmdStart int64, emit bool) error {
	hash, subj, err := rp.readSubject(h.Known, cmdStart)
	if err != nil {
		return err
	}

	reasonByte, err := rp.reader.ReadByte()
	if err != nil {
		return err
	}
	reason := Reason(reasonByte)

	if subj != nil {
		tip, _ := rp.mirror.Tip()
		rp.purge.Chill(subj.SID, subj.Hash, tip)
	}

	if emit {
		rp.delegate.ForgetTransaction(hash, reason)
	}
	return nil
}

func (rp *Replayer) dispatchMempoolInvalidated(h chronology.Header, cmdStart int64, emit bool) error {
	hash, subj, err := rp.readSubject(h.Known, cmdStart)
	if err != nil {
		return err
	}

	reasonByte, err := rp.reader.ReadByte()
	if err != nil {
		return err
	}
	reason := Reason(reasonByte)

	var cause *serialize.Hash
	if h.OffenderPresent {
		offenderHash, _, err := rp.readSubject(h.OffenderKnown, cmdStart)
		if err != nil {
			return err
		}
		cause = &offenderHash
	}

	raw, err := serialize.ReadBlob(rp.reader)
	if err != nil {
		return err
	}

	if subj != nil {
		tip, _ := rp.mirror.Tip()
		rp.purge.Freeze(subj.SID, subj.Hash, tip)
	}

	if emit {
		rp.delegate.DiscardTransaction(hash, raw, reason, cause)
	}
	return nil
}

// readSubject decodes either a known reference or a raw hash, the shared
// shape mempool-out, mempool-invalidated, and an invalidation's offender all
// use. It returns the resolved hash and, when the reference was known, the
// object it resolved to (nil otherwise).
func (rp *Replayer) readSubject(known bool, cmdStart int64) (serialize.Hash, *chronology.Object, error) {
	if !known {
		hash, err := serialize.ReadHash(rp.reader)
		return hash, nil, err
	}

	delta, err := serialize.ReadVarint(rp.reader)
	if err != nil {
		return serialize.Hash{}, nil, err
	}
	obj, err := rp.resolveKnown(cmdStart, delta)
	if err != nil {
		return serialize.Hash{}, nil, err
	}
	return obj.Hash, obj, nil
}

func (rp *Replayer) dispatchBlockMined(cmdStart int64, emit bool) error {
	knownCount, unknownCount, err := readMultiRefCounts(rp.reader)
	if err != nil {
		return err
	}

	knownObjs := make([]*chronology.Object, 0, knownCount)
	for i := 0; i < knownCount; i++ {
		delta, err := serialize.ReadVarint(rp.reader)
		if err != nil {
			return err
		}
		obj, err := rp.resolveKnown(cmdStart, delta)
		if err != nil {
			return err
		}
		knownObjs = append(knownObjs, obj)
	}

	unknownHashes := make([]serialize.Hash, 0, unknownCount)
	for i := 0; i < unknownCount; i++ {
		hash, err := serialize.ReadHash(rp.reader)
		if err != nil {
			return err
		}
		unknownHashes = append(unknownHashes, hash)
	}

	blockHash, err := serialize.ReadHash(rp.reader)
	if err != nil {
		return err
	}

	var heightBuf [4]byte
	if _, err := io.ReadFull(rp.reader, heightBuf[:]); err != nil {
		return err
	}
	height := binary.LittleEndian.Uint32(heightBuf[:])

	knownIDs := make([]uint64, len(knownObjs))
	for i, o := range knownObjs {
		knownIDs[i] = o.SID
	}
	block := Block{Height: height, Hash: blockHash, KnownMembers: knownIDs, NewMembers: unknownHashes}
	if err := rp.mirror.Append(block); err != nil {
		return err
	}

	for _, obj := range knownObjs {
		obj.Location = chronology.LocationConfirmed
		rp.purge.Freeze(obj.SID, obj.Hash, height)
	}
	rp.advancePurge(height)

	if emit {
		rp.delegate.BlockConfirmed(&block)
	}
	return nil
}

func (rp *Replayer) dispatchBlockUnmined(emit bool) error {
	var heightBuf [4]byte
	if _, err := io.ReadFull(rp.reader, heightBuf[:]); err != nil {
		return err
	}
	height := binary.LittleEndian.Uint32(heightBuf[:])

	popped, err := rp.mirror.Pop()
	if err != nil {
		return err
	}
	for _, id := range popped.KnownMembers {
		if obj, ok := rp.ctx.LookupID(id); ok {
			obj.Location = chronology.LocationInMempool
		}
	}

	if emit {
		rp.delegate.BlockReorged(height)
	}
	return nil
}

// advancePurge forgets every dictionary entry whose freeze/chill window has
// elapsed as of tip. Replay has a single reader and no background worker, so
// eviction happens inline rather than through PurgeQueues' worker channel.
func (rp *Replayer) advancePurge(tip uint32) {
	for _, c := range rp.purge.Due(tip) {
		rp.ctx.ForgetID(c.id)
	}
}
