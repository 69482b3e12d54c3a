package mff

import (
	"bytes"
	"encoding/binary"

	"github.com/iamNilotpal/mffchron/internal/chronology"
	"github.com/iamNilotpal/mffchron/internal/metrics"
	"github.com/iamNilotpal/mffchron/internal/objectstore"
	"github.com/iamNilotpal/mffchron/internal/serialize"
	mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"
	"go.uber.org/zap"
)

// Writer drives the domain mapping of spec.md §4.6 on top of the
// chronology layer: it classifies each mempool-mirror callback into a
// command, tracks the chain mirror, and schedules purge-queue membership.
type Writer struct {
	store *objectstore.Store
	ctx   *chronology.Context
	mirror *ChainMirror
	purge  *PurgeQueues
	metrics *metrics.Metrics
	log    *zap.SugaredLogger

	pendingConfirmed []serialize.Hash
}

// NewWriter wraps an open object store with the chronology and domain
// layers, resuming the chain mirror and dictionaries from scratch (a fresh
// open always starts with an empty mirror; a caller replaying prior state
// into it is responsible for rebuilding the mirror before driving new
// writes, matching §4.7's restartable-replay design).
func NewWriter(store *objectstore.Store, freezeWindow, chillWindow uint32, m *metrics.Metrics, log *zap.SugaredLogger) *Writer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx := chronology.NewContext(store.Pager(), store.ClusterID())
	return &Writer{
		store:   store,
		ctx:     ctx,
		mirror:  NewChainMirror(),
		purge:   NewPurgeQueues(freezeWindow, chillWindow, log),
		metrics: m,
		log:     log,
	}
}

// Context exposes the writer's chronology context, e.g. for a caller that
// wants to start the optional purge worker.
func (w *Writer) Context() *chronology.Context { return w.ctx }

// Purge exposes the writer's purge queues.
func (w *Writer) Purge() *PurgeQueues { return w.purge }

// Mirror exposes the writer's chain mirror.
func (w *Writer) Mirror() *ChainMirror { return w.mirror }

func (w *Writer) append(buf *bytes.Buffer) error {
	n, err := w.store.Pager().Append(buf.Bytes())
	if err != nil {
		if w.metrics != nil {
			w.metrics.WriteErrors.Inc()
		}
		return err
	}
	if w.metrics != nil {
		w.metrics.EventsWritten.Inc()
		w.metrics.BytesWritten.Add(float64(buf.Len()))
	}
	_ = n
	return nil
}

// BeginSegment records that segment begins at the active cluster's current
// end-of-file position, rotating to a new cluster file first if segment
// crosses the cluster-size boundary. It is an InvariantError to begin a
// segment at an id not strictly greater than the registry tip.
func (w *Writer) BeginSegment(segment uint32) error {
	reg := w.store.Registry()
	if reg.Initialized && segment <= reg.Tip {
		return mffErrors.NewInvariantError(
			mffErrors.ErrorCodeNonMonotonicSegment,
			"mff: segment id is not strictly greater than the registry tip",
		).WithDetail("tip", reg.Tip).WithDetail("segment", segment)
	}

	clusterID := reg.ClusterForSegment(segment)
	if clusterID != w.store.ClusterID() {
		if err := w.store.Rotate(clusterID); err != nil {
			return err
		}
		w.ctx.Rebind(w.store.Pager(), clusterID)
		if w.metrics != nil {
			w.metrics.ClusterRotations.Inc()
			w.metrics.ActiveCluster.Set(float64(clusterID))
		}
	}

	w.store.Header().MarkSegment(segment, uint64(w.store.Pager().Size()))
	return nil
}

// AddEntry implements add_entry: a live, already-recorded transaction is
// referenced by id; anything else is recorded in full and assigned a fresh
// id.
func (w *Writer) AddEntry(obj *chronology.Object, t int64) error {
	if existing, ok := w.ctx.Lookup(obj.Hash); ok {
		w.purge.Thaw(existing.SID)
		return w.emitMempoolIn(existing, t, true)
	}
	return w.emitMempoolIn(obj, t, false)
}

func (w *Writer) emitMempoolIn(obj *chronology.Object, t int64, known bool) error {
	var buf bytes.Buffer
	if err := chronology.WriteHeader(&buf, w.ctx, chronology.Header{
		Opcode: chronology.OpcodeMempoolIn,
		Known:  known,
		Time:   t,
	}); err != nil {
		return err
	}

	if known {
		if err := w.ctx.Refer(&buf, obj); err != nil {
			return err
		}
		return w.append(&buf)
	}

	if err := w.append(&buf); err != nil {
		return err
	}
	before := w.store.Pager().Size()
	if err := w.ctx.Store(obj); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.BytesWritten.Add(float64(w.store.Pager().Size() - before))
	}
	return nil
}

// RemoveEntry implements remove_entry's reason dispatch table. raw is the
// original-encoding transaction bytes, required only for the invalidated
// path (conflict, replaced, reorg, or unknown-with-cause); cause names the
// offending transaction for conflict/replaced/unknown-with-cause.
func (w *Writer) RemoveEntry(hash serialize.Hash, reason RemoveReason, cause *serialize.Hash, raw []byte, t int64) error {
	switch reason {
	case RemoveReasonExpiry:
		return w.emitMempoolOut(hash, ReasonExpired, t)
	case RemoveReasonSizeLimit:
		return w.emitMempoolOut(hash, ReasonSizeLimit, t)
	case RemoveReasonReorg:
		return w.emitMempoolInvalidated(hash, ReasonReorg, nil, raw, t)
	case RemoveReasonBlock:
		w.pendingConfirmed = append(w.pendingConfirmed, hash)
		return nil
	case RemoveReasonConflict:
		return w.emitMempoolInvalidated(hash, ReasonConflict, cause, raw, t)
	case RemoveReasonReplaced:
		return w.emitMempoolInvalidated(hash, ReasonReplaced, cause, raw, t)
	default:
		if cause != nil {
			return w.emitMempoolInvalidated(hash, ReasonUnknown, cause, raw, t)
		}
		return w.emitMempoolOut(hash, ReasonUnknown, t)
	}
}

func (w *Writer) emitMempoolOut(hash serialize.Hash, reason Reason, t int64) error {
	subj, known := w.ctx.Lookup(hash)

	var buf bytes.Buffer
	if err := chronology.WriteHeader(&buf, w.ctx, chronology.Header{
		Opcode: chronology.OpcodeMempoolOut,
		Known:  known,
		Time:   t,
	}); err != nil {
		return err
	}

	if known {
		if err := w.ctx.Refer(&buf, subj); err != nil {
			return err
		}
	} else if _, err := serialize.WriteHash(&buf, hash); err != nil {
		return err
	}

	if _, err := buf.Write([]byte{byte(reason)}); err != nil {
		return err
	}

	if err := w.append(&buf); err != nil {
		return err
	}

	if known {
		height, _ := w.mirror.Tip()
		w.purge.Chill(subj.SID, subj.Hash, height)
	}
	return nil
}

func (w *Writer) emitMempoolInvalidated(hash serialize.Hash, reason Reason, offender *serialize.Hash, raw []byte, t int64) error {
	subj, known := w.ctx.Lookup(hash)

	var offenderObj *chronology.Object
	var offenderKnown bool
	if offender != nil {
		offenderObj, offenderKnown = w.ctx.Lookup(*offender)
	}

	var buf bytes.Buffer
	if err := chronology.WriteHeader(&buf, w.ctx, chronology.Header{
		Opcode:          chronology.OpcodeMempoolInvalidated,
		Known:           known,
		OffenderPresent: offender != nil,
		OffenderKnown:   offenderKnown,
		Time:            t,
	}); err != nil {
		return err
	}

	if known {
		if err := w.ctx.Refer(&buf, subj); err != nil {
			return err
		}
	} else if _, err := serialize.WriteHash(&buf, hash); err != nil {
		return err
	}

	if _, err := buf.Write([]byte{byte(reason)}); err != nil {
		return err
	}

	if offender != nil {
		if offenderKnown {
			if err := w.ctx.Refer(&buf, offenderObj); err != nil {
				return err
			}
		} else if _, err := serialize.WriteHash(&buf, *offender); err != nil {
			return err
		}
	}

	if _, err := serialize.WriteBlob(&buf, raw); err != nil {
		return err
	}

	if err := w.append(&buf); err != nil {
		return err
	}

	if known {
		height, _ := w.mirror.Tip()
		w.purge.Freeze(subj.SID, subj.Hash, height)
	}
	return nil
}

func (w *Writer) emitBlockMined(height uint32, hash serialize.Hash, knownObjs []*chronology.Object, unknownHashes []serialize.Hash, t int64) error {
	var buf bytes.Buffer
	if err := chronology.WriteHeader(&buf, w.ctx, chronology.Header{Opcode: chronology.OpcodeBlockMined, Time: t}); err != nil {
		return err
	}
	if err := writeMultiRefCounts(&buf, len(knownObjs), len(unknownHashes)); err != nil {
		return err
	}
	for _, obj := range knownObjs {
		if err := w.ctx.Refer(&buf, obj); err != nil {
			return err
		}
	}
	for _, h := range unknownHashes {
		if _, err := serialize.WriteHash(&buf, h); err != nil {
			return err
		}
	}
	if _, err := serialize.WriteHash(&buf, hash); err != nil {
		return err
	}

	var heightBuf [4]byte
	binary.LittleEndian.PutUint32(heightBuf[:], height)
	if _, err := buf.Write(heightBuf[:]); err != nil {
		return err
	}

	return w.append(&buf)
}

func (w *Writer) emitBlockUnmined(height uint32, t int64) error {
	var buf bytes.Buffer
	if err := chronology.WriteHeader(&buf, w.ctx, chronology.Header{Opcode: chronology.OpcodeBlockUnmined, Time: t}); err != nil {
		return err
	}
	var heightBuf [4]byte
	binary.LittleEndian.PutUint32(heightBuf[:], height)
	if _, err := buf.Write(heightBuf[:]); err != nil {
		return err
	}
	return w.append(&buf)
}

// PushBlock implements push_block: unmine any blocks at or above height,
// warn on a gap, emit block-mined for the pending-confirmed set plus any
// caller-supplied new members, freeze every confirmed member, and advance
// the registry's segment bookkeeping around the event.
func (w *Writer) PushBlock(height uint32, hash serialize.Hash, newMembers []serialize.Hash, t int64) error {
	tip, hasTip := w.mirror.Tip()
	for hasTip && tip >= height {
		if err := w.emitBlockUnmined(tip, t); err != nil {
			return err
		}
		popped, err := w.mirror.Pop()
		if err != nil {
			return err
		}
		w.restoreUnminedMembers(popped)
		tip, hasTip = w.mirror.Tip()
		if tip == 0 && !hasTip {
			break
		}
	}

	if hasTip && height > tip+1 {
		w.log.Warnw("gap in chain mirror before block", "tip", tip, "height", height)
	}

	reg := w.store.Registry()
	if height > 0 && (!reg.Initialized || reg.Tip < height-1) {
		if err := w.BeginSegment(height - 1); err != nil {
			return err
		}
	}

	var knownObjs []*chronology.Object
	var unknownHashes []serialize.Hash
	for _, h := range w.pendingConfirmed {
		if obj, ok := w.ctx.Lookup(h); ok {
			knownObjs = append(knownObjs, obj)
		} else {
			unknownHashes = append(unknownHashes, h)
		}
	}
	unknownHashes = append(unknownHashes, newMembers...)
	w.pendingConfirmed = nil

	if err := w.emitBlockMined(height, hash, knownObjs, unknownHashes, t); err != nil {
		return err
	}

	knownIDs := make([]uint64, len(knownObjs))
	for i, o := range knownObjs {
		knownIDs[i] = o.SID
	}
	if err := w.mirror.Append(Block{Height: height, Hash: hash, KnownMembers: knownIDs, NewMembers: unknownHashes}); err != nil {
		return err
	}
	if w.metrics != nil {
		w.metrics.ChainTipHeight.Set(float64(height))
	}

	for _, obj := range knownObjs {
		obj.Location = chronology.LocationConfirmed
		w.purge.Freeze(obj.SID, obj.Hash, height)
	}

	if err := w.BeginSegment(height); err != nil {
		return err
	}
	return w.advancePurge(height)
}

// PopBlock implements pop_block: emit block-unmined and pop the mirror.
func (w *Writer) PopBlock(height uint32, t int64) error {
	if err := w.emitBlockUnmined(height, t); err != nil {
		return err
	}
	popped, err := w.mirror.Pop()
	if err != nil {
		return err
	}
	w.restoreUnminedMembers(popped)
	if w.metrics != nil {
		if tip, ok := w.mirror.Tip(); ok {
			w.metrics.ChainTipHeight.Set(float64(tip))
		}
	}
	return nil
}

// restoreUnminedMembers reverts a reorged-out block's known members from
// confirmed back to in-mempool, for whichever of them the dictionary still
// holds (a member may already have been purged past its freeze window).
func (w *Writer) restoreUnminedMembers(b Block) {
	for _, id := range b.KnownMembers {
		if obj, ok := w.ctx.LookupID(id); ok {
			obj.Location = chronology.LocationInMempool
		}
	}
}

// advancePurge hands every candidate whose freeze/chill window has elapsed
// as of tip to the purge queues' worker (or forgets them inline if no
// worker is running).
func (w *Writer) advancePurge(tip uint32) error {
	due := w.purge.Due(tip)
	if w.metrics != nil && len(due) > 0 {
		w.metrics.ObjectsPurged.Add(float64(len(due)))
	}
	w.purge.Enqueue(due, w.ctx)
	return nil
}

// Flush delegates to the underlying object store.
func (w *Writer) Flush() error {
	return w.store.Flush()
}

// Close stops the purge worker (if any) and closes the underlying store.
func (w *Writer) Close() error {
	w.purge.Stop()
	return w.store.Close()
}
