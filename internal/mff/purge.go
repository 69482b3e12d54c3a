package mff

import (
	"sync"

	"github.com/iamNilotpal/mffchron/internal/chronology"
	"github.com/iamNilotpal/mffchron/internal/serialize"
	"go.uber.org/zap"
)

// purgeCandidate names one dictionary entry scheduled for eviction.
type purgeCandidate struct {
	id   uint64
	hash serialize.Hash
}

type queueLocation struct {
	frozen bool
	height uint32
}

// PurgeQueues implements the freeze/chill eviction windows of spec.md §4.8:
// a confirmed or invalidated object stays dictionary-live for a bounded
// number of blocks so late "known" references can still be encoded, then
// is purged. Freeze and chill differ only in window length and the event
// that schedules them (confirmation or invalidation vs. plain removal).
type PurgeQueues struct {
	mu sync.Mutex

	freezeWindow uint32
	chillWindow  uint32

	frozen   map[uint32][]purgeCandidate
	chilled  map[uint32][]purgeCandidate
	location map[uint64]queueLocation

	work chan purgeJob
	done chan struct{}
	log  *zap.SugaredLogger
}

// purgeJob is one batch handed to the worker together with an ack channel,
// so Enqueue can block until the batch's erasures have actually landed —
// AddEntry's known/unknown decision reads the same dictionary the worker
// mutates, so the writer may not proceed past a purge hand-off until it's
// applied (spec.md §5: the worker "performs dictionary erasures between
// writer batches," not concurrently with them).
type purgeJob struct {
	batch []purgeCandidate
	ack   chan struct{}
}

// NewPurgeQueues creates empty queues with the given windows.
func NewPurgeQueues(freezeWindow, chillWindow uint32, log *zap.SugaredLogger) *PurgeQueues {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &PurgeQueues{
		freezeWindow: freezeWindow,
		chillWindow:  chillWindow,
		frozen:       make(map[uint32][]purgeCandidate),
		chilled:      make(map[uint32][]purgeCandidate),
		location:     make(map[uint64]queueLocation),
		log:          log,
	}
}

// Freeze schedules id for purge once the chain tip reaches height+freezeWindow.
func (q *PurgeQueues) Freeze(id uint64, hash serialize.Hash, height uint32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.frozen[height] = append(q.frozen[height], purgeCandidate{id: id, hash: hash})
	q.location[id] = queueLocation{frozen: true, height: height}
}

// Chill schedules id for purge once the tip reaches height+chillWindow.
func (q *PurgeQueues) Chill(id uint64, hash serialize.Hash, height uint32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.chilled[height] = append(q.chilled[height], purgeCandidate{id: id, hash: hash})
	q.location[id] = queueLocation{frozen: false, height: height}
}

// Thaw removes id from whichever queue holds it, restoring it to
// unconditionally live status. Called when the id is re-observed (e.g. a
// discarded transaction reappears in the mempool) before its scheduled
// purge height.
func (q *PurgeQueues) Thaw(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()

	loc, ok := q.location[id]
	if !ok {
		return
	}
	delete(q.location, id)

	queue := q.chilled
	if loc.frozen {
		queue = q.frozen
	}
	entries := queue[loc.height]
	for i, c := range entries {
		if c.id == id {
			queue[loc.height] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
}

// Due returns every candidate whose window has elapsed as of tip, removing
// them from the queues' own bookkeeping. It does not touch the dictionary;
// the caller decides whether to forget them inline or hand them to a
// worker.
func (q *PurgeQueues) Due(tip uint32) []purgeCandidate {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []purgeCandidate
	due = append(due, q.drainLocked(q.frozen, tip, q.freezeWindow)...)
	due = append(due, q.drainLocked(q.chilled, tip, q.chillWindow)...)
	return due
}

// drainLocked must be called with q.mu held.
func (q *PurgeQueues) drainLocked(queue map[uint32][]purgeCandidate, tip, window uint32) []purgeCandidate {
	if tip < window {
		return nil
	}
	var due []purgeCandidate
	for height, entries := range queue {
		if height > tip-window {
			continue
		}
		for _, c := range entries {
			due = append(due, c)
			delete(q.location, c.id)
		}
		delete(queue, height)
	}
	return due
}

// StartWorker launches the single background goroutine that performs
// dictionary erasure for batches handed to it via Enqueue. The goroutine
// exists so the erasures themselves run off the writer's call stack, but
// Enqueue still waits for each batch's ack before returning — the worker
// does no I/O and never retries a batch, a purge failure can only be a
// programming error, not a transient condition, per spec.md §7's "logs and
// continues" policy.
func (q *PurgeQueues) StartWorker(ctx *chronology.Context) {
	q.work = make(chan purgeJob, 16)
	q.done = make(chan struct{})

	go func() {
		defer close(q.done)
		for job := range q.work {
			for _, c := range job.batch {
				ctx.ForgetID(c.id)
			}
			q.log.Debugw("purge batch processed", "count", len(job.batch))
			close(job.ack)
		}
	}()
}

// Enqueue hands a batch of due candidates to the background worker and
// blocks until it has applied them. If no worker was started, it falls back
// to forgetting them inline on the calling (writer) goroutine. Either way,
// by the time Enqueue returns the dictionary no longer holds these ids —
// the same point at which a replay of the same event would have forgotten
// them inline, so a "known" reference decided immediately afterward can
// never diverge between writing and replay.
func (q *PurgeQueues) Enqueue(batch []purgeCandidate, ctx *chronology.Context) {
	if len(batch) == 0 {
		return
	}
	if q.work == nil {
		for _, c := range batch {
			ctx.ForgetID(c.id)
		}
		return
	}
	ack := make(chan struct{})
	q.work <- purgeJob{batch: batch, ack: ack}
	<-ack
}

// Stop closes the worker's input channel and waits for it to drain.
func (q *PurgeQueues) Stop() {
	if q.work == nil {
		return
	}
	close(q.work)
	<-q.done
	q.work = nil
}
