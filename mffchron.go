// Package mffchron provides an append-only, clustered event log recording
// the full lifecycle of transactions as they pass through a peer-to-peer
// currency network's mempool: entry, removal, confirmation, and reorg. It
// combines an on-disk cluster-file store (internal/objectstore) with a
// command-framing layer (internal/chronology) and the domain mapping that
// turns mempool-mirror callbacks into commands (internal/mff).
//
// Chronicle is the primary entry point: construct one with New, drive it
// with AddEntry/RemoveEntry/PushBlock/PopBlock as a mempool mirror's
// callbacks fire, and reconstruct history elsewhere with NewReplayer.
package mffchron

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/mffchron/internal/chronology"
	"github.com/iamNilotpal/mffchron/internal/mff"
	"github.com/iamNilotpal/mffchron/internal/metrics"
	"github.com/iamNilotpal/mffchron/internal/objectstore"
	"github.com/iamNilotpal/mffchron/internal/serialize"
	"github.com/iamNilotpal/mffchron/pkg/logger"
	"github.com/iamNilotpal/mffchron/pkg/options"
	"go.uber.org/zap"
)

// ErrClosed is returned by AddEntry, RemoveEntry, PushBlock, PopBlock, Flush
// and Close when called after Close.
var ErrClosed = errors.New("mffchron: operation failed: database is closed")

// Config holds the parameters needed to construct a Chronicle.
type Config struct {
	// Options configures cluster layout, flush cadence, and purge windows.
	// A nil Options applies library defaults.
	Options *options.Options

	// Logger is the root logger subsystems are named off of. A nil Logger
	// discards all output.
	Logger *zap.Logger

	// Delegate receives replay callbacks when a Replayer is constructed
	// against this Chronicle's store. It plays no part in writing.
	Delegate mff.Delegate
}

// Chronicle coordinates the object store and the MFF writer, and owns the
// background flush timer. It is safe for one writer goroutine together with
// any number of readers constructed via NewReplayer.
type Chronicle struct {
	log     *zap.SugaredLogger
	options *options.Options
	metrics *metrics.Metrics

	store    *objectstore.Store
	writer   *mff.Writer
	delegate mff.Delegate

	closed    atomic.Bool
	stopFlush chan struct{}
	flushDone chan struct{}
}

// New bootstraps or resumes a Chronicle at the configured DBPath, starts its
// purge worker, and launches the background flush timer.
func New(ctx context.Context, service string, config *Config) (*Chronicle, error) {
	if config == nil {
		config = &Config{}
	}

	opts := config.Options
	if opts == nil {
		defaults := options.NewDefaultOptions()
		opts = &defaults
	}

	base := config.Logger
	if base == nil {
		base = zap.NewNop()
	}
	log := logger.Named(base, service)

	m := metrics.New()

	store, err := objectstore.Open(opts, logger.Named(base, service+".objectstore"))
	if err != nil {
		return nil, err
	}

	writer := mff.NewWriter(store, opts.FreezeWindow, opts.ChillWindow, m, logger.Named(base, service+".writer"))
	writer.Purge().StartWorker(writer.Context())

	c := &Chronicle{
		log:       log,
		options:   opts,
		metrics:   m,
		store:     store,
		writer:    writer,
		delegate:  config.Delegate,
		stopFlush: make(chan struct{}),
		flushDone: make(chan struct{}),
	}

	go c.flushLoop(ctx)
	return c, nil
}

func (c *Chronicle) flushLoop(ctx context.Context) {
	defer close(c.flushDone)
	interval := c.options.FlushInterval
	if interval <= 0 {
		interval = options.DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopFlush:
			return
		case <-ticker.C:
			if err := c.writer.Flush(); err != nil {
				c.log.Errorw("periodic flush failed", "error", err)
			}
		}
	}
}

// Metrics returns the Prometheus collectors this Chronicle updates, for the
// caller to register against its own registry.
func (c *Chronicle) Metrics() *metrics.Metrics { return c.metrics }

// AddEntry records a transaction entering the mempool. entry carries the
// full object attributes; if the writer already holds a live object with
// the same hash, entry's other fields are ignored and the existing object
// is referenced instead.
func (c *Chronicle) AddEntry(entry mff.MempoolEntry, t int64) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.writer.AddEntry(entryToObject(entry), t)
}

// RemoveEntry records a transaction leaving the mempool for reason, with
// cause and raw required only on the invalidated paths (see mff.Writer.RemoveEntry).
func (c *Chronicle) RemoveEntry(hash serialize.Hash, reason mff.RemoveReason, cause *serialize.Hash, raw []byte, t int64) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.writer.RemoveEntry(hash, reason, cause, raw, t)
}

// PushBlock records a new confirmed block, unmining any blocks it reorgs
// past first.
func (c *Chronicle) PushBlock(height uint32, hash serialize.Hash, newMembers []serialize.Hash, t int64) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.writer.PushBlock(height, hash, newMembers, t)
}

// PopBlock records a block being reorged out at height.
func (c *Chronicle) PopBlock(height uint32, t int64) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.writer.PopBlock(height, t)
}

// Flush forces an immediate header/registry/cluster flush.
func (c *Chronicle) Flush() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.writer.Flush()
}

// NewReplayer constructs a Replayer sharing this Chronicle's store, for a
// caller reconstructing history (or catching up a freshly (re)started
// delegate) without disturbing the writer's active cluster.
func (c *Chronicle) NewReplayer(delegate mff.Delegate) *mff.Replayer {
	if delegate == nil {
		delegate = c.delegate
	}
	return mff.NewReplayer(c.store, c.options.FreezeWindow, c.options.ChillWindow, delegate, c.log)
}

// Close stops the flush timer and purge worker and releases the store. It is
// an error to call any other method afterward.
func (c *Chronicle) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	close(c.stopFlush)
	<-c.flushDone
	return c.writer.Close()
}

// entryToObject adapts a mempool mirror's MempoolEntry into the full
// chronology object AddEntry needs the first time it sees a hash; a known
// re-observation only ever uses entry.Hash to look the existing object back
// up, so the remaining fields are harmless to recompute from scratch.
func entryToObject(entry mff.MempoolEntry) *chronology.Object {
	inputs := make([]chronology.Outpoint, len(entry.Inputs))
	for i, in := range entry.Inputs {
		inputs[i] = chronology.Outpoint{
			InputHash:   in.Hash,
			OutputIndex: in.OutputIndex,
			State:       chronology.OutpointUnknown,
		}
	}
	return &chronology.Object{
		Hash:    entry.Hash,
		Weight:  entry.Weight,
		Fee:     entry.Fee,
		Inputs:  inputs,
		Outputs: entry.Outputs,
	}
}
