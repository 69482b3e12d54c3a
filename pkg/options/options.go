// Package options provides data structures and functions for configuring an
// mffchron database: where cluster files live, how big each cluster is, and
// how long a spent object survives in the freeze/chill purge queues before
// it is dropped.
package options

import (
	"strings"
	"time"
)

// clusterOptions defines configurable parameters for cluster file rotation.
type clusterOptions struct {
	// Size is CLUSTER_SIZE: the number of segments a cluster spans before
	// the registry rotates to the next cluster file.
	//
	//  - Default: 2016
	//  - Minimum: 144
	//  - Maximum: 52560
	Size uint32 `json:"clusterSize"`

	// Prefix names cluster files as "<prefix>-<id>.cq".
	//
	// Default: "cluster"
	Prefix string `json:"prefix"`
}

// Options defines the configuration parameters for an mffchron database.
type Options struct {
	// DBPath is the base directory where cluster files, their header sidecar
	// files, and the registry file are stored.
	//
	// Default: "/var/lib/mffchron"
	DBPath string `json:"dbPath"`

	// FlushInterval is how often the writer flushes and fsyncs the active
	// cluster and registry absent an explicit Flush call.
	//
	// Default: 10s
	FlushInterval time.Duration `json:"flushInterval"`

	// ClusterOptions configures cluster rotation size and file naming.
	ClusterOptions *clusterOptions `json:"clusterOptions"`

	// FreezeWindow is the number of blocks a confirmed or invalidated object
	// stays on the freeze queue, counted from its freeze height, before it
	// is purged.
	//
	// Default: 100
	FreezeWindow uint32 `json:"freezeWindow"`

	// ChillWindow is the number of blocks a plainly removed object stays on
	// the chill queue, counted from its chill height, before it is purged.
	//
	// Default: 200
	ChillWindow uint32 `json:"chillWindow"`
}

// OptionFunc is a function type that modifies an mffchron database's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration values.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.DBPath = opts.DBPath
		o.FlushInterval = opts.FlushInterval
		o.ClusterOptions = opts.ClusterOptions
		o.FreezeWindow = opts.FreezeWindow
		o.ChillWindow = opts.ChillWindow
	}
}

// WithDBPath sets the base directory for the database.
func WithDBPath(path string) OptionFunc {
	return func(o *Options) {
		path = strings.TrimSpace(path)
		if path != "" {
			o.DBPath = path
		}
	}
}

// WithFlushInterval sets the interval at which the writer auto-flushes.
func WithFlushInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		if interval > 0 {
			o.FlushInterval = interval
		}
	}
}

// WithClusterPrefix sets the file name prefix for cluster files.
func WithClusterPrefix(prefix string) OptionFunc {
	return func(o *Options) {
		prefix = strings.TrimSpace(prefix)
		if prefix != "" {
			o.ClusterOptions.Prefix = prefix
		}
	}
}

// WithClusterSize sets the number of segments a cluster spans before rotation.
func WithClusterSize(size uint32) OptionFunc {
	return func(o *Options) {
		if size >= MinClusterSize && size <= MaxClusterSize {
			o.ClusterOptions.Size = size
		}
	}
}

// WithFreezeWindow sets the number of blocks a frozen object waits before
// it is purged.
func WithFreezeWindow(blocks uint32) OptionFunc {
	return func(o *Options) {
		if blocks > 0 {
			o.FreezeWindow = blocks
		}
	}
}

// WithChillWindow sets the number of blocks a chilled object waits before
// it is purged.
func WithChillWindow(blocks uint32) OptionFunc {
	return func(o *Options) {
		if blocks > 0 {
			o.ChillWindow = blocks
		}
	}
}
