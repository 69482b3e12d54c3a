package options

import "time"

const (
	// DefaultDBPath is the base directory where cluster files, their header
	// sidecar files, and the registry are stored when no path is given.
	DefaultDBPath = "/var/lib/mffchron"

	// DefaultClusterPrefix names cluster files as "<prefix>-<id>.cq".
	DefaultClusterPrefix = "cluster"

	// DefaultClusterSize is CLUSTER_SIZE: the number of segments (block
	// heights) a single cluster file spans before rotation.
	DefaultClusterSize uint32 = 2016

	// DefaultFreezeWindow is the number of blocks a confirmed or invalidated
	// object stays on the freeze queue, counted from the height it was
	// frozen at, before it is purged.
	DefaultFreezeWindow uint32 = 100

	// DefaultChillWindow is the number of blocks a plainly removed object
	// stays on the chill queue, counted from the height it was chilled at,
	// before it is purged.
	DefaultChillWindow uint32 = 200

	// DefaultFlushInterval is how often the writer fsyncs the active
	// cluster and registry absent an explicit flush call.
	DefaultFlushInterval = 10 * time.Second

	// MinClusterSize and MaxClusterSize bound WithClusterSize; a cluster
	// much smaller than this thrashes file handles, and much larger defeats
	// the purpose of bounding per-file recovery cost.
	MinClusterSize uint32 = 144
	MaxClusterSize uint32 = 52560
)

// Holds the default configuration settings for an mffchron database.
var defaultOptions = Options{
	DBPath:        DefaultDBPath,
	FlushInterval: DefaultFlushInterval,
	ClusterOptions: &clusterOptions{
		Size:   DefaultClusterSize,
		Prefix: DefaultClusterPrefix,
	},
	FreezeWindow: DefaultFreezeWindow,
	ChillWindow:  DefaultChillWindow,
}

func NewDefaultOptions() Options {
	return defaultOptions
}
