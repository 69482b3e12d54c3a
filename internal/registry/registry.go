// Package registry implements the database-wide cluster index (cq.registry)
// and the per-cluster header/footer that together let a writer or replayer
// translate a segment id (chain height) into a {cluster file, byte offset}
// location, per the cluster transition rules of spec.md §4.9.
package registry

import (
	"io"
	"sort"

	"github.com/iamNilotpal/mffchron/internal/serialize"
)

// Registry tracks which clusters exist and the boundary (ClusterSize)
// between them. It is the single source of truth for "which cluster file
// owns segment N," and it is the only state that must be read before a
// writer can resume appending.
type Registry struct {
	ClusterSize uint32
	Clusters    map[uint32]struct{} // ids of clusters that have been opened at least once
	Tip         uint32              // highest segment ever begun
	Initialized bool                // false only for a brand new, never-written database
}

// New creates an empty registry for a fresh database.
func New(clusterSize uint32) *Registry {
	return &Registry{ClusterSize: clusterSize, Clusters: make(map[uint32]struct{})}
}

// ClusterForSegment returns the id of the cluster that segment belongs to,
// registering that cluster and advancing Tip if segment is new. It is the
// Go counterpart of registry::open_cluster_for_segment: the only place a
// new cluster id enters existence.
func (r *Registry) ClusterForSegment(segment uint32) uint32 {
	if !r.Initialized || segment > r.Tip {
		clusterID := segment / r.ClusterSize
		if len(r.Clusters) == 0 || segment/r.ClusterSize > r.Tip/r.ClusterSize {
			r.Clusters[clusterID] = struct{}{}
		}
		r.Tip = segment
		r.Initialized = true
	}
	return segment / r.ClusterSize
}

// ClusterOf returns the cluster id for segment without mutating the
// registry, used by read-only replay (GotoSegment) where advancing Tip
// would be wrong.
func (r *Registry) ClusterOf(segment uint32) uint32 {
	return segment / r.ClusterSize
}

// ClusterIDs returns every known cluster id in ascending order.
func (r *Registry) ClusterIDs() []uint32 {
	ids := make([]uint32, 0, len(r.Clusters))
	for id := range r.Clusters {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Write serializes the registry: a 4-byte little-endian cluster size
// followed by the delta-encoded set of cluster ids.
func (r *Registry) Write(w io.Writer) error {
	var sizeBuf [4]byte
	sizeBuf[0] = byte(r.ClusterSize)
	sizeBuf[1] = byte(r.ClusterSize >> 8)
	sizeBuf[2] = byte(r.ClusterSize >> 16)
	sizeBuf[3] = byte(r.ClusterSize >> 24)
	if _, err := w.Write(sizeBuf[:]); err != nil {
		return err
	}

	set := make(serialize.Set, len(r.Clusters))
	for id := range r.Clusters {
		set[uint64(id)] = struct{}{}
	}
	_, err := serialize.WriteSet(w, set)
	return err
}

// Read deserializes a registry written by Write. The file does not store
// Tip, so it is reconstructed as the last segment the highest cluster id
// present can hold; objectstore.Open then lowers it to the last segment
// recorded in that cluster's header.
func Read(r io.Reader) (*Registry, error) {
	br, ok := r.(interface {
		io.Reader
		io.ByteReader
	})
	if !ok {
		br = byteReaderWrapper{r}
	}

	var sizeBuf [4]byte
	if _, err := io.ReadFull(br, sizeBuf[:]); err != nil {
		return nil, err
	}
	clusterSize := uint32(sizeBuf[0]) | uint32(sizeBuf[1])<<8 | uint32(sizeBuf[2])<<16 | uint32(sizeBuf[3])<<24

	set, err := serialize.ReadSet(br)
	if err != nil {
		return nil, err
	}

	reg := &Registry{ClusterSize: clusterSize, Clusters: make(map[uint32]struct{}, len(set))}
	var lastCluster uint32
	for id64 := range set {
		id := uint32(id64)
		reg.Clusters[id] = struct{}{}
		if id > lastCluster {
			lastCluster = id
		}
	}
	if len(set) > 0 {
		// Reconstruct the tip as the last segment of the last cluster so
		// resume reopens that cluster, not segment zero of it.
		reg.Tip = (lastCluster+1)*clusterSize - 1
		reg.Initialized = true
	}
	return reg, nil
}

type byteReaderWrapper struct {
	io.Reader
}

func (b byteReaderWrapper) ReadByte() (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(b.Reader, buf[:])
	return buf[0], err
}
