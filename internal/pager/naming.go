// Package pager manages the single *os.File backing one cluster: sequential
// append-writes, random-offset reads for Fetch, and the flush/sync
// discipline that keeps fsync off the hot path of every event.
//
// Filename format: <prefix>-<id>.cq, where id is the cluster's deterministic
// position (segment / ClusterSize), not a creation-order sequence number —
// unlike a write-ahead log's segments, a cluster's id is a property of the
// chain height it covers, so two writers configured the same way always
// agree on where a given segment lives without consulting a directory
// listing first.
package pager

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const extension = ".cq"

// FileName returns the on-disk name of cluster id under prefix.
func FileName(id uint32, prefix string) string {
	return fmt.Sprintf("%s-%05d%s", prefix, id, extension)
}

// Path returns the full path to cluster id's file inside dir.
func Path(dir string, id uint32, prefix string) string {
	return filepath.Join(dir, FileName(id, prefix))
}

// ParseClusterID extracts the cluster id from a filename produced by
// FileName.
func ParseClusterID(fileName, prefix string) (uint32, error) {
	if !strings.HasPrefix(fileName, prefix+"-") {
		return 0, fmt.Errorf("pager: %q does not start with prefix %q", fileName, prefix)
	}
	rest := strings.TrimPrefix(fileName, prefix+"-")
	rest = strings.TrimSuffix(rest, extension)

	id, err := strconv.ParseUint(rest, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("pager: invalid cluster id in %q: %w", fileName, err)
	}
	return uint32(id), nil
}
