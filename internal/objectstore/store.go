// Package objectstore manages the rotating set of cluster files, their
// working headers, and the registry, through internal/registry and
// internal/pager. It owns no dictionaries and does not encode objects: the
// store/load/fetch/refer operations live in internal/chronology.Context,
// which appends to and reads from the pager this package exposes.
package objectstore

import (
	"bufio"
	"bytes"
	"path/filepath"
	"time"

	"github.com/iamNilotpal/mffchron/internal/pager"
	"github.com/iamNilotpal/mffchron/internal/registry"
	mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"
	"github.com/iamNilotpal/mffchron/pkg/filesys"
	"github.com/iamNilotpal/mffchron/pkg/options"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const registryFileName = "cq.registry"

// headerExt is the sidecar file a cluster's header is written to. The
// header's own wire encoding (magic/version/timestamp/segment incmap) is
// exactly spec.md §4.3's; storing it next to the data file rather than
// prepended to it avoids having to reserve space for an index that grows
// every time a new segment begins.
const headerExt = ".hdr"

// Store manages the active cluster file, its working header, and the
// database-wide registry, rotating to a new cluster file whenever a
// segment crosses a ClusterSize boundary.
type Store struct {
	dbPath string
	prefix string
	log    *zap.SugaredLogger

	reg       *registry.Registry
	clusterID uint32
	pager     *pager.Pager
	header    *registry.Header // working header of the active cluster
}

// Open bootstraps or resumes a database at opts.DBPath. A fresh directory
// gets an empty registry; an existing one resumes at the cluster covering
// the registry's tip, matching spec.md §4.3's db::resume.
func Open(opts *options.Options, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if err := filesys.CreateDir(opts.DBPath, 0755, true); err != nil {
		return nil, mffErrors.NewIoError(err, "objectstore: failed to create database directory").
			WithPath(opts.DBPath)
	}

	regPath := filepath.Join(opts.DBPath, registryFileName)
	reg, err := loadOrCreateRegistry(regPath, opts.ClusterOptions.Size)
	if err != nil {
		return nil, err
	}

	s := &Store{
		dbPath: opts.DBPath,
		prefix: opts.ClusterOptions.Prefix,
		log:    log,
		reg:    reg,
	}

	clusterID := uint32(0)
	if reg.Initialized {
		clusterID = reg.ClusterOf(reg.Tip)
	}
	if err := s.openCluster(clusterID); err != nil {
		return nil, err
	}
	if last, ok := s.header.LastSegment(); ok && reg.Initialized {
		reg.Tip = last
	}

	log.Infow("objectstore opened", "dbPath", opts.DBPath, "clusterID", clusterID, "registryTip", reg.Tip)
	return s, nil
}

func loadOrCreateRegistry(path string, clusterSize uint32) (*registry.Registry, error) {
	exists, err := filesys.Exists(path)
	if err != nil {
		return nil, mffErrors.NewIoError(err, "objectstore: failed to stat registry file").WithPath(path)
	}
	if !exists {
		return registry.New(clusterSize), nil
	}

	raw, err := filesys.ReadFile(path)
	if err != nil {
		return nil, mffErrors.NewIoError(err, "objectstore: failed to read registry file").WithPath(path)
	}

	reg, err := registry.Read(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, mffErrors.NewFormatError(err, mffErrors.ErrorCodeMagicMismatch, "objectstore: failed to parse registry file")
	}
	return reg, nil
}

// saveRegistry persists the registry file, overwriting any previous copy.
func (s *Store) saveRegistry() error {
	path := filepath.Join(s.dbPath, registryFileName)
	var buf bytes.Buffer
	if err := s.reg.Write(&buf); err != nil {
		return mffErrors.NewIoError(err, "objectstore: failed to serialize registry")
	}
	if err := filesys.WriteFile(path, 0644, buf.Bytes()); err != nil {
		return mffErrors.NewIoError(err, "objectstore: failed to write registry file").WithPath(path)
	}
	return nil
}

func headerPath(dbPath string, clusterID uint32, prefix string) string {
	return pager.Path(dbPath, clusterID, prefix) + headerExt
}

// openCluster opens clusterID for read-write and loads (or creates) its
// working header.
func (s *Store) openCluster(clusterID uint32) error {
	dataPath := pager.Path(s.dbPath, clusterID, s.prefix)
	hdrPath := headerPath(s.dbPath, clusterID, s.prefix)

	p, err := pager.Open(dataPath, clusterID, false, s.log)
	if err != nil {
		return err
	}

	header, err := loadOrCreateHeader(hdrPath, clusterID)
	if err != nil {
		p.Close()
		return err
	}

	s.pager = p
	s.header = header
	s.clusterID = clusterID
	return nil
}

func loadOrCreateHeader(path string, clusterID uint32) (*registry.Header, error) {
	exists, err := filesys.Exists(path)
	if err != nil {
		return nil, mffErrors.NewIoError(err, "objectstore: failed to stat cluster header").WithPath(path)
	}
	if !exists {
		return registry.NewHeader(clusterID, uint64(time.Now().Unix())), nil
	}

	raw, err := filesys.ReadFile(path)
	if err != nil {
		return nil, mffErrors.NewIoError(err, "objectstore: failed to read cluster header").WithPath(path)
	}
	return registry.ReadHeader(bytes.NewReader(raw), clusterID)
}

// ClusterID returns the id of the cluster currently open for writes.
func (s *Store) ClusterID() uint32 { return s.clusterID }

// Registry exposes the underlying registry for the chronology layer to
// query segment/cluster bookkeeping.
func (s *Store) Registry() *registry.Registry { return s.reg }

// Pager exposes the active cluster's pager for the chronology layer's
// Store/Fetch/Refer operations.
func (s *Store) Pager() *pager.Pager { return s.pager }

// Header exposes the working header of the active cluster so the chronology
// layer can call MarkSegment while appending.
func (s *Store) Header() *registry.Header { return s.header }

// Rotate switches the active cluster to clusterID, flushing and closing the
// previous one first. It is a no-op if clusterID is already active.
func (s *Store) Rotate(clusterID uint32) error {
	if clusterID == s.clusterID {
		return nil
	}
	if err := s.Flush(); err != nil {
		return err
	}
	if err := s.pager.Close(); err != nil {
		return err
	}
	s.log.Infow("rotating cluster", "from", s.clusterID, "to", clusterID)
	return s.openCluster(clusterID)
}

// OpenReadOnly opens clusterID read-only for replay, without disturbing the
// writer's active cluster. The caller is responsible for closing it.
func (s *Store) OpenReadOnly(clusterID uint32) (*pager.Pager, *registry.Header, error) {
	dataPath := pager.Path(s.dbPath, clusterID, s.prefix)
	p, err := pager.Open(dataPath, clusterID, true, s.log)
	if err != nil {
		return nil, nil, err
	}

	hdrPath := headerPath(s.dbPath, clusterID, s.prefix)
	header, err := loadOrCreateHeader(hdrPath, clusterID)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return p, header, nil
}

// Flush persists the working header, the registry, and fsyncs the active
// cluster file. Called on the writer's flush timer, never per event. The
// three steps are independent persistence targets, so a failure in one
// doesn't skip the others — every error encountered is combined and
// returned together.
func (s *Store) Flush() error {
	return multierr.Combine(
		s.flushHeader(),
		s.saveRegistry(),
		s.pager.Flush(),
	)
}

func (s *Store) flushHeader() error {
	path := headerPath(s.dbPath, s.clusterID, s.prefix)
	var buf bytes.Buffer
	if err := s.header.Write(&buf); err != nil {
		return mffErrors.NewIoError(err, "objectstore: failed to serialize cluster header")
	}
	if err := filesys.WriteFile(path, 0644, buf.Bytes()); err != nil {
		return mffErrors.NewIoError(err, "objectstore: failed to write cluster header").WithPath(path)
	}
	return nil
}

// Close flushes and releases the active cluster file.
func (s *Store) Close() error {
	return multierr.Append(s.Flush(), s.pager.Close())
}
