package pager

import (
	"io"
	"os"
	"sync"

	mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"
	"go.uber.org/zap"
)

// Pager wraps the single *os.File backing one cluster. Writers append at
// the current end-of-file offset; a reader (replay or Fetch) seeks
// independently and restores the append position afterward, since the
// concurrency model allows one writer and one reader to share a cluster
// but never two writers.
type Pager struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	id       uint32
	readOnly bool
	size     int64
	log      *zap.SugaredLogger
}

// Open opens (or creates, if readOnly is false) the cluster file at path
// with the given cluster id, positioning for append.
func Open(path string, id uint32, readOnly bool, log *zap.SugaredLogger) (*Pager, error) {
	flags := os.O_RDWR | os.O_CREATE
	if readOnly {
		flags = os.O_RDONLY
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, mffErrors.NewIoError(err, "pager: failed to open cluster file").
			WithClusterID(int(id)).WithPath(path)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, mffErrors.NewIoError(err, "pager: failed to stat cluster file").
			WithClusterID(int(id)).WithPath(path)
	}

	if !readOnly {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return nil, mffErrors.NewIoError(err, "pager: failed to seek to end of cluster file").
				WithClusterID(int(id)).WithPath(path)
		}
	}

	p := &Pager{file: f, path: path, id: id, readOnly: readOnly, size: stat.Size(), log: log}
	if log != nil {
		log.Debugw("cluster file opened", "path", path, "clusterID", id, "size", p.size, "readOnly", readOnly)
	}
	return p, nil
}

// ID returns the cluster id this pager backs.
func (p *Pager) ID() uint32 { return p.id }

// Path returns the file path this pager backs.
func (p *Pager) Path() string { return p.path }

// Size returns the current length of the cluster file in bytes.
func (p *Pager) Size() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Append writes data at the end of the cluster file and returns the byte
// offset at which it was written — the sid for a freshly stored object.
func (p *Pager) Append(data []byte) (int64, error) {
	if p.readOnly {
		return 0, mffErrors.NewIoError(nil, "pager: cannot append to read-only cluster").
			WithClusterID(int(p.id)).WithPath(p.path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	offset := p.size
	n, err := p.file.Write(data)
	if err != nil {
		return 0, mffErrors.NewIoError(err, "pager: failed to append to cluster file").
			WithClusterID(int(p.id)).WithPath(p.path).WithOffset(offset)
	}
	p.size += int64(n)
	return offset, nil
}

// ReadAt reads len(buf) bytes starting at offset without disturbing the
// writer's append position.
func (p *Pager) ReadAt(buf []byte, offset int64) (int, error) {
	n, err := p.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return n, mffErrors.NewIoError(err, "pager: failed to read cluster file").
			WithClusterID(int(p.id)).WithPath(p.path).WithOffset(offset)
	}
	return n, err
}

// NewSectionReader returns an io.Reader positioned at offset, for streaming
// a replay pass over the cluster without loading it entirely into memory.
func (p *Pager) NewSectionReader(offset int64) *io.SectionReader {
	return io.NewSectionReader(p.file, offset, p.size-offset)
}

// Flush fsyncs the cluster file. The writer calls this on a timer, never
// once per event.
func (p *Pager) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.file.Sync(); err != nil {
		return mffErrors.NewIoError(err, "pager: failed to flush cluster file").
			WithClusterID(int(p.id)).WithPath(p.path)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.readOnly {
		if err := p.file.Sync(); err != nil {
			p.file.Close()
			return mffErrors.NewIoError(err, "pager: failed to flush cluster file on close").
				WithClusterID(int(p.id)).WithPath(p.path)
		}
	}
	if err := p.file.Close(); err != nil {
		return mffErrors.NewIoError(err, "pager: failed to close cluster file").
			WithClusterID(int(p.id)).WithPath(p.path)
	}
	return nil
}
