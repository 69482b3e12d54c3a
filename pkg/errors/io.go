package errors

// IoError reports a failure in the underlying cluster-file operations: a
// short read or write, a failed seek, or a failed flush. In read-only replay
// mode a plain end-of-stream condition is never wrapped as an IoError — see
// IsEndOfStream.
type IoError struct {
	*baseError
	clusterID int    // which cluster file was being accessed.
	offset    int64  // byte offset within the cluster where the failure happened.
	path      string // path of the cluster file.
}

// NewIoError creates a new IoError wrapping the given cause.
func NewIoError(err error, msg string) *IoError {
	return &IoError{baseError: NewBaseError(err, ErrorCodeIO, msg)}
}

func (e *IoError) WithMessage(msg string) *IoError { e.baseError.WithMessage(msg); return e }
func (e *IoError) WithDetail(key string, value any) *IoError {
	e.baseError.WithDetail(key, value)
	return e
}

// WithClusterID records which cluster file was involved.
func (e *IoError) WithClusterID(id int) *IoError {
	e.clusterID = id
	return e
}

// WithOffset records the byte offset within the cluster file.
func (e *IoError) WithOffset(offset int64) *IoError {
	e.offset = offset
	return e
}

// WithPath records the cluster file path.
func (e *IoError) WithPath(path string) *IoError {
	e.path = path
	return e
}

func (e *IoError) ClusterID() int   { return e.clusterID }
func (e *IoError) Offset() int64    { return e.offset }
func (e *IoError) Path() string     { return e.path }
