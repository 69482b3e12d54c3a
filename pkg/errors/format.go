package errors

// FormatError reports corrupted or impossible on-disk bytes: a bad magic, an
// opcode outside the 5-bit command space, a varint that overflowed, or a
// deserialized timestamp that fails the "clearly in the future" sanity check.
type FormatError struct {
	*baseError
	offset int64
}

func NewFormatError(err error, code ErrorCode, msg string) *FormatError {
	return &FormatError{baseError: NewBaseError(err, code, msg)}
}

func (e *FormatError) WithDetail(key string, value any) *FormatError {
	e.baseError.WithDetail(key, value)
	return e
}

// WithOffset records where in the cluster file the bad bytes were found.
func (e *FormatError) WithOffset(offset int64) *FormatError {
	e.offset = offset
	return e
}

func (e *FormatError) Offset() int64 { return e.offset }
