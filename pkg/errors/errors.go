// Package errors provides the typed error taxonomy used throughout mffchron:
// IoError for underlying file-operation failures, FormatError for corrupted
// or impossible on-disk bytes, IntegrityError for bytes that parse cleanly
// but disagree with in-memory state, and InvariantError for writer-side
// attempts to violate an ordering guarantee. Every type embeds baseError so
// callers can always reach a code, a message, and structured details
// regardless of which concrete type they're holding.
package errors

import (
	stdErrors "errors"
	"io"
)

// IsEndOfStream reports whether err represents a benign end-of-stream
// condition during replay (as opposed to a true IoError). Readers in
// read-only mode must treat a truncated trailing record as "no more
// events," not as a propagated error.
func IsEndOfStream(err error) bool {
	return stdErrors.Is(err, io.EOF)
}

func IsIoError(err error) bool {
	var e *IoError
	return stdErrors.As(err, &e)
}

func IsFormatError(err error) bool {
	var e *FormatError
	return stdErrors.As(err, &e)
}

func IsIntegrityError(err error) bool {
	var e *IntegrityError
	return stdErrors.As(err, &e)
}

func IsInvariantError(err error) bool {
	var e *InvariantError
	return stdErrors.As(err, &e)
}

func AsIoError(err error) (*IoError, bool) {
	var e *IoError
	return e, stdErrors.As(err, &e)
}

func AsFormatError(err error) (*FormatError, bool) {
	var e *FormatError
	return e, stdErrors.As(err, &e)
}

func AsIntegrityError(err error) (*IntegrityError, bool) {
	var e *IntegrityError
	return e, stdErrors.As(err, &e)
}

func AsInvariantError(err error) (*InvariantError, bool) {
	var e *InvariantError
	return e, stdErrors.As(err, &e)
}

// GetErrorCode extracts the error code from any error in this taxonomy, or
// returns ErrorCodeInternal for errors that don't carry one.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsIoError(err); ok {
		return e.Code()
	}
	if e, ok := AsFormatError(err); ok {
		return e.Code()
	}
	if e, ok := AsIntegrityError(err); ok {
		return e.Code()
	}
	if e, ok := AsInvariantError(err); ok {
		return e.Code()
	}
	return ErrorCodeInternal
}
