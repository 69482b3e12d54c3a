package errors

// InvariantError reports a writer-side attempt to violate an ordering
// guarantee: beginning a segment at an id not strictly greater than the
// registry tip, or appending an event with a timestamp before the last
// persisted timestamp.
type InvariantError struct {
	*baseError
}

func NewInvariantError(code ErrorCode, msg string) *InvariantError {
	return &InvariantError{baseError: NewBaseError(nil, code, msg)}
}

func (e *InvariantError) WithDetail(key string, value any) *InvariantError {
	e.baseError.WithDetail(key, value)
	return e
}
