package errors

// IntegrityError reports bytes that parse cleanly but disagree with state:
// a "known" reference whose id is missing from the dictionary, a confirmed
// block whose member set mismatches an independently fetched raw block, or
// a segment-map entry pointing past end-of-file.
type IntegrityError struct {
	*baseError
	referenceID uint64
	blockHash   string
}

func NewIntegrityError(err error, code ErrorCode, msg string) *IntegrityError {
	return &IntegrityError{baseError: NewBaseError(err, code, msg)}
}

func (e *IntegrityError) WithDetail(key string, value any) *IntegrityError {
	e.baseError.WithDetail(key, value)
	return e
}

// WithReferenceID records the dangling/unknown sid involved.
func (e *IntegrityError) WithReferenceID(id uint64) *IntegrityError {
	e.referenceID = id
	return e
}

// WithBlockHash records the block hash involved in a mismatch.
func (e *IntegrityError) WithBlockHash(hash string) *IntegrityError {
	e.blockHash = hash
	return e
}

func (e *IntegrityError) ReferenceID() uint64 { return e.referenceID }
func (e *IntegrityError) BlockHash() string   { return e.blockHash }
