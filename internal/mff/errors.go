package mff

import mffErrors "github.com/iamNilotpal/mffchron/pkg/errors"

func errNonContiguousAppend(tip, height uint32) error {
	return mffErrors.NewIntegrityError(
		nil, mffErrors.ErrorCodeBlockMismatch,
		"mff: block height is not contiguous with the chain mirror tip",
	).WithDetail("tip", tip).WithDetail("height", height)
}

func errEmptyMirrorPop() error {
	return mffErrors.NewIntegrityError(
		nil, mffErrors.ErrorCodeBlockMismatch,
		"mff: cannot pop a block from an empty chain mirror",
	)
}

func errGapInChain(tip, height uint32) error {
	return mffErrors.NewInvariantError(
		mffErrors.ErrorCodeNonMonotonicSegment,
		"mff: block height leaves a gap in the chain mirror",
	).WithDetail("tip", tip).WithDetail("height", height)
}
