package query

import "errors"

// Error variables for query operations.
var (
	ErrInvalidPartitionCount = errors.New("invalid partition count")
	ErrNotPrefixExtension    = errors.New("view does not extend the previously seen view")
	ErrUnknownStrategy       = errors.New("unknown strategy")
	ErrStrategyMismatch      = errors.New("strategies disagree")
	ErrPoolRequired          = errors.New("parallel strategy needs a worker pool")
)
