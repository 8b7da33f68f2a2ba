package lsh

import "errors"

// ErrDimensionMismatch is returned when a vector's length disagrees with
// Config.Dimension on insert, query, or batch. It is always returned
// before any state mutation.
var ErrDimensionMismatch = errors.New("lsh: vector dimension mismatch")

// ErrPersistence wraps an underlying persistence store failure; it is
// surfaced unchanged, never swallowed.
var ErrPersistence = errors.New("lsh: persistence failure")

// ErrInvalidState is returned when Load finds an inconsistent on-disk
// record (mismatched version, unparsable code). The index is left
// empty.
var ErrInvalidState = errors.New("lsh: invalid persisted state")
