// Package fragment holds the data types shared by every layer of the
// index: the opaque source-code fragment record and the embedding vector
// type. Only Fragment.ID is meaningful to the core; every other field is
// opaque payload carried for the caller's benefit.
package fragment

import "time"

// ID uniquely identifies a fragment within one index.
type ID = string

// Vector is a fixed-dimension embedding. The hash is sign-of-dot-product
// and therefore scale invariant, so callers need not normalize it.
type Vector []float32

// Locator pins a fragment to a region of a source file: an inclusive
// 1-based line range and a 0-based column range.
type Locator struct {
	Path       string
	StartLine  int
	EndLine    int
	StartCol   int
	EndCol     int
}

// Fragment is an opaque record carrying everything the index needs to
// return a useful result, but treats as a black box internally.
type Fragment struct {
	ID ID

	Locator  Locator
	Language string
	// Kind tags the syntactic unit the fragment represents, e.g.
	// "function", "class", "method".
	Kind string

	// NormalizedText is used for exact-duplicate detection (the Type-1
	// content-hash override); it is not necessarily the raw source text.
	NormalizedText string

	IndexedAt time.Time
}

// SameContent reports whether two fragments have identical normalized
// text, the test used for the Type-1 classification override.
func SameContent(a, b Fragment) bool {
	return a.NormalizedText == b.NormalizedText
}
