// Package persist defines the byte-backed key/value abstraction the
// index is saved to and loaded from, plus three concrete
// implementations: an in-memory store for tests, a filesystem directory
// store, and a modernc.org/kv-backed store for a single-file database.
package persist

import "errors"

// ErrNotFound is returned by Load when key does not exist.
var ErrNotFound = errors.New("persist: key not found")

// Store is the minimal byte-backed persistence contract the lsh
// package saves index metadata through. Keys are plain
// strings so callers don't need to know anything about a given
// implementation's on-disk encoding.
type Store interface {
	Save(key string, value []byte) error
	Load(key string) ([]byte, error)
	Delete(key string) error
	List(prefix string) ([]string, error)
	Exists(key string) (bool, error)
}
