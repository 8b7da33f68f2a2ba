package persist

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"modernc.org/kv"
)

// KV is a Store backed by a single modernc.org/kv database file, the
// same ordered byte-keyed store the teacher's own tools use for their
// intermediate region and hit databases. Keys are ordered
// lexicographically, which is all List needs for a prefix scan.
type KV struct {
	db *kv.DB
}

// OpenKV opens an existing kv database at path, or creates one if it
// does not exist, matching the teacher's own create-or-open pattern for
// its database files.
func OpenKV(path string) (*KV, error) {
	if _, err := os.Stat(path); err == nil {
		db, err := kv.Open(path, &kv.Options{})
		if err != nil {
			return nil, fmt.Errorf("persist: open kv db %q: %w", path, err)
		}
		return &KV{db: db}, nil
	}
	db, err := kv.Create(path, &kv.Options{})
	if err != nil {
		return nil, fmt.Errorf("persist: create kv db %q: %w", path, err)
	}
	return &KV{db: db}, nil
}

// Close releases the underlying database file.
func (k *KV) Close() error {
	return k.db.Close()
}

func (k *KV) Save(key string, value []byte) error {
	if err := k.db.BeginTransaction(); err != nil {
		return fmt.Errorf("persist: begin tx: %w", err)
	}
	if err := k.db.Set([]byte(key), value); err != nil {
		return fmt.Errorf("persist: set %q: %w", key, err)
	}
	if err := k.db.Commit(); err != nil {
		return fmt.Errorf("persist: commit: %w", err)
	}
	return nil
}

func (k *KV) Load(key string) ([]byte, error) {
	v, err := k.db.Get(nil, []byte(key))
	if err != nil {
		return nil, fmt.Errorf("persist: get %q: %w", key, err)
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}

func (k *KV) Delete(key string) error {
	if err := k.db.BeginTransaction(); err != nil {
		return fmt.Errorf("persist: begin tx: %w", err)
	}
	if err := k.db.Delete([]byte(key)); err != nil {
		return fmt.Errorf("persist: delete %q: %w", key, err)
	}
	return k.db.Commit()
}

func (k *KV) List(prefix string) ([]string, error) {
	var out []string
	enum, _, err := k.db.Seek([]byte(prefix))
	if err != nil {
		return nil, fmt.Errorf("persist: seek %q: %w", prefix, err)
	}
	pfx := []byte(prefix)
	for {
		key, _, err := enum.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("persist: enumerate: %w", err)
		}
		if !bytes.HasPrefix(key, pfx) {
			break
		}
		out = append(out, string(key))
	}
	return out, nil
}

func (k *KV) Exists(key string) (bool, error) {
	v, err := k.db.Get(nil, []byte(key))
	if err != nil {
		return false, fmt.Errorf("persist: get %q: %w", key, err)
	}
	return v != nil, nil
}
