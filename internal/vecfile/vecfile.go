// Package vecfile is an optional off-heap vector arena for corpora too
// large to keep every embedding resident in the Go heap: vectors are
// appended to a single flat file and read back through an mmap-go
// mapping, so the OS page cache — not the garbage collector — owns
// their residency.
package vecfile

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/fragmenthash/lshindex/fragment"
)

// Arena is an append-only, memory-mapped store of fixed-dimension
// float32 vectors. It is not safe for concurrent use without an
// external lock; callers needing concurrent access should serialize
// Append calls and take a fresh mapping per reader generation.
type Arena struct {
	file *os.File
	m    mmap.MMap
	dim  int
	n    int
}

const recordHeaderSize = 4 // uint32 dimension, written once at file start

// Create truncates (or creates) path and initializes an Arena for
// vectors of the given dimension.
func Create(path string, dim int) (*Arena, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("vecfile: create %q: %w", path, err)
	}
	var hdr [recordHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(dim))
	if _, err := f.Write(hdr[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("vecfile: write header %q: %w", path, err)
	}
	return &Arena{file: f, dim: dim}, nil
}

// Open maps an existing arena file read-write.
func Open(path string) (*Arena, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("vecfile: open %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vecfile: stat %q: %w", path, err)
	}
	if info.Size() < recordHeaderSize {
		f.Close()
		return nil, fmt.Errorf("vecfile: %q is too short to contain a header", path)
	}
	m, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("vecfile: mmap %q: %w", path, err)
	}
	dim := int(binary.BigEndian.Uint32(m[:recordHeaderSize]))
	bodyLen := int(info.Size()) - recordHeaderSize
	recordSize := dim * 4
	var n int
	if recordSize > 0 {
		n = bodyLen / recordSize
	}
	return &Arena{file: f, m: m, dim: dim, n: n}, nil
}

// Dimension returns the vector length every record in the arena shares.
func (a *Arena) Dimension() int { return a.dim }

// Len returns how many vectors have been appended.
func (a *Arena) Len() int { return a.n }

// Append writes v to the end of the arena and returns its index.
// Append unmaps and remaps the file, since mmap-go mappings do not
// grow in place; this makes Append an O(file size) operation and
// callers should batch appends rather than call it per vector in a
// hot loop.
func (a *Arena) Append(v fragment.Vector) (int, error) {
	if len(v) != a.dim {
		return 0, fmt.Errorf("vecfile: vector length %d does not match arena dimension %d", len(v), a.dim)
	}
	if a.m != nil {
		if err := a.m.Unmap(); err != nil {
			return 0, fmt.Errorf("vecfile: unmap before append: %w", err)
		}
		a.m = nil
	}
	buf := make([]byte, a.dim*4)
	for i, f := range v {
		binary.BigEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	if _, err := a.file.Seek(0, os.SEEK_END); err != nil {
		return 0, fmt.Errorf("vecfile: seek to end: %w", err)
	}
	if _, err := a.file.Write(buf); err != nil {
		return 0, fmt.Errorf("vecfile: write vector: %w", err)
	}
	idx := a.n
	a.n++
	m, err := mmap.Map(a.file, mmap.RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("vecfile: remap after append: %w", err)
	}
	a.m = m
	return idx, nil
}

// At returns the vector stored at idx, read directly from the mapped
// region with no intervening heap allocation beyond the returned slice.
func (a *Arena) At(idx int) (fragment.Vector, error) {
	if idx < 0 || idx >= a.n {
		return nil, fmt.Errorf("vecfile: index %d out of range [0,%d)", idx, a.n)
	}
	recordSize := a.dim * 4
	off := recordHeaderSize + idx*recordSize
	out := make(fragment.Vector, a.dim)
	for i := 0; i < a.dim; i++ {
		out[i] = math.Float32frombits(binary.BigEndian.Uint32(a.m[off+i*4:]))
	}
	return out, nil
}

// Close unmaps and closes the underlying file.
func (a *Arena) Close() error {
	if a.m != nil {
		if err := a.m.Unmap(); err != nil {
			return fmt.Errorf("vecfile: unmap on close: %w", err)
		}
	}
	return a.file.Close()
}
