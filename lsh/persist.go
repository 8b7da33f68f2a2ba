package lsh

import (
	"fmt"

	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/internal/wirefmt"
	"github.com/fragmenthash/lshindex/persist"
)

// MetadataKey is the persistence key an Index's fragment metadata is
// saved under; exported so tools that read a persisted database
// directly (without reconstructing an Index) know which key to load.
const MetadataKey = "lsh-metadata"

// Save persists every fragment's metadata — its payload, embedding, and
// per-table codes — to store under a single key. Hyperplane families
// are never written: Load rebuilds them deterministically from Config.
func (ix *Index) Save(store persist.Store) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	rec := wirefmt.MetadataRecord{
		Version:   wirefmt.CurrentVersion,
		NumTables: ix.cfg.NumTables,
		NumBits:   ix.cfg.NumBits,
		Dimension: ix.cfg.Dimension,
		Entries:   make([]wirefmt.MetadataEntry, 0, len(ix.meta)),
	}
	for _, e := range ix.meta {
		codes := make([]wirefmt.CodeEntry, 0, len(e.Codes))
		for t, c := range e.Codes {
			codes = append(codes, wirefmt.CodeEntry{Table: t, Code: uint64(c)})
		}
		rec.Entries = append(rec.Entries, wirefmt.MetadataEntry{
			Fragment: wirefmt.FragmentToPayload(e.Fragment),
			Vector:   []float32(e.Vector),
			Codes:    codes,
		})
	}

	blob, err := wirefmt.Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if err := store.Save(MetadataKey, blob); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// Load rebuilds an Index from cfg (its hyperplane families are
// reconstructed from cfg.Seed, never read from store) and replays every
// persisted fragment's metadata by re-inserting it, which recomputes
// each fragment's bucket placement exactly as it was at save time
// because hashing is a pure function of the vector and the
// (deterministically reconstructed) family.
func Load(cfg Config, store persist.Store) (*Index, error) {
	ix, err := NewIndex(cfg)
	if err != nil {
		return nil, err
	}

	blob, err := store.Load(MetadataKey)
	if err == persist.ErrNotFound {
		return ix, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	var rec wirefmt.MetadataRecord
	if err := wirefmt.Decode(blob, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if rec.Version != wirefmt.CurrentVersion {
		return nil, fmt.Errorf("%w: unsupported metadata version %d", ErrInvalidState, rec.Version)
	}
	if rec.NumTables != cfg.NumTables || rec.NumBits != cfg.NumBits || rec.Dimension != cfg.Dimension {
		return nil, fmt.Errorf("%w: persisted shape (tables=%d bits=%d dim=%d) does not match config (tables=%d bits=%d dim=%d)",
			ErrInvalidState, rec.NumTables, rec.NumBits, rec.Dimension, cfg.NumTables, cfg.NumBits, cfg.Dimension)
	}

	for _, entry := range rec.Entries {
		frag := wirefmt.PayloadToFragment(entry.Fragment)
		v := fragment.Vector(entry.Vector)
		if _, err := ix.Insert(frag, v); err != nil {
			return nil, fmt.Errorf("%w: reinserting fragment %q: %v", ErrInvalidState, frag.ID, err)
		}
	}
	return ix, nil
}
