// Package bucketstore holds the L independent hash tables behind an LSH
// index, plus the reverse fragment-id -> {table -> code} map that lets a
// fragment be removed from every table it was inserted into.
package bucketstore

import (
	"sort"

	"modernc.org/sortutil"

	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/hyperplane"
	"github.com/fragmenthash/lshindex/table"
)

// Store is L independent table.Tables plus the reverse map needed to
// remove a fragment from all of them.
type Store struct {
	tables  []*table.Table
	reverse map[fragment.ID]map[int]hyperplane.Code
}

// New returns a Store of L tables, each built under policy.
func New(l int, policy table.Policy) *Store {
	s := &Store{
		tables:  make([]*table.Table, l),
		reverse: make(map[fragment.ID]map[int]hyperplane.Code),
	}
	for i := range s.tables {
		s.tables[i] = table.New(policy)
	}
	return s
}

// NumTables returns L.
func (s *Store) NumTables() int { return len(s.tables) }

// Insert places frag under code in table tableIdx and records the
// (id -> table -> code) entry on success.
func (s *Store) Insert(tableIdx int, code hyperplane.Code, frag fragment.Fragment) bool {
	outcome := s.tables[tableIdx].Insert(code, frag)
	if outcome == table.Rejected {
		return false
	}
	if outcome == table.Duplicate {
		// Already present in this table under some code; the reverse map
		// already has the entry for this table from the original insert.
		return true
	}
	codes, ok := s.reverse[frag.ID]
	if !ok {
		codes = make(map[int]hyperplane.Code)
		s.reverse[frag.ID] = codes
	}
	codes[tableIdx] = code
	return true
}

// Query is the fan-out of table.GetMulti over codes for one table.
func (s *Store) Query(tableIdx int, codes []hyperplane.Code) []fragment.Fragment {
	return s.tables[tableIdx].GetMulti(codes)
}

// Candidate is one fragment found while probing every table, together
// with the number of distinct tables it was found in.
type Candidate struct {
	Fragment     fragment.Fragment
	TableMatches int
}

// QueryAll probes table t with codesPerTable[t] for every t, and returns
// the union of matches keyed by fragment id, each carrying the number of
// distinct tables the fragment was found in. The fragment payload
// attached to each Candidate is taken from the first table that found
// it.
func (s *Store) QueryAll(codesPerTable [][]hyperplane.Code) map[fragment.ID]*Candidate {
	out := make(map[fragment.ID]*Candidate)
	for t, codes := range codesPerTable {
		if t >= len(s.tables) {
			break
		}
		deduped := dedupeCodes(codes)
		for _, f := range s.tables[t].GetMulti(deduped) {
			c, ok := out[f.ID]
			if !ok {
				out[f.ID] = &Candidate{Fragment: f, TableMatches: 1}
				continue
			}
			c.TableMatches++
		}
	}
	return out
}

// dedupeCodes sorts and collapses a probe code list using
// modernc.org/sortutil.Dedupe, the teacher's own sorted-slice dedup
// utility: order no longer matters once every table's probe list is
// about to be used purely as a lookup key set.
func dedupeCodes(codes []hyperplane.Code) []hyperplane.Code {
	if len(codes) < 2 {
		return codes
	}
	raw := make(sortutil.Uint64Slice, len(codes))
	for i, c := range codes {
		raw[i] = uint64(c)
	}
	sort.Sort(raw)
	n := sortutil.Dedupe(raw)
	raw = raw[:n]
	out := make([]hyperplane.Code, len(raw))
	for i, v := range raw {
		out[i] = hyperplane.Code(v)
	}
	return out
}

// Remove deletes id from every table listed in its reverse-map entry
// and returns how many tables it was actually removed from.
func (s *Store) Remove(id fragment.ID, codes map[int]hyperplane.Code) int {
	n := 0
	for t, code := range codes {
		if t < len(s.tables) && s.tables[t].Remove(code, id) {
			n++
		}
	}
	delete(s.reverse, id)
	return n
}

// Has reports whether id is recorded as present in at least one table.
func (s *Store) Has(id fragment.ID) bool {
	_, ok := s.reverse[id]
	return ok
}

// TablesFor returns the {table -> code} map recorded for id.
func (s *Store) TablesFor(id fragment.ID) map[int]hyperplane.Code {
	return s.reverse[id]
}

// Size returns the total number of fragment entries across all tables
// (a fragment present in m tables counts m times).
func (s *Store) Size() int {
	n := 0
	for _, t := range s.tables {
		n += t.Size()
	}
	return n
}

// TableStats returns per-table size and bucket counts, in table order.
type TableStats struct {
	Size    int
	Buckets int
}

func (s *Store) TableStats() []TableStats {
	out := make([]TableStats, len(s.tables))
	for i, t := range s.tables {
		out[i] = TableStats{Size: t.Size(), Buckets: t.Buckets()}
	}
	return out
}

// Table returns the underlying table.Table for index i, for per-table
// analytics queries.
func (s *Store) Table(i int) *table.Table { return s.tables[i] }

