// Package table implements a single LSH hash table: a map from K-bit
// code to a bucket of fragments, with optional overflow chaining and
// collision analytics. Eviction policy lives one level up, in the index
// that owns several tables; a table only ever reports its size.
package table

import (
	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/hyperplane"
)

// Outcome is the result of an Insert call.
type Outcome int

const (
	// Inserted means the fragment was placed in the table.
	Inserted Outcome = iota
	// Duplicate means a fragment with the same id was already present
	// in that code's chain; the call was a no-op.
	Duplicate
	// Rejected means the bucket's primary slot and, if chaining is
	// enabled, its overflow chain were both full.
	Rejected
)

// Policy configures one table's bucket behavior.
type Policy struct {
	MaxBucketSize int // B_max, primary (and each overflow slot's) capacity
	Overflow      bool
	MaxChainLen   int // C_max, overflow links per bucket when Overflow is true
	Analytics     bool
}

// Table is one hash table: code -> bucket, with an optional analytics
// shadow map.
type Table struct {
	policy  Policy
	buckets map[hyperplane.Code]*bucket
	stats   map[hyperplane.Code]*bucketCounters
}

// New returns an empty Table under policy.
func New(policy Policy) *Table {
	t := &Table{
		policy:  policy,
		buckets: make(map[hyperplane.Code]*bucket),
	}
	if policy.Analytics {
		t.stats = make(map[hyperplane.Code]*bucketCounters)
	}
	return t
}

// Insert places frag under code, per the bucket insertion policy: reject
// a duplicate id outright; otherwise fill the primary slot, then
// overflow slots in order, creating a new link if chaining is enabled
// and the chain has fewer than MaxChainLen links; otherwise Rejected.
func (t *Table) Insert(code hyperplane.Code, frag fragment.Fragment) Outcome {
	b, ok := t.buckets[code]
	if !ok {
		b = &bucket{}
		t.buckets[code] = b
	}

	if t.policy.Analytics {
		c := t.counters(code)
		c.Attempts++
		if len(b.primary) > 0 {
			c.Collisions++
		}
	}

	if b.findID(frag.ID) {
		return Duplicate
	}

	if len(b.primary) < t.policy.MaxBucketSize {
		b.primary = append(b.primary, frag)
		return Inserted
	}

	if !t.policy.Overflow {
		return Rejected
	}

	for s := b.chain; s != nil; s = s.next {
		if len(s.frags) < t.policy.MaxBucketSize {
			s.frags = append(s.frags, frag)
			return Inserted
		}
	}
	if b.chainN < t.policy.MaxChainLen {
		s := &overflowSlot{frags: []fragment.Fragment{frag}}
		s.next = nil
		// append at tail, preserving chain order
		if b.chain == nil {
			b.chain = s
		} else {
			tail := b.chain
			for tail.next != nil {
				tail = tail.next
			}
			tail.next = s
		}
		b.chainN++
		return Inserted
	}
	return Rejected
}

// Get returns the fragments stored under code, primary first then
// overflow in chain order. It does not permute or modify the bucket;
// when analytics is enabled it increments the bucket's access counter.
func (t *Table) Get(code hyperplane.Code) []fragment.Fragment {
	b, ok := t.buckets[code]
	if !ok {
		return nil
	}
	if t.policy.Analytics {
		t.counters(code).Accesses++
	}
	return b.all()
}

// GetMulti returns the deduplicated union of Get(code) for every code in
// codes.
func (t *Table) GetMulti(codes []hyperplane.Code) []fragment.Fragment {
	seen := make(map[fragment.ID]bool)
	var out []fragment.Fragment
	for _, c := range codes {
		for _, f := range t.Get(c) {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			out = append(out, f)
		}
	}
	return out
}

// Has reports whether id is present in the bucket for code.
func (t *Table) Has(code hyperplane.Code, id fragment.ID) bool {
	b, ok := t.buckets[code]
	if !ok {
		return false
	}
	return b.findID(id)
}

// Remove deletes id from the bucket for code. If the slot holding it
// becomes empty, the slot is unlinked; if the whole bucket becomes
// empty, it is erased from the table.
func (t *Table) Remove(code hyperplane.Code, id fragment.ID) bool {
	b, ok := t.buckets[code]
	if !ok {
		return false
	}
	found := b.remove(id)
	if found && b.empty() {
		delete(t.buckets, code)
		delete(t.stats, code)
	}
	return found
}

// Size returns the total number of fragment entries stored in the
// table, across every bucket and overflow link.
func (t *Table) Size() int {
	n := 0
	for _, b := range t.buckets {
		n += b.size()
	}
	return n
}

// Buckets returns the number of occupied codes.
func (t *Table) Buckets() int {
	return len(t.buckets)
}

// ForEach calls fn once per (code, fragments) bucket, in no particular
// order.
func (t *Table) ForEach(fn func(code hyperplane.Code, frags []fragment.Fragment)) {
	for code, b := range t.buckets {
		fn(code, b.all())
	}
}
