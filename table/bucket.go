package table

import "github.com/fragmenthash/lshindex/fragment"

// overflowSlot is one link in a bucket's overflow chain. Each slot
// independently holds up to maxBucketSize fragments.
type overflowSlot struct {
	frags []fragment.Fragment
	next  *overflowSlot
}

// bucket is the primary slot for one hash code plus, if overflow
// chaining is enabled, a chain of further slots.
type bucket struct {
	primary []fragment.Fragment
	chain   *overflowSlot
	chainN  int // number of links in chain, for the C_max check
}

// findID reports whether id is present anywhere in the bucket (primary
// or any overflow link).
func (b *bucket) findID(id fragment.ID) bool {
	for _, f := range b.primary {
		if f.ID == id {
			return true
		}
	}
	for s := b.chain; s != nil; s = s.next {
		for _, f := range s.frags {
			if f.ID == id {
				return true
			}
		}
	}
	return false
}

// all returns every fragment in the bucket, primary first then overflow
// in chain order, preserving insertion order within each slot.
func (b *bucket) all() []fragment.Fragment {
	n := len(b.primary)
	for s := b.chain; s != nil; s = s.next {
		n += len(s.frags)
	}
	out := make([]fragment.Fragment, 0, n)
	out = append(out, b.primary...)
	for s := b.chain; s != nil; s = s.next {
		out = append(out, s.frags...)
	}
	return out
}

// size returns the total number of fragments held in the bucket.
func (b *bucket) size() int {
	n := len(b.primary)
	for s := b.chain; s != nil; s = s.next {
		n += len(s.frags)
	}
	return n
}

// empty reports whether the bucket (primary and whole chain) holds no
// fragments.
func (b *bucket) empty() bool {
	return len(b.primary) == 0 && b.chain == nil
}

// remove deletes id from the slot it is found in, preserving the
// order of the remaining fragments, and unlinks the slot if it becomes
// empty. It reports whether id was found.
func (b *bucket) remove(id fragment.ID) bool {
	if idx := indexOfID(b.primary, id); idx >= 0 {
		b.primary = removeAt(b.primary, idx)
		return true
	}
	var prev *overflowSlot
	for s := b.chain; s != nil; s = s.next {
		if idx := indexOfID(s.frags, id); idx >= 0 {
			s.frags = removeAt(s.frags, idx)
			if len(s.frags) == 0 {
				if prev == nil {
					b.chain = s.next
				} else {
					prev.next = s.next
				}
				b.chainN--
			}
			return true
		}
		prev = s
	}
	return false
}

func indexOfID(frags []fragment.Fragment, id fragment.ID) int {
	for i, f := range frags {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func removeAt(frags []fragment.Fragment, idx int) []fragment.Fragment {
	out := make([]fragment.Fragment, 0, len(frags)-1)
	out = append(out, frags[:idx]...)
	out = append(out, frags[idx+1:]...)
	return out
}
