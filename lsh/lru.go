package lsh

import (
	"container/list"
	"sync"

	"github.com/fragmenthash/lshindex/fragment"
)

// lruState tracks fragment recency for index-level eviction. It lives
// at the Index, never per-table, since a single fragment can occupy
// slots in many tables and must be evicted from all of them together.
//
// It carries its own mutex, separate from Index.mu: Query only needs a
// read lock on the Index to look up candidates, but touching recency on
// a hit is a write against lruState, and concurrent Query calls are
// otherwise legal under Index's reader/writer discipline.
type lruState struct {
	mu    sync.Mutex
	order *list.List
	pos   map[fragment.ID]*list.Element
}

func newLRUState() *lruState {
	return &lruState{
		order: list.New(),
		pos:   make(map[fragment.ID]*list.Element),
	}
}

// touch marks id as most recently used, inserting it if new.
func (l *lruState) touch(id fragment.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.pos[id]; ok {
		l.order.MoveToFront(e)
		return
	}
	l.pos[id] = l.order.PushFront(id)
}

// remove forgets id entirely.
func (l *lruState) remove(id fragment.ID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.pos[id]; ok {
		l.order.Remove(e)
		delete(l.pos, id)
	}
}

// len reports how many fragments are tracked.
func (l *lruState) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

// leastRecentN returns up to n least-recently-used ids, oldest first.
func (l *lruState) leastRecentN(n int) []fragment.ID {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]fragment.ID, 0, n)
	for e := l.order.Back(); e != nil && len(out) < n; e = e.Prev() {
		out = append(out, e.Value.(fragment.ID))
	}
	return out
}

// evictLocked runs the configured LRU eviction policy: once the tracked
// count exceeds Threshold, evict Fraction of the tracked fragments
// (oldest first), in one batch, rather than evicting one at a time.
// Must be called with ix.mu already held for writing.
func (ix *Index) evictLocked() {
	if ix.lru == nil {
		return
	}
	threshold := ix.cfg.LRUEviction.Threshold
	if threshold <= 0 || ix.lru.len() <= threshold {
		return
	}
	n := int(float64(ix.lru.len()) * ix.cfg.LRUEviction.Fraction)
	if n <= 0 {
		n = 1
	}
	for _, id := range ix.lru.leastRecentN(n) {
		e, ok := ix.meta[id]
		if !ok {
			continue
		}
		ix.store.Remove(id, e.Codes)
		delete(ix.meta, id)
		ix.lru.remove(id)
	}
}
