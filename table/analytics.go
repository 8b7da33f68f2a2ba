package table

import (
	"sort"

	"github.com/fragmenthash/lshindex/hyperplane"
)

// bucketCounters tracks per-primary-bucket collision analytics.
type bucketCounters struct {
	Attempts   int64
	Collisions int64
	Accesses   int64
}

func (t *Table) counters(code hyperplane.Code) *bucketCounters {
	c, ok := t.stats[code]
	if !ok {
		c = &bucketCounters{}
		t.stats[code] = c
	}
	return c
}

// BucketStat is one bucket's analytics snapshot.
type BucketStat struct {
	Code       hyperplane.Code
	Attempts   int64
	Collisions int64
	Accesses   int64
}

// CollisionAnalytics returns one record per bucket that has recorded an
// insertion attempt or access, nil if analytics is disabled. A bucket's
// record is dropped when Remove erases the bucket.
func (t *Table) CollisionAnalytics() []BucketStat {
	if t.stats == nil {
		return nil
	}
	out := make([]BucketStat, 0, len(t.stats))
	for code, c := range t.stats {
		out = append(out, BucketStat{Code: code, Attempts: c.Attempts, Collisions: c.Collisions, Accesses: c.Accesses})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// HotSpots returns the top n buckets by Collisions+Accesses, descending,
// ties broken by ascending code.
func (t *Table) HotSpots(n int) []BucketStat {
	all := t.CollisionAnalytics()
	sort.Slice(all, func(i, j int) bool {
		hi := all[i].Collisions + all[i].Accesses
		hj := all[j].Collisions + all[j].Accesses
		if hi != hj {
			return hi > hj
		}
		return all[i].Code < all[j].Code
	})
	if n < len(all) {
		all = all[:n]
	}
	return all
}
