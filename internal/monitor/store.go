package monitor

import (
	"github.com/google/btree"

	"github.com/tinytelemetry/httpmon/internal/model"
)

const bucketTreeDegree = 32

type bucket struct {
	second  int64
	records []model.Record
}

func bucketLess(a, b *bucket) bool { return a.second < b.second }

// BucketStore keeps records grouped into per-second buckets, indexed by
// second so window queries walk backwards from the newest bucket without
// re-sorting the history.
type BucketStore struct {
	tree    *btree.BTreeG[*bucket]
	last    *bucket // most recently inserted bucket, hit by in-order input
	records int
}

// NewBucketStore creates an empty store.
func NewBucketStore() *BucketStore {
	return &BucketStore{tree: btree.NewG(bucketTreeDegree, bucketLess)}
}

// Insert appends rec to the bucket for second, creating the bucket if absent.
func (s *BucketStore) Insert(second int64, rec model.Record) {
	b := s.last
	if b == nil || b.second != second {
		var ok bool
		b, ok = s.tree.Get(&bucket{second: second})
		if !ok {
			b = &bucket{second: second}
			s.tree.ReplaceOrInsert(b)
		}
		s.last = b
	}
	b.records = append(b.records, rec)
	s.records++
}

// Scan visits every bucket whose second k satisfies asOf-window <= k <= asOf,
// newest first. Both ends of the window are inclusive. Missing seconds are
// simply absent from the walk.
func (s *BucketStore) Scan(asOf, window int64, fn func(second int64, records []model.Record)) {
	lo := asOf - window
	s.tree.DescendLessOrEqual(&bucket{second: asOf}, func(b *bucket) bool {
		if b.second < lo {
			return false
		}
		fn(b.second, b.records)
		return true
	})
}

// HitsInWindow returns the records of every bucket visited by Scan.
func (s *BucketStore) HitsInWindow(asOf, window int64) []model.Record {
	var hits []model.Record
	s.Scan(asOf, window, func(_ int64, records []model.Record) {
		hits = append(hits, records...)
	})
	return hits
}

// PruneBefore drops every bucket older than second and returns how many
// records were released.
func (s *BucketStore) PruneBefore(second int64) int {
	released := 0
	for {
		oldest, ok := s.tree.Min()
		if !ok || oldest.second >= second {
			break
		}
		s.tree.DeleteMin()
		released += len(oldest.records)
		if s.last == oldest {
			s.last = nil
		}
	}
	s.records -= released
	return released
}

// Buckets returns the number of distinct seconds held.
func (s *BucketStore) Buckets() int { return s.tree.Len() }

// Records returns the number of records held.
func (s *BucketStore) Records() int { return s.records }
