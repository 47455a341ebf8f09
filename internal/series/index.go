package series

import (
	"math"
	"sort"
	"time"
)

// Bucket is a value rounded to the index precision and stored as an integer
// count of 10^-precision units, so 21.3 at precision 1 is Bucket(213).
// Integer keys keep lookups exact where float keys would drift.
type Bucket int64

// ValueIndex maps rounded values to the grid timestamps that produced them.
// Each timestamp lives in exactly one bucket; values that round to the same
// bucket collide on purpose and share its timestamp list, which stays in
// ascending grid order.
type ValueIndex struct {
	precision int
	rounding  Rounding
	buckets   map[Bucket][]time.Time
}

func newValueIndex(precision int, rounding Rounding) *ValueIndex {
	return &ValueIndex{precision: precision, rounding: rounding, buckets: make(map[Bucket][]time.Time)}
}

func (ix *ValueIndex) add(v float64, t time.Time) {
	k := ix.Key(v)
	ix.buckets[k] = append(ix.buckets[k], t)
}

// Precision returns the number of decimal places buckets are rounded to.
func (ix *ValueIndex) Precision() int { return ix.precision }

// Rounding returns the policy used to form bucket keys.
func (ix *ValueIndex) Rounding() Rounding { return ix.rounding }

// Key returns the bucket v falls into.
func (ix *ValueIndex) Key(v float64) Bucket {
	return Bucket(ix.rounding.Scaled(v, ix.precision))
}

// Value converts a bucket back to its rounded value.
func (ix *ValueIndex) Value(b Bucket) float64 {
	return float64(b) / math.Pow10(ix.precision)
}

// Times returns the timestamps in bucket b, or nil.
func (ix *ValueIndex) Times(b Bucket) []time.Time {
	ts := ix.buckets[b]
	if ts == nil {
		return nil
	}
	out := make([]time.Time, len(ts))
	copy(out, ts)
	return out
}

// Lookup rounds v and returns the timestamps in its bucket.
func (ix *ValueIndex) Lookup(v float64) []time.Time {
	return ix.Times(ix.Key(v))
}

// Buckets returns all non-empty buckets in ascending order.
func (ix *ValueIndex) Buckets() []Bucket {
	out := make([]Bucket, 0, len(ix.buckets))
	for b := range ix.buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of buckets.
func (ix *ValueIndex) Len() int { return len(ix.buckets) }
