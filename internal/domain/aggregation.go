package domain

import "time"

// SourceFailure records one collection that failed during an aggregation.
type SourceFailure struct {
	Source string      `json:"source"`
	Kind   ContentKind `json:"kind"`
	Err    error       `json:"-"`
}

// AggregationResult is the merged catalog produced by one fetch cycle.
// A result is never mutated after it is returned; a new fetch replaces it.
type AggregationResult struct {
	// Movies first, then series; each in created_at descending order.
	Items           []*ContentItem
	PartialFailures []SourceFailure

	// Dropped counts malformed records excluded during normalization.
	Dropped   int
	FetchedAt time.Time
}

// IsPartial reports whether at least one source failed.
func (r *AggregationResult) IsPartial() bool {
	return r != nil && len(r.PartialFailures) > 0
}

// OfKind returns the items of kind k, preserving merge order.
func (r *AggregationResult) OfKind(k ContentKind) []*ContentItem {
	out := make([]*ContentItem, 0)
	if r == nil {
		return out
	}
	for _, item := range r.Items {
		if item.Kind == k {
			out = append(out, item)
		}
	}
	return out
}

// Lookup finds an item by its relational reference.
func (r *AggregationResult) Lookup(ref ContentRef) (*ContentItem, bool) {
	if r == nil {
		return nil, false
	}
	for _, item := range r.Items {
		if item.Kind == ref.Kind && item.ID == ref.ContentID {
			return item, true
		}
	}
	return nil, false
}

// Counts returns the number of items per kind. Both kinds are always present.
func (r *AggregationResult) Counts() map[ContentKind]int {
	counts := map[ContentKind]int{KindMovie: 0, KindSeries: 0}
	if r == nil {
		return counts
	}
	for _, item := range r.Items {
		counts[item.Kind]++
	}
	return counts
}

// FailedKind reports whether the source for kind k failed in this result.
func (r *AggregationResult) FailedKind(k ContentKind) bool {
	if r == nil {
		return false
	}
	for _, f := range r.PartialFailures {
		if f.Kind == k {
			return true
		}
	}
	return false
}
