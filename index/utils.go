package index

import (
	"bytes"
	"slices"

	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/internal/queue"
)

// Less reports whether a ranks before b in the (distance, id) total order
// shared by every variant.
func Less(a, b SearchResult) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

// PrepareVector validates a vector against the configured options and
// returns the copy an index may store: dimension-checked, cloned, and
// L2-normalized when the metric requires it.
func PrepareVector(o Options, v []float32) ([]float32, error) {
	if len(v) != o.Dimension {
		return nil, &ErrDimensionMismatch{Expected: o.Dimension, Actual: len(v)}
	}
	if o.Metric.Normalizes() {
		norm, ok := distance.NormalizeL2Copy(v)
		if !ok {
			return nil, ErrZeroVector
		}
		return norm, nil
	}
	return slices.Clone(v), nil
}

// PrepareQuery validates a query vector. Unlike PrepareVector it only
// copies when normalization is required; the returned slice must be
// treated as read-only.
func PrepareQuery(o Options, q []float32) ([]float32, error) {
	if len(q) != o.Dimension {
		return nil, &ErrDimensionMismatch{Expected: o.Dimension, Actual: len(q)}
	}
	if o.Metric.Normalizes() {
		norm, ok := distance.NormalizeL2Copy(q)
		if !ok {
			return nil, ErrZeroVector
		}
		return norm, nil
	}
	return q, nil
}

// FinalizeResults drains best and converts internal metric-space distances
// into user-facing ones.
func FinalizeResults(m distance.Metric, best *queue.BestK) []SearchResult {
	cands := best.Sorted()
	results := make([]SearchResult, len(cands))
	for i, c := range cands {
		results[i] = SearchResult{ID: c.ID, Distance: distance.FromInternal(m, c.Distance)}
	}
	return results
}

// MergeSearchResults merges two sorted result lists into a single sorted
// list of at most k elements. Both inputs must already be in (distance, id)
// order.
func MergeSearchResults(a, b []SearchResult, k int) []SearchResult {
	if len(a) == 0 {
		if len(b) > k {
			return b[:k]
		}
		return b
	}
	if len(b) == 0 {
		if len(a) > k {
			return a[:k]
		}
		return a
	}

	result := make([]SearchResult, 0, k)
	i, j := 0, 0

	for len(result) < k && (i < len(a) || j < len(b)) {
		switch {
		case i >= len(a):
			result = append(result, b[j])
			j++
		case j >= len(b):
			result = append(result, a[i])
			i++
		case Less(a[i], b[j]):
			result = append(result, a[i])
			i++
		default:
			result = append(result, b[j])
			j++
		}
	}

	return result
}
