// Package index defines the contract shared by the vectree index variants
// and the helpers they have in common.
//
// Three variants implement the contract:
//
//   - flat: exhaustive scan, O(n*d) per query, O(1) amortized mutation.
//     The exactness oracle for the tree variants.
//   - kdtree: axis-aligned recursive space partition with branch-and-bound
//     queries.
//   - vptree: metric-space ball partition around vantage points.
//
// All variants return identical results for identical data: ascending by
// distance, ties broken by ascending id. None of them is goroutine-safe on
// its own; the owning Library serializes access.
package index
