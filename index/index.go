// Package index provides the contract shared by all vectree index variants.
package index

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hupe1980/vectree/distance"
)

// Entry is one indexed vector. The index keeps the id and whatever
// coordinates it needs for partitioning; it does not own the record the
// entry came from.
type Entry struct {
	ID     uuid.UUID
	Vector []float32
}

// SearchResult represents a search result.
type SearchResult struct {
	// ID is the identifier of the matched entry.
	ID uuid.UUID

	// Distance is the distance between the query vector and the matched
	// vector under the configured metric.
	Distance float32
}

// Algorithm selects an index variant.
type Algorithm int

// Available index variants.
const (
	AlgorithmBruteForce Algorithm = iota
	AlgorithmKDTree
	AlgorithmVPTree
)

// String returns a string representation of the Algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmBruteForce:
		return "brute_force"
	case AlgorithmKDTree:
		return "kd_tree"
	case AlgorithmVPTree:
		return "vp_tree"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// Valid reports whether a names a known variant.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmBruteForce, AlgorithmKDTree, AlgorithmVPTree:
		return true
	default:
		return false
	}
}

// ParseAlgorithm parses an algorithm selector as used by the layer above.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "brute_force":
		return AlgorithmBruteForce, nil
	case "kd_tree":
		return AlgorithmKDTree, nil
	case "vp_tree":
		return AlgorithmVPTree, nil
	default:
		return 0, &ErrInvalidAlgorithm{Name: s}
	}
}

// Stats describes the internal shape of an index.
type Stats struct {
	// Size is the number of live entries.
	Size int

	// Tombstones is the number of logically deleted slots awaiting
	// compaction. Always zero for the flat index.
	Tombstones int

	// MaxDepth is the deepest path in the tree, zero for non-tree variants
	// and empty trees.
	MaxDepth int
}

// Index is the contract implemented by every variant.
//
// Implementations are NOT safe for concurrent use; the owning Library
// serializes access through its reader/writer lock.
type Index interface {
	// Insert adds one entry.
	Insert(e Entry) error

	// Delete removes the entry for id. Subsequent searches never return
	// the removed id.
	Delete(id uuid.UUID) error

	// Search returns the k entries nearest to q, ordered ascending by
	// distance with ties broken by ascending id. Fewer than k entries
	// means all of them; k == 0 means an empty result, not an error.
	Search(q []float32, k int) ([]SearchResult, error)

	// Rebuild discards the current structure and reconstructs it from the
	// supplied full entry set.
	Rebuild(entries []Entry) error

	// Len returns the number of live entries.
	Len() int

	// Stats returns internal shape information.
	Stats() Stats
}

// Options contains the configuration shared by all variants.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	// It must be > 0 and is enforced for all inserts and searches.
	Dimension int

	// Metric is the distance metric used for vector comparison.
	Metric distance.Metric
}

// ValidateOptions checks the shared options at construction time.
func ValidateOptions(o Options) error {
	if o.Dimension <= 0 {
		return &ErrInvalidDimension{Dimension: o.Dimension}
	}
	if _, err := distance.Provider(o.Metric); err != nil {
		return err
	}
	return nil
}
