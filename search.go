package vectree

import "github.com/google/uuid"

// SearchResult is one entry of a library search: the matched record's id,
// its distance to the query under the library's metric, and the record
// metadata materialized for the caller.
type SearchResult struct {
	ID       uuid.UUID
	Distance float32
	Metadata map[string]any
}
