// Package vectree is an in-process, memory-resident vector similarity
// search library. It answers exact k-nearest-neighbor queries over
// fixed-dimension float32 vectors under the Euclidean or cosine metric,
// using one of three interchangeable index structures: an exhaustive scan
// (brute force), a KD-tree, or a vantage-point tree.
//
// A Library owns a record collection and exactly one active index; a
// single reader/writer lock per library lets searches run in parallel
// while mutations and index swaps are exclusive. Switching index
// algorithms rebuilds from the record set using the build-then-swap
// strategy, so readers only block for the swap itself.
//
// Nothing is persisted: process restart loses all data by design. The
// layers that translate requests, serve a network API, or turn text into
// vectors live above this package.
//
// Basic usage:
//
//	lib, err := vectree.NewBuilder(2).Euclidean().KDTree().Build()
//	if err != nil { ... }
//	defer lib.Close()
//
//	id, err := lib.Add([]float32{1, 0}, map[string]any{"title": "a"})
//	results, err := lib.Search([]float32{0, 0}, 2)
package vectree
