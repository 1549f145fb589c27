// Package tombstone tracks logically deleted arena slots for the tree
// indexes. Deletion marks a slot here instead of restructuring the tree;
// queries filter against the set and a compaction rebuild reclaims the
// slots once too many accumulate.
package tombstone

import "github.com/RoaringBitmap/roaring/v2"

// Set is a set of dead arena slot numbers.
// Not safe for concurrent use; the owning index serializes access.
type Set struct {
	bm *roaring.Bitmap
}

// New creates an empty tombstone set.
func New() *Set {
	return &Set{bm: roaring.New()}
}

// Add marks slot as dead.
func (s *Set) Add(slot uint32) {
	s.bm.Add(slot)
}

// Contains reports whether slot is dead.
func (s *Set) Contains(slot uint32) bool {
	return s.bm.Contains(slot)
}

// Len returns the number of dead slots.
func (s *Set) Len() int {
	return int(s.bm.GetCardinality())
}

// Clear removes all tombstones.
func (s *Set) Clear() {
	s.bm.Clear()
}

// Ratio returns the dead fraction of total slots. Zero when total is zero.
func (s *Set) Ratio(total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(s.Len()) / float64(total)
}
