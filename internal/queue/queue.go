// Package queue provides a bounded candidate heap for k-nearest-neighbor
// searches. Candidates are totally ordered by (distance, id): smaller
// distance wins, equal distances are broken by ascending id bytes. Every
// index variant uses the same order, which makes results deterministic and
// directly comparable across variants.
package queue

import (
	"bytes"

	"github.com/google/uuid"
)

// Candidate is one entry in the heap.
type Candidate struct {
	ID       uuid.UUID
	Distance float32
}

// Worse reports whether a ranks after b in the (distance, id) total order.
func Worse(a, b Candidate) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

// BestK keeps the k best candidates seen so far. The backing slice is a
// max-heap keyed by Worse, so the current worst retained candidate is
// always at the root. Value-based storage, no allocations past capacity.
type BestK struct {
	k     int
	items []Candidate
}

// NewBestK creates a bounded heap retaining the k best candidates.
// k == 0 yields a heap that never admits anything.
func NewBestK(k int) *BestK {
	capacity := k
	if capacity > 1024 {
		capacity = 1024
	}
	return &BestK{
		k:     k,
		items: make([]Candidate, 0, capacity),
	}
}

// Len returns the number of retained candidates.
func (b *BestK) Len() int { return len(b.items) }

// Full reports whether k candidates are retained.
func (b *BestK) Full() bool { return len(b.items) >= b.k }

// Worst returns the worst retained candidate.
func (b *BestK) Worst() (Candidate, bool) {
	if len(b.items) == 0 {
		return Candidate{}, false
	}
	return b.items[0], true
}

// WouldAccept reports whether Push would retain c.
func (b *BestK) WouldAccept(c Candidate) bool {
	if b.k == 0 {
		return false
	}
	if len(b.items) < b.k {
		return true
	}
	return Worse(b.items[0], c)
}

// Push offers c to the heap, evicting the current worst if the heap is full
// and c ranks before it.
func (b *BestK) Push(c Candidate) {
	if b.k == 0 {
		return
	}
	if len(b.items) < b.k {
		b.items = append(b.items, c)
		b.siftUp(len(b.items) - 1)
		return
	}
	if !Worse(b.items[0], c) {
		return
	}
	b.items[0] = c
	b.siftDown(0)
}

// Sorted drains the heap and returns the retained candidates in ascending
// (distance, id) order. The heap is empty afterwards.
func (b *BestK) Sorted() []Candidate {
	out := make([]Candidate, len(b.items))
	for i := len(b.items) - 1; i >= 0; i-- {
		out[i] = b.pop()
	}
	return out
}

func (b *BestK) pop() Candidate {
	n := len(b.items)
	root := b.items[0]
	last := b.items[n-1]
	b.items = b.items[:n-1]
	if n-1 > 0 {
		b.items[0] = last
		b.siftDown(0)
	}
	return root
}

func (b *BestK) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !Worse(b.items[i], b.items[p]) {
			return
		}
		b.items[i], b.items[p] = b.items[p], b.items[i]
		i = p
	}
}

func (b *BestK) siftDown(i int) {
	n := len(b.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		worst := l
		if r := l + 1; r < n && Worse(b.items[r], b.items[l]) {
			worst = r
		}
		if !Worse(b.items[worst], b.items[i]) {
			return
		}
		b.items[i], b.items[worst] = b.items[worst], b.items[i]
		i = worst
	}
}
