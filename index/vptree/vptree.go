// Package vptree provides a vantage-point tree index: a binary tree over a
// metric space where each node partitions its points into an inner ball
// (within a median-distance threshold of the vantage point) and an outer
// shell (beyond it).
//
// Vantage points are chosen by a seeded random source; the seed is fixed
// per index, so construction is deterministic for a given entry set.
// Queries prune with the triangle inequality, which guarantees exactness
// under any true metric. Incremental inserts attach leaves without
// rebalancing and deletion is lazy tombstoning, mirroring the KD-tree
// policy; Rebuild restores structure quality.
package vptree

import (
	"bytes"
	"math/rand"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
	"github.com/hupe1980/vectree/internal/queue"
	"github.com/hupe1980/vectree/internal/tombstone"
)

// Compile-time check to ensure VPTree satisfies the index contract.
var _ index.Index = (*VPTree)(nil)

// nilNode marks an absent child link.
const nilNode = int32(-1)

// compactionMinNodes is the arena size below which compaction is skipped.
const compactionMinNodes = 16

// node is one arena slot. A leaf has threshold 0 and no children.
type node struct {
	entry     index.Entry
	threshold float32
	inner     int32
	outer     int32
}

// Options contains configuration options for the VP-tree index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	Dimension int

	// Metric is the distance metric used for vector comparison.
	Metric distance.Metric

	// Seed seeds the random source used for vantage point selection.
	Seed int64

	// CompactionRatio is the tombstone fraction of the arena above which a
	// delete triggers a compacting rebuild.
	CompactionRatio float64
}

// DefaultOptions contains the default configuration options for the VP-tree index.
var DefaultOptions = Options{
	Metric:          distance.MetricEuclidean,
	Seed:            1,
	CompactionRatio: 0.5,
}

// VPTree represents a metric-space ball-partitioning index.
type VPTree struct {
	opts   Options
	shared index.Options
	dist   distance.Func

	nodes []node
	root  int32
	dead  *tombstone.Set
	byID  map[uuid.UUID]int32
}

// New creates a new instance of the VP-tree index.
// Dimension must be set at creation time.
func New(optFns ...func(o *Options)) (*VPTree, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	shared := index.Options{Dimension: opts.Dimension, Metric: opts.Metric}
	if err := index.ValidateOptions(shared); err != nil {
		return nil, err
	}

	if opts.CompactionRatio <= 0 || opts.CompactionRatio >= 1 {
		opts.CompactionRatio = DefaultOptions.CompactionRatio
	}

	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	return &VPTree{
		opts:   opts,
		shared: shared,
		dist:   dist,
		root:   nilNode,
		dead:   tombstone.New(),
		byID:   make(map[uuid.UUID]int32),
	}, nil
}

// Insert adds one entry by descending the ball structure and attaching a
// new leaf. No rebalancing takes place.
func (t *VPTree) Insert(e index.Entry) error {
	vec, err := index.PrepareVector(t.shared, e.Vector)
	if err != nil {
		return err
	}

	if _, ok := t.byID[e.ID]; ok {
		return &index.ErrDuplicateID{ID: e.ID}
	}

	slot := int32(len(t.nodes))
	leaf := node{
		entry: index.Entry{ID: e.ID, Vector: vec},
		inner: nilNode,
		outer: nilNode,
	}

	if t.root == nilNode {
		t.nodes = append(t.nodes, leaf)
		t.root = slot
		t.byID[e.ID] = slot
		return nil
	}

	cur := t.root
	for {
		nd := &t.nodes[cur]
		if t.dist(vec, nd.entry.Vector) <= nd.threshold {
			if nd.inner == nilNode {
				t.nodes = append(t.nodes, leaf)
				t.nodes[cur].inner = slot
				break
			}
			cur = nd.inner
		} else {
			if nd.outer == nilNode {
				t.nodes = append(t.nodes, leaf)
				t.nodes[cur].outer = slot
				break
			}
			cur = nd.outer
		}
	}

	t.byID[e.ID] = slot
	return nil
}

// Delete tombstones the slot for id; the vantage point keeps partitioning
// its subtree but is filtered from every search. Compaction reclaims it.
func (t *VPTree) Delete(id uuid.UUID) error {
	slot, ok := t.byID[id]
	if !ok {
		return &index.ErrNotFound{ID: id}
	}

	t.dead.Add(uint32(slot))
	delete(t.byID, id)

	t.maybeCompact()
	return nil
}

func (t *VPTree) maybeCompact() {
	if len(t.nodes) < compactionMinNodes {
		return
	}
	if t.dead.Ratio(len(t.nodes)) <= t.opts.CompactionRatio {
		return
	}
	// Stored vectors went through preparation on insert and must not be
	// normalized a second time, so the compaction path bypasses it.
	t.rebuildPrepared(t.liveEntries())
}

func (t *VPTree) liveEntries() []index.Entry {
	entries := make([]index.Entry, 0, len(t.byID))
	for _, slot := range t.byID {
		entries = append(entries, t.nodes[slot].entry)
	}
	return entries
}

// Search maintains the k best candidates and a running worst-of-best
// distance tau, recursing only into the child balls the triangle
// inequality cannot rule out.
func (t *VPTree) Search(q []float32, k int) ([]index.SearchResult, error) {
	if k < 0 {
		return nil, index.ErrInvalidK
	}

	query, err := index.PrepareQuery(t.shared, q)
	if err != nil {
		return nil, err
	}

	best := queue.NewBestK(k)
	if k > 0 {
		t.search(t.root, query, best)
	}

	return index.FinalizeResults(t.opts.Metric, best), nil
}

func (t *VPTree) search(n int32, query []float32, best *queue.BestK) {
	if n == nilNode {
		return
	}

	nd := &t.nodes[n]
	d := t.dist(query, nd.entry.Vector)

	if !t.dead.Contains(uint32(n)) {
		best.Push(queue.Candidate{ID: nd.entry.ID, Distance: d})
	}

	// Inner points are within threshold of the vantage, so their distance
	// to the query is at least d - threshold; outer points are beyond the
	// threshold, so at least threshold - d. A subtree survives when that
	// bound does not exceed tau; equality survives too, because a point at
	// exactly tau may still win its id tie-break.
	if d <= nd.threshold {
		t.search(nd.inner, query, best)
		if tau, bounded := t.tau(best); !bounded || nd.threshold-d <= tau {
			t.search(nd.outer, query, best)
		}
	} else {
		t.search(nd.outer, query, best)
		if tau, bounded := t.tau(best); !bounded || d-nd.threshold <= tau {
			t.search(nd.inner, query, best)
		}
	}
}

// tau returns the current worst-of-best distance. bounded is false while
// fewer than k candidates are retained, in which case nothing is pruned.
func (t *VPTree) tau(best *queue.BestK) (float32, bool) {
	if !best.Full() {
		return 0, false
	}
	w, ok := best.Worst()
	return w.Distance, ok
}

// Rebuild discards the current structure and bulk-builds from entries,
// selecting vantage points with a fresh random source seeded from
// Options.Seed so two rebuilds of the same set produce the same tree.
func (t *VPTree) Rebuild(entries []index.Entry) error {
	prepared := make([]index.Entry, len(entries))
	seen := make(map[uuid.UUID]struct{}, len(entries))

	for i, e := range entries {
		vec, err := index.PrepareVector(t.shared, e.Vector)
		if err != nil {
			return err
		}
		if _, ok := seen[e.ID]; ok {
			return &index.ErrDuplicateID{ID: e.ID}
		}
		seen[e.ID] = struct{}{}
		prepared[i] = index.Entry{ID: e.ID, Vector: vec}
	}

	t.rebuildPrepared(prepared)

	return nil
}

// rebuildPrepared bulk-builds from entries whose vectors are already
// dimension-checked and normalized. It takes ownership of the slice.
func (t *VPTree) rebuildPrepared(prepared []index.Entry) {
	// Canonical input order, so construction does not depend on map
	// iteration order upstream.
	slices.SortFunc(prepared, func(a, b index.Entry) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})

	rng := rand.New(rand.NewSource(t.opts.Seed))

	t.nodes = make([]node, 0, len(prepared))
	t.byID = make(map[uuid.UUID]int32, len(prepared))
	t.dead.Clear()
	t.root = t.build(prepared, rng)
}

// build selects a vantage point at random, partitions the remaining points
// by their median distance to it, and recurses.
func (t *VPTree) build(points []index.Entry, rng *rand.Rand) int32 {
	if len(points) == 0 {
		return nilNode
	}

	vp := rng.Intn(len(points))
	points[0], points[vp] = points[vp], points[0]
	vantage := points[0]
	rest := points[1:]

	slot := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{
		entry: vantage,
		inner: nilNode,
		outer: nilNode,
	})
	t.byID[vantage.ID] = slot

	if len(rest) == 0 {
		return slot
	}

	dists := make([]float32, len(rest))
	for i := range rest {
		dists[i] = t.dist(vantage.Vector, rest[i].Vector)
	}
	sort.Sort(&byDistance{entries: rest, dists: dists})

	// Median distance becomes the threshold; everything at or below it
	// falls into the inner ball, everything beyond into the outer shell.
	m := len(rest) / 2
	threshold := dists[m]
	split := m + 1
	for split < len(rest) && dists[split] <= threshold {
		split++
	}

	t.nodes[slot].threshold = threshold
	inner := t.build(rest[:split], rng)
	outer := t.build(rest[split:], rng)
	t.nodes[slot].inner = inner
	t.nodes[slot].outer = outer

	return slot
}

// byDistance sorts entries and their distances together by (distance, id).
type byDistance struct {
	entries []index.Entry
	dists   []float32
}

func (s *byDistance) Len() int { return len(s.entries) }

func (s *byDistance) Less(i, j int) bool {
	if s.dists[i] != s.dists[j] {
		return s.dists[i] < s.dists[j]
	}
	return bytes.Compare(s.entries[i].ID[:], s.entries[j].ID[:]) < 0
}

func (s *byDistance) Swap(i, j int) {
	s.entries[i], s.entries[j] = s.entries[j], s.entries[i]
	s.dists[i], s.dists[j] = s.dists[j], s.dists[i]
}

// Len returns the number of live entries.
func (t *VPTree) Len() int { return len(t.byID) }

// Stats returns internal shape information.
func (t *VPTree) Stats() index.Stats {
	return index.Stats{
		Size:       len(t.byID),
		Tombstones: t.dead.Len(),
		MaxDepth:   t.depth(t.root),
	}
}

func (t *VPTree) depth(n int32) int {
	if n == nilNode {
		return 0
	}
	i := t.depth(t.nodes[n].inner)
	o := t.depth(t.nodes[n].outer)
	if i > o {
		return 1 + i
	}
	return 1 + o
}
