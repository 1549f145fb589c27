// Package kdtree provides a KD-tree index: a binary tree recursively
// partitioning the d-dimensional space along axis-aligned hyperplanes.
//
// The splitting axis cycles with depth (depth mod d); this rule is fixed
// per build and shared between bulk construction and incremental inserts.
// Bulk construction partitions by the median along the axis, yielding
// O(log n) depth. Incremental inserts attach leaves without rebalancing,
// which can degrade query performance over time; Rebuild is the remedy.
// Deletion is lazy: slots are tombstoned and filtered at query time, and
// the tree compacts itself via a full rebuild once tombstones outnumber
// live nodes (see Options.CompactionRatio).
package kdtree

import (
	"bytes"
	"slices"

	"github.com/google/uuid"

	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
	"github.com/hupe1980/vectree/internal/queue"
	"github.com/hupe1980/vectree/internal/tombstone"
)

// Compile-time check to ensure KDTree satisfies the index contract.
var _ index.Index = (*KDTree)(nil)

// nilNode marks an absent child link.
const nilNode = int32(-1)

// compactionMinNodes is the arena size below which compaction is skipped;
// rebuilding tiny trees buys nothing.
const compactionMinNodes = 16

// node is one arena slot. Children are referenced by arena position rather
// than pointer, which keeps ownership flat during delete and rebuild.
type node struct {
	entry index.Entry
	axis  int32
	left  int32
	right int32
}

// Options contains configuration options for the KD-tree index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	Dimension int

	// Metric is the distance metric used for vector comparison.
	Metric distance.Metric

	// CompactionRatio is the tombstone fraction of the arena above which a
	// delete triggers a compacting rebuild.
	CompactionRatio float64
}

// DefaultOptions contains the default configuration options for the KD-tree index.
var DefaultOptions = Options{
	Metric:          distance.MetricEuclidean,
	CompactionRatio: 0.5,
}

// KDTree represents an axis-aligned space-partitioning index.
type KDTree struct {
	opts   Options
	shared index.Options
	dist   distance.Func

	nodes []node
	root  int32
	dead  *tombstone.Set
	byID  map[uuid.UUID]int32
}

// New creates a new instance of the KD-tree index.
// Dimension must be set at creation time.
func New(optFns ...func(o *Options)) (*KDTree, error) {
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

	return &KDTree{
		opts:   opts,
		shared: shared,
		dist:   dist,
		root:   nilNode,
		dead:   tombstone.New(),
		byID:   make(map[uuid.UUID]int32),
	}, nil
}

// Insert adds one entry by descending with the split rule and attaching a
// new leaf. No rebalancing takes place.
func (t *KDTree) Insert(e index.Entry) error {
	vec, err := index.PrepareVector(t.shared, e.Vector)
	if err != nil {
		return err
	}

	if _, ok := t.byID[e.ID]; ok {
		return &index.ErrDuplicateID{ID: e.ID}
	}

	slot := int32(len(t.nodes))

	if t.root == nilNode {
		t.nodes = append(t.nodes, node{
			entry: index.Entry{ID: e.ID, Vector: vec},
			axis:  0,
			left:  nilNode,
			right: nilNode,
		})
		t.root = slot
		t.byID[e.ID] = slot
		return nil
	}

	cur := t.root
	for {
		nd := &t.nodes[cur]
		if vec[nd.axis] <= nd.entry.Vector[nd.axis] {
			if nd.left == nilNode {
				t.nodes = append(t.nodes, node{
					entry: index.Entry{ID: e.ID, Vector: vec},
					axis:  (nd.axis + 1) % int32(t.opts.Dimension),
					left:  nilNode,
					right: nilNode,
				})
				t.nodes[cur].left = slot
				break
			}
			cur = nd.left
		} else {
			if nd.right == nilNode {
				t.nodes = append(t.nodes, node{
					entry: index.Entry{ID: e.ID, Vector: vec},
					axis:  (nd.axis + 1) % int32(t.opts.Dimension),
					left:  nilNode,
					right: nilNode,
				})
				t.nodes[cur].right = slot
				break
			}
			cur = nd.right
		}
	}

	t.byID[e.ID] = slot
	return nil
}

// Delete tombstones the slot for id. The node stays linked for descent but
// is filtered from every search; compaction reclaims it.
func (t *KDTree) Delete(id uuid.UUID) error {
	slot, ok := t.byID[id]
	if !ok {
		return &index.ErrNotFound{ID: id}
	}

	t.dead.Add(uint32(slot))
	delete(t.byID, id)

	t.maybeCompact()
	return nil
}

func (t *KDTree) maybeCompact() {
	if len(t.nodes) < compactionMinNodes {
		return
	}
	if t.dead.Ratio(len(t.nodes)) <= t.opts.CompactionRatio {
		return
	}
	// Rebuild from the live entries only. Stored vectors went through
	// preparation on insert and must not be normalized a second time, so
	// the compaction path bypasses it.
	t.rebuildPrepared(t.liveEntries())
}

func (t *KDTree) liveEntries() []index.Entry {
	entries := make([]index.Entry, 0, len(t.byID))
	for _, slot := range t.byID {
		entries = append(entries, t.nodes[slot].entry)
	}
	return entries
}

// Search performs classic branch-and-bound: descend into the half-space
// containing the query first, then visit the far side only when the
// distance to the splitting hyperplane could still beat the current worst
// of the k best.
func (t *KDTree) Search(q []float32, k int) ([]index.SearchResult, error) {
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

func (t *KDTree) search(n int32, query []float32, best *queue.BestK) {
	if n == nilNode {
		return
	}

	nd := &t.nodes[n]

	if !t.dead.Contains(uint32(n)) {
		best.Push(queue.Candidate{
			ID:       nd.entry.ID,
			Distance: t.dist(query, nd.entry.Vector),
		})
	}

	delta := query[nd.axis] - nd.entry.Vector[nd.axis]
	near, far := nd.left, nd.right
	if delta > 0 {
		near, far = nd.right, nd.left
	}

	t.search(near, query, best)

	// The far subtree lies entirely beyond the splitting plane, so every
	// point in it is at least |delta| away. Equality cannot be pruned: a
	// point at exactly the worst distance may still win its id tie-break.
	planeDist := delta
	if planeDist < 0 {
		planeDist = -planeDist
	}
	if w, ok := best.Worst(); !best.Full() || !ok || planeDist <= w.Distance {
		t.search(far, query, best)
	}
}

// Rebuild discards the current structure and bulk-builds a balanced tree by
// recursive median partition.
func (t *KDTree) Rebuild(entries []index.Entry) error {
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
func (t *KDTree) rebuildPrepared(prepared []index.Entry) {
	t.nodes = make([]node, 0, len(prepared))
	t.byID = make(map[uuid.UUID]int32, len(prepared))
	t.dead.Clear()
	t.root = t.build(prepared, 0)
}

// build partitions points by the median along the cycling axis. Points are
// ordered by (axis coordinate, id), which makes construction deterministic
// for a given entry set: coordinates <= the pivot's go left, >= go right.
func (t *KDTree) build(points []index.Entry, depth int32) int32 {
	if len(points) == 0 {
		return nilNode
	}

	axis := depth % int32(t.opts.Dimension)

	slices.SortFunc(points, func(a, b index.Entry) int {
		if a.Vector[axis] != b.Vector[axis] {
			if a.Vector[axis] < b.Vector[axis] {
				return -1
			}
			return 1
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})

	m := len(points) / 2
	slot := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{
		entry: points[m],
		axis:  axis,
		left:  nilNode,
		right: nilNode,
	})
	t.byID[points[m].ID] = slot

	// Children are built after the parent slot is reserved so the arena
	// stays append-only during construction.
	left := t.build(points[:m], depth+1)
	right := t.build(points[m+1:], depth+1)
	t.nodes[slot].left = left
	t.nodes[slot].right = right

	return slot
}

// Len returns the number of live entries.
func (t *KDTree) Len() int { return len(t.byID) }

// Stats returns internal shape information.
func (t *KDTree) Stats() index.Stats {
	return index.Stats{
		Size:       len(t.byID),
		Tombstones: t.dead.Len(),
		MaxDepth:   t.depth(t.root),
	}
}

func (t *KDTree) depth(n int32) int {
	if n == nilNode {
		return 0
	}
	l := t.depth(t.nodes[n].left)
	r := t.depth(t.nodes[n].right)
	if l > r {
		return 1 + l
	}
	return 1 + r
}
