// Package flat provides an exhaustive-scan index. It is exact for any k,
// costs O(n*d) per query and O(1) amortized per mutation, and serves as the
// reference oracle the tree variants are validated against.
package flat

import (
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
	"github.com/hupe1980/vectree/internal/queue"
)

// Compile-time check to ensure Flat satisfies the index contract.
var _ index.Index = (*Flat)(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// Dimension is the fixed vector dimensionality for this index.
	Dimension int

	// Metric is the distance metric used for vector comparison.
	Metric distance.Metric

	// ShardThreshold is the minimum number of entries before a search scan
	// is sharded across goroutines.
	ShardThreshold int

	// MaxConcurrency caps the number of scan goroutines.
	// Defaults to GOMAXPROCS.
	MaxConcurrency int
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	Metric:         distance.MetricEuclidean,
	ShardThreshold: 32768,
}

// Flat represents a flat index: all entries in one ordered sequence plus an
// id -> position map for O(1) lookup.
type Flat struct {
	opts    Options
	shared  index.Options
	dist    distance.Func
	entries []index.Entry
	pos     map[uuid.UUID]int
}

// New creates a new instance of the flat index.
// Dimension must be set at creation time.
func New(optFns ...func(o *Options)) (*Flat, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	shared := index.Options{Dimension: opts.Dimension, Metric: opts.Metric}
	if err := index.ValidateOptions(shared); err != nil {
		return nil, err
	}

	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = runtime.GOMAXPROCS(0)
	}

	dist, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}

	return &Flat{
		opts:   opts,
		shared: shared,
		dist:   dist,
		pos:    make(map[uuid.UUID]int),
	}, nil
}

// Insert adds one entry to the index.
func (f *Flat) Insert(e index.Entry) error {
	vec, err := index.PrepareVector(f.shared, e.Vector)
	if err != nil {
		return err
	}

	if _, ok := f.pos[e.ID]; ok {
		return &index.ErrDuplicateID{ID: e.ID}
	}

	f.pos[e.ID] = len(f.entries)
	f.entries = append(f.entries, index.Entry{ID: e.ID, Vector: vec})

	return nil
}

// Delete removes the entry for id via swap-remove.
func (f *Flat) Delete(id uuid.UUID) error {
	i, ok := f.pos[id]
	if !ok {
		return &index.ErrNotFound{ID: id}
	}

	last := len(f.entries) - 1
	if i != last {
		f.entries[i] = f.entries[last]
		f.pos[f.entries[i].ID] = i
	}
	f.entries[last] = index.Entry{}
	f.entries = f.entries[:last]
	delete(f.pos, id)

	return nil
}

// Search scans every stored vector and keeps the k best candidates.
func (f *Flat) Search(q []float32, k int) ([]index.SearchResult, error) {
	if k < 0 {
		return nil, index.ErrInvalidK
	}

	query, err := index.PrepareQuery(f.shared, q)
	if err != nil {
		return nil, err
	}

	if k == 0 || len(f.entries) == 0 {
		return []index.SearchResult{}, nil
	}

	if len(f.entries) >= f.opts.ShardThreshold && f.opts.MaxConcurrency > 1 {
		return f.searchSharded(query, k)
	}

	best := queue.NewBestK(k)
	f.scan(f.entries, query, best)

	return index.FinalizeResults(f.opts.Metric, best), nil
}

// searchSharded splits the scan across goroutines and merges the per-shard
// result lists.
func (f *Flat) searchSharded(query []float32, k int) ([]index.SearchResult, error) {
	numShards := f.opts.MaxConcurrency
	if numShards > len(f.entries) {
		numShards = len(f.entries)
	}

	partial := make([][]index.SearchResult, numShards)
	chunk := (len(f.entries) + numShards - 1) / numShards

	var g errgroup.Group
	for s := 0; s < numShards; s++ {
		lo := s * chunk
		hi := min(lo+chunk, len(f.entries))
		g.Go(func() error {
			best := queue.NewBestK(k)
			f.scan(f.entries[lo:hi], query, best)
			// Shards keep internal distances; conversion happens after
			// the merge.
			cands := best.Sorted()
			results := make([]index.SearchResult, len(cands))
			for i, c := range cands {
				results[i] = index.SearchResult{ID: c.ID, Distance: c.Distance}
			}
			partial[s] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := partial[0]
	for s := 1; s < numShards; s++ {
		merged = index.MergeSearchResults(merged, partial[s], k)
	}
	for i := range merged {
		merged[i].Distance = distance.FromInternal(f.opts.Metric, merged[i].Distance)
	}

	return merged, nil
}

func (f *Flat) scan(entries []index.Entry, query []float32, best *queue.BestK) {
	for i := range entries {
		best.Push(queue.Candidate{
			ID:       entries[i].ID,
			Distance: f.dist(query, entries[i].Vector),
		})
	}
}

// Rebuild discards the current contents and reconstructs from entries.
func (f *Flat) Rebuild(entries []index.Entry) error {
	fresh, err := New(func(o *Options) { *o = f.opts })
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := fresh.Insert(e); err != nil {
			return err
		}
	}

	f.entries = fresh.entries
	f.pos = fresh.pos

	return nil
}

// Len returns the number of live entries.
func (f *Flat) Len() int { return len(f.entries) }

// Stats returns internal shape information.
func (f *Flat) Stats() index.Stats {
	return index.Stats{Size: len(f.entries)}
}
