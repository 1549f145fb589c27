package vectree

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vectree/codec"
	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
	"github.com/hupe1980/vectree/index/flat"
	"github.com/hupe1980/vectree/index/kdtree"
	"github.com/hupe1980/vectree/index/vptree"
)

// Library owns a fixed-dimension collection of records and exactly one
// active index built over it. A single reader/writer lock guards the
// (records, index) pair as one unit of consistency: searches run in
// parallel under the read lock, mutations and index swaps take the write
// lock. The library and its index share a lifetime; switching algorithms
// replaces the index wholesale, never mutates it across variants.
type Library struct {
	id          uuid.UUID
	name        string
	description string
	metadata    map[string]any
	dimension   int
	metric      distance.Metric

	logger  *Logger
	metrics MetricsCollector
	codec   codec.Codec
	seed    int64

	mu        sync.RWMutex
	records   map[uuid.UUID]*Record
	idx       index.Index
	algorithm index.Algorithm
	// version counts record mutations; the build-then-swap rebuild uses it
	// to detect whether its snapshot went stale while building.
	version uint64
	closed  bool

	maint *maintainer
}

// New creates a library with the given fixed dimension, distance metric and
// initial index algorithm.
func New(dimension int, metric distance.Metric, algorithm index.Algorithm, optFns ...Option) (*Library, error) {
	opts := options{
		id:      uuid.New(),
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
		codec:   codec.Default,
		seed:    1,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if dimension <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dimension}
	}
	if _, err := distance.Provider(metric); err != nil {
		return nil, err
	}
	if !algorithm.Valid() {
		return nil, &ErrInvalidAlgorithm{Algorithm: algorithm}
	}

	l := &Library{
		id:          opts.id,
		name:        opts.name,
		description: opts.description,
		metadata:    maps.Clone(opts.metadata),
		dimension:   dimension,
		metric:      metric,
		logger:      opts.logger.WithLibrary(opts.id),
		metrics:     opts.metrics,
		codec:       opts.codec,
		seed:        opts.seed,
		records:     make(map[uuid.UUID]*Record),
		algorithm:   algorithm,
	}

	idx, err := l.newIndex(algorithm)
	if err != nil {
		return nil, err
	}
	l.idx = idx

	if opts.autoCompactInterval > 0 {
		l.maint = newMaintainer(l, opts.autoCompactInterval, opts.autoCompactRatio)
		l.maint.start()
	}

	return l, nil
}

// newIndex constructs an empty index variant for this library's dimension
// and metric.
func (l *Library) newIndex(algorithm index.Algorithm) (index.Index, error) {
	switch algorithm {
	case index.AlgorithmBruteForce:
		return flat.New(func(o *flat.Options) {
			o.Dimension = l.dimension
			o.Metric = l.metric
		})
	case index.AlgorithmKDTree:
		return kdtree.New(func(o *kdtree.Options) {
			o.Dimension = l.dimension
			o.Metric = l.metric
		})
	case index.AlgorithmVPTree:
		return vptree.New(func(o *vptree.Options) {
			o.Dimension = l.dimension
			o.Metric = l.metric
			o.Seed = l.seed
		})
	default:
		return nil, &ErrInvalidAlgorithm{Algorithm: algorithm}
	}
}

// ID returns the library id.
func (l *Library) ID() uuid.UUID { return l.id }

// Name returns the library name.
func (l *Library) Name() string { return l.name }

// Description returns the library description.
func (l *Library) Description() string { return l.description }

// Metadata returns a copy of the library metadata.
func (l *Library) Metadata() map[string]any { return maps.Clone(l.metadata) }

// Dimension returns the fixed vector dimensionality.
func (l *Library) Dimension() int { return l.dimension }

// Metric returns the configured distance metric.
func (l *Library) Metric() distance.Metric { return l.metric }

// Algorithm returns the currently active index variant.
func (l *Library) Algorithm() index.Algorithm {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.algorithm
}

// Len returns the number of records.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Stats returns the active index's internal shape information.
func (l *Library) Stats() index.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return index.Stats{}
	}
	return l.idx.Stats()
}

// Add creates a record with a generated id and inserts it. The vector and
// metadata are copied; the id is returned on success.
func (l *Library) Add(vector []float32, metadata map[string]any) (uuid.UUID, error) {
	rec, err := NewRecord(uuid.New(), vector, metadata)
	if err != nil {
		return uuid.Nil, err
	}
	if err := l.AddRecord(rec); err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

// AddRecord inserts a caller-constructed record, keeping its id. The index
// insert happens before the record map is touched, so a failed insert
// leaves no partial state.
func (l *Library) AddRecord(rec *Record) error {
	start := time.Now()
	err := l.addRecord(rec)
	l.metrics.RecordAdd(time.Since(start), err)
	if rec != nil {
		l.logger.LogAdd(rec.ID, l.dimension, err)
	}
	return err
}

func (l *Library) addRecord(rec *Record) error {
	if rec == nil || rec.ID == uuid.Nil {
		return ErrNilID
	}
	if len(rec.Vector) == 0 {
		return ErrEmptyVector
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if _, ok := l.records[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}

	if err := l.idx.Insert(index.Entry{ID: rec.ID, Vector: rec.Vector}); err != nil {
		return translateError(err)
	}

	// Stored records are owned by the library; keeping a copy makes the
	// write side symmetric with the copies Record and Records hand out.
	l.records[rec.ID] = copyRecord(rec)
	l.version++

	return nil
}

// Remove deletes the record for id from the index and the record map
// atomically under the write lock.
func (l *Library) Remove(id uuid.UUID) error {
	start := time.Now()
	err := l.remove(id)
	l.metrics.RecordRemove(time.Since(start), err)
	l.logger.LogRemove(id, err)
	return err
}

func (l *Library) remove(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	if err := l.idx.Delete(id); err != nil {
		return translateError(err)
	}

	delete(l.records, id)
	l.version++

	return nil
}

// Search returns the k records nearest to query, ordered ascending by
// distance with ties broken by ascending id. It is a pure read: arbitrarily
// many searches proceed in parallel, each observing one consistent snapshot
// of the library.
func (l *Library) Search(query []float32, k int) ([]SearchResult, error) {
	start := time.Now()
	results, err := l.search(query, k)
	l.metrics.RecordSearch(k, time.Since(start), err)
	l.logger.LogSearch(k, len(results), err)
	return results, err
}

func (l *Library) search(query []float32, k int) ([]SearchResult, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrClosed
	}

	matches, err := l.idx.Search(query, k)
	if err != nil {
		return nil, translateError(err)
	}

	results := make([]SearchResult, len(matches))
	for i, m := range matches {
		res := SearchResult{ID: m.ID, Distance: m.Distance}
		if rec, ok := l.records[m.ID]; ok {
			res.Metadata = maps.Clone(rec.Metadata)
		}
		results[i] = res
	}

	return results, nil
}

// Record returns a copy of the record for id.
func (l *Library) Record(id uuid.UUID) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrClosed
	}

	rec, ok := l.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return copyRecord(rec), nil
}

// Records returns a snapshot copy of all records.
func (l *Library) Records() []*Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Record, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, copyRecord(rec))
	}
	return out
}

// RecordsByDocument returns copies of the records attached to documentID,
// in ascending id order.
func (l *Library) RecordsByDocument(documentID uuid.UUID) []*Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Record, 0)
	for _, rec := range l.records {
		if rec.DocumentID == documentID {
			out = append(out, copyRecord(rec))
		}
	}
	slices.SortFunc(out, func(a, b *Record) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out
}

func copyRecord(rec *Record) *Record {
	clone := *rec
	clone.Vector = append([]float32(nil), rec.Vector...)
	clone.Metadata = maps.Clone(rec.Metadata)
	return &clone
}

// Rebuild replaces the active index with a fresh one of the given variant,
// derived from the current record set. It is idempotent for an unchanged
// algorithm and follows the build-then-swap strategy: the new structure is
// constructed off the critical path and substituted under a short write
// lock, so concurrent searches are only blocked for the swap itself. If
// records keep changing underneath, the final attempt builds while holding
// the write lock.
func (l *Library) Rebuild(algorithm index.Algorithm) error {
	start := time.Now()
	err := l.rebuild(algorithm)
	l.metrics.RecordRebuild(algorithm.String(), time.Since(start), err)
	l.logger.LogRebuild(algorithm, l.Len(), time.Since(start), err)
	return err
}

func (l *Library) rebuild(algorithm index.Algorithm) error {
	if !algorithm.Valid() {
		return &ErrInvalidAlgorithm{Algorithm: algorithm}
	}

	const maxAttempts = 3

	for attempt := 0; attempt < maxAttempts; attempt++ {
		entries, version, err := l.snapshot()
		if err != nil {
			return err
		}

		fresh, err := l.newIndex(algorithm)
		if err != nil {
			return err
		}
		if err := fresh.Rebuild(entries); err != nil {
			return translateError(err)
		}

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			return ErrClosed
		}
		if l.version == version {
			l.idx = fresh
			l.algorithm = algorithm
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()
	}

	// Writes keep racing the snapshot; build under the write lock so this
	// attempt cannot go stale.
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	fresh, err := l.newIndex(algorithm)
	if err != nil {
		return err
	}
	if err := fresh.Rebuild(l.entriesLocked()); err != nil {
		return translateError(err)
	}

	l.idx = fresh
	l.algorithm = algorithm

	return nil
}

func (l *Library) snapshot() ([]index.Entry, uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, 0, ErrClosed
	}
	return l.entriesLocked(), l.version, nil
}

func (l *Library) entriesLocked() []index.Entry {
	entries := make([]index.Entry, 0, len(l.records))
	for _, rec := range l.records {
		entries = append(entries, index.Entry{ID: rec.ID, Vector: rec.Vector})
	}
	return entries
}

// Close stops background maintenance and marks the library closed. All
// subsequent operations fail with ErrClosed. Close is idempotent.
func (l *Library) Close() error {
	if l.maint != nil {
		l.maint.stop()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true

	return nil
}
