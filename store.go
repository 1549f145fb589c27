package vectree

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
)

// Store is a thread-safe registry of live libraries keyed by id.
//
// The store's own mutex only guards the registry map; every library keeps
// its own reader/writer lock. Operations that need to hold locks on more
// than one library must acquire them in ascending id order (List returns
// libraries in that order) so lock-ordering cycles cannot form.
type Store struct {
	mu        sync.RWMutex
	libraries map[uuid.UUID]*Library
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		libraries: make(map[uuid.UUID]*Library),
	}
}

// CreateLibrary creates a library and registers it.
func (s *Store) CreateLibrary(dimension int, metric distance.Metric, algorithm index.Algorithm, optFns ...Option) (*Library, error) {
	lib, err := New(dimension, metric, algorithm, optFns...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.libraries[lib.ID()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, lib.ID())
	}
	s.libraries[lib.ID()] = lib

	return lib, nil
}

// Get returns the library for id.
func (s *Store) Get(id uuid.UUID) (*Library, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lib, ok := s.libraries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return lib, nil
}

// List returns all libraries in ascending id order.
func (s *Store) List() []*Library {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Library, 0, len(s.libraries))
	for _, lib := range s.libraries {
		out = append(out, lib)
	}
	slices.SortFunc(out, func(a, b *Library) int {
		aid, bid := a.ID(), b.ID()
		return bytes.Compare(aid[:], bid[:])
	})
	return out
}

// Len returns the number of registered libraries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.libraries)
}

// Drop closes the library for id and removes it from the registry.
func (s *Store) Drop(id uuid.UUID) error {
	s.mu.Lock()
	lib, ok := s.libraries[id]
	if ok {
		delete(s.libraries, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return lib.Close()
}

// RebuildAll rebuilds every registered library onto the given variant,
// fanning out across goroutines bounded by maxConcurrent (GOMAXPROCS when
// <= 0). The context only bounds the fan-out scheduling; an individual
// rebuild, once started, runs to completion.
func (s *Store) RebuildAll(ctx context.Context, algorithm index.Algorithm, maxConcurrent int) error {
	if !algorithm.Valid() {
		return &ErrInvalidAlgorithm{Algorithm: algorithm}
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	g, gctx := errgroup.WithContext(ctx)

	for _, lib := range s.List() {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			return lib.Rebuild(algorithm)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
