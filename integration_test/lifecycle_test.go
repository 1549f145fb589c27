package integration_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectree"
	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
	"github.com/hupe1980/vectree/testutil"
)

// Walks a library through its whole lifecycle: create, fill, search,
// mutate, switch index variants, export to a second library, drop.
func TestLifecycle(t *testing.T) {
	store := vectree.NewStore()

	lib, err := store.CreateLibrary(8, distance.MetricCosine, index.AlgorithmBruteForce,
		vectree.WithName("docs", "lifecycle test library"),
		vectree.WithAutoCompaction(20*time.Millisecond, 0.25))
	require.NoError(t, err)

	rng := testutil.NewRNG(99)
	for i, v := range rng.UniformVectors(500, 8) {
		recID, err := lib.Add(v, map[string]any{"n": i})
		require.NoError(t, err)
		require.NotZero(t, recID)
	}
	require.Equal(t, 500, lib.Len())

	query := make([]float32, 8)
	rng.FillUniform(query)

	baseline, err := lib.Search(query, 20)
	require.NoError(t, err)
	require.Len(t, baseline, 20)

	// Every variant answers identically over the same records.
	for _, algorithm := range []index.Algorithm{index.AlgorithmKDTree, index.AlgorithmVPTree} {
		require.NoError(t, lib.Rebuild(algorithm))

		results, err := lib.Search(query, 20)
		require.NoError(t, err)
		assert.Equal(t, baseline, results)
	}

	// Remove half the records; the maintainer compacts in the background.
	for _, res := range baseline[:10] {
		require.NoError(t, lib.Remove(res.ID))
	}
	assert.Equal(t, 490, lib.Len())

	results, err := lib.Search(query, 10)
	require.NoError(t, err)
	for _, res := range results {
		for _, removed := range baseline[:10] {
			assert.NotEqual(t, removed.ID, res.ID)
		}
	}

	// Export into a fresh library on a different variant.
	var buf bytes.Buffer
	require.NoError(t, lib.ExportRecords(&buf))

	clone, err := store.CreateLibrary(8, distance.MetricCosine, index.AlgorithmKDTree)
	require.NoError(t, err)
	require.NoError(t, clone.ImportRecords(&buf))
	assert.Equal(t, lib.Len(), clone.Len())

	want, err := lib.Search(query, 15)
	require.NoError(t, err)
	got, err := clone.Search(query, 15)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, store.RebuildAll(context.Background(), index.AlgorithmVPTree, 0))
	for _, l := range store.List() {
		assert.Equal(t, index.AlgorithmVPTree, l.Algorithm())
	}

	require.NoError(t, store.Drop(lib.ID()))
	require.NoError(t, store.Drop(clone.ID()))
	assert.Equal(t, 0, store.Len())

	_, err = lib.Search(query, 1)
	assert.ErrorIs(t, err, vectree.ErrClosed)
}
