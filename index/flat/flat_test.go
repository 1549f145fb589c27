package flat

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
	"github.com/hupe1980/vectree/testutil"
)

func id(b byte) uuid.UUID {
	var u uuid.UUID
	u[15] = b
	return u
}

func TestFlat(t *testing.T) {
	t.Run("Insert", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 3 })
		require.NoError(t, err)

		require.NoError(t, f.Insert(index.Entry{ID: id(1), Vector: []float32{1, 2, 3}}))
		assert.Equal(t, 1, f.Len())

		// Duplicate id
		err = f.Insert(index.Entry{ID: id(1), Vector: []float32{4, 5, 6}})
		assert.Error(t, err)
		assert.IsType(t, &index.ErrDuplicateID{}, err)

		// Dimension mismatch
		err = f.Insert(index.Entry{ID: id(2), Vector: []float32{1, 2}})
		assert.Error(t, err)
		assert.IsType(t, &index.ErrDimensionMismatch{}, err)
	})

	t.Run("Search", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 3 })
		require.NoError(t, err)

		require.NoError(t, f.Insert(index.Entry{ID: id(1), Vector: []float32{1, 2, 3}}))
		require.NoError(t, f.Insert(index.Entry{ID: id(2), Vector: []float32{4, 5, 6}}))
		require.NoError(t, f.Insert(index.Entry{ID: id(3), Vector: []float32{7, 8, 9}}))

		results, err := f.Search([]float32{0, 0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, id(1), results[0].ID)
		assert.Equal(t, id(2), results[1].ID)
		assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
	})

	t.Run("SearchTiesBrokenByID", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)

		// Three points at identical distance from the origin.
		require.NoError(t, f.Insert(index.Entry{ID: id(9), Vector: []float32{1, 0}}))
		require.NoError(t, f.Insert(index.Entry{ID: id(3), Vector: []float32{0, 1}}))
		require.NoError(t, f.Insert(index.Entry{ID: id(6), Vector: []float32{-1, 0}}))

		results, err := f.Search([]float32{0, 0}, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, id(3), results[0].ID)
		assert.Equal(t, id(6), results[1].ID)
	})

	t.Run("SearchEdgeCases", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)

		// Empty index returns empty, not an error.
		results, err := f.Search([]float32{0, 0}, 5)
		require.NoError(t, err)
		assert.Empty(t, results)

		require.NoError(t, f.Insert(index.Entry{ID: id(1), Vector: []float32{1, 0}}))

		// k == 0 returns empty, not an error.
		results, err = f.Search([]float32{0, 0}, 0)
		require.NoError(t, err)
		assert.Empty(t, results)

		// k > n returns everything.
		results, err = f.Search([]float32{0, 0}, 10)
		require.NoError(t, err)
		assert.Len(t, results, 1)

		// Negative k is an error.
		_, err = f.Search([]float32{0, 0}, -1)
		assert.ErrorIs(t, err, index.ErrInvalidK)

		// Query dimension mismatch.
		_, err = f.Search([]float32{0, 0, 0}, 1)
		assert.IsType(t, &index.ErrDimensionMismatch{}, err)
	})

	t.Run("Delete", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)

		require.NoError(t, f.Insert(index.Entry{ID: id(1), Vector: []float32{1, 0}}))
		require.NoError(t, f.Insert(index.Entry{ID: id(2), Vector: []float32{0, 1}}))

		require.NoError(t, f.Delete(id(1)))
		assert.Equal(t, 1, f.Len())

		err = f.Delete(id(1))
		assert.IsType(t, &index.ErrNotFound{}, err)

		results, err := f.Search([]float32{0, 0}, 5)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, id(2), results[0].ID)
	})

	t.Run("Cosine", func(t *testing.T) {
		f, err := New(func(o *Options) {
			o.Dimension = 2
			o.Metric = distance.MetricCosine
		})
		require.NoError(t, err)

		require.NoError(t, f.Insert(index.Entry{ID: id(1), Vector: []float32{1, 0}}))
		require.NoError(t, f.Insert(index.Entry{ID: id(2), Vector: []float32{0, 1}}))
		require.NoError(t, f.Insert(index.Entry{ID: id(3), Vector: []float32{-1, 0}}))

		// Magnitude must not matter under cosine.
		results, err := f.Search([]float32{5, 0}, 3)
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, id(1), results[0].ID)
		assert.InDelta(t, 0.0, results[0].Distance, 1e-5)
		assert.Equal(t, id(2), results[1].ID)
		assert.InDelta(t, 1.0, results[1].Distance, 1e-5)
		assert.Equal(t, id(3), results[2].ID)
		assert.InDelta(t, 2.0, results[2].Distance, 1e-5)

		// Zero vectors cannot be normalized.
		err = f.Insert(index.Entry{ID: id(4), Vector: []float32{0, 0}})
		assert.ErrorIs(t, err, index.ErrZeroVector)
		_, err = f.Search([]float32{0, 0}, 1)
		assert.ErrorIs(t, err, index.ErrZeroVector)
	})

	t.Run("EuclideanDistanceValues", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)

		require.NoError(t, f.Insert(index.Entry{ID: id(1), Vector: []float32{1, 1}}))

		results, err := f.Search([]float32{0, 0}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.InDelta(t, math.Sqrt2, results[0].Distance, 1e-5)
	})

	t.Run("Rebuild", func(t *testing.T) {
		f, err := New(func(o *Options) { o.Dimension = 2 })
		require.NoError(t, err)

		require.NoError(t, f.Insert(index.Entry{ID: id(9), Vector: []float32{9, 9}}))

		entries := []index.Entry{
			{ID: id(1), Vector: []float32{1, 0}},
			{ID: id(2), Vector: []float32{0, 1}},
		}
		require.NoError(t, f.Rebuild(entries))
		assert.Equal(t, 2, f.Len())

		results, err := f.Search([]float32{0, 0}, 5)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, id(1), results[0].ID)

		// Duplicate entries reject the whole rebuild.
		err = f.Rebuild([]index.Entry{
			{ID: id(1), Vector: []float32{1, 0}},
			{ID: id(1), Vector: []float32{0, 1}},
		})
		assert.IsType(t, &index.ErrDuplicateID{}, err)
	})
}

func TestFlatShardedSearch(t *testing.T) {
	const dim = 8

	rng := testutil.NewRNG(42)
	vectors := rng.UniformVectors(500, dim)

	plain, err := New(func(o *Options) { o.Dimension = dim })
	require.NoError(t, err)

	sharded, err := New(func(o *Options) {
		o.Dimension = dim
		o.ShardThreshold = 1
		o.MaxConcurrency = 4
	})
	require.NoError(t, err)

	for i, v := range vectors {
		e := index.Entry{ID: id(byte(i)), Vector: v}
		e.ID[14] = byte(i >> 8)
		require.NoError(t, plain.Insert(e))
		require.NoError(t, sharded.Insert(e))
	}

	for q := 0; q < 20; q++ {
		query := make([]float32, dim)
		rng.FillUniform(query)

		want, err := plain.Search(query, 10)
		require.NoError(t, err)
		got, err := sharded.Search(query, 10)
		require.NoError(t, err)

		assert.Equal(t, want, got)
	}
}
