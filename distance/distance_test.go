package distance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"Simple", []float32{1, 2, 3}, []float32{4, 5, 6}, float32(math.Sqrt(27))},
		{"Zero", []float32{0, 0, 0}, []float32{0, 0, 0}, 0},
		{"Identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"Unit", []float32{1, 0}, []float32{0, 1}, float32(math.Sqrt2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := L2(tt.a, tt.b)
			assert.InDelta(t, tt.expected, got, 1e-5)
		})
	}
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("euclidean")
	require.NoError(t, err)
	assert.Equal(t, MetricEuclidean, m)

	m, err = ParseMetric("cosine")
	require.NoError(t, err)
	assert.Equal(t, MetricCosine, m)

	_, err = ParseMetric("manhattan")
	assert.Error(t, err)
}

func TestProvider(t *testing.T) {
	for _, m := range []Metric{MetricEuclidean, MetricCosine} {
		fn, err := Provider(m)
		require.NoError(t, err)
		require.NotNil(t, fn)
	}

	_, err := Provider(Metric(99))
	assert.Error(t, err)
}

func TestFromInternal(t *testing.T) {
	t.Run("EuclideanIsIdentity", func(t *testing.T) {
		assert.Equal(t, float32(1.5), FromInternal(MetricEuclidean, 1.5))
	})

	t.Run("CosineFromChord", func(t *testing.T) {
		// Orthogonal unit vectors: chord = sqrt(2), cosine distance = 1.
		a := []float32{1, 0}
		b := []float32{0, 1}
		chord := L2(a, b)
		assert.InDelta(t, 1.0, FromInternal(MetricCosine, chord), 1e-5)

		// Identical unit vectors: chord = 0, cosine distance = 0.
		assert.InDelta(t, 0.0, FromInternal(MetricCosine, 0), 1e-5)

		// Opposite unit vectors: chord = 2, cosine distance = 2.
		c := []float32{-1, 0}
		assert.InDelta(t, 2.0, FromInternal(MetricCosine, L2(a, c)), 1e-5)
	})
}

func TestNormalizeL2(t *testing.T) {
	t.Run("InPlace", func(t *testing.T) {
		v := []float32{3, 4}
		ok := NormalizeL2InPlace(v)
		require.True(t, ok)
		assert.InDelta(t, 0.6, v[0], 1e-5)
		assert.InDelta(t, 0.8, v[1], 1e-5)
	})

	t.Run("ZeroVector", func(t *testing.T) {
		v := []float32{0, 0, 0}
		assert.False(t, NormalizeL2InPlace(v))

		_, ok := NormalizeL2Copy(v)
		assert.False(t, ok)
	})

	t.Run("CopyLeavesSourceUntouched", func(t *testing.T) {
		src := []float32{3, 4}
		dst, ok := NormalizeL2Copy(src)
		require.True(t, ok)
		assert.Equal(t, []float32{3, 4}, src)
		assert.InDelta(t, 1.0, L2(dst, []float32{0, 0}), 1e-5)
	})
}

func TestMetricString(t *testing.T) {
	assert.Equal(t, "euclidean", MetricEuclidean.String())
	assert.Equal(t, "cosine", MetricCosine.String())
	assert.True(t, MetricCosine.Normalizes())
	assert.False(t, MetricEuclidean.Normalizes())
}
