// Package distance provides the distance metrics used by the vectree indexes.
//
// Every index partitions and prunes in a true metric space. Euclidean maps
// directly to the L2 distance. Cosine is implemented via L2-normalized
// vectors: the internal distance is the chord distance (L2 over unit
// vectors), which satisfies the triangle inequality, and user-facing
// distances are converted back to cosine distance (1 - cosine similarity)
// for reporting. The conversion is monotone, so result ordering and ties
// are identical either way.
package distance

import (
	"fmt"
	"slices"

	"github.com/hupe1980/vectree/internal/math32"
)

// Metric represents the distance metric used for vector comparison.
type Metric int

// Supported metrics.
const (
	MetricEuclidean Metric = iota
	MetricCosine
)

// String returns a string representation of the Metric.
func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricCosine:
		return "cosine"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// Normalizes reports whether vectors must be L2-normalized before they are
// stored or compared under this metric.
func (m Metric) Normalizes() bool {
	return m == MetricCosine
}

// ParseMetric parses a metric name as used by the layer above.
func ParseMetric(s string) (Metric, error) {
	switch s {
	case "euclidean":
		return MetricEuclidean, nil
	case "cosine":
		return MetricCosine, nil
	default:
		return 0, fmt.Errorf("unknown metric: %q", s)
	}
}

// Func is a function type for distance calculation.
type Func func(a, b []float32) float32

// Dot calculates the dot product of two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Dot(a, b []float32) float32 {
	return math32.Dot(a, b)
}

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float32) float32 {
	return math32.SquaredL2(a, b)
}

// L2 calculates the L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func L2(a, b []float32) float32 {
	return math32.Sqrt(math32.SquaredL2(a, b))
}

// Provider returns the metric-space distance function for the given metric.
//
// Both supported metrics resolve to L2: Euclidean directly, Cosine as the
// chord distance over vectors the caller has L2-normalized beforehand
// (see Metric.Normalizes).
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean, MetricCosine:
		return L2, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// FromInternal converts an internal metric-space distance to the
// user-facing distance for the given metric.
//
// Euclidean is the identity. For Cosine the internal chord distance c over
// unit vectors satisfies c^2 = 2*(1 - cos), so the cosine distance is c^2/2.
func FromInternal(m Metric, d float32) float32 {
	if m == MetricCosine {
		return d * d / 2
	}
	return d
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	norm2 := math32.Dot(v, v)
	if norm2 == 0 {
		return false
	}
	inv := 1 / math32.Sqrt(norm2)
	math32.ScaleInPlace(v, inv)
	return true
}

// NormalizeL2Copy returns a normalized copy of src.
// Returns false if src has zero L2 norm.
func NormalizeL2Copy(src []float32) ([]float32, bool) {
	dst := slices.Clone(src)
	if !NormalizeL2InPlace(dst) {
		return nil, false
	}
	return dst, true
}
