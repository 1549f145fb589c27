package vectree

import (
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vectree/codec"
	"github.com/hupe1980/vectree/distance"
	"github.com/hupe1980/vectree/index"
)

// NewBuilder starts a fluent library configuration for the given vector
// dimensionality. Defaults are the Euclidean metric and the brute-force
// index.
//
// Example:
//
//	lib, err := vectree.NewBuilder(128).
//	    Cosine().
//	    KDTree().
//	    Name("articles", "article embeddings").
//	    Build()
func NewBuilder(dimension int) Builder {
	return Builder{
		dimension: dimension,
		metric:    distance.MetricEuclidean,
		algorithm: index.AlgorithmBruteForce,
	}
}

// Builder configures and constructs a Library. The zero value is not
// usable; start with NewBuilder.
type Builder struct {
	dimension int
	metric    distance.Metric
	algorithm index.Algorithm
	optFns    []Option
}

// Euclidean selects the Euclidean (L2) distance metric.
func (b Builder) Euclidean() Builder {
	b.metric = distance.MetricEuclidean
	return b
}

// Cosine selects the cosine distance metric.
func (b Builder) Cosine() Builder {
	b.metric = distance.MetricCosine
	return b
}

// BruteForce selects the exhaustive-scan index.
func (b Builder) BruteForce() Builder {
	b.algorithm = index.AlgorithmBruteForce
	return b
}

// KDTree selects the KD-tree index.
func (b Builder) KDTree() Builder {
	b.algorithm = index.AlgorithmKDTree
	return b
}

// VPTree selects the VP-tree index.
func (b Builder) VPTree() Builder {
	b.algorithm = index.AlgorithmVPTree
	return b
}

// ID sets the library id.
func (b Builder) ID(id uuid.UUID) Builder {
	b.optFns = append(b.optFns, WithID(id))
	return b
}

// Name sets the library name and description.
func (b Builder) Name(name, description string) Builder {
	b.optFns = append(b.optFns, WithName(name, description))
	return b
}

// Metadata attaches metadata to the library itself.
func (b Builder) Metadata(metadata map[string]any) Builder {
	b.optFns = append(b.optFns, WithMetadata(metadata))
	return b
}

// Seed seeds VP-tree vantage point selection.
func (b Builder) Seed(seed int64) Builder {
	b.optFns = append(b.optFns, WithSeed(seed))
	return b
}

// Logger configures structured logging.
func (b Builder) Logger(l *Logger) Builder {
	b.optFns = append(b.optFns, WithLogger(l))
	return b
}

// Metrics configures a metrics collector.
func (b Builder) Metrics(mc MetricsCollector) Builder {
	b.optFns = append(b.optFns, WithMetrics(mc))
	return b
}

// Codec configures the codec used for record export and import.
func (b Builder) Codec(c codec.Codec) Builder {
	b.optFns = append(b.optFns, WithCodec(c))
	return b
}

// AutoCompaction enables background tombstone compaction.
func (b Builder) AutoCompaction(interval time.Duration, ratio float64) Builder {
	b.optFns = append(b.optFns, WithAutoCompaction(interval, ratio))
	return b
}

// Build constructs the library.
func (b Builder) Build() (*Library, error) {
	return New(b.dimension, b.metric, b.algorithm, b.optFns...)
}

// MustBuild constructs the library and panics on error.
// Useful for tests and examples.
func (b Builder) MustBuild() *Library {
	l, err := b.Build()
	if err != nil {
		panic(err)
	}
	return l
}
