package vectree

import (
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/vectree/codec"
)

type options struct {
	id          uuid.UUID
	name        string
	description string
	metadata    map[string]any
	logger      *Logger
	metrics     MetricsCollector
	codec       codec.Codec
	seed        int64

	autoCompactInterval time.Duration
	autoCompactRatio    float64
}

// Option configures a Library at construction time.
type Option func(*options)

// WithID sets the library id. A random id is generated when unset.
func WithID(id uuid.UUID) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithName sets a human-readable name and description for the library.
func WithName(name, description string) Option {
	return func(o *options) {
		o.name = name
		o.description = description
	}
}

// WithMetadata attaches caller metadata to the library itself.
func WithMetadata(metadata map[string]any) Option {
	return func(o *options) {
		o.metadata = metadata
	}
}

// WithLogger configures structured logging for library operations.
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
func WithMetrics(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metrics = mc
	}
}

// WithCodec configures the codec used for record export and import.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithSeed seeds the random source used for VP-tree vantage point
// selection, making tree construction reproducible across processes.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithAutoCompaction starts a background goroutine that rebuilds the index
// off the critical path once the tombstone fraction exceeds ratio, checking
// every interval. The rebuild uses the build-then-swap strategy, so readers
// only block for the final swap. Close stops the goroutine.
func WithAutoCompaction(interval time.Duration, ratio float64) Option {
	return func(o *options) {
		o.autoCompactInterval = interval
		o.autoCompactRatio = ratio
	}
}
