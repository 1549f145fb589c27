package vectree

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vectree/index"
)

var (
	// ErrNotFound is returned when an id does not exist in the library.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID is returned when an id is already present.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidK is returned when k is negative.
	ErrInvalidK = errors.New("k must not be negative")

	// ErrZeroVector is returned when a zero vector is inserted or queried
	// under the cosine metric.
	ErrZeroVector = errors.New("cannot normalize zero vector")

	// ErrClosed is returned for operations on a closed library.
	ErrClosed = errors.New("library closed")

	// ErrEmptyVector is returned when a record is constructed without
	// vector data.
	ErrEmptyVector = errors.New("vector must not be empty")

	// ErrNilID is returned when a record is constructed with the nil UUID.
	ErrNilID = errors.New("id must not be nil")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrInvalidAlgorithm indicates an unknown algorithm selector.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidAlgorithm struct {
	Algorithm index.Algorithm
	cause     error
}

func (e *ErrInvalidAlgorithm) Error() string {
	return fmt.Sprintf("invalid algorithm: %d", e.Algorithm)
}

func (e *ErrInvalidAlgorithm) Unwrap() error { return e.cause }

// translateError normalizes index-layer errors into the public contract.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var nf *index.ErrNotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %s", ErrNotFound, nf.ID)
	}
	var dup *index.ErrDuplicateID
	if errors.As(err, &dup) {
		return fmt.Errorf("%w: %s", ErrDuplicateID, dup.ID)
	}
	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	var id *index.ErrInvalidDimension
	if errors.As(err, &id) {
		return &ErrInvalidDimension{Dimension: id.Dimension, cause: err}
	}
	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, index.ErrZeroVector) {
		return fmt.Errorf("%w: %w", ErrZeroVector, err)
	}

	return err
}
