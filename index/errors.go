package index

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrInvalidK is returned when k is negative.
	ErrInvalidK = errors.New("k must not be negative")

	// ErrZeroVector is returned when a zero vector is inserted or queried
	// under a metric that requires L2 normalization.
	ErrZeroVector = errors.New("cannot normalize zero vector")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

// ErrDuplicateID indicates an insert with an id that is already present.
type ErrDuplicateID struct {
	ID uuid.UUID
}

func (e *ErrDuplicateID) Error() string {
	return fmt.Sprintf("duplicate id: %s", e.ID)
}

// ErrNotFound indicates a reference to a nonexistent id.
type ErrNotFound struct {
	ID uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("id not found: %s", e.ID)
}

// ErrInvalidAlgorithm indicates an unknown algorithm selector.
type ErrInvalidAlgorithm struct {
	Name string
}

func (e *ErrInvalidAlgorithm) Error() string {
	return fmt.Sprintf("invalid algorithm: %q", e.Name)
}
