package vectree

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// Record is an immutable value holding one vector, its identifier and its
// metadata. Records are never mutated after creation; an update is modeled
// as Remove followed by Add.
type Record struct {
	// ID is the unique identifier of the record.
	ID uuid.UUID

	// Vector is the embedding. Its length must equal the owning library's
	// dimension; the library enforces this at insertion time.
	Vector []float32

	// Metadata maps string keys to scalar values supplied by the caller.
	Metadata map[string]any

	// DocumentID optionally groups records under a parent document.
	// uuid.Nil means the record is unattached.
	DocumentID uuid.UUID
}

// NewRecord creates a validated record. The vector and metadata are copied,
// so the caller may reuse its slices and maps.
func NewRecord(id uuid.UUID, vector []float32, metadata map[string]any) (*Record, error) {
	if id == uuid.Nil {
		return nil, ErrNilID
	}
	if len(vector) == 0 {
		return nil, ErrEmptyVector
	}

	return &Record{
		ID:       id,
		Vector:   slices.Clone(vector),
		Metadata: maps.Clone(metadata),
	}, nil
}

// WithDocument returns a copy of the record attached to the given document.
func (r *Record) WithDocument(documentID uuid.UUID) *Record {
	clone := *r
	clone.DocumentID = documentID
	return &clone
}

// Dimension returns the length of the record's vector.
func (r *Record) Dimension() int {
	return len(r.Vector)
}
