// Package index provides append-only vector indexes with k-nearest-neighbor
// search. Row order is significant: row i of the index corresponds to record i
// of the metadata log, so appends must mirror metadata appends exactly.
package index

import (
	"context"
	"errors"
)

// ErrIndexNotFound is returned when the durable index is absent at query
// time. Callers must surface it instead of falling back to an empty index.
var ErrIndexNotFound = errors.New("vector index not found")

// Hit is a single nearest-neighbor result. Position is the zero-based row
// number in append order; Distance is squared L2, smaller is closer.
type Hit struct {
	Position int
	Distance float32
}

// VectorIndex is an append-only collection of fixed-dimensionality vectors.
type VectorIndex interface {
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, topK int) ([]Hit, error)
	Count(ctx context.Context) (int, error)
	Dim() int
}
