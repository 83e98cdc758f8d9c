package model

import (
	"errors"
)

// ErrEmbedding marks embedding model failures. Never retried silently;
// ingestion aborts and query-time callers surface it.
var ErrEmbedding = errors.New("embedding failure")

// EmbedderInterface converts text into fixed-dimensionality vectors.
// The same implementation (and model) must serve ingestion and query time,
// otherwise distances are meaningless.
type EmbedderInterface interface {
	Embed(text string) ([]float32, error)
	EmbedBatch(texts []string) ([][]float32, error)
	Dim() int
}
