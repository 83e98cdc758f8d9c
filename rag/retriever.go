package rag

import (
	"context"
	"fmt"

	"lexconnect/index"
	"lexconnect/model"
	"lexconnect/types"
)

// ChunkRetriever finds the metadata records nearest to a query string.
type ChunkRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]types.ChunkRecord, error)
}

// Retriever embeds a query and maps k-NN index positions back onto the
// in-memory metadata records. The metadata slice and the index must come
// from the same ingestion run.
type Retriever struct {
	embedder model.EmbedderInterface
	index    index.VectorIndex
	metas    []types.ChunkRecord
}

func NewRetriever(embedder model.EmbedderInterface, idx index.VectorIndex, metas []types.ChunkRecord) (*Retriever, error) {
	if embedder.Dim() != idx.Dim() {
		return nil, types.ConfigErrorf("embedder dimension %d does not match index dimension %d", embedder.Dim(), idx.Dim())
	}
	return &Retriever{
		embedder: embedder,
		index:    idx,
		metas:    metas,
	}, nil
}

// Retrieve returns at most topK records ordered nearest first. Index
// positions outside the metadata range are skipped rather than failed:
// a desynchronized row should not take down the whole query.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]types.ChunkRecord, error) {
	vec, err := r.embedder.Embed(query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}

	results := make([]types.ChunkRecord, 0, len(hits))
	for _, h := range hits {
		if h.Position < 0 || h.Position >= len(r.metas) {
			fmt.Printf("[RETRIEVE] Skipping index row %d outside metadata range (%d records)\n", h.Position, len(r.metas))
			continue
		}
		results = append(results, r.metas[h.Position])
	}
	return results, nil
}
