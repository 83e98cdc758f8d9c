package index

import (
	"context"
	"fmt"

	"lexconnect/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PgvectorIndex keeps the vectors in a Postgres table with the pgvector
// extension. The position column carries the append ordinal so the
// row-to-metadata correspondence survives in a store that has no intrinsic
// row order. Durable by construction, no Save step.
type PgvectorIndex struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPgvectorIndex(ctx context.Context, connStr string, dim int) (*PgvectorIndex, error) {
	if dim <= 0 {
		return nil, types.ConfigErrorf("index dimension must be positive, got %d", dim)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	p := &PgvectorIndex{pool: pool, dim: dim}
	if err := p.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *PgvectorIndex) init(ctx context.Context) error {
	query := fmt.Sprintf(`
    CREATE EXTENSION IF NOT EXISTS vector;

    CREATE TABLE IF NOT EXISTS civil_vectors (
        id UUID PRIMARY KEY,
        position INT NOT NULL UNIQUE,
        embedding vector(%d) NOT NULL
    );

	CREATE INDEX IF NOT EXISTS idx_civil_vectors_embedding ON civil_vectors
	USING ivfflat (embedding vector_l2_ops) WITH (lists = 100);
    `, p.dim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PgvectorIndex) Dim() int { return p.dim }

func (p *PgvectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM civil_vectors").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (p *PgvectorIndex) Add(ctx context.Context, vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != p.dim {
			return types.ConfigErrorf("vector dimension %d does not match index dimension %d", len(v), p.dim)
		}
	}

	next, err := p.Count(ctx)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i, v := range vectors {
		_, err := tx.Exec(ctx,
			"INSERT INTO civil_vectors (id, position, embedding) VALUES ($1, $2, $3)",
			uuid.New(), next+i, pgvector.NewVector(v),
		)
		if err != nil {
			return fmt.Errorf("insert vector at position %d: %w", next+i, err)
		}
	}
	return tx.Commit(ctx)
}

func (p *PgvectorIndex) Search(ctx context.Context, query []float32, topK int) ([]Hit, error) {
	if len(query) != p.dim {
		return nil, types.ConfigErrorf("query dimension %d does not match index dimension %d", len(query), p.dim)
	}
	if topK <= 0 {
		return nil, nil
	}

	rows, err := p.pool.Query(ctx, `
		SELECT position, embedding <-> $1 AS distance
		FROM civil_vectors
		ORDER BY embedding <-> $1
		LIMIT $2
	`, pgvector.NewVector(query), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var dist float64
		if err := rows.Scan(&h.Position, &dist); err != nil {
			return nil, err
		}
		// pgvector's <-> is plain L2; square it to match the flat index.
		h.Distance = float32(dist * dist)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (p *PgvectorIndex) Close() {
	p.pool.Close()
}
