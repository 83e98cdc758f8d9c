package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"lexconnect/index"
	"lexconnect/rag"
	"lexconnect/store"
	"lexconnect/types"
)

// fakeEmbedder derives a deterministic unit vector from the text hash, so
// identical texts embed identically and retrieval can be asserted exactly.
type fakeEmbedder struct {
	dim        int
	batchSizes []int
	failAfter  int // fail the Nth batch call, 0 = never
	calls      int
}

func (f *fakeEmbedder) Dim() int { return f.dim }

func (f *fakeEmbedder) Embed(text string) ([]float32, error) {
	vecs, err := f.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls >= f.failAfter {
		return nil, errors.New("embedding backend down")
	}
	f.batchSizes = append(f.batchSizes, len(texts))

	out := make([][]float32, len(texts))
	for i, t := range texts {
		h := fnv.New64a()
		h.Write([]byte(t))
		seed := h.Sum64()

		vec := make([]float32, f.dim)
		var norm float64
		for j := range vec {
			seed = seed*6364136223846793005 + 1442695040888963407
			vec[j] = float32(int64(seed>>33)) / float32(math.MaxInt32)
			norm += float64(vec[j]) * float64(vec[j])
		}
		scale := float32(1 / math.Sqrt(norm))
		for j := range vec {
			vec[j] *= scale
		}
		out[i] = vec
	}
	return out, nil
}

type testEnv struct {
	indexer  *Indexer
	idx      *index.FlatIndex
	embedder *fakeEmbedder
	metaPath string
	fullPath string
}

func newTestEnv(t *testing.T, cfg types.Config, embedder *fakeEmbedder) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfg.ChunksPath = filepath.Join(dir, "civil_chunks.jsonl")
	cfg.MetaPath = filepath.Join(dir, "civil_meta.jsonl")

	idx, err := index.NewFlatIndex(embedder.dim)
	if err != nil {
		t.Fatal(err)
	}
	fullLog, err := store.OpenChunkLog(cfg.ChunksPath)
	if err != nil {
		t.Fatal(err)
	}
	metaLog, err := store.OpenChunkLog(cfg.MetaPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		fullLog.Close()
		metaLog.Close()
	})

	indexer, err := New(cfg, embedder, idx, nil, fullLog, metaLog)
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		indexer:  indexer,
		idx:      idx,
		embedder: embedder,
		metaPath: cfg.MetaPath,
		fullPath: cfg.ChunksPath,
	}
}

func civilPage(file string, number int, body string) types.Page {
	return types.Page{
		File:   file,
		Number: number,
		Text:   "The civil appeal raises a question of jurisdiction. " + body,
	}
}

func TestIngestKeepsIndexAndLogsInLockstep(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{ChunkSize: 80, ChunkOverlap: 0, BatchSize: 2}
	env := newTestEnv(t, cfg, &fakeEmbedder{dim: 8})

	pages := []types.Page{
		civilPage("a.pdf", 1, strings.Repeat("the plaintiff sought specific performance of the sale deed ", 4)),
		civilPage("a.pdf", 2, strings.Repeat("the tenancy dispute concerned arrears of rent due ", 4)),
		civilPage("b.pdf", 1, "short page"),
	}
	if err := env.indexer.Ingest(ctx, pages); err != nil {
		t.Fatal(err)
	}
	if err := env.indexer.Finish(ctx); err != nil {
		t.Fatal(err)
	}

	metas, err := store.LoadChunkRecords(env.metaPath)
	if err != nil {
		t.Fatal(err)
	}
	fulls, err := store.LoadChunkRecords(env.fullPath)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := env.idx.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if rows == 0 {
		t.Fatal("expected ingested rows")
	}
	if len(metas) != rows || len(fulls) != rows {
		t.Fatalf("lockstep broken: %d index rows, %d meta records, %d full records", rows, len(metas), len(fulls))
	}
	for i := range metas {
		if metas[i].ChunkID != fulls[i].ChunkID {
			t.Errorf("record %d: meta %q vs full %q", i, metas[i].ChunkID, fulls[i].ChunkID)
		}
		if metas[i].Text != "" {
			t.Errorf("record %d: metadata log must not carry chunk text", i)
		}
		if fulls[i].Text == "" {
			t.Errorf("record %d: full log must carry chunk text", i)
		}
	}

	// Every full batch is one embed call of BatchSize; the remainder flushes
	// at Finish.
	for i, size := range env.embedder.batchSizes {
		last := i == len(env.embedder.batchSizes)-1
		if !last && size != cfg.BatchSize {
			t.Errorf("batch %d had size %d, want %d", i, size, cfg.BatchSize)
		}
		if size > cfg.BatchSize {
			t.Errorf("batch %d exceeds batch size: %d", i, size)
		}
	}
}

func TestIngestChunkIDFormat(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, types.Config{ChunkSize: 1200, ChunkOverlap: 200, BatchSize: 16}, &fakeEmbedder{dim: 4})

	if err := env.indexer.IngestPage(ctx, civilPage("order.pdf", 3, "the decree was upheld")); err != nil {
		t.Fatal(err)
	}
	if err := env.indexer.Finish(ctx); err != nil {
		t.Fatal(err)
	}

	metas, err := store.LoadChunkRecords(env.metaPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Fatalf("expected 1 record, got %d", len(metas))
	}
	if metas[0].ChunkID != "order.pdf_p3_c0_0" {
		t.Errorf("chunk id = %q", metas[0].ChunkID)
	}
	if metas[0].File != "order.pdf" || metas[0].Page != 3 {
		t.Errorf("provenance = %q p%d", metas[0].File, metas[0].Page)
	}
}

func TestIngestSkipsNonCivilAndEmptyPages(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, types.Config{ChunkSize: 1200, ChunkOverlap: 200, BatchSize: 16}, &fakeEmbedder{dim: 4})

	pages := []types.Page{
		{File: "a.pdf", Number: 1, Text: "   "},
		{File: "a.pdf", Number: 2, Text: "an FIR was registered with the police under section 420"},
		{File: "a.pdf", Number: 3, Text: "quarterly weather summary for the region"},
		civilPage("a.pdf", 4, "only this page belongs in the corpus"),
	}
	if err := env.indexer.Ingest(ctx, pages); err != nil {
		t.Fatal(err)
	}
	if err := env.indexer.Finish(ctx); err != nil {
		t.Fatal(err)
	}

	metas, err := store.LoadChunkRecords(env.metaPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Fatalf("expected 1 record, got %d", len(metas))
	}
	if metas[0].Page != 4 {
		t.Errorf("wrong page survived: %d", metas[0].Page)
	}
}

// A failed embed must leave no orphaned log entries: the logs only advance
// after the index append succeeds.
func TestIngestFailedBatchWritesNothing(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{ChunkSize: 80, ChunkOverlap: 0, BatchSize: 2}
	env := newTestEnv(t, cfg, &fakeEmbedder{dim: 4, failAfter: 1})

	page := civilPage("a.pdf", 1, strings.Repeat("the suit for partition of joint family property ", 6))
	err := env.indexer.IngestPage(ctx, page)
	if err == nil {
		t.Fatal("expected embed failure to propagate")
	}

	metas, loadErr := store.LoadChunkRecords(env.metaPath)
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	fulls, loadErr := store.LoadChunkRecords(env.fullPath)
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	rows, _ := env.idx.Count(ctx)
	if len(metas) != 0 || len(fulls) != 0 || rows != 0 {
		t.Errorf("failed batch leaked state: %d rows, %d metas, %d fulls", rows, len(metas), len(fulls))
	}
}

// End to end: ingest a corpus, reload the retrieval state the way the server
// does, and check that querying with a chunk's own text ranks it first.
func TestIngestThenRetrieve(t *testing.T) {
	ctx := context.Background()
	cfg := types.Config{ChunkSize: 1200, ChunkOverlap: 200, BatchSize: 2}
	embedder := &fakeEmbedder{dim: 8}
	env := newTestEnv(t, cfg, embedder)

	pages := []types.Page{
		civilPage("sale.pdf", 1, "the agreement to sell was enforceable and specific performance was decreed"),
		civilPage("rent.pdf", 1, "the landlord wrongfully withheld the security deposit from the tenant"),
		civilPage("writ.pdf", 1, "the writ petition challenged the cancellation of the allotment"),
	}
	if err := env.indexer.Ingest(ctx, pages); err != nil {
		t.Fatal(err)
	}
	if err := env.indexer.Finish(ctx); err != nil {
		t.Fatal(err)
	}

	metas, err := store.LoadChunkRecords(env.metaPath)
	if err != nil {
		t.Fatal(err)
	}
	fulls, err := store.LoadChunkRecords(env.fullPath)
	if err != nil {
		t.Fatal(err)
	}
	retriever, err := rag.NewRetriever(embedder, env.idx, metas)
	if err != nil {
		t.Fatal(err)
	}

	for i, full := range fulls {
		got, err := retriever.Retrieve(ctx, full.Text, 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Fatalf("record %d: expected 1 result", i)
		}
		if got[0].ChunkID != full.ChunkID {
			t.Errorf("record %d: querying with its own text returned %q, want %q", i, got[0].ChunkID, full.ChunkID)
		}
	}

	q := fmt.Sprintf("unrelated question %d", len(fulls))
	got, err := retriever.Retrieve(ctx, q, len(fulls)+3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(fulls) {
		t.Errorf("topK beyond corpus: got %d results, want %d", len(got), len(fulls))
	}
}
