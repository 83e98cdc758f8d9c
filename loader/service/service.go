// Package service runs the offline ingestion pass: classify corpus pages,
// chunk the civil ones, embed chunks in batches and append them to the
// vector index and the metadata log in lockstep.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lexconnect/index"
	"lexconnect/loader/internal"
	"lexconnect/model"
	"lexconnect/store"
	"lexconnect/types"
)

type pendingChunk struct {
	text string
	rec  types.ChunkRecord // metadata only, Text stays empty
}

// Indexer is the ingestion pipeline. Not safe for concurrent use; one
// ingestion run at a time, index swapped in atomically via Finish.
type Indexer struct {
	logger   *slog.Logger
	cfg      types.Config
	embedder model.EmbedderInterface
	index    index.VectorIndex
	persist  func() error // nil when the index is durable by itself

	classifier *internal.Classifier
	chunker    *internal.Chunker

	fullLog *store.ChunkLog
	metaLog *store.ChunkLog

	batch   []pendingChunk
	counter int
	pages   int
	chunks  int
}

func New(cfg types.Config, embedder model.EmbedderInterface, idx index.VectorIndex, persist func() error, fullLog, metaLog *store.ChunkLog) (*Indexer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chunker, err := internal.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	return &Indexer{
		logger:     slog.Default(),
		cfg:        cfg,
		embedder:   embedder,
		index:      idx,
		persist:    persist,
		classifier: internal.NewClassifier(),
		chunker:    chunker,
		fullLog:    fullLog,
		metaLog:    metaLog,
	}, nil
}

// IngestPage classifies and chunks a single page, buffering its chunks for
// the next batch flush.
func (s *Indexer) IngestPage(ctx context.Context, page types.Page) error {
	if strings.TrimSpace(page.Text) == "" {
		return nil
	}
	s.pages++

	title := internal.ExtractTitle(page.Text)
	if !s.classifier.IsCivil(title, page.File, page.Text) {
		return nil
	}

	for _, chunk := range s.chunker.Chunk(page.Text) {
		chunkID := fmt.Sprintf("%s_p%d_c%d_%d", page.File, page.Number, len(s.batch), s.counter)
		s.counter++
		s.chunks++

		s.batch = append(s.batch, pendingChunk{
			text: chunk,
			rec: types.ChunkRecord{
				ChunkID: chunkID,
				File:    page.File,
				Page:    page.Number,
				Title:   title,
			},
		})

		if len(s.batch) >= s.cfg.BatchSize {
			if err := s.flushBatch(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ingest runs IngestPage over a corpus slice. Callers must still Finish.
func (s *Indexer) Ingest(ctx context.Context, pages []types.Page) error {
	for _, page := range pages {
		if err := s.IngestPage(ctx, page); err != nil {
			return err
		}
	}
	return nil
}

// flushBatch embeds the buffered chunks in one call, appends the vectors to
// the index and only then writes both logs, in the same order as the index
// rows. Keeping the log writes behind the index append means a failed embed
// or append leaves no orphaned log entries.
func (s *Indexer) flushBatch(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}

	texts := make([]string, len(s.batch))
	for i, p := range s.batch {
		texts[i] = p.text
	}

	vecs, err := s.embedder.EmbedBatch(texts)
	if err != nil {
		return fmt.Errorf("embed batch of %d: %w", len(s.batch), err)
	}

	if err := s.index.Add(ctx, vecs); err != nil {
		return fmt.Errorf("append batch to index: %w", err)
	}

	for _, p := range s.batch {
		full := p.rec
		full.Text = p.text
		if err := s.fullLog.Append(full); err != nil {
			return err
		}
	}
	for _, p := range s.batch {
		if err := s.metaLog.Append(p.rec); err != nil {
			return err
		}
	}
	if err := s.fullLog.Flush(); err != nil {
		return err
	}
	if err := s.metaLog.Flush(); err != nil {
		return err
	}

	fmt.Printf("[INDEXER] Flushed batch of %d chunks (total %d)\n", len(s.batch), s.chunks)
	s.batch = s.batch[:0]
	return nil
}

// Finish flushes the remaining partial batch and persists the index.
func (s *Indexer) Finish(ctx context.Context) error {
	if err := s.flushBatch(ctx); err != nil {
		return err
	}
	if s.persist != nil {
		if err := s.persist(); err != nil {
			return fmt.Errorf("persist index: %w", err)
		}
	}

	total, err := s.index.Count(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("ingestion finished", "pages", s.pages, "chunks", s.chunks, "index_rows", total)
	return nil
}

// Run processes every corpus file in the source directory, then finishes.
// Processed files move to a dated archive directory, failed ones to the bad
// directory.
func (s *Indexer) Run(ctx context.Context) error {
	files, err := os.ReadDir(s.cfg.SourceDir)
	if err != nil {
		return fmt.Errorf("read source directory: %w", err)
	}

	fmt.Printf("[INDEXER] Found %d entries in %s\n", len(files), s.cfg.SourceDir)

	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		filePath := filepath.Join(s.cfg.SourceDir, file.Name())
		if err := s.processFile(ctx, filePath); err != nil {
			s.logger.Error("ingestion failed for file", "file", filePath, "error", err)
			if mvErr := internal.MoveToArchive(filePath, s.cfg.ArchiveDir, s.cfg.BadDir, true); mvErr != nil {
				s.logger.Error("could not move file to bad dir", "file", filePath, "error", mvErr)
			}
			return err
		}
		if err := internal.MoveToArchive(filePath, s.cfg.ArchiveDir, s.cfg.BadDir, false); err != nil {
			s.logger.Error("could not archive file", "file", filePath, "error", err)
		}
	}

	return s.Finish(ctx)
}

func (s *Indexer) processFile(ctx context.Context, filePath string) error {
	fmt.Printf("[INDEXER] Processing file: %s\n", filePath)

	readPath := filePath
	if s.cfg.CropTop > 0 || s.cfg.CropBottom > 0 {
		if strings.EqualFold(filepath.Ext(filePath), ".pdf") {
			cropped := filepath.Join(os.TempDir(), "cropped_"+filepath.Base(filePath))
			if err := internal.RemoveHeaderFooterCrop(filePath, cropped, s.cfg.CropTop, s.cfg.CropBottom); err != nil {
				return err
			}
			defer os.Remove(cropped)
			readPath = cropped
		}
	}

	pages, err := internal.LoadPages(readPath)
	if err != nil {
		return err
	}
	// The cropped temp file must not leak into chunk provenance.
	for i := range pages {
		pages[i].File = filepath.Base(filePath)
	}

	return s.Ingest(ctx, pages)
}
