// Package rag ties the retriever, prompt builder and generation adapter
// into a single answer entrypoint for legal questions.
package rag

import (
	"context"
	"fmt"
	"log/slog"

	"lexconnect/model"
	"lexconnect/types"
)

const promptPreviewLen = 500

// Result is the orchestrator's answer plus retrieval diagnostics.
type Result struct {
	Answer         string              `json:"answer"`
	RetrievedCount int                 `json:"retrieved_count"`
	Sources        []types.ChunkRecord `json:"sources"`
	PromptUsed     string              `json:"prompt_used"`
}

// Options configures the answer pipeline.
type Options struct {
	TopK int
}

func DefaultOptions() Options {
	return Options{TopK: 5}
}

// Service is the RAG orchestrator.
type Service struct {
	retriever ChunkRetriever
	builder   *PromptBuilder
	generator model.GeneratorInterface
	opts      Options
	logger    *slog.Logger
}

func NewService(retriever ChunkRetriever, builder *PromptBuilder, generator model.GeneratorInterface, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	return &Service{
		retriever: retriever,
		builder:   builder,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Answer runs retrieve -> build prompt -> generate, synchronously. Empty
// retrieval is not an error: the prompt falls back to the no-results
// sentinel and the model still answers. Embedding or generation failures
// propagate to the caller untouched.
func (s *Service) Answer(ctx context.Context, question, caseContext string) (*Result, error) {
	query := question
	if caseContext != "" {
		query = question + "\nContext: " + caseContext
	}

	retrieved, err := s.retriever.Retrieve(ctx, query, s.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("rag: retrieve: %w", err)
	}
	s.logger.Info("rag retrieval done", "question_len", len(question), "retrieved", len(retrieved))

	prompt := s.builder.Build(question, retrieved, caseContext)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("rag: generate: %w", err)
	}

	preview := prompt
	if len(preview) > promptPreviewLen {
		preview = preview[:promptPreviewLen] + "..."
	}

	return &Result{
		Answer:         answer,
		RetrievedCount: len(retrieved),
		Sources:        retrieved,
		PromptUsed:     preview,
	}, nil
}
