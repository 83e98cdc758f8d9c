package internal

import (
	"strings"

	"lexconnect/types"
)

// Chunker splits page text into overlapping fixed-size windows for embedding.
type Chunker struct {
	maxChars int
	overlap  int
}

// NewChunker rejects overlap >= maxChars up front: the window start advances
// by maxChars-overlap per step, so a zero or negative stride would never
// reach the end of the text.
func NewChunker(maxChars, overlap int) (*Chunker, error) {
	if maxChars <= 0 {
		return nil, types.ConfigErrorf("chunk size must be positive, got %d", maxChars)
	}
	if overlap < 0 || overlap >= maxChars {
		return nil, types.ConfigErrorf("chunk overlap %d must be in [0, %d)", overlap, maxChars)
	}
	return &Chunker{maxChars: maxChars, overlap: overlap}, nil
}

// Chunk walks the text in windows of maxChars, stepping maxChars-overlap.
// Windows are trimmed and empty ones dropped; the final window may be short.
// Empty input yields no chunks and no error.
func (c *Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	n := len(text)
	start := 0
	for start < n {
		end := start + c.maxChars
		if end > n {
			end = n
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == n {
			break
		}
		start = end - c.overlap
	}
	return chunks
}
