package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"lexconnect/types"
)

// OllamaEmbedder produces embeddings through Ollama's batch embed API.
// One HTTP call per batch, matching the ingestion batch size.
type OllamaEmbedder struct {
	apiURL  string
	model   string
	dim     int
	timeout time.Duration
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

func NewOllamaEmbedder(apiURL, model string, dim int) (*OllamaEmbedder, error) {
	if dim <= 0 {
		return nil, types.ConfigErrorf("embedding dimension must be positive, got %d", dim)
	}
	return &OllamaEmbedder{
		apiURL:  apiURL,
		model:   model,
		dim:     dim,
		timeout: 30 * time.Second,
	}, nil
}

func (e *OllamaEmbedder) Dim() int { return e.dim }

func (e *OllamaEmbedder) Embed(text string) ([]float32, error) {
	vecs, err := e.EmbedBatch([]string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OllamaEmbedder) EmbedBatch(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := ollamaEmbedRequest{
		Model: e.model,
		Input: texts,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, "POST", e.apiURL+"/api/embed", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d, body: %s", ErrEmbedding, resp.StatusCode, string(body))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEmbedding, err)
	}

	var ollamaResp ollamaEmbedResponse
	if err := json.Unmarshal(respBody, &ollamaResp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", ErrEmbedding, err)
	}

	if len(ollamaResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", ErrEmbedding, len(ollamaResp.Embeddings), len(texts))
	}

	out := make([][]float32, len(ollamaResp.Embeddings))
	for i, raw := range ollamaResp.Embeddings {
		if len(raw) != e.dim {
			return nil, types.ConfigErrorf("model returned dimension %d, expected %d", len(raw), e.dim)
		}
		norm := normalize64(raw)
		vec := make([]float32, len(norm))
		for j, v := range norm {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

// normalize64 scales a vector to unit length so L2 distances rank the same
// as cosine similarity.
func normalize64(vec []float64) []float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec
	}

	for i, x := range vec {
		vec[i] = x / norm
	}
	return vec
}
