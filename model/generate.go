package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lexconnect/types"
)

const systemPersona = `You are an Indian civil law expert. Answer legal questions directly in 4-6 sentences. ` +
	`NEVER give writing instructions, APA format advice, or academic guidance. ` +
	`Use plain English about Indian law procedures, timelines, jurisdiction.`

// FallbackAnswer replaces degenerate model output. A near-empty answer must
// never reach the caller.
const FallbackAnswer = "Under Indian law, consult a lawyer for case-specific advice."

const minAnswerLen = 20

// GeneratorInterface wraps the text-generation model behind a single
// call-with-prompt method.
type GeneratorInterface interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// OllamaGenerator calls Ollama's chat API, which applies the model's chat
// template to the system/user message pair server-side.
type OllamaGenerator struct {
	cfg types.LLMConfig
}

func NewOllamaGenerator(cfg types.LLMConfig) *OllamaGenerator {
	if cfg.MaxNewTokens <= 0 {
		cfg.MaxNewTokens = 300
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &OllamaGenerator{cfg: cfg}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatOptions struct {
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	RepeatPenalty float64 `json:"repeat_penalty"`
	NumPredict    int     `json:"num_predict"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		fmt.Printf("[GENERATE] LLM answer took %v\n", time.Since(start))
	}()

	reqBody, err := json.Marshal(chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPersona},
			{Role: "user", Content: prompt},
		},
		Stream: false,
		Options: chatOptions{
			Temperature:   g.cfg.Temperature,
			TopP:          0.9,
			RepeatPenalty: 1.15,
			NumPredict:    g.cfg.MaxNewTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	// Generation latency dominates the request path; an explicit deadline
	// keeps a stuck model from hanging the caller forever.
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.cfg.URL+"/api/chat", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generation API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response: %w", err)
	}

	var genResp chatResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Message.Content != "" {
		return postprocess(genResp.Message.Content), nil
	}

	// Streamed response despite stream:false — collect the chunks.
	var b strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk chatResponse
		if err := decoder.Decode(&chunk); err != nil {
			return "", fmt.Errorf("decode generation response: %w", err)
		}
		b.WriteString(chunk.Message.Content)
		if chunk.Done {
			break
		}
	}
	return postprocess(b.String()), nil
}

func postprocess(raw string) string {
	answer := strings.TrimSpace(raw)
	if len(answer) <= minAnswerLen {
		fmt.Printf("[GENERATE] Degenerate output (%d chars), using fallback\n", len(answer))
		return FallbackAnswer
	}
	return answer
}
