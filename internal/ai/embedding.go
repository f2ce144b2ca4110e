package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// EmbeddingConfig holds API settings for text embedding (OpenAI-compatible).
type EmbeddingConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// embeddingBatchSize keeps request bodies under typical provider limits.
const embeddingBatchSize = 10

// Embedder wraps the embedding endpoint with a fixed output dimension.
// The model identity is part of the wrapper: vectors from different models
// are never comparable, so the dimension and model name are pinned at
// construction and every response is checked against them.
type Embedder struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
	dim    int
}

func NewEmbedder(client *OpenAICompatibleClient, cfg EmbeddingConfig, dim int) (*Embedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: configured dimension %d must be positive", ErrDimensionMismatch, dim)
	}
	return &Embedder{client: client, cfg: cfg, dim: dim}, nil
}

// Dimension is the fixed length of every vector this embedder produces.
func (e *Embedder) Dimension() int { return e.dim }

// ModelName identifies the embedding model; stored with every vector.
func (e *Embedder) ModelName() string { return e.cfg.Model }

// EmbedOne embeds a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("%w: got %d vectors for 1 input", ErrEmbeddingUnavailable, len(vecs))
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in provider-sized batches, preserving input order.
// A backend failure surfaces as ErrEmbeddingUnavailable; a vector of the
// wrong length as ErrDimensionMismatch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedRequest(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("%w: %d vectors for %d inputs", ErrEmbeddingUnavailable, len(out), len(texts))
	}
	return out, nil
}

func (e *Embedder) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	input := make([]string, 0, len(texts))
	for _, t := range texts {
		input = append(input, strings.TrimSpace(t))
	}

	reqBody := map[string]interface{}{
		"model": e.cfg.Model,
		"input": input,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request failed: %w", err)
	}

	url := strings.TrimRight(e.cfg.BaseURL, "/") + "/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build embedding request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)

	resp, err := e.client.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrEmbeddingUnavailable, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrEmbeddingUnavailable, resp.StatusCode, string(raw))
	}

	var parsed struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrEmbeddingUnavailable, err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%w: %d embeddings for %d inputs", ErrEmbeddingUnavailable, len(parsed.Data), len(texts))
	}

	result := make([][]float32, len(parsed.Data))
	for i := range parsed.Data {
		if len(parsed.Data[i].Embedding) != e.dim {
			return nil, fmt.Errorf("%w: model returned %d dimensions, store expects %d",
				ErrDimensionMismatch, len(parsed.Data[i].Embedding), e.dim)
		}
		result[i] = parsed.Data[i].Embedding
	}
	return result, nil
}
