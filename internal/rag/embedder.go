package rag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bedecarroll/tx/internal/config"
)

const maxEmbedAttempts = 3

var retryDelays = [maxEmbedAttempts]time.Duration{10 * time.Second, 60 * time.Second, 60 * time.Second}

// OpenAIEmbedder embeds text via an OpenAI-compatible embeddings endpoint,
// retrying 429/5xx and transport errors up to 3 attempts in all, with fixed
// delays: 10s before the second attempt and 60s before the third (the last
// entry of retryDelays is never reached).
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	sleep  func(time.Duration)
}

// NewOpenAIEmbedder builds an embedder from cfg, reading the API key and
// optional base URL override from the environment variable names cfg
// configures (spec.md §4.G: "reads credentials and base URL from
// environment"). TX_RAG_EMBED_MODEL, when set, overrides cfg.EmbedModel.
func NewOpenAIEmbedder(cfg config.RAGConfig) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("environment variable %q not set", cfg.APIKeyEnv)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.BaseURLEnv != "" {
		if baseURL := os.Getenv(cfg.BaseURLEnv); baseURL != "" {
			clientConfig.BaseURL = baseURL
		}
	}

	model := cfg.EmbedModel
	if m := os.Getenv("TX_RAG_EMBED_MODEL"); m != "" {
		model = m
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		sleep:  time.Sleep,
	}, nil
}

// ModelName reports the configured embedding model.
func (e *OpenAIEmbedder) ModelName() string { return e.model }

// Embed sends texts to the embeddings endpoint in a single request,
// retrying on 429/5xx and transport errors.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	req := openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	}

	var lastErr error
	for attempt := 0; attempt < maxEmbedAttempts; attempt++ {
		resp, err := e.client.CreateEmbeddings(ctx, req)
		if err == nil {
			vectors := make([][]float32, len(resp.Data))
			for i, d := range resp.Data {
				vectors[i] = d.Embedding
			}
			return vectors, nil
		}
		lastErr = err

		if !retryable(err) || attempt == maxEmbedAttempts-1 {
			break
		}
		e.sleep(retryDelays[attempt])
	}
	return nil, fmt.Errorf("embeddings request failed after %d attempts: %w", maxEmbedAttempts, lastErr)
}

// retryable reports whether err is a 429/5xx API error or a transport-level
// failure worth retrying.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return true
	}
	return false
}
