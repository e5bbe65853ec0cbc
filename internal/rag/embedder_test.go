package rag

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bedecarroll/tx/internal/config"
)

func embeddingResponseJSON(vectors [][]float32) []byte {
	resp := openai.EmbeddingResponse{Object: "list", Model: openai.SmallEmbedding3}
	for _, v := range vectors {
		resp.Data = append(resp.Data, openai.Embedding{Embedding: v})
	}
	data, _ := json.Marshal(resp)
	return data
}

func TestOpenAIEmbedderRetriesOn429ThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(embeddingResponseJSON([][]float32{make([]float32, EmbeddingDimension)}))
	}))
	defer server.Close()

	t.Setenv("TEST_RAG_API_KEY", "sk-test")
	embedder, err := NewOpenAIEmbedder(config.RAGConfig{EmbedModel: "text-embedding-3-small", APIKeyEnv: "TEST_RAG_API_KEY"})
	if err != nil {
		t.Fatalf("NewOpenAIEmbedder() error: %v", err)
	}
	embedder.client = openai.NewClientWithConfig(func() openai.ClientConfig {
		c := openai.DefaultConfig("sk-test")
		c.BaseURL = server.URL + "/v1"
		return c
	}())
	var slept []time.Duration
	embedder.sleep = func(d time.Duration) { slept = append(slept, d) }

	vectors, err := embedder.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed() error: %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("vectors = %d, want 1", len(vectors))
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(slept) != 1 || slept[0] != 10*time.Second {
		t.Fatalf("slept = %#v, want one 10s delay", slept)
	}
}

func TestOpenAIEmbedderGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	}))
	defer server.Close()

	embedder := &OpenAIEmbedder{model: "text-embedding-3-small", sleep: func(time.Duration) {}}
	embedder.client = openai.NewClientWithConfig(func() openai.ClientConfig {
		c := openai.DefaultConfig("sk-test")
		c.BaseURL = server.URL + "/v1"
		return c
	}())

	if _, err := embedder.Embed(context.Background(), []string{"hello"}); err == nil {
		t.Fatalf("Embed() expected an error")
	}
	if calls != maxEmbedAttempts {
		t.Fatalf("calls = %d, want %d", calls, maxEmbedAttempts)
	}
}

func TestNewOpenAIEmbedderFailsWithoutAPIKey(t *testing.T) {
	t.Setenv("TEST_RAG_API_KEY_MISSING", "")
	if _, err := NewOpenAIEmbedder(config.RAGConfig{APIKeyEnv: "TEST_RAG_API_KEY_MISSING"}); err == nil {
		t.Fatalf("NewOpenAIEmbedder() expected an error when the API key env var is unset")
	}
}
