package rag

import (
	"context"
	"fmt"
	"sync"
)

// fakeEmbedder is a deterministic embedding double: each text maps to a
// vector derived from the sum of its runes (element i is that sum plus i), so equal inputs always
// produce equal vectors without any network calls. Index embeds batches
// concurrently, so Embed serializes its own bookkeeping with a mutex.
type fakeEmbedder struct {
	mu      sync.Mutex
	calls   int
	failAt  int
	dim     int
	onEmbed func(texts []string)
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dim: EmbeddingDimension}
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.onEmbed != nil {
		f.onEmbed(texts)
	}
	if f.failAt != 0 && f.calls == f.failAt {
		return nil, fmt.Errorf("synthetic embed failure")
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = deterministicVector(text, f.dim)
	}
	return vectors, nil
}

func deterministicVector(text string, dim int) []float32 {
	var seed float32
	for _, r := range text {
		seed += float32(r)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = seed + float32(i)
	}
	return vec
}
