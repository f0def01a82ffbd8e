// Package testutil provides shared test doubles for tutorstack packages.
package testutil

import (
	"context"
	"hash/fnv"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// MockEmbedder implements ai.Embedder with deterministic output: the same
// text always yields the same vector of the configured dimension. This keeps
// backfill-idempotence and search-ordering tests reproducible without a
// model backend.
type MockEmbedder struct {
	Dimension int   // vector dimension to produce (default 4)
	Err       error // error to return from Embed, if set

	CallCount int    // number of Embed calls observed
	LastInput string // text of the most recent Embed call
}

// Name implements ai.Embedder.
func (*MockEmbedder) Name() string {
	return "mock-embedder"
}

// Register implements ai.Embedder. No-op for testing.
func (*MockEmbedder) Register(api.Registry) {}

// Embed implements ai.Embedder.
func (m *MockEmbedder) Embed(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.CallCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.LastInput = req.Input[0].Content[0].Text
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := m.Dimension
	if dim <= 0 {
		dim = 4
	}

	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{
			{Embedding: DeterministicVector(m.LastInput, dim)},
		},
	}, nil
}

// DeterministicVector derives a non-zero pseudo-embedding from text. Distinct
// texts get distinct vectors with overwhelming probability.
func DeterministicVector(text string, dim int) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dim)
	for i := range vec {
		// xorshift64 keeps the sequence cheap and reproducible.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		vec[i] = float32(seed%1000)/1000.0 + 0.001
	}
	return vec
}
