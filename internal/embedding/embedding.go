// Package embedding turns free text into fixed-dimension dense vectors for
// similarity search over catalog resources.
//
// The Generator wraps a Genkit ai.Embedder and enforces the catalog's vector
// contract: input must be non-empty, and the backend's output must match the
// index's configured dimension. Callers must never persist a record when
// Embed fails; a resource without a valid embedding is invisible to search.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
)

// ErrEmbeddingFailed indicates the embedding backend was unreachable or
// returned malformed output. Check with errors.Is.
var ErrEmbeddingFailed = errors.New("embedding failed")

// Generator produces embeddings with a fixed dimension. It is stateless and
// safe for concurrent use; identical text is re-embedded on every call.
type Generator struct {
	embedder  ai.Embedder
	dimension int
	logger    *slog.Logger
}

// New creates a Generator. dimension must match the vector index the
// embeddings are written to.
func New(embedder ai.Embedder, dimension int, logger *slog.Logger) (*Generator, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		embedder:  embedder,
		dimension: dimension,
		logger:    logger,
	}, nil
}

// Dimension returns the configured vector dimension.
func (g *Generator) Dimension() int {
	return g.dimension
}

// Embed converts text into a dense vector of the configured dimension.
// Text beyond the backend model's token limit is truncated by the model;
// callers must not assume lossless encoding of arbitrarily long input.
func (g *Generator) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, errors.New("text must not be empty")
	}

	resp, err := g.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: backend returned no embedding", ErrEmbeddingFailed)
	}

	vec := resp.Embeddings[0].Embedding
	if len(vec) != g.dimension {
		return nil, fmt.Errorf("%w: got dimension %d, index expects %d",
			ErrEmbeddingFailed, len(vec), g.dimension)
	}

	g.logger.Debug("embedded text", "length", len(text), "dimension", len(vec))
	return vec, nil
}
