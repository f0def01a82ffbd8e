package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/tutorstack/tutorstack/internal/log"
	"github.com/tutorstack/tutorstack/internal/testutil"
)

func TestNew_Validation(t *testing.T) {
	mock := &testutil.MockEmbedder{Dimension: 4}

	if _, err := New(nil, 4, log.NewNop()); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := New(mock, 0, log.NewNop()); err == nil {
		t.Error("expected error for zero dimension")
	}
	if _, err := New(mock, 4, log.NewNop()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEmbed_Dimension(t *testing.T) {
	mock := &testutil.MockEmbedder{Dimension: 8}
	gen, err := New(mock, 8, log.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	vec, err := gen.Embed(context.Background(), "python loops")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 8 {
		t.Errorf("got dimension %d, want 8", len(vec))
	}

	allZero := true
	for _, v := range vec {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Error("embedding must not be all-zero")
	}
}

func TestEmbed_Deterministic(t *testing.T) {
	mock := &testutil.MockEmbedder{Dimension: 8}
	gen, _ := New(mock, 8, log.NewNop())

	a, err := gen.Embed(context.Background(), "python loops")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, err := gen.Embed(context.Background(), "python loops")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
	if mock.CallCount != 2 {
		t.Errorf("no caching layer expected: got %d backend calls, want 2", mock.CallCount)
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	gen, _ := New(&testutil.MockEmbedder{Dimension: 4}, 4, log.NewNop())

	if _, err := gen.Embed(context.Background(), ""); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestEmbed_BackendError(t *testing.T) {
	backendErr := errors.New("backend unreachable")
	gen, _ := New(&testutil.MockEmbedder{Err: backendErr}, 4, log.NewNop())

	_, err := gen.Embed(context.Background(), "query")
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed, got %v", err)
	}
	if !errors.Is(err, backendErr) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	// Backend produces 8-dim vectors; the index is configured for 4.
	gen, _ := New(&testutil.MockEmbedder{Dimension: 8}, 4, log.NewNop())

	_, err := gen.Embed(context.Background(), "query")
	if !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed on dimension mismatch, got %v", err)
	}
}
