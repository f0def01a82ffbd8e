package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/tutorstack/tutorstack/internal/log"
	"github.com/tutorstack/tutorstack/internal/models"
)

// fakeEmbedder implements Embedder without a backend.
type fakeEmbedder struct {
	vec       []float32
	err       error
	callCount int
	lastText  string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.callCount++
	f.lastText = text
	if f.err != nil {
		return nil, f.err
	}
	return f.vec, nil
}

// fakeReadiness implements IndexReadiness.
type fakeReadiness struct {
	ready bool
	err   error
}

func (f *fakeReadiness) Ready(context.Context) (bool, error) {
	return f.ready, f.err
}

func TestSearchResources_IndexUnready(t *testing.T) {
	// The store must fail distinctly, not return an empty success, when the
	// index is absent or building. No database access happens on this path.
	store := New(nil, &fakeEmbedder{vec: []float32{1, 2}}, &fakeReadiness{ready: false}, "", log.NewNop())

	_, err := store.SearchResources(context.Background(), "python loops", 2)
	if !errors.Is(err, ErrIndexUnready) {
		t.Fatalf("expected ErrIndexUnready, got %v", err)
	}
}

func TestSearchResources_ReadinessCheckError(t *testing.T) {
	checkErr := errors.New("connection refused")
	store := New(nil, &fakeEmbedder{vec: []float32{1, 2}}, &fakeReadiness{err: checkErr}, "", log.NewNop())

	_, err := store.SearchResources(context.Background(), "python loops", 2)
	if !errors.Is(err, checkErr) {
		t.Fatalf("expected wrapped readiness error, got %v", err)
	}
}

func TestSearchResources_EmbeddingFailureAborts(t *testing.T) {
	embedErr := errors.New("backend unreachable")
	store := New(nil, &fakeEmbedder{err: embedErr}, &fakeReadiness{ready: true}, "", log.NewNop())

	_, err := store.SearchResources(context.Background(), "python loops", 2)
	if !errors.Is(err, embedErr) {
		t.Fatalf("expected wrapped embedding error, got %v", err)
	}
}

func TestCreateResource_EmbeddingFailureAborts(t *testing.T) {
	// Embedding runs before any insert; a failure must leave nothing behind.
	embedErr := errors.New("backend unreachable")
	fe := &fakeEmbedder{err: embedErr}
	store := New(nil, fe, &fakeReadiness{ready: true}, "", log.NewNop())

	_, err := store.CreateResource(context.Background(), &models.Resource{
		Name:        "Loops Tutorial",
		Description: "Learn loops. ",
	})
	if !errors.Is(err, embedErr) {
		t.Fatalf("expected wrapped embedding error, got %v", err)
	}
	if fe.lastText != "Learn loops. Loops Tutorial" {
		t.Errorf("embedding input = %q, want description+name concatenation", fe.lastText)
	}
}

func TestGetRoadmap_InvalidID(t *testing.T) {
	store := New(nil, &fakeEmbedder{}, &fakeReadiness{}, "", log.NewNop())

	_, err := store.GetRoadmap(context.Background(), "not-a-hex-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for malformed id, got %v", err)
	}
}

func TestUpdateRoadmap_InvalidID(t *testing.T) {
	// A non-matching identifier reports false, not an error.
	store := New(nil, &fakeEmbedder{}, &fakeReadiness{}, "", log.NewNop())

	ok, err := store.UpdateRoadmap(context.Background(), "not-a-hex-id", &models.Roadmap{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("update of nonexistent roadmap must report false")
	}
}
