package app

import (
	"context"
	"testing"

	"github.com/tutorstack/tutorstack/internal/log"
)

func TestReadinessHandle_Uninitialized(t *testing.T) {
	h := &readinessHandle{}

	ready, err := h.Ready(context.Background())
	if err == nil {
		t.Fatal("Ready() expected error before the index manager is wired")
	}
	if ready {
		t.Error("Ready() = true for an unwired handle")
	}
}

func TestClose_WithoutConnection(t *testing.T) {
	a := &App{Logger: log.NewNop()}

	if err := a.Close(); err != nil {
		t.Errorf("Close() on an empty app: %v", err)
	}
}
