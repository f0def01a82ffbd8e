// Package app provides application initialization and dependency injection.
//
// App is the core container that wires the embedding generator, catalog
// store, vector index manager, and tool bridge together over one MongoDB
// connection and one Genkit instance.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tutorstack/tutorstack/internal/bridge"
	"github.com/tutorstack/tutorstack/internal/catalog"
	"github.com/tutorstack/tutorstack/internal/config"
	"github.com/tutorstack/tutorstack/internal/embedding"
	"github.com/tutorstack/tutorstack/internal/vectorindex"
)

// App is the core application container.
type App struct {
	// Configuration
	Config *config.Config
	Logger *slog.Logger

	// Core services
	Genkit    *genkit.Genkit
	Embedder  ai.Embedder
	Embedding *embedding.Generator
	Catalog   *catalog.Store
	Index     *vectorindex.Manager
	Bridge    *bridge.Server

	mongoClient *mongo.Client
}

// Close gracefully shuts down all resources.
func (a *App) Close() error {
	a.Logger.Info("shutting down application")

	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			return err
		}
		a.Logger.Info("database connection closed")
	}

	return nil
}
