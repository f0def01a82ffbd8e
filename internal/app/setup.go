package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tutorstack/tutorstack/internal/bridge"
	"github.com/tutorstack/tutorstack/internal/catalog"
	"github.com/tutorstack/tutorstack/internal/config"
	"github.com/tutorstack/tutorstack/internal/embedding"
	"github.com/tutorstack/tutorstack/internal/vectorindex"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Setup creates and initializes the application.
// Returns an App with embedded cleanup — call Close() to release.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	// On error, clean up everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	client, err := provideMongoClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.mongoClient = client
	db := client.Database(cfg.MongoDatabase)

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	embedder := provideEmbedder(g, cfg)
	if embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}
	a.Embedder = embedder

	gen, err := embedding.New(embedder, cfg.EmbeddingDimension, logger)
	if err != nil {
		return nil, fmt.Errorf("creating embedding generator: %w", err)
	}
	a.Embedding = gen

	// Readiness flows from the index manager into the store, while the
	// backfill flows from the store into the manager. The handle breaks
	// the construction cycle; both sides exist before Setup returns.
	readiness := &readinessHandle{}
	store := catalog.New(db, gen, readiness, cfg.VectorIndexName, logger)
	a.Catalog = store

	indexes := vectorindex.NewMongoSearchIndexes(db.Collection(catalog.ResourcesCollection))
	manager, err := vectorindex.New(indexes, store, gen, vectorindex.Config{
		IndexName:    cfg.VectorIndexName,
		Dimension:    cfg.EmbeddingDimension,
		ReadyTimeout: cfg.IndexReadyTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating index manager: %w", err)
	}
	readiness.manager = manager
	a.Index = manager

	server, err := bridge.NewServer(bridge.Config{
		Name:    cfg.ServiceName,
		Version: Version,
		Catalog: store,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating tool bridge: %w", err)
	}
	a.Bridge = server

	return a, nil
}

// readinessHandle defers the store's readiness dependency until the index
// manager exists. Its manager field is set before Setup returns.
type readinessHandle struct {
	manager *vectorindex.Manager
}

func (h *readinessHandle) Ready(ctx context.Context) (bool, error) {
	if h.manager == nil {
		return false, errors.New("index manager not initialized")
	}
	return h.manager.Ready(ctx)
}

// provideMongoClient connects to MongoDB and verifies the connection.
func provideMongoClient(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	return client, nil
}

// provideGenkit initializes Genkit with the configured AI provider.
// Supports gemini (default) and ollama providers.
func provideGenkit(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit embedder registration (no auto-discovery)
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized Genkit with ollama provider",
			"embedder", cfg.EmbedderModel, "host", cfg.OllamaHost)

	default: // "gemini" / "googleai"
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized Genkit with gemini provider", "embedder", cfg.EmbedderModel)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the AI provider plugin.
// Each provider registers embedders differently:
//   - gemini: GoogleAIEmbedder(g, modelName)
//   - ollama: registered in provideGenkit, keyed by server address
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}
