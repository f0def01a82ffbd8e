// Package vectorindex owns the lifecycle of the similarity index over the
// resources collection's embedding field: destructive rebuilds, readiness
// polling, and embedding backfills after a model change.
//
// At most one such index exists per collection. A rebuild passes through
// three states: absent, building, queryable. Recreation is drop-all-then-
// create; there is no in-place migration.
package vectorindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tutorstack/tutorstack/internal/models"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultIndexName    = "vector_index"
	DefaultGraceDelay   = 2 * time.Second
	DefaultPollInterval = time.Second
	DefaultReadyTimeout = 10 * time.Minute
)

// IndexStatus describes one search index on the target collection.
type IndexStatus struct {
	Name      string
	Queryable bool
}

// SearchIndexes is the slice of the backend's search-index surface the
// manager needs. MongoSearchIndexes adapts an Atlas collection to it; tests
// substitute fakes.
type SearchIndexes interface {
	List(ctx context.Context) ([]IndexStatus, error)
	DropOne(ctx context.Context, name string) error
	CreateOne(ctx context.Context, name string, dimensions int) (string, error)
}

// Backfiller is the resource access the embedding backfill needs.
// catalog.Store satisfies it.
type Backfiller interface {
	ListResources(ctx context.Context) ([]models.Resource, error)
	UpdateResourceEmbedding(ctx context.Context, id primitive.ObjectID, vec []float32) error
}

// Embedder generates replacement vectors during a backfill.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config holds index lifecycle settings.
type Config struct {
	// IndexName is the search index bound to resources.embedding.
	IndexName string

	// Dimension is the vector dimension the index is created with. Required.
	Dimension int

	// GraceDelay is the pause between dropping the old indexes and creating
	// the new one; the backend needs a moment to release the index name.
	GraceDelay time.Duration

	// PollInterval is the wait between readiness checks during a rebuild.
	PollInterval time.Duration

	// ReadyTimeout bounds the readiness poll. The caller's context bounds it
	// further if it expires earlier.
	ReadyTimeout time.Duration
}

// Manager manages exactly one named similarity index on the resources
// collection. Index-management failures are reported to the caller, never
// allowed to crash the host process.
type Manager struct {
	indexes  SearchIndexes
	store    Backfiller
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a Manager, filling zero Config fields with package defaults.
func New(indexes SearchIndexes, store Backfiller, embedder Embedder, cfg Config, logger *slog.Logger) (*Manager, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.IndexName == "" {
		cfg.IndexName = DefaultIndexName
	}
	if cfg.GraceDelay <= 0 {
		cfg.GraceDelay = DefaultGraceDelay
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = DefaultReadyTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		indexes:  indexes,
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Rebuild drops every search index on the collection, creates the configured
// one, and blocks until it reports queryable. Individual drop failures are
// logged and skipped rather than aborting the rebuild.
//
// The readiness wait is bounded by Config.ReadyTimeout and by ctx, whichever
// expires first; cancel ctx to abort the poll.
func (m *Manager) Rebuild(ctx context.Context) error {
	existing, err := m.indexes.List(ctx)
	if err != nil {
		// Listing can fail when no search index has ever existed; proceed to
		// creation as the reference behavior does.
		m.logger.Warn("listing existing search indexes", "error", err)
	}

	for _, idx := range existing {
		if err := m.indexes.DropOne(ctx, idx.Name); err != nil {
			m.logger.Warn("dropping search index", "index", idx.Name, "error", err)
			continue
		}
		m.logger.Info("dropped search index", "index", idx.Name)
	}

	// Give the backend a moment to release the index name before reuse.
	select {
	case <-time.After(m.cfg.GraceDelay):
	case <-ctx.Done():
		return fmt.Errorf("rebuild canceled before index creation: %w", ctx.Err())
	}

	name, err := m.indexes.CreateOne(ctx, m.cfg.IndexName, m.cfg.Dimension)
	if err != nil {
		return fmt.Errorf("creating search index %q: %w", m.cfg.IndexName, err)
	}
	m.logger.Info("search index building", "index", name, "dimension", m.cfg.Dimension)

	if err := m.waitUntilReady(ctx); err != nil {
		return err
	}
	m.logger.Info("search index queryable", "index", name)
	return nil
}

// waitUntilReady polls until the configured index reports queryable.
func (m *Manager) waitUntilReady(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, m.cfg.ReadyTimeout)
	defer cancel()

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		ready, err := m.Ready(waitCtx)
		if err != nil {
			m.logger.Warn("readiness check failed", "index", m.cfg.IndexName, "error", err)
		} else if ready {
			return nil
		}

		select {
		case <-ticker.C:
		case <-waitCtx.Done():
			return fmt.Errorf("waiting for index %q to become queryable: %w", m.cfg.IndexName, waitCtx.Err())
		}
	}
}

// Ready reports whether the configured index exists and is queryable.
// catalog.Store consults this before issuing a similarity search.
func (m *Manager) Ready(ctx context.Context) (bool, error) {
	statuses, err := m.indexes.List(ctx)
	if err != nil {
		return false, fmt.Errorf("listing search indexes: %w", err)
	}

	for _, st := range statuses {
		if st.Name == m.cfg.IndexName {
			return st.Queryable, nil
		}
	}
	return false, nil
}

// BackfillEmbeddings recomputes every resource's embedding from its current
// text and writes it back in place. Used after a model change or to repair
// missing vectors. Returns the number of resources updated.
//
// The walk is not transactional: a failure partway leaves earlier resources
// updated and later ones not. It is idempotent and safe to re-run.
func (m *Manager) BackfillEmbeddings(ctx context.Context) (int, error) {
	resources, err := m.store.ListResources(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing resources for backfill: %w", err)
	}

	updated := 0
	for _, r := range resources {
		vec, err := m.embedder.Embed(ctx, r.EmbeddingText())
		if err != nil {
			return updated, fmt.Errorf("re-embedding resource %q: %w", r.Name, err)
		}

		if err := m.store.UpdateResourceEmbedding(ctx, r.ID, vec); err != nil {
			return updated, fmt.Errorf("backfill: %w", err)
		}
		updated++
		m.logger.Info("updated embedding", "resource", r.Name)
	}

	m.logger.Info("backfill complete", "resources", updated)
	return updated, nil
}
