package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorstack/internal/app"
	"github.com/tutorstack/tutorstack/internal/config"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the resources vector search index",
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Drop and recreate the vector search index",
	Long: `Drops every search index on the resources collection, recreates the
configured index, and waits until the backend reports it queryable.
Similarity search fails with a distinct error until the rebuild
completes.`,
	RunE: runIndexRebuild,
}

var indexBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Recompute embeddings for all stored resources",
	Long: `Re-embeds every stored resource with the configured embedder and writes
the vectors back. Run after changing the embedder model or dimension,
followed by an index rebuild.`,
	RunE: runIndexBackfill,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexBackfillCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	logger := slog.Default()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	logger.Info("rebuilding vector index",
		"index", cfg.VectorIndexName, "dimension", cfg.EmbeddingDimension)

	if err := a.Index.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	fmt.Printf("Index %q rebuilt and queryable\n", cfg.VectorIndexName)
	return nil
}

func runIndexBackfill(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	logger := slog.Default()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	updated, err := a.Index.BackfillEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("backfilling embeddings: %w", err)
	}

	fmt.Printf("Recomputed embeddings for %d resources\n", updated)
	return nil
}
