package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorstack/internal/app"
	"github.com/tutorstack/tutorstack/internal/catalog"
	"github.com/tutorstack/tutorstack/internal/config"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Similarity search over the resource catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", catalog.DefaultSearchLimit,
		"maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
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

	query := strings.Join(args, " ")
	results, err := a.Catalog.SearchResources(ctx, query, searchLimit)
	if err != nil {
		if errors.Is(err, catalog.ErrIndexUnready) {
			return fmt.Errorf("vector index is not queryable yet; run 'tutorstack index rebuild' first")
		}
		return fmt.Errorf("searching resources: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matching resources")
		return nil
	}

	for _, r := range results {
		fmt.Printf("%s  [%s]\n  %s\n  %s\n", r.Name, r.ResourceType, r.Description, r.Asset)
	}
	return nil
}
