// Package cmd provides CLI commands for TutorStack.
//
// Commands:
//   - serve: tool bridge server for the agent runtime
//   - index rebuild: drop and recreate the resources vector search index
//   - index backfill: recompute stored resource embeddings
//   - search: similarity search against the resource catalog
//   - version: build information
//
// Signal handling and graceful shutdown are implemented
// for all commands via context cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorstack/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "tutorstack",
	Short: "TutorStack - semantic resource catalog and tool bridge",
	Long: `TutorStack manages a tutoring catalog of roadmaps, quizzes, and learning
resources, exposes them as tools to an AI agent runtime, and answers
similarity searches over a vector index of resource embeddings.`,
	SilenceUsage: true,
}

// Execute is the main entry point for the TutorStack CLI application.
func Execute() error {
	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.NewWithWriter(os.Stderr, log.Config{Level: level}))

	return rootCmd.Execute()
}
