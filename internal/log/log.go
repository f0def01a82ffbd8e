// Package log provides the logging infrastructure shared by all tutorstack
// components.
//
// Loggers are injected through constructors rather than read from a package
// global. Each component narrows its logger with With() so records carry the
// component name:
//
//	logger := log.New(log.Config{Level: slog.LevelInfo})
//	store := catalog.New(db, gen, logger.With("component", "catalog"))
//	mgr := vectorindex.New(view, store, gen, cfg, logger.With("component", "vectorindex"))
//
// Tests use NewNop to silence output, or NewWithWriter with a bytes.Buffer to
// inspect it.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type alias for *slog.Logger. Components accept log.Logger as a
// dependency; the alias keeps full compatibility with the slog ecosystem.
type Logger = *slog.Logger

// Config defines logger configuration options.
type Config struct {
	// Level sets the minimum log level. Default: slog.LevelInfo
	Level slog.Level

	// JSON enables JSON format output. Default: false (text format)
	JSON bool

	// AddSource adds source file information to log entries. Default: false
	AddSource bool
}

// New creates a new logger with the given configuration.
// Output is written to os.Stderr: stdout stays reserved for command output.
func New(cfg Config) Logger {
	return NewWithWriter(os.Stderr, cfg)
}

// NewWithWriter creates a new logger that writes to the specified writer.
// Useful for testing or custom output destinations.
func NewWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// NewNop creates a logger that discards all output. Test-only: production code
// should always use New or NewWithWriter so index rebuilds and store failures
// remain observable.
func NewNop() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
