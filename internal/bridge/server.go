// Package bridge exposes the catalog's mutation and query operations to an
// external conversational agent runtime as named, schema-validated tools
// over MCP streamable HTTP, and registers itself with the runtime's service
// registry so the agent can discover it.
//
// Every tool reply is a well-formed result at the transport level. Failures
// are reported inside the payload as a message string (soft-fail): the agent
// inspects content, not status codes, to tell success from failure. Typed
// errors exist between the catalog and the bridge; only this outermost layer
// flattens them into prose.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tutorstack/tutorstack/internal/models"
)

// Catalog is the store surface the bridge's tools need. catalog.Store
// satisfies it.
type Catalog interface {
	CreateRoadmap(ctx context.Context, r *models.Roadmap) (string, error)
	CreateQuiz(ctx context.Context, q *models.Quiz) (string, error)
	CreateResource(ctx context.Context, r *models.Resource) (string, error)
	SearchResources(ctx context.Context, query string, limit int) ([]models.Resource, error)
}

// Config holds tool bridge configuration.
type Config struct {
	Name    string // service name advertised to the registry
	Version string
	Catalog Catalog
	Logger  *slog.Logger
}

// Server wraps the MCP SDK server and the catalog store. It holds no mutable
// entity state of its own; concurrent tool calls on different entities are
// independent.
type Server struct {
	mcpServer *mcp.Server
	catalog   Catalog
	logger    *slog.Logger
	name      string
	version   string
}

// NewServer creates a tool bridge server with the four catalog tools
// registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Name == "" {
		return nil, errors.New("server name is required")
	}
	if cfg.Version == "" {
		return nil, errors.New("server version is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("catalog is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		catalog:   cfg.Catalog,
		logger:    cfg.Logger,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	return s, nil
}

// Handler returns the streamable HTTP handler serving the MCP protocol.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)
}

// Serve runs the bridge on addr until ctx is canceled, then shuts the HTTP
// server down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("tool bridge listening", "addr", addr, "name", s.name, "version", s.version)

	select {
	case err := <-errCh:
		return fmt.Errorf("tool bridge server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("tool bridge shutdown: %w", err)
	}

	s.logger.Info("tool bridge shut down gracefully")
	return nil
}
