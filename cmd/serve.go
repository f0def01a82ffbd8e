package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorstack/internal/app"
	"github.com/tutorstack/tutorstack/internal/bridge"
	"github.com/tutorstack/tutorstack/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tool bridge server for the agent runtime",
	Long: `Starts the tool bridge on the configured address and, when a registry
URL is given, announces the service to the agent runtime's registry so
the agent can discover the catalog tools.`,
	RunE: runServe,
}

var registryURL string

func init() {
	serveCmd.Flags().StringVar(&registryURL, "registry", "",
		"agent runtime registry base URL (default: agent_base_url from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting tool bridge", "version", app.Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	base := registryURL
	if base == "" {
		base = cfg.AgentBaseURL
	}
	registry, err := bridge.NewRegistryClient(base, logger)
	if err != nil {
		return fmt.Errorf("creating registry client: %w", err)
	}

	// Announce before blocking on the server. The entry is transient:
	// the runtime forgets it once the bridge goes away.
	entry := bridge.ServiceEntry{
		Name:      cfg.ServiceName,
		Kind:      "sdk",
		URL:       cfg.BridgeURL(),
		Transient: true,
	}
	if err := registry.Register(ctx, entry); err != nil {
		logger.Warn("registry announcement failed, agent discovery unavailable",
			"registry", base, "error", err)
	}

	logger.Info("tool bridge ready", "addr", cfg.BridgeAddr(), "service", cfg.ServiceName)
	return a.Bridge.Serve(ctx, cfg.BridgeAddr())
}
