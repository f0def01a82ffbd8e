package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tutorstack/tutorstack/internal/app"
	"github.com/tutorstack/tutorstack/internal/catalog"
	"github.com/tutorstack/tutorstack/internal/config"
	"github.com/tutorstack/tutorstack/internal/relay"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive tutoring chat through the agent runtime",
	Long: `Opens a session with the configured agent and relays turns from the
terminal. Each prompt is enriched with the closest catalog resources
before it is sent; the injected context never appears in the transcript.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.AgentID == "" {
		return fmt.Errorf("agent_id is required for chat; set TUTORSTACK_AGENT_ID")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	client, err := relay.NewClient(cfg.AgentBaseURL, cfg.AgentID, logger)
	if err != nil {
		return fmt.Errorf("creating relay client: %w", err)
	}

	sessionID, err := client.CreateSession(ctx, "tutoring session")
	if err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	logger.Debug("chat session open", "session_id", sessionID)

	fmt.Println("Connected. Type your question, or Ctrl+D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}

		reply, err := client.Send(ctx, sessionID, prompt, searchContext(ctx, a, prompt))
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Println(reply)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println("\nGoodbye!")
	return nil
}

// searchContext fetches the closest catalog resources for a prompt and
// renders them as context for injection. Search failures degrade to an
// un-enriched prompt rather than blocking the conversation.
func searchContext(ctx context.Context, a *app.App, prompt string) string {
	results, err := a.Catalog.SearchResources(ctx, prompt, catalog.DefaultSearchLimit)
	if err != nil {
		if !errors.Is(err, catalog.ErrIndexUnready) {
			slog.Default().Warn("resource search failed, sending prompt without context", "error", err)
		}
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Relevant learning resources: ")
	for i, r := range results {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s (%s): %s [%s]", r.Name, r.ResourceType, r.Description, r.Asset)
	}
	return b.String()
}
