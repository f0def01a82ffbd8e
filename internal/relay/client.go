package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	// eventWaitSeconds is how long a reply poll asks the runtime to block
	// before returning an empty batch.
	eventWaitSeconds = 60

	sourceCustomer = "customer"
	sourceAgent    = "ai_agent"
)

// Message is one user-visible turn of a conversation. Injected context has
// already been stripped from user turns.
type Message struct {
	Offset int    `json:"offset"`
	Role   string `json:"role"`
	Text   string `json:"text"`
}

type event struct {
	Offset int    `json:"offset"`
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Data   struct {
		Message string `json:"message"`
	} `json:"data"`
}

// Client talks to the agent runtime's session API.
type Client struct {
	baseURL    string
	agentID    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL, agentID string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("agent base URL is required")
	}
	if agentID == "" {
		return nil, fmt.Errorf("agent ID is required")
	}

	return &Client{
		baseURL:    baseURL,
		agentID:    agentID,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     logger,
	}, nil
}

// CreateSession opens a fresh conversation with the configured agent and
// returns its session ID. The runtime's opening greeting is suppressed so the
// first turn belongs to the user.
func (c *Client) CreateSession(ctx context.Context, title string) (string, error) {
	body := map[string]any{
		"agent_id": c.agentID,
		"title":    title,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/sessions?allow_greeting=false", body, &created); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create session: runtime returned no session ID")
	}

	c.logger.Debug("session created", "session_id", created.ID)
	return created.ID, nil
}

// Send posts a prompt (with optional injected context behind the delimiter)
// and blocks until the agent's reply for that turn arrives. It returns the
// reply text, or an error when the runtime produces no reply.
func (c *Client) Send(ctx context.Context, sessionID, prompt, extra string) (string, error) {
	outgoing := Compose(prompt, extra)

	body := map[string]any{
		"kind":    "message",
		"source":  sourceCustomer,
		"message": outgoing,
	}

	var posted struct {
		Offset int `json:"offset"`
	}
	path := "/sessions/" + url.PathEscape(sessionID) + "/events"
	if err := c.do(ctx, http.MethodPost, path, body, &posted); err != nil {
		return "", fmt.Errorf("post message: %w", err)
	}

	reply, err := c.awaitReply(ctx, sessionID, posted.Offset+1)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// awaitReply long-polls for the first agent message at or after minOffset.
func (c *Client) awaitReply(ctx context.Context, sessionID string, minOffset int) (string, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/events" +
		"?min_offset=" + strconv.Itoa(minOffset) +
		"&source=" + sourceAgent +
		"&kinds=message" +
		"&wait_for_data=" + strconv.Itoa(eventWaitSeconds)

	var events []event
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return "", fmt.Errorf("await reply: %w", err)
	}
	if len(events) == 0 {
		return "", fmt.Errorf("await reply: agent produced no reply for offset %d", minOffset)
	}
	return events[0].Data.Message, nil
}

// History returns the conversation's message turns in offset order, with
// injected context stripped from user turns.
func (c *Client) History(ctx context.Context, sessionID string) ([]Message, error) {
	path := "/sessions/" + url.PathEscape(sessionID) + "/events?kinds=message"

	var events []event
	if err := c.do(ctx, http.MethodGet, path, nil, &events); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]Message, 0, len(events))
	for _, ev := range events {
		switch ev.Source {
		case sourceCustomer:
			messages = append(messages, Message{
				Offset: ev.Offset,
				Role:   "user",
				Text:   Strip(ev.Data.Message),
			})
		case sourceAgent:
			messages = append(messages, Message{
				Offset: ev.Offset,
				Role:   "agent",
				Text:   ev.Data.Message,
			})
		}
	}
	return messages, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("runtime returned %s: %s", resp.Status, detail)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
