package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ServiceEntry is the registration record the agent runtime's service
// registry expects for a tool service.
type ServiceEntry struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	URL       string `json:"url"`
	Transient bool   `json:"transient"`
}

// RegistryClient registers the tool bridge with the agent runtime's service
// registry so the runtime can discover and call it.
type RegistryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewRegistryClient creates a registry client for the runtime at baseURL.
func NewRegistryClient(baseURL string, logger *slog.Logger) (*RegistryClient, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("registry base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid registry base URL %q: %w", baseURL, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &RegistryClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}, nil
}

// Register upserts the service entry under its name. Entries registered as
// transient are dropped by the runtime on its next restart, which matches a
// bridge that re-registers on every startup.
func (c *RegistryClient) Register(ctx context.Context, entry ServiceEntry) error {
	if entry.Name == "" {
		return fmt.Errorf("service entry name is required")
	}
	if entry.URL == "" {
		return fmt.Errorf("service entry URL is required")
	}

	body, err := json.Marshal(struct {
		Kind      string `json:"kind"`
		URL       string `json:"url"`
		Transient bool   `json:"transient"`
	}{
		Kind:      entry.Kind,
		URL:       entry.URL,
		Transient: entry.Transient,
	})
	if err != nil {
		return fmt.Errorf("encoding service entry: %w", err)
	}

	endpoint := fmt.Sprintf("%s/services/%s", c.baseURL, url.PathEscape(entry.Name))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building registry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registering service %q: %w", entry.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("registry rejected service %q: status %d: %s", entry.Name, resp.StatusCode, detail)
	}

	c.logger.Info("registered tool service",
		"name", entry.Name, "kind", entry.Kind, "url", entry.URL, "transient", entry.Transient)
	return nil
}
