package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Check for nil config (defensive programming)
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider validation
	validProviders := []string{ProviderGemini, ProviderOllama, ProviderGoogleAI}
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidProvider, c.Provider, validProviders)
	}

	// API key validation (Gemini providers only; Ollama runs locally)
	if c.Provider != ProviderOllama && os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.Provider == ProviderOllama {
		if err := validateBaseURL(c.OllamaHost); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidOllamaHost, err)
		}
	}

	// 2. Embedder configuration validation
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// Upper bound matches gemini-embedding-001's native output dimensionality.
	if c.EmbeddingDimension < 1 || c.EmbeddingDimension > 3072 {
		return fmt.Errorf("%w: must be between 1 and 3072, got %d",
			ErrInvalidEmbeddingDimension, c.EmbeddingDimension)
	}

	// 3. Storage configuration validation
	if c.MongoURI == "" {
		return fmt.Errorf("%w: set TUTORSTACK_MONGO_URI or mongo_uri in config.yaml",
			ErrMissingMongoURI)
	}
	if !strings.HasPrefix(c.MongoURI, "mongodb://") && !strings.HasPrefix(c.MongoURI, "mongodb+srv://") {
		return fmt.Errorf("%w: URI must start with mongodb:// or mongodb+srv://",
			ErrMissingMongoURI)
	}

	if c.MongoDatabase == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidMongoDatabase)
	}

	if c.VectorIndexName == "" {
		return fmt.Errorf("%w: vector_index_name cannot be empty", ErrInvalidVectorIndexName)
	}

	// 4. Bridge configuration validation
	if c.BridgePort < 1 || c.BridgePort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d",
			ErrInvalidBridgePort, c.BridgePort)
	}

	// 5. Agent runtime validation
	if err := validateBaseURL(c.AgentBaseURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAgentBaseURL, err)
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL host cannot be empty")
	}
	return nil
}
