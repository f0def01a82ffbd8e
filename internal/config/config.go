// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.tutorstack/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: Provider selection and embedder model
//   - Storage: MongoDB connection and vector index naming
//   - Bridge: Tool server listen address and registry endpoint
//   - Agent: Conversation runtime base URL and agent identifier
//
// Security: Sensitive data (the MongoDB URI carries credentials) is never
// logged; the config directory uses 0750 permissions.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrMissingMongoURI indicates the MongoDB connection URI is not set.
	ErrMissingMongoURI = errors.New("missing MongoDB URI")

	// ErrInvalidMongoDatabase indicates the MongoDB database name is invalid.
	ErrInvalidMongoDatabase = errors.New("invalid MongoDB database name")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbeddingDimension indicates the embedding dimension is out of range.
	ErrInvalidEmbeddingDimension = errors.New("invalid embedding dimension")

	// ErrInvalidVectorIndexName indicates the vector search index name is invalid.
	ErrInvalidVectorIndexName = errors.New("invalid vector index name")

	// ErrInvalidBridgePort indicates the bridge listen port is out of range.
	ErrInvalidBridgePort = errors.New("invalid bridge port")

	// ErrInvalidAgentBaseURL indicates the agent runtime base URL is invalid.
	ErrInvalidAgentBaseURL = errors.New("invalid agent base URL")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to arbitrary output
	// dimensionality; the vector index schema expects EmbeddingDimension.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbeddingDimension matches the knnVector index definition.
	// Changing it requires an index rebuild and an embedding backfill.
	DefaultEmbeddingDimension = 1024

	// DefaultIndexReadyTimeout bounds how long an index rebuild waits for
	// Atlas to report the new index queryable.
	DefaultIndexReadyTimeout = 10 * time.Minute
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys, tokens), update MarshalJSON.
type Config struct {
	// AI provider and embedder configuration
	Provider           string `mapstructure:"provider" json:"provider"` // "gemini" (default), "ollama"
	EmbedderModel      string `mapstructure:"embedder_model" json:"embedder_model"`
	EmbeddingDimension int    `mapstructure:"embedding_dimension" json:"embedding_dimension"`

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Storage configuration
	MongoURI          string        `mapstructure:"mongo_uri" json:"mongo_uri"` // SENSITIVE: masked in MarshalJSON
	MongoDatabase     string        `mapstructure:"mongo_database" json:"mongo_database"`
	VectorIndexName   string        `mapstructure:"vector_index_name" json:"vector_index_name"`
	IndexReadyTimeout time.Duration `mapstructure:"index_ready_timeout" json:"index_ready_timeout"`

	// Bridge configuration (tool server exposed to the agent runtime)
	BridgeHost  string `mapstructure:"bridge_host" json:"bridge_host"`
	BridgePort  int    `mapstructure:"bridge_port" json:"bridge_port"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`

	// Agent runtime configuration
	AgentBaseURL string `mapstructure:"agent_base_url" json:"agent_base_url"`
	AgentID      string `mapstructure:"agent_id" json:"agent_id"`
}

// BridgeAddr returns the bridge server's listen address.
func (c *Config) BridgeAddr() string {
	return fmt.Sprintf("%s:%d", c.BridgeHost, c.BridgePort)
}

// BridgeURL returns the URL under which the agent runtime reaches the bridge.
func (c *Config) BridgeURL() string {
	return fmt.Sprintf("http://%s:%d", c.BridgeHost, c.BridgePort)
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.tutorstack/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".tutorstack")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	// Configure Viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	// Use Unmarshal to automatically map to struct (type-safe)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("embedding_dimension", DefaultEmbeddingDimension)

	// Ollama defaults
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Storage defaults
	viper.SetDefault("mongo_database", "ai_tutor_db")
	viper.SetDefault("vector_index_name", "vector_index")
	viper.SetDefault("index_ready_timeout", DefaultIndexReadyTimeout)

	// Bridge defaults; the agent runtime reaches the bridge over loopback.
	viper.SetDefault("bridge_host", "127.0.0.1")
	viper.SetDefault("bridge_port", 8094)
	viper.SetDefault("service_name", "catalog")

	// Agent runtime defaults
	viper.SetDefault("agent_base_url", "http://localhost:8800")
}

// bindEnvVariables binds environment variable overrides explicitly.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("mongo_uri", "TUTORSTACK_MONGO_URI")
	mustBind("mongo_database", "TUTORSTACK_MONGO_DATABASE")
	mustBind("vector_index_name", "TUTORSTACK_VECTOR_INDEX_NAME")

	mustBind("provider", "TUTORSTACK_PROVIDER")
	mustBind("embedder_model", "TUTORSTACK_EMBEDDER_MODEL")
	mustBind("embedding_dimension", "TUTORSTACK_EMBEDDING_DIMENSION")
	mustBind("ollama_host", "TUTORSTACK_OLLAMA_HOST")

	mustBind("bridge_host", "TUTORSTACK_BRIDGE_HOST")
	mustBind("bridge_port", "TUTORSTACK_BRIDGE_PORT")
	mustBind("service_name", "TUTORSTACK_SERVICE_NAME")

	mustBind("agent_base_url", "TUTORSTACK_AGENT_BASE_URL")
	mustBind("agent_id", "TUTORSTACK_AGENT_ID")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
	// Validation checks its presence based on the selected provider.
}

// maskedValue is the placeholder for masked sensitive data.
// Using ████████ (full-width blocks U+2588) to avoid substring matching.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Shows first 2 and last 2 characters, masks the rest.
// SECURITY: For secrets <=8 chars, fully masks to prevent substring attacks.
//
// THREAT MODEL: This defends against accidental logging of real secrets.
// It is NOT cryptographically secure - if logs are compromised, rotate secrets.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	prefix := make([]byte, 2)
	suffix := make([]byte, 2)
	copy(prefix, s[:2])
	copy(suffix, s[len(s)-2:])
	return string(prefix) + "<" + maskedValue + ">" + string(suffix)
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - MongoURI (the connection string carries credentials)
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.MongoURI = maskSecret(a.MongoURI)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
