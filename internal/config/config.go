// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.attache/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: provider, model selection, temperature, max tokens, agentic turns
//   - Tools: web search, article reader, market data (see tools.go)
//   - Telemetry: optional OTLP trace export (see tools.go)
//
// Validation happens once in Load via Validate; the required provider API
// key is checked there so the process fails before any assistant is built.
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
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxTurns indicates the agentic turn limit is out of range.
	ErrInvalidMaxTurns = errors.New("invalid max turns")

	// ErrInvalidHistoryTurns indicates the history window is out of range.
	ErrInvalidHistoryTurns = errors.New("invalid max history turns")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidAssistant indicates the default assistant kind is unknown.
	ErrInvalidAssistant = errors.New("invalid assistant")

	// ErrInvalidToolConfig indicates a tool configuration value is out of range.
	ErrInvalidToolConfig = errors.New("invalid tool configuration")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// Assistant kind identifiers accepted in Config.DefaultAssistant.
// They mirror assistant.Kind; config keeps its own copies so the
// package stays dependency-free.
const (
	AssistantResearcher = "researcher"
	AssistantFinance    = "finance"
)

// History limits for the in-memory transcript sent with each request.
const (
	// DefaultMaxHistoryTurns is the default number of turns kept per request.
	DefaultMaxHistoryTurns = 100

	// MaxAllowedHistoryTurns is the absolute maximum to prevent unbounded prompts.
	MaxAllowedHistoryTurns = 1000
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider    string  `mapstructure:"provider" json:"provider"`     // "gemini" (default), "openai"
	ModelName   string  `mapstructure:"model_name" json:"model_name"` // Model identifier (e.g., "gemini-2.5-flash", "gpt-4o")
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// MaxTurns bounds tool-calling rounds within a single generation.
	MaxTurns int `mapstructure:"max_turns" json:"max_turns"`

	// MaxHistoryTurns bounds how many transcript turns accompany each request.
	MaxHistoryTurns int `mapstructure:"max_history_turns" json:"max_history_turns"`

	// DefaultAssistant selects the assistant active at startup.
	DefaultAssistant string `mapstructure:"default_assistant" json:"default_assistant"`

	// Tool configuration (see tools.go for type definitions)
	Search SearchConfig `mapstructure:"search" json:"search"`
	Reader ReaderConfig `mapstructure:"reader" json:"reader"`
	Market MarketConfig `mapstructure:"market" json:"market"`

	// Telemetry configuration (see tools.go for type definition)
	Telemetry TelemetryConfig `mapstructure:"telemetry" json:"telemetry"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.attache/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".attache")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	// Configure Viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	// Set default values
	setDefaults()

	// Bind environment variables
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
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 2048)
	viper.SetDefault("max_turns", 5)
	viper.SetDefault("max_history_turns", DefaultMaxHistoryTurns)
	viper.SetDefault("default_assistant", AssistantResearcher)

	// Search defaults (DuckDuckGo HTML endpoint)
	viper.SetDefault("search.base_url", "https://html.duckduckgo.com/html")
	viper.SetDefault("search.max_results", 5)
	viper.SetDefault("search.timeout_ms", 15000)

	// Reader defaults
	viper.SetDefault("reader.max_bytes", 2*1024*1024)
	viper.SetDefault("reader.timeout_ms", 20000)

	// Market data defaults (Stooq CSV endpoint)
	viper.SetDefault("market.base_url", "https://stooq.com")
	viper.SetDefault("market.history_days", 30)
	viper.SetDefault("market.timeout_ms", 15000)

	// Telemetry defaults (disabled unless explicitly enabled)
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.endpoint", "localhost:4318")
	viper.SetDefault("telemetry.service_name", "attache")
	viper.SetDefault("telemetry.environment", "dev")
}

// bindEnvVariables binds environment variable overrides explicitly.
// The provider API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly
// by the Genkit plugins, not via Viper; Validate checks their presence
// based on the selected provider.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	// AI provider and model overrides
	mustBind("provider", "ATTACHE_PROVIDER")
	mustBind("model_name", "ATTACHE_MODEL_NAME")
	mustBind("default_assistant", "ATTACHE_ASSISTANT")

	// Telemetry overrides
	mustBind("telemetry.enabled", "ATTACHE_TELEMETRY_ENABLED")
	mustBind("telemetry.endpoint", "ATTACHE_TELEMETRY_ENDPOINT")
}

// FullModelName returns the provider-qualified model name for Genkit.
// Examples: "googleai/gemini-2.5-flash", "openai/gpt-4o".
// If ModelName already contains a "/", it is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	switch c.Provider {
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + c.ModelName
	default:
		return ProviderGoogleAI + "/" + c.ModelName
	}
}

// APIKeyEnvVar returns the environment variable holding the API key for
// the configured provider.
func (c *Config) APIKeyEnvVar() string {
	if c.Provider == ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

// String implements Stringer for debug logging.
func (c Config) String() string {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
