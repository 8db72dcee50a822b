package config

import (
	"fmt"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Check for nil config (defensive programming)
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider validation
	validProviders := []string{ProviderGemini, ProviderOpenAI, ProviderGoogleAI}
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidProvider, c.Provider, validProviders)
	}

	// 2. API Key validation (required before any assistant is built)
	if envVar := c.APIKeyEnvVar(); os.Getenv(envVar) == "" {
		hint := "Get your API key at: https://ai.google.dev/gemini-api/docs/api-key"
		if envVar == "OPENAI_API_KEY" {
			hint = "Get your API key at: https://platform.openai.com/api-keys"
		}
		return fmt.Errorf("%w: %s environment variable is required\n%s",
			ErrMissingAPIKey, envVar, hint)
	}

	// 3. Model configuration validation
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	// MaxTokens range: 1 to 2097152 (Gemini 2.5 max context window)
	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// MaxTurns bounds tool-calling rounds; zero would forbid tool use entirely.
	if c.MaxTurns < 1 || c.MaxTurns > 25 {
		return fmt.Errorf("%w: must be between 1 and 25, got %d", ErrInvalidMaxTurns, c.MaxTurns)
	}

	if c.MaxHistoryTurns < 1 || c.MaxHistoryTurns > MaxAllowedHistoryTurns {
		return fmt.Errorf("%w: max_history_turns must be between 1 and %d, got %d",
			ErrInvalidHistoryTurns, MaxAllowedHistoryTurns, c.MaxHistoryTurns)
	}

	// 4. Default assistant validation
	validAssistants := []string{AssistantResearcher, AssistantFinance}
	if !slices.Contains(validAssistants, c.DefaultAssistant) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidAssistant, c.DefaultAssistant, validAssistants)
	}

	// 5. Tool configuration validation
	if c.Search.BaseURL == "" {
		return fmt.Errorf("%w: search.base_url cannot be empty", ErrInvalidToolConfig)
	}
	if c.Search.MaxResults < 1 || c.Search.MaxResults > 25 {
		return fmt.Errorf("%w: search.max_results must be between 1 and 25, got %d",
			ErrInvalidToolConfig, c.Search.MaxResults)
	}
	if c.Reader.MaxBytes < 1 {
		return fmt.Errorf("%w: reader.max_bytes must be positive, got %d",
			ErrInvalidToolConfig, c.Reader.MaxBytes)
	}
	if c.Market.BaseURL == "" {
		return fmt.Errorf("%w: market.base_url cannot be empty", ErrInvalidToolConfig)
	}
	if c.Market.HistoryDays < 1 || c.Market.HistoryDays > 3650 {
		return fmt.Errorf("%w: market.history_days must be between 1 and 3650, got %d",
			ErrInvalidToolConfig, c.Market.HistoryDays)
	}

	return nil
}
