package config

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
)

// setupTestEnv points HOME at a temp directory and sets the Gemini API key
// so Load sees a clean environment. viper carries package-level state, so
// each test resets it first.
func setupTestEnv(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoadDefaults(t *testing.T) {
	setupTestEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Provider != ProviderGemini {
		t.Errorf("Provider = %q, want %q", cfg.Provider, ProviderGemini)
	}
	if cfg.ModelName != "gemini-2.5-flash" {
		t.Errorf("ModelName = %q, want gemini-2.5-flash", cfg.ModelName)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Temperature)
	}
	if cfg.MaxTurns != 5 {
		t.Errorf("MaxTurns = %d, want 5", cfg.MaxTurns)
	}
	if cfg.DefaultAssistant != AssistantResearcher {
		t.Errorf("DefaultAssistant = %q, want %q", cfg.DefaultAssistant, AssistantResearcher)
	}
	if cfg.Search.MaxResults != 5 {
		t.Errorf("Search.MaxResults = %d, want 5", cfg.Search.MaxResults)
	}
	if cfg.Market.HistoryDays != 30 {
		t.Errorf("Market.HistoryDays = %d, want 30", cfg.Market.HistoryDays)
	}
	if cfg.Telemetry.Enabled {
		t.Error("Telemetry.Enabled = true, want disabled by default")
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() succeeded without GEMINI_API_KEY, want error")
	}
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Load() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestLoadOpenAIProviderRequiresOpenAIKey(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ATTACHE_PROVIDER", ProviderOpenAI)
	t.Setenv("ATTACHE_MODEL_NAME", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Load() error = %v, want ErrMissingAPIKey for openai provider", err)
	}

	t.Setenv("OPENAI_API_KEY", "test-openai-key")
	viper.Reset()
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.FullModelName(); got != "openai/gpt-4o" {
		t.Errorf("FullModelName() = %q, want openai/gpt-4o", got)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setupTestEnv(t)
	t.Setenv("ATTACHE_MODEL_NAME", "gemini-2.5-pro")
	t.Setenv("ATTACHE_ASSISTANT", AssistantFinance)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ModelName != "gemini-2.5-pro" {
		t.Errorf("ModelName = %q, want env override gemini-2.5-pro", cfg.ModelName)
	}
	if cfg.DefaultAssistant != AssistantFinance {
		t.Errorf("DefaultAssistant = %q, want %q", cfg.DefaultAssistant, AssistantFinance)
	}
}

func TestFullModelName(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		model    string
		want     string
	}{
		{"gemini default", ProviderGemini, "gemini-2.5-flash", "googleai/gemini-2.5-flash"},
		{"openai", ProviderOpenAI, "gpt-4o", "openai/gpt-4o"},
		{"already qualified", ProviderGemini, "googleai/gemini-2.5-pro", "googleai/gemini-2.5-pro"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: tt.provider, ModelName: tt.model}
			if got := cfg.FullModelName(); got != tt.want {
				t.Errorf("FullModelName() = %q, want %q", got, tt.want)
			}
		})
	}
}
