package app

import (
	"context"
	"testing"

	"github.com/attache0/attache/internal/assistant"
	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
)

func testConfig() *config.Config {
	return &config.Config{
		Provider:         config.ProviderGemini,
		ModelName:        "gemini-2.5-flash",
		Temperature:      0.7,
		MaxTokens:        2048,
		MaxTurns:         5,
		MaxHistoryTurns:  config.DefaultMaxHistoryTurns,
		DefaultAssistant: config.AssistantResearcher,
		Search:           config.SearchConfig{BaseURL: "https://html.duckduckgo.com/html", MaxResults: 5, TimeoutMs: 15000},
		Reader:           config.ReaderConfig{MaxBytes: 1 << 20, TimeoutMs: 20000},
		Market:           config.MarketConfig{BaseURL: "https://stooq.com", HistoryDays: 30, TimeoutMs: 15000},
	}
}

func TestSetupWiresComponents(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")

	a, err := Setup(context.Background(), testConfig(), log.NewNop())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	if a.Genkit == nil || a.Tools == nil || a.Factory == nil || a.Chat == nil {
		t.Fatalf("Setup() left components nil: %+v", a)
	}

	kind, ok := a.Chat.ActiveKind()
	if !ok || kind != assistant.KindResearcher {
		t.Errorf("ActiveKind() = %q/%v, want researcher/true", kind, ok)
	}
}

func TestCloseIdempotent(t *testing.T) {
	cleanups := 0
	a := &App{otelCleanup: func() { cleanups++ }}

	if err := a.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
	if cleanups != 1 {
		t.Errorf("otel cleanup ran %d times, want once", cleanups)
	}
}

func TestClosePartiallyInitialized(t *testing.T) {
	a := &App{}
	if err := a.Close(); err != nil {
		t.Errorf("Close() on empty App = %v, want nil", err)
	}
}

func TestSetupRejectsNilConfig(t *testing.T) {
	if _, err := Setup(context.Background(), nil, log.NewNop()); err == nil {
		t.Fatal("Setup(nil config) = nil error, want error")
	}
}

func TestSetupRejectsUnknownDefaultAssistant(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg := testConfig()
	cfg.DefaultAssistant = "poet"
	if _, err := Setup(context.Background(), cfg, log.NewNop()); err == nil {
		t.Fatal("Setup() with unknown default assistant = nil error, want error")
	}
}
