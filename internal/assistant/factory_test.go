package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/security"
	"github.com/attache0/attache/internal/testutil"
	"github.com/attache0/attache/internal/tools"
)

// newTestFactory wires a factory against the mock model with all tools
// registered on a fresh Genkit instance.
func newTestFactory(t *testing.T) (*Factory, *testutil.MockLLM) {
	t.Helper()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM("fallback answer")
	mock.RegisterModel(g)

	cfg := &config.Config{
		Provider:        config.ProviderGemini,
		ModelName:       testutil.MockModelName,
		Temperature:     0.7,
		MaxTokens:       1024,
		MaxTurns:        3,
		MaxHistoryTurns: config.DefaultMaxHistoryTurns,
		Search:          config.SearchConfig{BaseURL: "https://html.duckduckgo.com/html", MaxResults: 5, TimeoutMs: 1000},
		Reader:          config.ReaderConfig{MaxBytes: 1 << 20, TimeoutMs: 1000},
		Market:          config.MarketConfig{BaseURL: "https://stooq.com", HistoryDays: 30, TimeoutMs: 1000},
	}

	logger := log.NewNop()
	registry := tools.RegisterAll(g, cfg, security.NewHTTP(), logger)

	factory, err := NewFactory(g, registry, cfg, logger)
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	return factory, mock
}

func TestFactoryBuildBothKinds(t *testing.T) {
	factory, _ := newTestFactory(t)

	researcher, err := factory.Researcher()
	if err != nil {
		t.Fatalf("Researcher() error = %v", err)
	}
	finance, err := factory.Finance()
	if err != nil {
		t.Fatalf("Finance() error = %v", err)
	}

	if researcher.Kind() != KindResearcher {
		t.Errorf("researcher.Kind() = %q", researcher.Kind())
	}
	if finance.Kind() != KindFinance {
		t.Errorf("finance.Kind() = %q", finance.Kind())
	}

	// Both runners bind the same model.
	if researcher.ModelName() != finance.ModelName() {
		t.Errorf("model names differ: %q vs %q", researcher.ModelName(), finance.ModelName())
	}
	if researcher.ModelName() != testutil.MockModelName {
		t.Errorf("ModelName() = %q, want %q", researcher.ModelName(), testutil.MockModelName)
	}

	// Tool sets differ per profile: only finance carries the market
	// tools; both can search the web.
	rTools := strings.Join(researcher.ToolNames(), ",")
	if !strings.Contains(rTools, tools.NameSearchWeb) || strings.Contains(rTools, tools.NameStockQuote) {
		t.Errorf("researcher tools = %q", rTools)
	}
	fTools := strings.Join(finance.ToolNames(), ",")
	if !strings.Contains(fTools, tools.NameStockQuote) || !strings.Contains(fTools, tools.NameSearchWeb) {
		t.Errorf("finance tools = %q", fTools)
	}
}

func TestFactoryBuildUnknownKind(t *testing.T) {
	factory, _ := newTestFactory(t)
	if _, err := factory.Build(Kind("poet")); err == nil {
		t.Fatal("Build(poet) = nil error, want ErrUnknownKind")
	}
}

func TestRunnerExecute(t *testing.T) {
	factory, mock := newTestFactory(t)
	mock.AddResponse("hello", "hello back")

	runner, err := factory.Researcher()
	if err != nil {
		t.Fatalf("Researcher() error = %v", err)
	}

	resp, err := runner.Execute(context.Background(), nil, "hello there")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.FinalText != "hello back" {
		t.Errorf("FinalText = %q, want %q", resp.FinalText, "hello back")
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("mock calls = %d, want 1", len(calls))
	}
	if calls[0].UserMessage != "hello there" {
		t.Errorf("mock saw user message %q", calls[0].UserMessage)
	}
}

func TestRunnerExecuteEmptyInput(t *testing.T) {
	factory, _ := newTestFactory(t)
	runner, err := factory.Finance()
	if err != nil {
		t.Fatalf("Finance() error = %v", err)
	}
	if _, err := runner.Execute(context.Background(), nil, "   "); err == nil {
		t.Fatal("Execute with blank input = nil error, want error")
	}
}

func TestRunnerExecuteStream(t *testing.T) {
	factory, mock := newTestFactory(t)
	mock.AddResponse("stream", "streamed response")

	runner, err := factory.Researcher()
	if err != nil {
		t.Fatalf("Researcher() error = %v", err)
	}

	var streamed strings.Builder
	resp, err := runner.ExecuteStream(context.Background(), nil, "stream this",
		func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			streamed.WriteString(chunk.Text())
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteStream() error = %v", err)
	}
	if resp.FinalText != "streamed response" {
		t.Errorf("FinalText = %q", resp.FinalText)
	}
	if streamed.String() != "streamed response" {
		t.Errorf("streamed chunks = %q, want full response text", streamed.String())
	}
}
