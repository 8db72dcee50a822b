package tools

import (
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/security"
)

// Tool names as registered with Genkit. Assistant profiles reference
// tools by these names and resolve them through the Registry.
const (
	NameSearchWeb    = "searchWeb"
	NameReadArticle  = "readArticle"
	NameStockQuote   = "stockQuote"
	NameStockHistory = "stockHistory"
	NameCurrentTime  = "currentTime"
)

// RegisterAll defines every tool on the Genkit instance and returns a
// Registry for resolving them by name. The validator is captured by the
// tool closures so all network access is SSRF-checked.
func RegisterAll(g *genkit.Genkit, cfg *config.Config, validator *security.HTTP, logger log.Logger) *Registry {
	search := NewSearch(cfg.Search, validator, logger)
	reader := NewReader(cfg.Reader, validator, logger)
	market := NewMarket(cfg.Market, validator, logger)

	genkit.DefineTool(
		g, NameSearchWeb,
		"Search the web for current information on any topic. "+
			"Returns a list of results with title, URL, and snippet. "+
			"Use this first when researching a topic, then read the most promising results with readArticle.",
		WithEvents(NameSearchWeb, func(ctx *ai.ToolContext, input struct {
			Query string `json:"query" jsonschema_description:"Search query, e.g. 'EU climate policy 2026'"`
		}) (string, error) {
			results, err := search.Run(ctx.Context, input.Query)
			if err != nil {
				return "", fmt.Errorf("web search failed: %w", err)
			}
			if len(results) == 0 {
				return "No results found. Try a different query.", nil
			}
			out, err := json.Marshal(results)
			if err != nil {
				return "", fmt.Errorf("encoding search results: %w", err)
			}
			return string(out), nil
		}),
	)

	genkit.DefineTool(
		g, NameReadArticle,
		"Fetch a web page and extract its readable article text. "+
			"Use this on URLs returned by searchWeb to read the full content behind a result. "+
			"Returns the title, author, and body text with navigation and ads stripped.",
		WithEvents(NameReadArticle, func(ctx *ai.ToolContext, input struct {
			URL string `json:"url" jsonschema_description:"Full URL of the article to read"`
		}) (string, error) {
			article, err := reader.Run(ctx.Context, input.URL)
			if err != nil {
				return "", fmt.Errorf("article extraction failed: %w", err)
			}
			out, err := json.Marshal(article)
			if err != nil {
				return "", fmt.Errorf("encoding article: %w", err)
			}
			return string(out), nil
		}),
	)

	genkit.DefineTool(
		g, NameStockQuote,
		"Get the latest daily stock quote (open, high, low, close, volume) for a ticker symbol. "+
			"US tickers need no suffix (e.g. 'AAPL'); other markets use exchange suffixes (e.g. 'BMW.DE'). "+
			"Returns a markdown table ready to show the user.",
		WithEvents(NameStockQuote, func(ctx *ai.ToolContext, input struct {
			Symbol string `json:"symbol" jsonschema_description:"Ticker symbol, e.g. 'AAPL' or 'MSFT'"`
		}) (string, error) {
			table, err := market.Quote(ctx.Context, input.Symbol)
			if err != nil {
				return "", fmt.Errorf("stock quote failed: %w", err)
			}
			return table, nil
		}),
	)

	genkit.DefineTool(
		g, NameStockHistory,
		"Get recent daily closing prices for a ticker symbol as a markdown table, newest first. "+
			"Use this to discuss trends, ranges, or performance over the last weeks.",
		WithEvents(NameStockHistory, func(ctx *ai.ToolContext, input struct {
			Symbol string `json:"symbol" jsonschema_description:"Ticker symbol, e.g. 'AAPL' or 'MSFT'"`
		}) (string, error) {
			table, err := market.History(ctx.Context, input.Symbol)
			if err != nil {
				return "", fmt.Errorf("stock history failed: %w", err)
			}
			return table, nil
		}),
	)

	genkit.DefineTool(
		g, NameCurrentTime,
		"Get the current system date and time. "+
			"Returns the current timestamp in human-readable format with date, time, and day of week. "+
			"Use this for date-aware answers, e.g. 'this week' or 'latest'.",
		WithEvents(NameCurrentTime, func(ctx *ai.ToolContext, input struct{}) (string, error) {
			return CurrentTime(), nil
		}),
	)

	logger.Debug("tools registered",
		"tools", []string{NameSearchWeb, NameReadArticle, NameStockQuote, NameStockHistory, NameCurrentTime})

	return &Registry{g: g}
}

// Registry resolves registered tools by name.
type Registry struct {
	g *genkit.Genkit
}

// Resolve looks up tools by name and returns refs suitable for
// ai.WithTools. Unknown names are an error: a misspelled profile entry
// should fail at startup, not silently drop a capability.
func (r *Registry) Resolve(names []string) ([]ai.ToolRef, error) {
	refs := make([]ai.ToolRef, 0, len(names))
	for _, name := range names {
		tool := genkit.LookupTool(r.g, name)
		if tool == nil {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		refs = append(refs, tool)
	}
	return refs, nil
}
