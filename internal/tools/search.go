// Package tools implements the Genkit tools the assistants can call:
// web search, article extraction, market data, and the current time.
// All network access goes through the security.HTTP validator.
package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/security"
)

// searchUserAgent identifies us to the search endpoint. DuckDuckGo's HTML
// endpoint serves a degraded page to clients with no user agent at all.
const searchUserAgent = "Mozilla/5.0 (X11; Linux x86_64) attache/1.0"

// SearchResult is one entry from a web search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Search performs web searches against the DuckDuckGo HTML endpoint.
type Search struct {
	cfg       config.SearchConfig
	validator *security.HTTP
	logger    log.Logger
}

// NewSearch creates a web search tool backend.
func NewSearch(cfg config.SearchConfig, validator *security.HTTP, logger log.Logger) *Search {
	return &Search{
		cfg:       cfg,
		validator: validator,
		logger:    logger.With("component", "tools.search"),
	}
}

// Run executes a search and returns up to MaxResults results.
func (s *Search) Run(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("search query is empty")
	}

	searchURL := fmt.Sprintf("%s/?q=%s", strings.TrimRight(s.cfg.BaseURL, "/"), url.QueryEscape(query))
	if err := s.validator.ValidateURL(searchURL); err != nil {
		return nil, fmt.Errorf("validating search URL: %w", err)
	}

	c := colly.NewCollector(
		colly.UserAgent(searchUserAgent),
		colly.MaxBodySize(int(s.validator.MaxResponseSize())),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.cfg.Timeout())

	var (
		results   []SearchResult
		scrapeErr error
	)

	// The HTML results page lists each hit in a div.result block with the
	// title anchor, the redirect href, and a snippet.
	c.OnHTML("div.result", func(e *colly.HTMLElement) {
		if len(results) >= s.cfg.MaxResults {
			return
		}
		if result, ok := resultFromSelection(e.DOM); ok {
			results = append(results, result)
		}
	})

	c.OnError(func(_ *colly.Response, err error) {
		scrapeErr = err
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("fetching search results: %w", err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, fmt.Errorf("fetching search results: %w", scrapeErr)
	}

	s.logger.DebugContext(ctx, "web search completed", "query", query, "results", len(results))
	return results, nil
}

// resultFromSelection extracts one search result from a div.result block.
// Blocks without a title or href (ads, spelling hints) are skipped.
func resultFromSelection(sel *goquery.Selection) (SearchResult, bool) {
	anchor := sel.Find("a.result__a").First()
	title := strings.TrimSpace(anchor.Text())
	href, _ := anchor.Attr("href")
	if title == "" || href == "" {
		return SearchResult{}, false
	}
	return SearchResult{
		Title:   title,
		URL:     decodeResultURL(href),
		Snippet: strings.TrimSpace(sel.Find("a.result__snippet").First().Text()),
	}, true
}

// decodeResultURL unwraps DuckDuckGo's redirect links.
// Result hrefs look like //duckduckgo.com/l/?uddg=<escaped-url>&rut=...;
// the real destination is in the uddg parameter. Unrecognized hrefs are
// returned unchanged.
func decodeResultURL(href string) string {
	raw := href
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return href
	}
	if uddg := parsed.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	return href
}
