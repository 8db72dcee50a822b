package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"

	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/security"
)

// Article is the readable content extracted from a web page.
type Article struct {
	Title    string `json:"title"`
	Byline   string `json:"byline,omitempty"`
	SiteName string `json:"site_name,omitempty"`
	Excerpt  string `json:"excerpt,omitempty"`
	Text     string `json:"text"`
}

// Reader fetches a URL and extracts the readable article body.
type Reader struct {
	cfg       config.ReaderConfig
	validator *security.HTTP
	logger    log.Logger
}

// NewReader creates an article extraction tool backend.
func NewReader(cfg config.ReaderConfig, validator *security.HTTP, logger log.Logger) *Reader {
	return &Reader{
		cfg:       cfg,
		validator: validator,
		logger:    logger.With("component", "tools.reader"),
	}
}

// Run fetches pageURL through the validated client and returns the
// extracted article. The body read is capped at MaxBytes.
func (r *Reader) Run(ctx context.Context, pageURL string) (*Article, error) {
	pageURL = strings.TrimSpace(pageURL)
	if err := r.validator.ValidateURL(pageURL); err != nil {
		return nil, fmt.Errorf("validating article URL: %w", err)
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing article URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", searchUserAgent)

	client := r.validator.Client(r.cfg.Timeout())
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching article: unexpected status %d", resp.StatusCode)
	}

	article, err := r.extract(resp.Body, parsed)
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "article extracted",
		"url", pageURL,
		"title", article.Title,
		"chars", len(article.Text))

	return article, nil
}

// readLimit returns the number of body bytes extraction may consume:
// the configured MaxBytes, clamped to the validator's response cap.
func (r *Reader) readLimit() int64 {
	limit := r.validator.MaxResponseSize()
	if r.cfg.MaxBytes > 0 && r.cfg.MaxBytes < limit {
		return r.cfg.MaxBytes
	}
	return limit
}

// extract runs readability over at most readLimit() bytes of body.
func (r *Reader) extract(body io.Reader, parsed *url.URL) (*Article, error) {
	limited := io.LimitReader(body, r.readLimit())

	extracted, err := readability.FromReader(limited, parsed)
	if err != nil {
		return nil, fmt.Errorf("extracting article content: %w", err)
	}

	text := strings.TrimSpace(extracted.TextContent)
	if text == "" {
		return nil, fmt.Errorf("no readable content found at %s", parsed.String())
	}

	return &Article{
		Title:    extracted.Title,
		Byline:   extracted.Byline,
		SiteName: extracted.SiteName,
		Excerpt:  extracted.Excerpt,
		Text:     text,
	}, nil
}
