package tools

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/security"
)

// Quote is the latest daily OHLCV snapshot for one ticker.
type Quote struct {
	Symbol string
	Date   string
	Time   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Bar is one day of closing data in a price history.
type Bar struct {
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Market fetches stock data from the Stooq CSV endpoints.
// Stooq serves plain CSV over HTTP with no API key, which keeps the
// finance assistant usable without a second credential.
type Market struct {
	cfg       config.MarketConfig
	validator *security.HTTP
	logger    log.Logger
	now       func() time.Time
}

// NewMarket creates a market data tool backend.
func NewMarket(cfg config.MarketConfig, validator *security.HTTP, logger log.Logger) *Market {
	return &Market{
		cfg:       cfg,
		validator: validator,
		logger:    logger.With("component", "tools.market"),
		now:       time.Now,
	}
}

// Quote fetches the latest daily quote for symbol and renders it as a
// markdown table.
func (m *Market) Quote(ctx context.Context, symbol string) (string, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return "", err
	}

	quoteURL := fmt.Sprintf("%s/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv",
		strings.TrimRight(m.cfg.BaseURL, "/"), sym)

	body, err := m.fetchCSV(ctx, quoteURL)
	if err != nil {
		return "", err
	}

	quote, err := parseQuoteCSV(body)
	if err != nil {
		return "", fmt.Errorf("quote for %s: %w", symbol, err)
	}

	m.logger.DebugContext(ctx, "quote fetched", "symbol", sym, "close", quote.Close)
	return renderQuoteTable(quote), nil
}

// History fetches daily closing prices for the configured window and
// renders them as a markdown table, most recent day first.
func (m *Market) History(ctx context.Context, symbol string) (string, error) {
	sym, err := normalizeSymbol(symbol)
	if err != nil {
		return "", err
	}

	end := m.now()
	start := end.AddDate(0, 0, -m.cfg.HistoryDays)
	historyURL := fmt.Sprintf("%s/q/d/l/?s=%s&d1=%s&d2=%s&i=d",
		strings.TrimRight(m.cfg.BaseURL, "/"), sym,
		start.Format("20060102"), end.Format("20060102"))

	body, err := m.fetchCSV(ctx, historyURL)
	if err != nil {
		return "", err
	}

	bars, err := parseHistoryCSV(body)
	if err != nil {
		return "", fmt.Errorf("history for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return "", fmt.Errorf("no price history found for %s", symbol)
	}

	m.logger.DebugContext(ctx, "history fetched", "symbol", sym, "days", len(bars))
	return renderHistoryTable(sym, bars), nil
}

// fetchCSV downloads a CSV document through the validated client.
func (m *Market) fetchCSV(ctx context.Context, csvURL string) ([]byte, error) {
	if err := m.validator.ValidateURL(csvURL); err != nil {
		return nil, fmt.Errorf("validating market URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, csvURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	client := m.validator.Client(m.cfg.Timeout())
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching market data: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, m.validator.MaxResponseSize()))
	if err != nil {
		return nil, fmt.Errorf("reading market data: %w", err)
	}
	return body, nil
}

// normalizeSymbol lowercases a ticker and appends the ".us" market suffix
// when none is given. Stooq addresses US listings as "aapl.us".
func normalizeSymbol(symbol string) (string, error) {
	sym := strings.ToLower(strings.TrimSpace(symbol))
	if sym == "" {
		return "", fmt.Errorf("ticker symbol is empty")
	}
	for _, r := range sym {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '.' && r != '-' && r != '^' {
			return "", fmt.Errorf("invalid ticker symbol %q", symbol)
		}
	}
	if !strings.Contains(sym, ".") && !strings.HasPrefix(sym, "^") {
		sym += ".us"
	}
	return sym, nil
}

// parseQuoteCSV parses the single-row quote CSV.
// Header: Symbol,Date,Time,Open,High,Low,Close,Volume
// Stooq reports "N/D" in every field when the symbol is unknown.
func parseQuoteCSV(data []byte) (*Quote, error) {
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing quote CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("empty quote response")
	}

	row := records[1]
	if len(row) < 8 {
		return nil, fmt.Errorf("malformed quote row: %d fields", len(row))
	}
	if row[3] == "N/D" || row[6] == "N/D" {
		return nil, fmt.Errorf("unknown symbol")
	}

	open, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price: %w", err)
	}
	high, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price: %w", err)
	}
	low, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price: %w", err)
	}
	closing, err := strconv.ParseFloat(row[6], 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price: %w", err)
	}
	volume, err := parseVolume(row[7])
	if err != nil {
		return nil, err
	}

	return &Quote{
		Symbol: strings.ToUpper(row[0]),
		Date:   row[1],
		Time:   row[2],
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closing,
		Volume: volume,
	}, nil
}

// parseHistoryCSV parses the daily-history CSV.
// Header: Date,Open,High,Low,Close,Volume
func parseHistoryCSV(data []byte) ([]Bar, error) {
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing history CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("empty history response")
	}

	bars := make([]Bar, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) < 6 || row[1] == "N/D" {
			continue
		}
		open, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			continue
		}
		high, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue
		}
		low, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			continue
		}
		closing, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			continue
		}
		volume, err := parseVolume(row[5])
		if err != nil {
			volume = 0
		}
		bars = append(bars, Bar{
			Date:   row[0],
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closing,
			Volume: volume,
		})
	}
	return bars, nil
}

// parseVolume tolerates missing or fractional volume fields. Some
// indices report no volume at all.
func parseVolume(s string) (int64, error) {
	if s == "" || s == "N/D" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing volume: %w", err)
	}
	return int64(f), nil
}

// renderQuoteTable formats a quote as a markdown table so the model can
// pass it straight through to the user.
func renderQuoteTable(q *Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Latest daily quote for %s (%s %s):\n\n", q.Symbol, q.Date, q.Time)
	b.WriteString("| Symbol | Date | Open | High | Low | Close | Volume |\n")
	b.WriteString("|--------|------|------|------|-----|-------|--------|\n")
	fmt.Fprintf(&b, "| %s | %s | %.2f | %.2f | %.2f | %.2f | %d |\n",
		q.Symbol, q.Date, q.Open, q.High, q.Low, q.Close, q.Volume)
	return b.String()
}

// renderHistoryTable formats daily bars as a markdown table, most recent
// day first.
func renderHistoryTable(symbol string, bars []Bar) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily closing prices for %s (%d trading days):\n\n", strings.ToUpper(symbol), len(bars))
	b.WriteString("| Date | Open | High | Low | Close | Volume |\n")
	b.WriteString("|------|------|------|-----|-------|--------|\n")
	for i := len(bars) - 1; i >= 0; i-- {
		bar := bars[i]
		fmt.Fprintf(&b, "| %s | %.2f | %.2f | %.2f | %.2f | %d |\n",
			bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}
	return b.String()
}
