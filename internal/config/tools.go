package config

import "time"

// SearchConfig holds web search tool configuration.
type SearchConfig struct {
	// BaseURL is the DuckDuckGo HTML endpoint (default: https://html.duckduckgo.com/html)
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// MaxResults caps how many results a single search returns (default: 5)
	MaxResults int `mapstructure:"max_results" json:"max_results"`
	// TimeoutMs is request timeout in milliseconds (default: 15000)
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Timeout returns the configured timeout as a duration.
func (s SearchConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// ReaderConfig holds article extraction tool configuration.
type ReaderConfig struct {
	// MaxBytes caps the response body size read per article (default: 2 MiB)
	MaxBytes int64 `mapstructure:"max_bytes" json:"max_bytes"`
	// TimeoutMs is request timeout in milliseconds (default: 20000)
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Timeout returns the configured timeout as a duration.
func (r ReaderConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMs) * time.Millisecond
}

// MarketConfig holds market data tool configuration.
type MarketConfig struct {
	// BaseURL is the Stooq endpoint serving CSV quotes (default: https://stooq.com)
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// HistoryDays is how many calendar days of closing prices stockHistory fetches (default: 30)
	HistoryDays int `mapstructure:"history_days" json:"history_days"`
	// TimeoutMs is request timeout in milliseconds (default: 15000)
	TimeoutMs int `mapstructure:"timeout_ms" json:"timeout_ms"`
}

// Timeout returns the configured timeout as a duration.
func (m MarketConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMs) * time.Millisecond
}

// TelemetryConfig holds optional OTLP trace export configuration.
// Disabled by default; when enabled, Genkit spans are exported over
// OTLP/HTTP to the configured endpoint.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	Endpoint    string `mapstructure:"endpoint" json:"endpoint"`         // host:port of the OTLP HTTP receiver
	ServiceName string `mapstructure:"service_name" json:"service_name"` // default: attache
	Environment string `mapstructure:"environment" json:"environment"`   // default: dev
}
