// Package assistant builds the two pre-configured assistants the chat
// surface can run: a web researcher and a finance analyst. Both share
// the same model and Genkit instance; they differ only in the profile
// row that selects their instructions and tool set.
package assistant

import (
	"errors"
	"fmt"
	"strings"

	"github.com/attache0/attache/internal/tools"
)

// Sentinel errors for assistant operations.
var (
	// ErrUnknownKind indicates an assistant kind that has no profile.
	ErrUnknownKind = errors.New("unknown assistant kind")

	// ErrExecutionFailed indicates a generation request failed.
	ErrExecutionFailed = errors.New("execution failed")
)

// Kind identifies one of the built-in assistants.
type Kind string

const (
	KindResearcher Kind = "researcher"
	KindFinance    Kind = "finance"
)

// ParseKind converts a string to a Kind, accepting any casing.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindResearcher:
		return KindResearcher, nil
	case KindFinance:
		return KindFinance, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Kinds lists the available assistant kinds in display order.
func Kinds() []Kind {
	return []Kind{KindResearcher, KindFinance}
}

// Profile describes one assistant variant: what it is called, what it
// is told, and which tools it may call. Adding an assistant means
// adding a row here, not a construction branch.
type Profile struct {
	Kind         Kind
	Title        string
	Description  string
	Instructions string
	ToolNames    []string
	Placeholder  string
}

// profiles is the lookup table mapping each kind to its profile.
var profiles = map[Kind]Profile{
	KindResearcher: {
		Kind:        KindResearcher,
		Title:       "Researcher",
		Description: "Searches the web and reads articles to answer research questions",
		Instructions: "You are a senior researcher at a major newspaper, known for " +
			"thorough, well-sourced reporting.\n\n" +
			"When given a topic:\n" +
			"1. Search the web for the most relevant and recent sources.\n" +
			"2. Read the most promising results in full before drawing conclusions.\n" +
			"3. Write a clear, engaging answer in the style of a front-page article: " +
			"a short headline, a summary paragraph, then the substance.\n" +
			"4. Cite the sources you actually read, with their URLs.\n" +
			"5. Never fabricate facts. If the sources disagree or are thin, say so.",
		ToolNames: []string{
			tools.NameSearchWeb,
			tools.NameReadArticle,
			tools.NameCurrentTime,
		},
		Placeholder: "Ask me about any topic and I'll research it...",
	},
	KindFinance: {
		Kind:        KindFinance,
		Title:       "Finance Analyst",
		Description: "Looks up market data, analyst views, and company news",
		Instructions: "You are an investment analyst researching stocks and market " +
			"activity.\n\n" +
			"When asked about a company or ticker:\n" +
			"1. Fetch the latest quote and recent price history with your market tools.\n" +
			"2. For analyst recommendations, company fundamentals, or recent company " +
			"news, search the web and read the most relevant articles.\n" +
			"3. Use tables to display data. Keep the tables the tools return intact, " +
			"and put analyst recommendations in a table as well.\n" +
			"4. Summarize what the numbers show: trend, range, notable moves.\n" +
			"5. State the quote date and cite news sources; markets close and data lags.\n" +
			"6. Do not give personalized investment advice.",
		ToolNames: []string{
			tools.NameStockQuote,
			tools.NameStockHistory,
			tools.NameSearchWeb,
			tools.NameReadArticle,
			tools.NameCurrentTime,
		},
		Placeholder: "Ask me about a stock, e.g. AAPL...",
	},
}

// ProfileFor returns the profile for kind.
func ProfileFor(kind Kind) (Profile, error) {
	p, ok := profiles[kind]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return p, nil
}
