package assistant

import (
	"errors"
	"testing"

	"github.com/attache0/attache/internal/tools"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"researcher", KindResearcher, false},
		{"finance", KindFinance, false},
		{"RESEARCHER", KindResearcher, false},
		{" Finance ", KindFinance, false},
		{"", "", true},
		{"poet", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKind) {
					t.Fatalf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestProfileTable(t *testing.T) {
	researcher, err := ProfileFor(KindResearcher)
	if err != nil {
		t.Fatalf("ProfileFor(researcher) error = %v", err)
	}
	finance, err := ProfileFor(KindFinance)
	if err != nil {
		t.Fatalf("ProfileFor(finance) error = %v", err)
	}

	wantResearcherTools := map[string]bool{
		tools.NameSearchWeb:   true,
		tools.NameReadArticle: true,
		tools.NameCurrentTime: true,
	}
	for _, name := range researcher.ToolNames {
		if !wantResearcherTools[name] {
			t.Errorf("researcher has unexpected tool %q", name)
		}
		delete(wantResearcherTools, name)
	}
	for name := range wantResearcherTools {
		t.Errorf("researcher missing tool %q", name)
	}

	// Finance gets the web tools too: analyst recommendations and
	// company news have no keyless market-data endpoint, so they are
	// researched through search and article extraction.
	wantFinanceTools := map[string]bool{
		tools.NameStockQuote:   true,
		tools.NameStockHistory: true,
		tools.NameSearchWeb:    true,
		tools.NameReadArticle:  true,
		tools.NameCurrentTime:  true,
	}
	for _, name := range finance.ToolNames {
		if !wantFinanceTools[name] {
			t.Errorf("finance has unexpected tool %q", name)
		}
		delete(wantFinanceTools, name)
	}
	for name := range wantFinanceTools {
		t.Errorf("finance missing tool %q", name)
	}

	if researcher.Instructions == finance.Instructions {
		t.Error("researcher and finance share instructions, want distinct")
	}
	if researcher.Title == "" || finance.Title == "" {
		t.Error("profiles must carry display titles")
	}
}

func TestProfileForUnknownKind(t *testing.T) {
	if _, err := ProfileFor(Kind("poet")); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ProfileFor(poet) error = %v, want ErrUnknownKind", err)
	}
}

func TestKindsOrder(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 2 || kinds[0] != KindResearcher || kinds[1] != KindFinance {
		t.Errorf("Kinds() = %v, want [researcher finance]", kinds)
	}
}
