package cmd

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func TestRootCmdProperties(t *testing.T) {
	if rootCmd.Use != "attache" {
		t.Errorf("Use = %q, want attache", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("expected non-empty Short description")
	}
	if rootCmd.Long == "" {
		t.Error("expected non-empty Long description")
	}
	if rootCmd.RunE == nil {
		t.Error("expected non-nil RunE (default chat mode)")
	}
	if rootCmd.PersistentFlags().Lookup("assistant") == nil {
		t.Error("expected persistent --assistant flag")
	}
}

func TestRootCmdSubcommands(t *testing.T) {
	want := map[string]bool{"chat": false, "ask [question]": false, "version": false}
	for _, cmd := range rootCmd.Commands() {
		if _, ok := want[cmd.Use]; ok {
			want[cmd.Use] = true
		}
	}
	for use, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", use)
		}
	}
}

// captureStdout runs fn with os.Stdout redirected and returns its output.
func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	if err := fn(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func TestRunVersion(t *testing.T) {
	originalAppVersion := AppVersion
	originalBuildTime := BuildTime
	originalGitCommit := GitCommit
	defer func() {
		AppVersion = originalAppVersion
		BuildTime = originalBuildTime
		GitCommit = originalGitCommit
	}()

	AppVersion = "1.0.0"
	BuildTime = "2026-01-01T00:00:00Z"
	GitCommit = "abc123"
	t.Setenv("GEMINI_API_KEY", "test-key-1234567890")
	t.Setenv("OPENAI_API_KEY", "")

	output := captureStdout(t, runVersion)

	for _, expected := range []string{
		"attache 1.0.0",
		"Build Time: 2026-01-01T00:00:00Z",
		"Git Commit: abc123",
		"GEMINI_API_KEY: test...7890 (configured)",
		"OPENAI_API_KEY: not set",
	} {
		if !strings.Contains(output, expected) {
			t.Errorf("expected output to contain %q\nGot: %s", expected, output)
		}
	}
}

func TestPrintKeyStatus_Masking(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"standard key", "AIzaSyAbCdEfGh1234567890", "AIza...7890 (configured)"},
		{"exactly 8 chars", "12345678", "1234...5678 (configured)"},
		{"short key never revealed", "test", "TESTKEY: configured"},
		{"empty key", "", "not set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TESTKEY", tt.key)

			output := captureStdout(t, func() error {
				printKeyStatus("TESTKEY")
				return nil
			})

			if !strings.Contains(output, tt.expected) {
				t.Errorf("output = %q, want substring %q", output, tt.expected)
			}
			// The middle of the key must never appear in output
			if len(tt.key) > 10 {
				middle := tt.key[5 : len(tt.key)-5]
				if strings.Contains(output, middle) {
					t.Errorf("output leaked key material: %q", output)
				}
			}
		})
	}
}
