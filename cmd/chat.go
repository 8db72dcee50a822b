package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/attache0/attache/internal/app"
	"github.com/attache0/attache/internal/config"
	"github.com/attache0/attache/internal/log"
	"github.com/attache0/attache/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat (default)",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// runChat initializes the application and starts the Bubble Tea TUI.
func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("close error", "error", closeErr)
		}
	}()

	model, err := tui.New(ctx, a.Chat)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}
	program := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err = program.Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}

// loadConfig loads configuration, applies the --assistant override, and
// prints setup instructions when the provider API key is missing.
func loadConfig() (*config.Config, error) {
	if assistantFlag != "" {
		// Env binding lets the flag flow through the normal config path.
		if err := os.Setenv("ATTACHE_ASSISTANT", assistantFlag); err != nil {
			return nil, fmt.Errorf("setting assistant: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "Error: provider API key not set")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "attache needs an API key for the configured model provider.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "For Gemini (default):")
			fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key   # https://ai.google.dev/")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "For OpenAI (provider: openai):")
			fmt.Fprintln(os.Stderr, "  export OPENAI_API_KEY=your-api-key   # https://platform.openai.com/")
		}
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the root logger. DEBUG env enables debug level.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}
