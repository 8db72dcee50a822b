// Package cmd implements the attache command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// assistantFlag overrides the configured default assistant.
var assistantFlag string

var rootCmd = &cobra.Command{
	Use:   "attache",
	Short: "attache - research and finance assistants for your terminal",
	Long: `attache is a terminal chat client with two specialized assistants:
a Researcher that searches the web and reads articles, and a Financial
Analyst that looks up stock quotes and price history.

Running attache without arguments starts the interactive chat.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&assistantFlag, "assistant", "a", "",
		"assistant to start with (researcher or finance)")
}

// Execute runs the root command. Called from main.
func Execute() error {
	return rootCmd.Execute()
}
