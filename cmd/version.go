package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("attache %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	// Show API key presence without revealing the key itself
	printKeyStatus("GEMINI_API_KEY")
	printKeyStatus("OPENAI_API_KEY")

	return nil
}

func printKeyStatus(envVar string) {
	key := os.Getenv(envVar)
	if key == "" {
		fmt.Printf("%s: not set\n", envVar)
		return
	}
	if len(key) >= 8 {
		fmt.Printf("%s: %s...%s (configured)\n", envVar, key[:4], key[len(key)-4:])
		return
	}
	fmt.Printf("%s: configured\n", envVar)
}
