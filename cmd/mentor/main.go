package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor/internal/cli"
	"github.com/studyloop/mentor/internal/cli/client"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mentor",
		Short: "Mentor CLI - Study from your own material",
		Long: `Mentor CLI provides commands to index study documents, ask questions
about them, and build spaced-repetition study plans.

Environment variables:
  MENTOR_API_URL   API base URL (default: http://localhost:8080)`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.InitCmd())
	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.PlanCmd())
	rootCmd.AddCommand(client.IngestCmd())
	rootCmd.AddCommand(client.DocsCmd())
	rootCmd.AddCommand(client.UploadCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
