package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studyloop/mentor/internal/cli"
	"github.com/studyloop/mentor/internal/cli/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mentord",
		Short: "Mentor daemon",
		Long:  "Mentor daemon for running the study-material API server",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
