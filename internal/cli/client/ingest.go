package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// IngestResponse represents the ingest API response.
type IngestResponse struct {
	IndexedFragments int `json:"indexed_fragments"`
}

// IngestCmd creates the ingest command.
func IngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Index the documents directory",
		Long:  "Extracts, chunks, and embeds every supported document in the server's documents directory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runIngest(api, outputJSON)
		},
	}
}

func runIngest(api *APIClient, outputJSON bool) error {
	resp, err := api.Post("/ingest", struct{}{})
	if err != nil {
		return err
	}

	var result IngestResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("Indexed %d fragments\n", result.IndexedFragments)
	return nil
}
