package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// UploadResponse represents the upload API response.
type UploadResponse struct {
	FileName         string `json:"file_name"`
	IndexedFragments int    `json:"indexed_fragments"`
	ArchiveKey       string `json:"archive_key,omitempty"`
}

// UploadCmd creates the upload command.
func UploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload and index a document",
		Long:  "Uploads a document, extracts its text, and indexes it into the vector store.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runUpload(api, args[0], outputJSON)
		},
	}

	return cmd
}

func runUpload(api *APIClient, filePath string, outputJSON bool) error {
	resp, err := api.UploadFile("/documents/upload", filePath)
	if err != nil {
		return err
	}

	var result UploadResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("Uploaded %s: %d fragments indexed\n", result.FileName, result.IndexedFragments)
	if result.ArchiveKey != "" {
		fmt.Printf("Archived as %s\n", result.ArchiveKey)
	}
	return nil
}
