package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Document represents one file in the documents directory.
type Document struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Type      string `json:"type"`
}

// DocumentListResponse represents the document listing API response.
type DocumentListResponse struct {
	Documents []Document `json:"documents"`
	Count     int        `json:"count"`
}

// IndexedSource represents one source document present in the vector index.
type IndexedSource struct {
	SourceID  string `json:"source_id"`
	FileName  string `json:"file_name"`
	Type      string `json:"type"`
	Fragments int    `json:"fragments"`
}

// IndexedListResponse represents the indexed sources API response.
type IndexedListResponse struct {
	Sources []IndexedSource `json:"sources"`
	Count   int             `json:"count"`
}

// DocsCmd creates the docs command with its subcommands.
func DocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Inspect documents",
		Long:  "Lists the documents available on disk and the sources present in the vector index.",
	}

	cmd.AddCommand(docsListCmd())
	cmd.AddCommand(docsIndexedCmd())

	return cmd
}

func docsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents in the documents directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDocsList(api, outputJSON)
		},
	}
}

func docsIndexedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexed",
		Short: "List sources in the vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runDocsIndexed(api, outputJSON)
		},
	}
}

func runDocsList(api *APIClient, outputJSON bool) error {
	resp, err := api.Get("/documents")
	if err != nil {
		return err
	}

	var result DocumentListResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if result.Count == 0 {
		fmt.Println("No documents found")
		return nil
	}

	for _, doc := range result.Documents {
		fmt.Printf("%s\t%s\t%d bytes\n", doc.Name, doc.Type, doc.SizeBytes)
	}
	fmt.Printf("\n%d documents\n", result.Count)
	return nil
}

func runDocsIndexed(api *APIClient, outputJSON bool) error {
	resp, err := api.Get("/documents/indexed")
	if err != nil {
		return err
	}

	var result IndexedListResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if result.Count == 0 {
		fmt.Println("No sources indexed")
		return nil
	}

	for _, src := range result.Sources {
		fmt.Printf("%s\t%s\t%d fragments\n", src.FileName, src.Type, src.Fragments)
	}
	fmt.Printf("\n%d sources\n", result.Count)
	return nil
}
