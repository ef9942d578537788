package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// AskRequest represents the query API request.
type AskRequest struct {
	Question string `json:"question"`
}

// AskSource represents one retrieved fragment backing an answer.
type AskSource struct {
	SourceID string  `json:"source_id"`
	FileName string  `json:"file_name"`
	Type     string  `json:"type"`
	Index    int     `json:"chunk_index"`
	Score    float64 `json:"score"`
	Text     string  `json:"text"`
}

// AskResponse represents the query API response.
type AskResponse struct {
	Question     string      `json:"question"`
	Answer       string      `json:"answer"`
	Origin       string      `json:"origin"`
	OriginDetail string      `json:"origin_detail,omitempty"`
	Sources      []AskSource `json:"sources"`
}

// AskCmd creates the ask command.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the indexed material",
		Long:  "Answers a question, grounding the reply on the indexed study material when it is relevant.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runAsk(api, args[0], outputJSON)
		},
	}

	return cmd
}

func runAsk(api *APIClient, question string, outputJSON bool) error {
	resp, err := api.Post("/query", AskRequest{Question: question})
	if err != nil {
		return err
	}

	var result AskResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse answer: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Println(result.Answer)
	fmt.Println()
	if result.OriginDetail != "" {
		fmt.Printf("[%s] %s\n", result.Origin, result.OriginDetail)
	} else {
		fmt.Printf("[%s]\n", result.Origin)
	}

	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range result.Sources {
			fmt.Printf("  - %s (chunk %d, score %.2f)\n", src.FileName, src.Index, src.Score)
		}
	}

	return nil
}
