package client

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// PlanRequest represents the plan API request.
type PlanRequest struct {
	Topic     string `json:"topic"`
	StartDate string `json:"start_date,omitempty"`
	Email     string `json:"email,omitempty"`
}

// PlanSession represents one spaced-repetition session of a plan.
type PlanSession struct {
	Kind        string `json:"kind"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

// PlanResponse represents the plan API response.
type PlanResponse struct {
	Topic        string        `json:"topic"`
	StartDate    string        `json:"start_date"`
	Origin       string        `json:"origin"`
	OriginDetail string        `json:"origin_detail,omitempty"`
	Sources      []AskSource   `json:"sources"`
	Sessions     []PlanSession `json:"sessions"`
}

// PlanCmd creates the plan command.
func PlanCmd() *cobra.Command {
	var (
		startDate string
		email     string
	)

	cmd := &cobra.Command{
		Use:   "plan <topic>",
		Short: "Create a spaced-repetition study plan",
		Long: `Creates a study plan with review sessions at D+1, D+7, D+14, and D+30.
Sessions are grounded on the indexed material when it covers the topic.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runPlan(api, args[0], startDate, email, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&startDate, "start", "s", "", "Start date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email to notify via the configured webhook")

	return cmd
}

func runPlan(api *APIClient, topic, startDate, email string, outputJSON bool) error {
	resp, err := api.Post("/plans", PlanRequest{
		Topic:     topic,
		StartDate: startDate,
		Email:     email,
	})
	if err != nil {
		return err
	}

	var result PlanResponse
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return fmt.Errorf("failed to parse plan: %w", err)
	}

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("Study plan: %s (starting %s)\n", result.Topic, result.StartDate)
	if result.OriginDetail != "" {
		fmt.Printf("[%s] %s\n", result.Origin, result.OriginDetail)
	}
	for _, session := range result.Sessions {
		fmt.Printf("\n%s (%s)\n%s\n", session.Kind, session.Date, session.Description)
	}

	return nil
}
