package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:     "review <collection> <id>",
	Short:   "Move a case to a new status after human review",
	GroupID: "cases",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		reviewer, _ := cmd.Flags().GetString("reviewer")
		if status == "" {
			return fmt.Errorf("--status is required")
		}

		doc, err := fleetClient.ReviewCase(context.Background(), args[0], args[1], status, reviewer)
		if err != nil {
			return err
		}
		printDocument(doc)
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringP("status", "s", "", "new status (required)")
	reviewCmd.Flags().String("reviewer", "", "reviewer name")
}
