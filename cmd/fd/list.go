package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fleetdeck/fleetdeck/internal/client"
	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list <collection>",
	Short:   "List documents in a collection",
	GroupID: "cases",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection := args[0]
		if !model.KnownCollection(collection) {
			return fmt.Errorf("unknown collection %q (one of: %s)", collection, strings.Join(model.Collections, ", "))
		}

		vehicle, _ := cmd.Flags().GetString("vehicle")
		caseID, _ := cmd.Flags().GetString("case")
		status, _ := cmd.Flags().GetString("status")
		severity, _ := cmd.Flags().GetString("severity")
		limit, _ := cmd.Flags().GetInt("limit")

		resp, err := fleetClient.ListDocuments(context.Background(), &client.ListDocumentsRequest{
			Collection: collection,
			VehicleID:  vehicle,
			CaseID:     caseID,
			Status:     status,
			Severity:   severity,
			Limit:      limit,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printDocumentsJSON(resp.Documents)
		} else {
			printDocumentsTable(resp.Documents, resp.Total)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringP("vehicle", "v", "", "filter by vehicle ID")
	listCmd.Flags().String("case", "", "filter by case ID")
	listCmd.Flags().StringP("status", "s", "", "filter by status")
	listCmd.Flags().String("severity", "", "filter by severity")
	listCmd.Flags().Int("limit", 20, "maximum number of documents to return")
}
