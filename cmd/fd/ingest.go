package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:     "ingest <vehicle-id> <signal> <value>",
	Short:   "Ingest a telemetry reading",
	GroupID: "cases",
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("value must be numeric: %w", err)
		}

		payload := map[string]any{
			"vehicle_id": args[0],
			"signal":     args[1],
			"value":      value,
		}
		labelFlags, _ := cmd.Flags().GetStringArray("label")
		if len(labelFlags) > 0 {
			labels := make(map[string]any, len(labelFlags))
			for _, l := range labelFlags {
				k, v, ok := strings.Cut(l, "=")
				if !ok {
					return fmt.Errorf("invalid label %q (expected key=value)", l)
				}
				labels[k] = v
			}
			payload["labels"] = labels
		}

		doc, err := fleetClient.IngestTelemetry(context.Background(), payload)
		if err != nil {
			return err
		}
		printDocument(doc)
		return nil
	},
}

var feedbackCmd = &cobra.Command{
	Use:     "feedback <case-id>",
	Short:   "Submit feedback on a resolved case",
	GroupID: "cases",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, _ := cmd.Flags().GetInt("rating")
		comment, _ := cmd.Flags().GetString("comment")

		payload := map[string]any{"case_id": args[0]}
		if rating > 0 {
			payload["rating"] = rating
		}
		if comment != "" {
			payload["comment"] = comment
		}

		doc, err := fleetClient.SubmitFeedback(context.Background(), payload)
		if err != nil {
			return err
		}
		printDocument(doc)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringArrayP("label", "l", nil, "telemetry label (key=value, repeatable)")
	feedbackCmd.Flags().IntP("rating", "r", 0, "rating from 1 to 5")
	feedbackCmd.Flags().StringP("comment", "c", "", "free-form comment")
}
