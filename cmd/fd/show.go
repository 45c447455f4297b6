package main

import (
	"context"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show <collection> <id>",
	Short:   "Show a single document",
	GroupID: "cases",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := fleetClient.GetDocument(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		printDocument(doc)
		return nil
	},
}
