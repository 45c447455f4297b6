package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/fleetdeck/fleetdeck/internal/ui"
)

// printDocumentsJSON writes documents as a JSON array to stdout.
func printDocumentsJSON(docs []*model.Document) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(docs)
}

// printDocumentsTable writes a column-aligned listing to stdout.
func printDocumentsTable(docs []*model.Document, total int) {
	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVEHICLE\tSTATUS\tSEVERITY\tCREATED")
	for _, d := range docs {
		created := ""
		if !d.CreatedAt.IsZero() {
			created = d.CreatedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			d.ID,
			d.VehicleID,
			ui.RenderStatus(d.Status),
			ui.RenderSeverity(d.Severity),
			ui.RenderMuted(created),
		)
	}
	w.Flush()
	fmt.Printf("\n%d document(s)\n", total)
}

// printDocument writes a single document to stdout.
func printDocument(doc *model.Document) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(doc)
		return
	}

	fmt.Printf("%s  %s\n", ui.RenderAccent(doc.ID), ui.RenderMuted(doc.Collection))
	if doc.VehicleID != "" {
		fmt.Printf("  vehicle:    %s\n", doc.VehicleID)
	}
	if doc.CaseID != "" {
		fmt.Printf("  case:       %s\n", doc.CaseID)
	}
	if doc.Status != "" {
		fmt.Printf("  status:     %s\n", ui.RenderStatus(doc.Status))
	}
	if doc.Severity != "" {
		fmt.Printf("  severity:   %s\n", ui.RenderSeverity(doc.Severity))
	}
	if doc.Confidence > 0 {
		fmt.Printf("  confidence: %.2f\n", doc.Confidence)
	}
	if !doc.CreatedAt.IsZero() {
		fmt.Printf("  created:    %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	var pretty map[string]any
	if err := json.Unmarshal(doc.Data, &pretty); err == nil {
		data, _ := json.MarshalIndent(pretty, "  ", "  ")
		fmt.Printf("  data:       %s\n", data)
	}
}
