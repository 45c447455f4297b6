// Command fd is the fleetdeck CLI: it talks to the fleetdeck server over
// HTTP/JSON and to NATS for live watches.
package main

import (
	"fmt"
	"os"

	"github.com/fleetdeck/fleetdeck/internal/client"
	"github.com/fleetdeck/fleetdeck/internal/ui"
	"github.com/spf13/cobra"
)

var (
	serverURL  string
	authToken  string
	jsonOutput bool
	noColor    bool

	fleetClient client.FleetClient
)

func defaultServerURL() string {
	if s := os.Getenv("FLEETDECK_SERVER"); s != "" {
		return s
	}
	if cfg := activeClientConfig(); cfg.Server != "" {
		return cfg.Server
	}
	return "http://localhost:8080"
}

func defaultAuthToken() string {
	if s := os.Getenv("FLEETDECK_TOKEN"); s != "" {
		return s
	}
	return activeClientConfig().Token
}

var rootCmd = &cobra.Command{
	Use:   "fd <command>",
	Short: "CLI client for the fleetdeck maintenance service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor || !ui.ShouldUseColor() {
			ui.ForceNoColor()
		}
		fleetClient = client.NewHTTPClient(serverURL, authToken)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if fleetClient != nil {
			fleetClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServerURL(), "server URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", defaultAuthToken(), "bearer token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "cases", Title: "Cases:"},
		&cobra.Group{ID: "tracking", Title: "Tracking:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false

	// Cases
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(feedbackCmd)

	// Tracking
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(summaryCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
