package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/client"
	"github.com/fleetdeck/fleetdeck/internal/ueba"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:     "track",
	Short:   "Record behavioral events",
	GroupID: "tracking",
}

var trackLoginCmd = &cobra.Command{
	Use:   "login <user-id>",
	Short: "Record a login event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		local, _ := cmd.Flags().GetBool("local")
		if local {
			tracker := newLocalTracker()
			defer tracker.Close()
			evt := tracker.TrackLogin(args[0], nil)
			return printTrackedEvent(evt)
		}

		evt, err := fleetClient.TrackEvent(context.Background(), &client.TrackEventRequest{
			EventType: ueba.EventUserLogin,
			UserID:    args[0],
		})
		if err != nil {
			return err
		}
		return printTrackedEvent(*evt)
	},
}

var trackChatCmd = &cobra.Command{
	Use:   "chat <user-id> <message>",
	Short: "Record a chatbot interaction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		responseMS, _ := cmd.Flags().GetInt64("response-ms")
		local, _ := cmd.Flags().GetBool("local")
		if local {
			tracker := newLocalTracker()
			defer tracker.Close()
			evt := tracker.TrackChatInteraction(args[0], args[1], time.Duration(responseMS)*time.Millisecond, nil)
			return printTrackedEvent(evt)
		}

		evt, err := fleetClient.TrackEvent(context.Background(), &client.TrackEventRequest{
			EventType:      ueba.EventChatInteraction,
			UserID:         args[0],
			Message:        args[1],
			ResponseTimeMS: responseMS,
		})
		if err != nil {
			return err
		}
		return printTrackedEvent(*evt)
	},
}

// newLocalTracker builds an in-process tracker persisting to the default log
// file, for scoring events without a server.
func newLocalTracker() *ueba.Tracker {
	path := os.Getenv("FLEETDECK_UEBA_LOG")
	if path == "" {
		path = "fleetdeck-events.json"
	}
	return ueba.New(ueba.NewFileEventLog(path), nil)
}

func printTrackedEvent(evt ueba.TrackedEvent) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(evt)
	}
	fmt.Printf("%s  user=%s  risk=%d\n", evt.EventType, evt.UserID, evt.RiskScore)
	return nil
}

var summaryCmd = &cobra.Command{
	Use:     "summary",
	Short:   "Show the behavioral analytics rollup",
	GroupID: "tracking",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := fleetClient.GetSummary(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		}
		fmt.Printf("Total events:       %d\n", s.TotalEvents)
		fmt.Printf("Chat interactions:  %d\n", s.ChatInteractions)
		fmt.Printf("Logins:             %d\n", s.Logins)
		fmt.Printf("Anomalies:          %d\n", s.Anomalies)
		fmt.Printf("High risk events:   %d\n", s.HighRiskEvents)
		fmt.Printf("Average risk score: %.1f\n", s.AverageRiskScore)
		return nil
	},
}

func init() {
	trackLoginCmd.Flags().Bool("local", false, "score locally without a server")
	trackChatCmd.Flags().Int64("response-ms", 0, "chatbot response time in milliseconds")
	trackChatCmd.Flags().Bool("local", false, "score locally without a server")
	trackCmd.AddCommand(trackLoginCmd)
	trackCmd.AddCommand(trackChatCmd)
}
