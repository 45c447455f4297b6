package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/client"
	"github.com/fleetdeck/fleetdeck/internal/events"
	"github.com/fleetdeck/fleetdeck/internal/feed"
	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/fleetdeck/fleetdeck/internal/store"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch <collection>",
	Short:   "Watch a collection for changes",
	GroupID: "cases",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		collection := args[0]
		if !model.KnownCollection(collection) {
			return fmt.Errorf("unknown collection %q (one of: %s)", collection, strings.Join(model.Collections, ", "))
		}

		vehicle, _ := cmd.Flags().GetString("vehicle")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		interval, _ := cmd.Flags().GetDuration("interval")

		q := model.Query{Collection: collection, Limit: limit}
		if vehicle != "" {
			q.Filters = append(q.Filters, model.Filter{Field: "vehicle_id", Value: vehicle})
		}
		if status != "" {
			q.Filters = append(q.Filters, model.Filter{Field: "status", Value: status})
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if natsURL := activeNATSURL(); natsURL != "" {
			return watchLive(ctx, natsURL, q)
		}
		return watchPoll(ctx, interval, q)
	},
}

// watchLive rides a live feed subscription: the initial snapshot prints
// immediately, and every change event triggers a fresh snapshot.
func watchLive(ctx context.Context, natsURL string, q model.Query) error {
	sub, err := events.NewNATSSubscriber(natsURL)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	feedSvc := feed.New(&apiStore{c: fleetClient}, sub, logger)
	defer feedSvc.Close()

	errCh := make(chan error, 1)
	cancel := feedSvc.Subscribe(q,
		func(docs []*model.Document) {
			printSnapshot(docs)
		},
		func(err error) {
			select {
			case errCh <- err:
			default:
			}
		},
	)
	defer cancel()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("watch stream: %w", err)
	}
}

// watchPoll re-queries at the given interval when no NATS URL is configured.
func watchPoll(ctx context.Context, interval time.Duration, q model.Query) error {
	st := &apiStore{c: fleetClient}
	for {
		docs, err := st.List(ctx, q.Collection, q.Filters, q.Limit)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		printSnapshot(docs)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func printSnapshot(docs []*model.Document) {
	if jsonOutput {
		printDocumentsJSON(docs)
		return
	}
	fmt.Printf("--- %s ---\n", time.Now().Format("15:04:05"))
	printDocumentsTable(docs, len(docs))
}

func init() {
	watchCmd.Flags().StringP("vehicle", "v", "", "filter by vehicle ID")
	watchCmd.Flags().StringP("status", "s", "", "filter by status")
	watchCmd.Flags().Int("limit", 20, "maximum number of documents per snapshot")
	watchCmd.Flags().Duration("interval", 5*time.Second, "poll interval when NATS is not configured")
}

// apiStore adapts the HTTP client to the store interface so the feed service
// can run its queries against the server. It is read-only.
type apiStore struct {
	c client.FleetClient
}

func (s *apiStore) List(ctx context.Context, collection string, filters []model.Filter, limit int) ([]*model.Document, error) {
	req := &client.ListDocumentsRequest{Collection: collection, Limit: limit}
	for _, f := range filters {
		switch f.Field {
		case "vehicle_id":
			req.VehicleID = f.Value
		case "case_id":
			req.CaseID = f.Value
		case "status":
			req.Status = f.Value
		case "severity":
			req.Severity = f.Value
		case "component":
			req.Component = f.Value
		default:
			return nil, fmt.Errorf("unsupported filter field %q", f.Field)
		}
	}
	resp, err := s.c.ListDocuments(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (s *apiStore) Get(ctx context.Context, collection, id string) (*model.Document, error) {
	return s.c.GetDocument(ctx, collection, id)
}

func (s *apiStore) Insert(context.Context, *model.Document) error {
	return fmt.Errorf("apiStore is read-only")
}

func (s *apiStore) SetStatus(context.Context, string, string, string) (*model.Document, error) {
	return nil, fmt.Errorf("apiStore is read-only")
}

func (s *apiStore) Delete(context.Context, string, string) error {
	return fmt.Errorf("apiStore is read-only")
}

func (s *apiStore) RunInTransaction(context.Context, func(store.Store) error) error {
	return fmt.Errorf("apiStore is read-only")
}

func (s *apiStore) Close() error { return nil }
