// Package client provides a typed HTTP client for the fleetdeck REST API,
// used by the CLI.
package client

import (
	"context"

	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/fleetdeck/fleetdeck/internal/ueba"
)

// FleetClient is the interface the CLI programs against.
type FleetClient interface {
	ListDocuments(ctx context.Context, req *ListDocumentsRequest) (*ListDocumentsResponse, error)
	GetDocument(ctx context.Context, collection, id string) (*model.Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	IngestTelemetry(ctx context.Context, payload map[string]any) (*model.Document, error)
	SubmitFeedback(ctx context.Context, payload map[string]any) (*model.Document, error)
	ReviewCase(ctx context.Context, collection, id, status, reviewer string) (*model.Document, error)
	TrackEvent(ctx context.Context, req *TrackEventRequest) (*ueba.TrackedEvent, error)
	GetSummary(ctx context.Context) (*ueba.Summary, error)
	Health(ctx context.Context) (string, error)
	Close() error
}

// ListDocumentsRequest carries the list query parameters.
type ListDocumentsRequest struct {
	Collection string
	VehicleID  string
	CaseID     string
	Status     string
	Severity   string
	Component  string
	Limit      int
}

// ListDocumentsResponse is the list endpoint payload.
type ListDocumentsResponse struct {
	Documents []*model.Document `json:"documents"`
	Total     int               `json:"total"`
}

// TrackEventRequest is the body of the behavioral tracking endpoint.
type TrackEventRequest struct {
	EventType      string         `json:"event_type"`
	UserID         string         `json:"user_id"`
	Message        string         `json:"message,omitempty"`
	ResponseTimeMS int64          `json:"response_time_ms,omitempty"`
	Page           string         `json:"page,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}
