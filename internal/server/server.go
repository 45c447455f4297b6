// Package server exposes the case collections, the change feed stream, and
// the behavioral tracker over HTTP/JSON and SSE.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/fleetdeck/fleetdeck/internal/events"
	"github.com/fleetdeck/fleetdeck/internal/feed"
	"github.com/fleetdeck/fleetdeck/internal/store"
	"github.com/fleetdeck/fleetdeck/internal/ueba"
)

// CaseServer serves the maintenance case API.
type CaseServer struct {
	store     store.Store
	feed      *feed.Service
	publisher events.Publisher
	tracker   *ueba.Tracker
	sseHub    *sseHub
	logger    *slog.Logger
}

// NewCaseServer returns a CaseServer backed by the given store and publisher.
// List queries go through the feed service so results come back newest-first.
// The tracker may be nil; UEBA endpoints then return 503.
func NewCaseServer(s store.Store, f *feed.Service, p events.Publisher, tr *ueba.Tracker, logger *slog.Logger) *CaseServer {
	if logger == nil {
		logger = slog.Default()
	}
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if f == nil {
		f = feed.New(s, nil, logger)
	}
	return &CaseServer{
		store:     s,
		feed:      f,
		publisher: p,
		tracker:   tr,
		sseHub:    newSSEHub(),
		logger:    logger,
	}
}

// recordAndPublish emits a change event to NATS and to connected SSE clients.
// Both operations are best-effort; failures are logged but do not block the
// caller, and the store mutation that preceded them stands.
func (s *CaseServer) recordAndPublish(ctx context.Context, collection, id, kind string, event events.DocumentChanged) {
	topic := events.ChangeTopic(collection)
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish change event",
			"topic", topic, "id", id, "kind", kind, "error", err)
	}
	s.broadcastEvent(topic, event)
}

// broadcastEvent fans an event out to connected SSE clients.
func (s *CaseServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}

// inputError indicates invalid user input. The HTTP layer maps it to 400.
type inputError string

func (e inputError) Error() string { return string(e) }
