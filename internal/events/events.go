package events

import (
	"context"

	"github.com/fleetdeck/fleetdeck/internal/model"
)

// Change feed topic constants. One topic per collection plus a topic for
// tracked behavioral events.
const (
	topicPrefix = "fleet."

	TopicUEBATracked = "fleet.ueba.tracked"
)

// ChangeTopic returns the change feed topic for a collection, e.g.
// "fleet.anomaly_cases.changed".
func ChangeTopic(collection string) string {
	return topicPrefix + collection + ".changed"
}

// Change kinds carried by DocumentChanged.
const (
	ChangeInserted      = "inserted"
	ChangeStatusUpdated = "status_updated"
	ChangeDeleted       = "deleted"
)

// DocumentChanged is published on every successful store mutation. Feed
// subscribers use it as a re-query trigger, so the payload carries only the
// envelope, not a full snapshot.
type DocumentChanged struct {
	Collection string          `json:"collection"`
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Document   *model.Document `json:"document,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
