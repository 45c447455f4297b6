package feed

import (
	"context"

	"github.com/fleetdeck/fleetdeck/internal/model"
)

// Typed accessors for the dashboard views. Each is FetchOnce plus a decode
// to the collection's record type; documents that fail the typed decode are
// skipped.

// ListAnomalyCases returns the newest anomaly cases, optionally filtered by
// vehicle and status.
func (s *Service) ListAnomalyCases(ctx context.Context, vehicleID, status string, limit int) []*model.AnomalyCase {
	q := model.Query{Collection: model.CollectionAnomalyCases, Limit: limit}
	if vehicleID != "" {
		q.Filters = append(q.Filters, model.Filter{Field: "vehicle_id", Value: vehicleID})
	}
	if status != "" {
		q.Filters = append(q.Filters, model.Filter{Field: "status", Value: status})
	}

	var cases []*model.AnomalyCase
	for _, doc := range s.FetchOnce(ctx, q) {
		c, err := model.AnomalyCaseFromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping undecodable anomaly case", "id", doc.ID, "error", err)
			continue
		}
		cases = append(cases, c)
	}
	return cases
}

// ListTelemetryEvents returns the newest telemetry events for a vehicle.
func (s *Service) ListTelemetryEvents(ctx context.Context, vehicleID string, limit int) []*model.TelemetryEvent {
	q := model.Query{Collection: model.CollectionTelemetryEvents, Limit: limit}
	if vehicleID != "" {
		q.Filters = append(q.Filters, model.Filter{Field: "vehicle_id", Value: vehicleID})
	}

	var out []*model.TelemetryEvent
	for _, doc := range s.FetchOnce(ctx, q) {
		e, err := model.TelemetryEventFromDocument(doc)
		if err != nil {
			s.logger.Warn("skipping undecodable telemetry event", "id", doc.ID, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out
}

// ListCaseDocuments returns the newest documents of any case collection
// linked to the given case ID.
func (s *Service) ListCaseDocuments(ctx context.Context, collection, caseID string, limit int) []*model.Document {
	q := model.Query{Collection: collection, Limit: limit}
	if caseID != "" {
		q.Filters = append(q.Filters, model.Filter{Field: "case_id", Value: caseID})
	}
	return s.FetchOnce(ctx, q)
}
