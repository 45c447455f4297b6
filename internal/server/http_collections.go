package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/events"
	"github.com/fleetdeck/fleetdeck/internal/idgen"
	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/fleetdeck/fleetdeck/internal/store"
)

// defaultListLimit applies when a list request carries no limit parameter.
const defaultListLimit = 50

// filterFields are the query parameters accepted as equality filters on list
// requests, in canonical order.
var filterFields = []string{"vehicle_id", "case_id", "status", "severity", "component"}

// handleListCollection handles GET /v1/collections/{collection}.
func (s *CaseServer) handleListCollection(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	if !model.KnownCollection(collection) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", collection))
		return
	}

	q := model.Query{Collection: collection, Limit: defaultListLimit}
	params := r.URL.Query()
	for _, field := range filterFields {
		if v := params.Get(field); v != "" {
			q.Filters = append(q.Filters, model.Filter{Field: field, Value: v})
		}
	}
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		q.Limit = n
	}

	docs := s.feed.FetchOnce(r.Context(), q)
	if docs == nil {
		docs = []*model.Document{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     len(docs),
	})
}

// handleGetDocument handles GET /v1/collections/{collection}/{id}.
func (s *CaseServer) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	id := r.PathValue("id")
	if !model.KnownCollection(collection) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", collection))
		return
	}

	doc, err := s.store.Get(r.Context(), collection, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument handles DELETE /v1/collections/{collection}/{id}.
func (s *CaseServer) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	id := r.PathValue("id")
	if !model.KnownCollection(collection) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", collection))
		return
	}

	if err := s.store.Delete(r.Context(), collection, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	s.recordAndPublish(r.Context(), collection, id, events.ChangeDeleted, events.DocumentChanged{
		Collection: collection,
		ID:         id,
		Kind:       events.ChangeDeleted,
	})

	w.WriteHeader(http.StatusNoContent)
}

// handleIngestTelemetry handles POST /v1/telemetry. The body is the raw
// telemetry payload; the envelope is extracted at the store boundary.
func (s *CaseServer) handleIngestTelemetry(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ingestDocument(r, model.CollectionTelemetryEvents, func(fields map[string]any) error {
		if v, _ := fields["vehicle_id"].(string); v == "" {
			return inputError("vehicle_id is required")
		}
		if v, _ := fields["signal"].(string); v == "" {
			return inputError("signal is required")
		}
		return nil
	})
	if err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// handleSubmitFeedback handles POST /v1/feedback.
func (s *CaseServer) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ingestDocument(r, model.CollectionFeedbackCases, func(fields map[string]any) error {
		if v, _ := fields["case_id"].(string); v == "" {
			return inputError("case_id is required")
		}
		if _, ok := fields["status"]; !ok {
			fields["status"] = "submitted"
		}
		return nil
	})
	if err != nil {
		writeInputError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// ingestDocument decodes the request body into a collection document, runs
// the collection-specific validation, persists it, and emits the change
// event. validate may mutate the payload fields to apply defaults.
func (s *CaseServer) ingestDocument(r *http.Request, collection string, validate func(map[string]any) error) (*model.Document, error) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, inputError("invalid JSON body")
	}
	if err := validate(fields); err != nil {
		return nil, err
	}
	if _, ok := fields["timestamp"]; !ok {
		if _, ok := fields["created_at"]; !ok {
			fields["created_at"] = time.Now().UTC().Format(time.RFC3339Nano)
		}
	}

	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	doc, err := model.DecodeDocument(collection, id, payload)
	if err != nil {
		return nil, inputError(err.Error())
	}

	if err := s.store.Insert(r.Context(), doc); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	s.recordAndPublish(r.Context(), collection, id, events.ChangeInserted, events.DocumentChanged{
		Collection: collection,
		ID:         id,
		Kind:       events.ChangeInserted,
		Document:   doc,
	})
	return doc, nil
}

// reviewInput is the body of POST /v1/cases/{collection}/{id}/review.
type reviewInput struct {
	Status   string `json:"status"`
	Reviewer string `json:"reviewer,omitempty"`
}

// handleReviewCase handles POST /v1/cases/{collection}/{id}/review: a human
// reviewer moves a case to a new status.
func (s *CaseServer) handleReviewCase(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	id := r.PathValue("id")
	if !model.KnownCollection(collection) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", collection))
		return
	}

	var in reviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.Status == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	doc, err := s.store.SetStatus(r.Context(), collection, id, in.Status)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	s.recordAndPublish(r.Context(), collection, id, events.ChangeStatusUpdated, events.DocumentChanged{
		Collection: collection,
		ID:         id,
		Kind:       events.ChangeStatusUpdated,
		Document:   doc,
	})

	writeJSON(w, http.StatusOK, doc)
}

// writeInputError maps an ingestion error to an HTTP response.
func writeInputError(w http.ResponseWriter, err error) {
	var ie inputError
	if errors.As(err, &ie) {
		writeError(w, http.StatusBadRequest, ie.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
