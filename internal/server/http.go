package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *CaseServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/collections/{collection}", s.handleListCollection)
	mux.HandleFunc("GET /v1/collections/{collection}/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /v1/collections/{collection}/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /v1/telemetry", s.handleIngestTelemetry)
	mux.HandleFunc("POST /v1/feedback", s.handleSubmitFeedback)
	mux.HandleFunc("POST /v1/cases/{collection}/{id}/review", s.handleReviewCase)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("POST /v1/ueba/events", s.handleTrackEvent)
	mux.HandleFunc("GET /v1/ueba/summary", s.handleUEBASummary)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *CaseServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
