package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/ueba"
)

// trackEventInput is the body of POST /v1/ueba/events.
type trackEventInput struct {
	EventType      string         `json:"event_type"`
	UserID         string         `json:"user_id"`
	Message        string         `json:"message,omitempty"`
	ResponseTimeMS int64          `json:"response_time_ms,omitempty"`
	Page           string         `json:"page,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// handleTrackEvent handles POST /v1/ueba/events.
func (s *CaseServer) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "behavioral tracking is not enabled")
		return
	}

	var in trackEventInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if in.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var evt ueba.TrackedEvent
	switch in.EventType {
	case ueba.EventChatInteraction:
		evt = s.tracker.TrackChatInteraction(in.UserID, in.Message, time.Duration(in.ResponseTimeMS)*time.Millisecond, in.Metadata)
	case ueba.EventUserLogin:
		evt = s.tracker.TrackLogin(in.UserID, in.Metadata)
	case ueba.EventUserLogout:
		evt = s.tracker.TrackLogout(in.UserID)
	case ueba.EventPageView:
		evt = s.tracker.TrackPageView(in.UserID, in.Page)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event_type %q", in.EventType))
		return
	}

	writeJSON(w, http.StatusAccepted, evt)
}

// handleUEBASummary handles GET /v1/ueba/summary.
func (s *CaseServer) handleUEBASummary(w http.ResponseWriter, _ *http.Request) {
	if s.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "behavioral tracking is not enabled")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.GetAnalyticsSummary())
}
