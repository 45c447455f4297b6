package model

import "encoding/json"

// Severity levels used by anomaly and diagnosis cases.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Case statuses shared across the case collections.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusDismissed  = "dismissed"
)

// AnomalyCase is a detected vehicle anomaly awaiting triage.
type AnomalyCase struct {
	ID         string  `json:"id"`
	VehicleID  string  `json:"vehicle_id"`
	Component  string  `json:"component,omitempty"`
	Severity   string  `json:"severity"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary,omitempty"`
	DetectedAt Instant `json:"detected_at"`
}

// DiagnosisCase is a proposed diagnosis for an anomaly case.
type DiagnosisCase struct {
	ID         string  `json:"id"`
	CaseID     string  `json:"case_id"`
	VehicleID  string  `json:"vehicle_id"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Finding    string  `json:"finding,omitempty"`
	CreatedAt  Instant `json:"created_at"`
}

// RCACase is a root-cause analysis attached to a diagnosis.
type RCACase struct {
	ID        string  `json:"id"`
	CaseID    string  `json:"case_id"`
	VehicleID string  `json:"vehicle_id,omitempty"`
	Status    string  `json:"status"`
	RootCause string  `json:"root_cause,omitempty"`
	CreatedAt Instant `json:"created_at"`
}

// SchedulingCase is a service-center appointment proposal.
type SchedulingCase struct {
	ID          string  `json:"id"`
	CaseID      string  `json:"case_id"`
	VehicleID   string  `json:"vehicle_id"`
	Status      string  `json:"status"`
	ServiceSlot string  `json:"service_slot,omitempty"`
	CreatedAt   Instant `json:"created_at"`
}

// EngagementCase tracks customer outreach for a case.
type EngagementCase struct {
	ID        string  `json:"id"`
	CaseID    string  `json:"case_id"`
	VehicleID string  `json:"vehicle_id,omitempty"`
	Channel   string  `json:"channel,omitempty"`
	Status    string  `json:"status"`
	CreatedAt Instant `json:"created_at"`
}

// FeedbackCase is customer feedback tied to a completed case.
type FeedbackCase struct {
	ID        string  `json:"id"`
	CaseID    string  `json:"case_id"`
	VehicleID string  `json:"vehicle_id,omitempty"`
	Rating    int     `json:"rating,omitempty"`
	Comment   string  `json:"comment,omitempty"`
	Status    string  `json:"status"`
	CreatedAt Instant `json:"created_at"`
}

// ManufacturingCase is a fleet-wide defect report surfaced to the
// manufacturer persona.
type ManufacturingCase struct {
	ID            string  `json:"id"`
	Component     string  `json:"component"`
	Status        string  `json:"status"`
	AffectedCount int     `json:"affected_count,omitempty"`
	Severity      string  `json:"severity,omitempty"`
	CreatedAt     Instant `json:"created_at"`
}

// TelemetryEvent is a raw signal reading ingested from a vehicle.
type TelemetryEvent struct {
	ID        string         `json:"id"`
	VehicleID string         `json:"vehicle_id"`
	Signal    string         `json:"signal"`
	Value     float64        `json:"value"`
	Labels    map[string]any `json:"labels,omitempty"`
	Timestamp Instant        `json:"timestamp"`
}

// AnomalyCaseFromDocument decodes a document payload into a typed case.
// Timestamps in either accepted shape come out as a uniform Instant; a
// payload without one falls back to the envelope instant.
func AnomalyCaseFromDocument(doc *Document) (*AnomalyCase, error) {
	var c AnomalyCase
	if err := json.Unmarshal(doc.Data, &c); err != nil {
		return nil, err
	}
	c.ID = doc.ID
	if c.DetectedAt.IsZero() {
		c.DetectedAt = Instant{doc.CreatedAt}
	}
	return &c, nil
}

// TelemetryEventFromDocument decodes a document payload into a typed
// telemetry event.
func TelemetryEventFromDocument(doc *Document) (*TelemetryEvent, error) {
	var e TelemetryEvent
	if err := json.Unmarshal(doc.Data, &e); err != nil {
		return nil, err
	}
	e.ID = doc.ID
	if e.Timestamp.IsZero() {
		e.Timestamp = Instant{doc.CreatedAt}
	}
	return &e, nil
}
