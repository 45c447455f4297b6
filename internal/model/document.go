package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document is a single schema-less record from the document store. The raw
// payload is kept verbatim in Data; the fields every collection shares are
// extracted and normalized by Decode so the rest of the system never has to
// deal with duck-typed payloads.
type Document struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection"`
	VehicleID  string          `json:"vehicle_id,omitempty"`
	CaseID     string          `json:"case_id,omitempty"`
	Status     string          `json:"status,omitempty"`
	Severity   string          `json:"severity,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	Data       json.RawMessage `json:"data"`
}

// timestampFields are the payload keys that may carry the creation/detection
// instant, checked in order.
var timestampFields = []string{"created_at", "detected_at", "timestamp"}

// DecodeDocument validates a raw payload and extracts the shared envelope
// fields. Payloads that are not JSON objects are rejected. A missing or
// unparseable timestamp leaves CreatedAt at the zero time, which sorts as
// oldest everywhere instants are compared.
func DecodeDocument(collection, id string, data json.RawMessage) (*Document, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("document %s/%s: not a JSON object: %w", collection, id, err)
	}

	doc := &Document{
		ID:         id,
		Collection: collection,
		Data:       data,
	}
	doc.VehicleID, _ = fields["vehicle_id"].(string)
	doc.CaseID, _ = fields["case_id"].(string)
	doc.Status, _ = fields["status"].(string)
	doc.Severity, _ = fields["severity"].(string)
	if c, ok := fields["confidence"].(float64); ok {
		doc.Confidence = c
	} else if s, ok := fields["score"].(float64); ok {
		doc.Confidence = s
	}

	for _, key := range timestampFields {
		if v, ok := fields[key]; ok {
			if t, ok := NormalizeInstant(v); ok {
				doc.CreatedAt = t
				break
			}
		}
	}

	return doc, nil
}

// NormalizeInstant converts the two accepted timestamp shapes into a
// time.Time: an ISO-8601 / RFC 3339 string, or a store-native object of the
// form {"seconds": ..., "nanos": ...} (also accepted with a "nanoseconds"
// key). Returns false when the value has neither shape.
func NormalizeInstant(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case map[string]any:
		secs, ok := t["seconds"].(float64)
		if !ok {
			return time.Time{}, false
		}
		nanos, ok := t["nanos"].(float64)
		if !ok {
			nanos, _ = t["nanoseconds"].(float64)
		}
		return time.Unix(int64(secs), int64(nanos)).UTC(), true
	case time.Time:
		return t, true
	default:
		return time.Time{}, false
	}
}
