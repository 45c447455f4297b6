package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Instant is a point in time that unmarshals from either of the two shapes
// the store emits: an ISO-8601 string or a native {"seconds","nanos"} object.
// It always marshals back out as RFC 3339 UTC.
type Instant struct {
	time.Time
}

func (i Instant) MarshalJSON() ([]byte, error) {
	if i.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(i.UTC().Format(time.RFC3339Nano))
}

func (i *Instant) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		i.Time = time.Time{}
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	t, ok := NormalizeInstant(v)
	if !ok {
		return fmt.Errorf("unrecognized timestamp shape: %s", data)
	}
	i.Time = t
	return nil
}
