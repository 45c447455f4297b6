package ueba

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func TestFileEventLog_AppendLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	log := NewFileEventLog(path)

	evt := TrackedEvent{
		UserID:     "user-1",
		SessionID:  "sess-abc",
		Timestamp:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EventType:  EventChatInteraction,
		EntityType: EntityChatbot,
		Metadata:   map[string]any{"channel": "dashboard"},
		RiskScore:  30,
	}
	if err := log.Append(evt); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	// A fresh handle reads what the first one wrote.
	stored, err := NewFileEventLog(path).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("loaded %d events, want 1", len(stored))
	}
	got := stored[0]
	if got.UserID != evt.UserID || got.EventType != evt.EventType || got.RiskScore != evt.RiskScore {
		t.Errorf("loaded event = %+v, want %+v", got, evt)
	}
	if !got.Timestamp.Equal(evt.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, evt.Timestamp)
	}
}

func TestFileEventLog_MissingFileIsEmpty(t *testing.T) {
	log := NewFileEventLog(filepath.Join(t.TempDir(), "absent.json"))
	stored, err := log.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("loaded %d events from missing file, want 0", len(stored))
	}
}

func TestFileEventLog_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "events.json")
	log := NewFileEventLog(path)
	if err := log.Append(TrackedEvent{UserID: "user-1", EventType: EventPageView}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	stored, err := log.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("loaded %d events, want 1", len(stored))
	}
}

func TestFileEventLog_EvictsOldest(t *testing.T) {
	log := NewFileEventLog(filepath.Join(t.TempDir(), "events.json"))
	for i := 0; i < logCapacity+5; i++ {
		evt := TrackedEvent{
			UserID:    "user-1",
			EventType: EventPageView,
			Metadata:  map[string]any{"page": fmt.Sprintf("/page/%d", i)},
		}
		if err := log.Append(evt); err != nil {
			t.Fatalf("Append %d error: %v", i, err)
		}
	}

	stored, err := log.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(stored) != logCapacity {
		t.Fatalf("loaded %d events, want %d", len(stored), logCapacity)
	}
	if got := stored[0].Metadata["page"]; got != "/page/5" {
		t.Errorf("oldest surviving page = %v, want /page/5", got)
	}
}

func TestMemoryEventLog_EvictsOldest(t *testing.T) {
	log := NewMemoryEventLog()
	for i := 0; i < logCapacity+3; i++ {
		if err := log.Append(TrackedEvent{RiskScore: i}); err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}
	stored, err := log.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(stored) != logCapacity {
		t.Fatalf("len = %d, want %d", len(stored), logCapacity)
	}
	if stored[0].RiskScore != 3 {
		t.Errorf("oldest surviving score = %d, want 3", stored[0].RiskScore)
	}
}

func TestMemoryEventLog_LoadReturnsCopy(t *testing.T) {
	log := NewMemoryEventLog()
	log.Append(TrackedEvent{UserID: "user-1"})

	stored, _ := log.Load()
	stored[0].UserID = "mutated"

	again, _ := log.Load()
	if again[0].UserID != "user-1" {
		t.Error("Load exposes internal slice")
	}
}
