package ueba

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// captureDestination records flushed batches.
type captureDestination struct {
	mu      sync.Mutex
	batches [][]TrackedEvent
	err     error
}

func (d *captureDestination) Upload(ctx context.Context, batch []TrackedEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := make([]TrackedEvent, len(batch))
	copy(cp, batch)
	d.batches = append(d.batches, cp)
	return d.err
}

func (d *captureDestination) flushCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTracker_SessionIDStableForLifetime(t *testing.T) {
	tr := New(NewMemoryEventLog(), testLogger())
	defer tr.Close()

	first := tr.SessionID()
	tr.TrackPageView("user-1", "/dashboard")
	tr.TrackPageView("user-1", "/cases")
	if tr.SessionID() != first {
		t.Error("session ID changed during tracker lifetime")
	}

	other := New(NewMemoryEventLog(), testLogger())
	defer other.Close()
	if other.SessionID() == first {
		t.Error("two trackers share a session ID")
	}
}

func TestTracker_BufferFlushesAtCapacity(t *testing.T) {
	dest := &captureDestination{}
	tr := New(NewMemoryEventLog(), testLogger(), WithDestination(dest))
	defer tr.Close()

	for i := 0; i < bufferCapacity; i++ {
		tr.TrackPageView("user-1", fmt.Sprintf("/page/%d", i))
	}
	if got := dest.flushCount(); got != 1 {
		t.Fatalf("flushes after %d events = %d, want 1", bufferCapacity, got)
	}
	if got := tr.BufferedCount(); got != 0 {
		t.Errorf("buffered after flush = %d, want 0", got)
	}

	// The eleventh event starts a fresh buffer.
	tr.TrackPageView("user-1", "/page/10")
	if got := tr.BufferedCount(); got != 1 {
		t.Errorf("buffered = %d, want 1", got)
	}
	if got := dest.flushCount(); got != 1 {
		t.Errorf("flushes = %d, want still 1", got)
	}
}

func TestTracker_FlushFailureDoesNotPropagate(t *testing.T) {
	dest := &captureDestination{err: fmt.Errorf("bucket unreachable")}
	log := NewMemoryEventLog()
	tr := New(log, testLogger(), WithDestination(dest))
	defer tr.Close()

	for i := 0; i < bufferCapacity; i++ {
		tr.TrackPageView("user-1", "/page")
	}

	// The persistent log is unaffected by the failed upload.
	stored, err := log.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(stored) != bufferCapacity {
		t.Errorf("persisted events = %d, want %d", len(stored), bufferCapacity)
	}
}

func TestTracker_LogCappedAtMostRecent100(t *testing.T) {
	log := NewMemoryEventLog()
	tr := New(log, testLogger())
	defer tr.Close()

	for i := 0; i < 105; i++ {
		tr.TrackPageView("user-1", fmt.Sprintf("/page/%d", i))
	}

	stored, err := log.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(stored) != logCapacity {
		t.Fatalf("persisted events = %d, want %d", len(stored), logCapacity)
	}
	// Oldest evicted first: the first surviving event is number 5.
	if got := stored[0].Metadata["page"]; got != "/page/5" {
		t.Errorf("oldest surviving event page = %v, want /page/5", got)
	}
	if got := stored[len(stored)-1].Metadata["page"]; got != "/page/104" {
		t.Errorf("newest event page = %v, want /page/104", got)
	}
}

func TestTrackLogin_OddHoursScoresTwentyWithoutEscalation(t *testing.T) {
	log := NewMemoryEventLog()
	at := time.Date(2025, 6, 1, 3, 0, 0, 0, time.Local)
	tr := New(log, testLogger(), WithClock(fixedClock(at)))
	defer tr.Close()

	evt := tr.TrackLogin("user-1", nil)
	if evt.RiskScore != 20 {
		t.Errorf("login risk score at 03:00 = %d, want 20", evt.RiskScore)
	}

	stored, _ := log.Load()
	for _, e := range stored {
		if e.EventType == EventAnomalyDetected {
			t.Error("login at score 20 escalated to anomaly_detected")
		}
	}
}

func TestTrackLogin_HighScoreEscalates(t *testing.T) {
	log := NewMemoryEventLog()
	forced := []Rule[Login]{{
		Name:   "forced",
		Weight: 85,
		Match:  func(Login) bool { return true },
	}}
	tr := New(log, testLogger(), WithLoginRules(forced))
	defer tr.Close()

	evt := tr.TrackLogin("user-1", nil)
	if evt.RiskScore != 85 {
		t.Fatalf("login risk score = %d, want 85", evt.RiskScore)
	}

	stored, _ := log.Load()
	var anomaly *TrackedEvent
	for i := range stored {
		if stored[i].EventType == EventAnomalyDetected {
			anomaly = &stored[i]
		}
	}
	if anomaly == nil {
		t.Fatal("no companion anomaly_detected event emitted")
	}
	if anomaly.RiskScore != 85 {
		t.Errorf("anomaly risk score = %d, want 85", anomaly.RiskScore)
	}
	if anomaly.EntityType != EntitySystem {
		t.Errorf("anomaly entity type = %q, want system", anomaly.EntityType)
	}
	if desc, _ := anomaly.Metadata["description"].(string); desc == "" {
		t.Error("anomaly event carries no description")
	}
}

func TestTrackLogin_ExactThresholdDoesNotEscalate(t *testing.T) {
	log := NewMemoryEventLog()
	forced := []Rule[Login]{{Name: "forced", Weight: escalationThreshold, Match: func(Login) bool { return true }}}
	tr := New(log, testLogger(), WithLoginRules(forced))
	defer tr.Close()

	tr.TrackLogin("user-1", nil)
	stored, _ := log.Load()
	if len(stored) != 1 {
		t.Errorf("events persisted = %d, want 1 (no escalation at exactly %d)", len(stored), escalationThreshold)
	}
}

func TestGetAnalyticsSummary(t *testing.T) {
	log := NewMemoryEventLog()
	tr := New(log, testLogger())
	defer tr.Close()

	tr.TrackChatInteraction("user-1", "URGENT HELP", 6*time.Second, nil)                    // high risk
	tr.TrackChatInteraction("user-1", "when is my next service", 200*time.Millisecond, nil) // zero risk
	forced := []Rule[Login]{{Name: "forced", Weight: 85, Match: func(Login) bool { return true }}}
	tr.loginRules = forced
	tr.TrackLogin("user-2", nil) // 85 + companion anomaly at 85

	s := tr.GetAnalyticsSummary()
	if s.ChatInteractions != 2 {
		t.Errorf("ChatInteractions = %d, want 2", s.ChatInteractions)
	}
	if s.Anomalies != 1 {
		t.Errorf("Anomalies = %d, want 1", s.Anomalies)
	}
	if s.Logins != 1 {
		t.Errorf("Logins = %d, want 1", s.Logins)
	}
	if s.TotalEvents != 4 {
		t.Errorf("TotalEvents = %d, want 4", s.TotalEvents)
	}
	if s.HighRiskEvents != 3 {
		t.Errorf("HighRiskEvents = %d, want 3", s.HighRiskEvents)
	}
	if s.AverageRiskScore <= 0 {
		t.Errorf("AverageRiskScore = %v, want > 0", s.AverageRiskScore)
	}
}

func TestGetAnalyticsSummary_Idempotent(t *testing.T) {
	tr := New(NewMemoryEventLog(), testLogger())
	defer tr.Close()

	tr.TrackChatInteraction("user-1", "hello there", 50*time.Millisecond, nil)
	tr.TrackLogin("user-1", nil)

	first := tr.GetAnalyticsSummary()
	second := tr.GetAnalyticsSummary()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("summaries differ with no intervening events: %+v vs %+v", first, second)
	}
}

func TestGetAnalyticsSummary_EmptyLog(t *testing.T) {
	tr := New(NewMemoryEventLog(), testLogger())
	defer tr.Close()

	s := tr.GetAnalyticsSummary()
	if s.TotalEvents != 0 || s.AverageRiskScore != 0 {
		t.Errorf("empty summary = %+v, want zeros", s)
	}
}

func TestTracker_CloseFlushesRemainder(t *testing.T) {
	dest := &captureDestination{}
	tr := New(NewMemoryEventLog(), testLogger(), WithDestination(dest))

	tr.TrackPageView("user-1", "/dashboard")
	tr.TrackPageView("user-1", "/cases")
	tr.Close()

	if got := dest.flushCount(); got != 1 {
		t.Fatalf("flushes after Close = %d, want 1", got)
	}
	if got := len(dest.batches[0]); got != 2 {
		t.Errorf("final batch size = %d, want 2", got)
	}
}
