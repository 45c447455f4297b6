// Package ueba implements the behavioral event tracker: interaction and
// login events are scored with heuristic rules, buffered for batch upload,
// and appended to a capped persistent log that backs the rollup statistics.
package ueba

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/events"
	"github.com/fleetdeck/fleetdeck/internal/idgen"
)

// Event types.
const (
	EventChatInteraction = "chat_interaction"
	EventUserLogin       = "user_login"
	EventUserLogout      = "user_logout"
	EventPageView        = "page_view"
	EventAnomalyDetected = "anomaly_detected"
)

// Entity types.
const (
	EntityChatbot = "chatbot"
	EntityUser    = "user"
	EntitySystem  = "system"
)

// bufferCapacity is the in-memory batch size: reaching it triggers a flush.
const bufferCapacity = 10

// escalationThreshold is the login risk score above which a companion
// anomaly_detected event is emitted.
const escalationThreshold = 70

// TrackedEvent is a single scored behavioral event. Immutable once created.
type TrackedEvent struct {
	UserID     string         `json:"user_id"`
	SessionID  string         `json:"session_id"`
	Timestamp  time.Time      `json:"timestamp"`
	EventType  string         `json:"event_type"`
	EntityType string         `json:"entity_type"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	RiskScore  int            `json:"risk_score"`
}

// Tracker scores and records behavioral events. Construct with New and
// release with Close; there is no package-level instance.
type Tracker struct {
	sessionID string
	log       EventLog
	dest      Destination
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time

	chatRules  []Rule[ChatInteraction]
	loginRules []Rule[Login]

	mu     sync.Mutex
	buffer []TrackedEvent
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the wall clock, used by time-of-day scoring rules.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithDestination sets the batch upload target invoked when the buffer
// reaches capacity.
func WithDestination(d Destination) Option {
	return func(t *Tracker) { t.dest = d }
}

// WithPublisher forwards every tracked event to the change feed topic
// fleet.ueba.tracked, best-effort.
func WithPublisher(p events.Publisher) Option {
	return func(t *Tracker) { t.publisher = p }
}

// WithLoginRules replaces the login scoring rules.
func WithLoginRules(rules []Rule[Login]) Option {
	return func(t *Tracker) { t.loginRules = rules }
}

// WithChatRules replaces the chat scoring rules.
func WithChatRules(rules []Rule[ChatInteraction]) Option {
	return func(t *Tracker) { t.chatRules = rules }
}

// New creates a tracker persisting to the given event log. The session ID is
// generated once and kept for the tracker's lifetime.
func New(log EventLog, logger *slog.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	sessionID, err := idgen.GenerateWithPrefix("sess-")
	if err != nil {
		// idgen only fails when the entropy source does; fall back to a
		// timestamp-derived ID rather than refusing to track.
		sessionID = fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	t := &Tracker{
		sessionID:  sessionID,
		log:        log,
		dest:       &NoopDestination{},
		publisher:  &events.NoopPublisher{},
		logger:     logger,
		now:        time.Now,
		chatRules:  DefaultChatRules(),
		loginRules: DefaultLoginRules(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SessionID returns the tracker-lifetime session identifier.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// Close flushes any buffered events.
func (t *Tracker) Close() {
	t.mu.Lock()
	batch := t.buffer
	t.buffer = nil
	t.mu.Unlock()
	t.flush(batch)
}

// TrackChatInteraction scores and records a chatbot exchange.
func (t *Tracker) TrackChatInteraction(userID, message string, responseTime time.Duration, metadata map[string]any) TrackedEvent {
	sig := ChatInteraction{Message: message, ResponseTime: responseTime}
	score := Score(t.chatRules, sig)

	evt := t.newEvent(userID, EventChatInteraction, EntityChatbot, metadata, score)
	t.record(evt)
	return evt
}

// TrackLogin scores and records a login. A score above the escalation
// threshold synchronously emits a companion anomaly_detected event carrying
// the same score.
func (t *Tracker) TrackLogin(userID string, metadata map[string]any) TrackedEvent {
	sig := Login{At: t.now()}
	score := Score(t.loginRules, sig)

	evt := t.newEvent(userID, EventUserLogin, EntityUser, metadata, score)
	t.record(evt)

	if score > escalationThreshold {
		anomaly := t.newEvent(userID, EventAnomalyDetected, EntitySystem, map[string]any{
			"description": fmt.Sprintf("suspicious login for %s (risk %d)", userID, score),
			"source":      EventUserLogin,
		}, score)
		t.record(anomaly)
	}
	return evt
}

// TrackLogout records a logout; logouts carry no risk signals.
func (t *Tracker) TrackLogout(userID string) TrackedEvent {
	evt := t.newEvent(userID, EventUserLogout, EntityUser, nil, 0)
	t.record(evt)
	return evt
}

// TrackPageView records a dashboard page view.
func (t *Tracker) TrackPageView(userID, page string) TrackedEvent {
	evt := t.newEvent(userID, EventPageView, EntityUser, map[string]any{"page": page}, 0)
	t.record(evt)
	return evt
}

func (t *Tracker) newEvent(userID, eventType, entityType string, metadata map[string]any, score int) TrackedEvent {
	return TrackedEvent{
		UserID:     userID,
		SessionID:  t.sessionID,
		Timestamp:  t.now(),
		EventType:  eventType,
		EntityType: entityType,
		Metadata:   metadata,
		RiskScore:  score,
	}
}

// record runs the emission pipeline: buffer (flush at capacity), change feed
// hook, persistent log. Every step is best-effort; nothing here propagates
// to the caller.
func (t *Tracker) record(evt TrackedEvent) {
	t.mu.Lock()
	t.buffer = append(t.buffer, evt)
	var batch []TrackedEvent
	if len(t.buffer) >= bufferCapacity {
		batch = t.buffer
		t.buffer = nil
	}
	t.mu.Unlock()

	if batch != nil {
		t.flush(batch)
	}

	if err := t.publisher.Publish(context.Background(), events.TopicUEBATracked, evt); err != nil {
		t.logger.Warn("ueba publish failed", "event_type", evt.EventType, "error", err)
	}

	if err := t.log.Append(evt); err != nil {
		t.logger.Warn("ueba event log append failed", "event_type", evt.EventType, "error", err)
	}

	t.logger.Debug("tracked event",
		"event_type", evt.EventType,
		"entity_type", evt.EntityType,
		"user", evt.UserID,
		"risk_score", evt.RiskScore,
	)
}

// flush hands a full batch to the upload destination. The batch is discarded
// regardless of the outcome; the persistent log, not the buffer, is the
// durable record.
func (t *Tracker) flush(batch []TrackedEvent) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := t.dest.Upload(ctx, batch); err != nil {
		t.logger.Warn("ueba batch upload failed", "events", len(batch), "error", err)
	}
}

// BufferedCount reports the number of events awaiting the next flush.
func (t *Tracker) BufferedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.buffer)
}

// Summary is the rollup computed from the persistent event log.
type Summary struct {
	TotalEvents      int     `json:"total_events"`
	ChatInteractions int     `json:"chat_interactions"`
	Anomalies        int     `json:"anomalies"`
	Logins           int     `json:"logins"`
	HighRiskEvents   int     `json:"high_risk_events"`
	AverageRiskScore float64 `json:"average_risk_score"`
}

// GetAnalyticsSummary scans the persistent log and computes the rollup. It
// is a pure function over the log: with no intervening events, repeated
// calls return identical results. An unavailable log yields the zero summary.
func (t *Tracker) GetAnalyticsSummary() Summary {
	stored, err := t.log.Load()
	if err != nil {
		t.logger.Warn("ueba event log read failed", "error", err)
		stored = nil
	}

	var s Summary
	s.TotalEvents = len(stored)
	riskSum := 0
	for _, evt := range stored {
		switch evt.EventType {
		case EventChatInteraction:
			s.ChatInteractions++
		case EventAnomalyDetected:
			s.Anomalies++
		case EventUserLogin:
			s.Logins++
		}
		if evt.RiskScore > 50 {
			s.HighRiskEvents++
		}
		riskSum += evt.RiskScore
	}

	denom := len(stored)
	if denom < 1 {
		denom = 1
	}
	s.AverageRiskScore = float64(riskSum) / float64(denom)
	return s
}
