package feed

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fleetdeck/fleetdeck/internal/model"
)

// fakeBackend implements subscriberBackend with controllable streams.
type fakeBackend struct {
	mu     sync.Mutex
	subErr error

	streams map[string][]*fakeStream
}

type fakeStream struct {
	ch     chan []byte
	closed bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{streams: make(map[string][]*fakeStream)}
}

func (f *fakeBackend) Subscribe(topic string) (<-chan []byte, func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, nil, f.subErr
	}
	st := &fakeStream{ch: make(chan []byte, 16)}
	f.streams[topic] = append(f.streams[topic], st)

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if !st.closed {
			st.closed = true
			close(st.ch)
		}
	}
	return st.ch, cancel, nil
}

func (f *fakeBackend) push(topic string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, st := range f.streams[topic] {
		if st.closed {
			continue
		}
		select {
		case st.ch <- data:
		default:
		}
	}
}

// dropStreams closes every stream for a topic as if the transport died.
func (f *fakeBackend) dropStreams(topic string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, st := range f.streams[topic] {
		if !st.closed {
			st.closed = true
			close(st.ch)
		}
	}
}

// liveCount reports the number of streams not yet cancelled or dropped.
func (f *fakeBackend) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, streams := range f.streams {
		for _, st := range streams {
			if !st.closed {
				n++
			}
		}
	}
	return n
}

func snapshotChan() (func([]*model.Document), <-chan []*model.Document) {
	ch := make(chan []*model.Document, 16)
	return func(docs []*model.Document) { ch <- docs }, ch
}

func errChan() (func(error), <-chan error) {
	ch := make(chan error, 16)
	return func(err error) { ch <- err }, ch
}

func anomalyQuery(limit int) model.Query {
	return model.Query{
		Collection: model.CollectionAnomalyCases,
		Filters:    []model.Filter{{Field: "vehicle_id", Value: "vh-1"}},
		Limit:      limit,
	}
}

func TestSubscribe_DeliversInitialSnapshot(t *testing.T) {
	fs := &fakeStore{docs: []*model.Document{
		mustDecode(t, model.CollectionAnomalyCases, "fd-1", `{"vehicle_id":"vh-1","detected_at":"2025-06-01T08:00:00Z"}`),
	}}
	backend := newFakeBackend()
	svc := New(fs, backend, testLogger())
	defer svc.Close()

	onData, dataCh := snapshotChan()
	cancel := svc.Subscribe(anomalyQuery(10), onData, nil)
	defer cancel()

	docs := waitFor(t, dataCh)
	if len(docs) != 1 || docs[0].ID != "fd-1" {
		t.Errorf("initial snapshot = %v, want [fd-1]", docs)
	}
}

func TestSubscribe_RequeriesOnChangeEvent(t *testing.T) {
	fs := &fakeStore{}
	backend := newFakeBackend()
	svc := New(fs, backend, testLogger())
	defer svc.Close()

	onData, dataCh := snapshotChan()
	cancel := svc.Subscribe(anomalyQuery(10), onData, nil)
	defer cancel()

	waitFor(t, dataCh) // initial snapshot

	// A new document lands, then a change event fires.
	fs.mu.Lock()
	fs.docs = append(fs.docs,
		mustDecode(t, model.CollectionAnomalyCases, "fd-2", `{"vehicle_id":"vh-1","detected_at":"2025-07-01T08:00:00Z"}`))
	fs.mu.Unlock()
	backend.push("fleet.anomaly_cases.changed", []byte(`{"collection":"anomaly_cases","id":"fd-2","kind":"inserted"}`))

	docs := waitFor(t, dataCh)
	if len(docs) != 1 || docs[0].ID != "fd-2" {
		t.Errorf("updated snapshot = %v, want [fd-2]", docs)
	}
}

func TestSubscribe_DedupesEqualCanonicalKeys(t *testing.T) {
	backend := newFakeBackend()
	svc := New(&fakeStore{}, backend, testLogger())
	defer svc.Close()

	onDataA, chA := snapshotChan()
	onDataB, chB := snapshotChan()
	cancelA := svc.Subscribe(anomalyQuery(10), onDataA, nil)
	defer cancelA()
	cancelB := svc.Subscribe(anomalyQuery(10), onDataB, nil)
	defer cancelB()

	waitFor(t, chA)
	waitFor(t, chB)

	if got := backend.liveCount(); got != 1 {
		t.Errorf("live listeners = %d, want 1 (dedup)", got)
	}
	if got := svc.registry.size(); got != 1 {
		t.Errorf("registry entries = %d, want 1", got)
	}
}

func TestSubscribe_DistinctQueriesOpenDistinctListeners(t *testing.T) {
	backend := newFakeBackend()
	svc := New(&fakeStore{}, backend, testLogger())
	defer svc.Close()

	onDataA, _ := snapshotChan()
	onDataB, _ := snapshotChan()
	cancelA := svc.Subscribe(anomalyQuery(10), onDataA, nil)
	defer cancelA()
	cancelB := svc.Subscribe(anomalyQuery(20), onDataB, nil) // different limit
	defer cancelB()

	if got := backend.liveCount(); got != 2 {
		t.Errorf("live listeners = %d, want 2", got)
	}
}

func TestSubscribe_RefCountedTeardown(t *testing.T) {
	backend := newFakeBackend()
	svc := New(&fakeStore{}, backend, testLogger())
	defer svc.Close()

	onDataA, chA := snapshotChan()
	onDataB, chB := snapshotChan()
	cancelA := svc.Subscribe(anomalyQuery(10), onDataA, nil)
	cancelB := svc.Subscribe(anomalyQuery(10), onDataB, nil)

	waitFor(t, chA)
	waitFor(t, chB)

	// First cancel must not kill the stream for the other caller.
	cancelA()
	if got := backend.liveCount(); got != 1 {
		t.Fatalf("live listeners after first cancel = %d, want 1", got)
	}

	// The surviving caller still receives change-driven snapshots.
	backend.push("fleet.anomaly_cases.changed", []byte(`{}`))
	waitFor(t, chB)

	// Last cancel tears the listener down and evicts the entry.
	cancelB()
	deadline := time.Now().Add(2 * time.Second)
	for backend.liveCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := backend.liveCount(); got != 0 {
		t.Errorf("live listeners after last cancel = %d, want 0", got)
	}
	if got := svc.registry.size(); got != 0 {
		t.Errorf("registry entries after last cancel = %d, want 0", got)
	}
}

func TestSubscribe_CancelIsIdempotent(t *testing.T) {
	backend := newFakeBackend()
	svc := New(&fakeStore{}, backend, testLogger())
	defer svc.Close()

	onDataA, _ := snapshotChan()
	onDataB, chB := snapshotChan()
	cancelA := svc.Subscribe(anomalyQuery(10), onDataA, nil)
	cancelB := svc.Subscribe(anomalyQuery(10), onDataB, nil)
	defer cancelB()

	waitFor(t, chB)

	// Double cancel of A must not panic and must not decrement B's reference.
	cancelA()
	cancelA()
	if got := backend.liveCount(); got != 1 {
		t.Errorf("live listeners after double cancel = %d, want 1", got)
	}
}

func TestSubscribe_NilBackendIsNoop(t *testing.T) {
	svc := New(&fakeStore{}, nil, testLogger())
	defer svc.Close()

	called := false
	cancel := svc.Subscribe(anomalyQuery(10), func([]*model.Document) { called = true }, nil)
	cancel()
	cancel()

	time.Sleep(20 * time.Millisecond)
	if called {
		t.Error("onData fired with no backend configured")
	}
}

func TestSubscribe_ExhaustionErrorEvictsEntry(t *testing.T) {
	backend := newFakeBackend()
	backend.subErr = fmt.Errorf("nats: maximum subscriptions exceeded")
	svc := New(&fakeStore{}, backend, testLogger())
	defer svc.Close()

	onErr, errCh := errChan()
	cancel := svc.Subscribe(anomalyQuery(10), nil, onErr)
	defer cancel()

	select {
	case err := <-errCh:
		if !isStreamExhausted(err) {
			t.Errorf("onError got %v, want exhaustion class", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onError")
	}

	// Entry evicted: a later subscribe opens fresh instead of deduping
	// against the failed listener.
	if got := svc.registry.size(); got != 0 {
		t.Errorf("registry entries = %d, want 0 after exhaustion eviction", got)
	}

	backend.mu.Lock()
	backend.subErr = nil
	backend.mu.Unlock()

	onData, dataCh := snapshotChan()
	cancel2 := svc.Subscribe(anomalyQuery(10), onData, nil)
	defer cancel2()
	waitFor(t, dataCh)
	if got := backend.liveCount(); got != 1 {
		t.Errorf("live listeners after recovery = %d, want 1", got)
	}
}

func TestSubscribe_OtherErrorsKeepEntryRegistered(t *testing.T) {
	backend := newFakeBackend()
	backend.subErr = fmt.Errorf("nats: connection refused")
	svc := New(&fakeStore{}, backend, testLogger())
	defer svc.Close()

	onErrA, errChA := errChan()
	cancelA := svc.Subscribe(anomalyQuery(10), nil, onErrA)
	defer cancelA()

	select {
	case <-errChA:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for onError")
	}

	// Non-exhaustion failure: the entry stays registered, and an
	// equal-key subscribe dedupes against the errored listener. The new
	// caller is told once that the stream is dead.
	if got := svc.registry.size(); got != 1 {
		t.Fatalf("registry entries = %d, want 1", got)
	}

	onErrB, errChB := errChan()
	cancelB := svc.Subscribe(anomalyQuery(10), nil, onErrB)
	defer cancelB()

	select {
	case <-errChB:
	case <-time.After(time.Second):
		t.Fatal("second caller never notified of the failed stream")
	}
	if got := backend.liveCount(); got != 0 {
		t.Errorf("live listeners = %d, want 0 (no retry)", got)
	}
}

func TestSubscribe_StreamCloseReportsAndEvicts(t *testing.T) {
	backend := newFakeBackend()
	svc := New(&fakeStore{}, backend, testLogger())
	defer svc.Close()

	onData, dataCh := snapshotChan()
	onErr, errCh := errChan()
	cancel := svc.Subscribe(anomalyQuery(10), onData, onErr)
	defer cancel()

	waitFor(t, dataCh)

	// Simulate the transport dying underneath the listener.
	backend.dropStreams("fleet.anomaly_cases.changed")

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("onError delivered nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for terminal error")
	}

	deadline := time.Now().Add(2 * time.Second)
	for svc.registry.size() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := svc.registry.size(); got != 0 {
		t.Errorf("registry entries = %d, want 0 after terminal close", got)
	}
}

func TestServiceClose_TearsDownListeners(t *testing.T) {
	backend := newFakeBackend()
	svc := New(&fakeStore{}, backend, testLogger())

	onData, dataCh := snapshotChan()
	cancel := svc.Subscribe(anomalyQuery(10), onData, nil)
	waitFor(t, dataCh)

	svc.Close()
	if got := backend.liveCount(); got != 0 {
		t.Errorf("live listeners after Close = %d, want 0", got)
	}

	// Caller cancels stay safe after Close.
	cancel()
}

func TestIsStreamExhausted(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("rpc error: too many concurrent streams"), true},
		{fmt.Errorf("nats: maximum subscriptions exceeded"), true},
		{fmt.Errorf("connection refused"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := isStreamExhausted(tc.err); got != tc.want {
			t.Errorf("isStreamExhausted(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
