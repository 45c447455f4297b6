package feed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/fleetdeck/fleetdeck/internal/events"
	"github.com/fleetdeck/fleetdeck/internal/model"
)

// errStreamClosed is reported to callers when the underlying listener
// terminates without an explicit teardown.
var errStreamClosed = errors.New("change feed stream closed")

// subscriberBackend is the slice of events.Subscriber the registry needs.
type subscriberBackend interface {
	Subscribe(topic string) (<-chan []byte, func(), error)
}

// caller is one Subscribe registration riding a registry entry.
type caller struct {
	onData  func([]*model.Document)
	onError func(error)
}

// entry is one live listener shared by every caller with the same canonical
// query key. Callers are reference-counted: the underlying listener is
// cancelled only when the last caller detaches.
type entry struct {
	query   model.Query
	callers map[int]*caller
	nextRef int

	cancelListener func()
	// failed holds the terminal error after the listener has died. New
	// callers attaching to a failed entry are notified immediately; the
	// entry stays registered so equal-key subscribes keep deduplicating
	// against it, except for the stream-exhaustion class which evicts.
	failed error
}

// registry deduplicates live subscriptions by canonical query key. At most
// one underlying change feed listener exists per key.
type registry struct {
	svc    *Service
	sub    subscriberBackend
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

func newRegistry(svc *Service, sub subscriberBackend, logger *slog.Logger) *registry {
	return &registry{
		svc:     svc,
		sub:     sub,
		logger:  logger,
		entries: make(map[string]*entry),
	}
}

func (r *registry) subscribe(q model.Query, onData func([]*model.Document), onError func(error)) func() {
	noop := func() {}
	if r.sub == nil {
		// No addressable change feed in this execution context. Callers get
		// a no-op cancel and are never called back.
		return noop
	}

	key := q.CanonicalKey()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return noop
	}

	e, ok := r.entries[key]
	if ok {
		ref := e.attach(onData, onError)
		failed := e.failed
		r.mu.Unlock()

		if failed != nil && onError != nil {
			onError(failed)
		} else {
			// Ride the existing stream: deliver a snapshot to the new
			// caller without opening a second listener.
			go r.deliverSnapshot(e, ref)
		}
		return r.cancelFunc(key, e, ref)
	}

	e = &entry{
		query:   q,
		callers: make(map[int]*caller),
	}
	ref := e.attach(onData, onError)
	r.entries[key] = e
	r.mu.Unlock()

	ch, cancel, err := r.sub.Subscribe(events.ChangeTopic(q.Collection))
	if err != nil {
		r.fail(key, e, err)
		return r.cancelFunc(key, e, ref)
	}

	r.mu.Lock()
	e.cancelListener = cancel
	r.mu.Unlock()

	go r.run(key, e, ch)

	return r.cancelFunc(key, e, ref)
}

// run re-queries and fans out a snapshot for the initial state and after
// every change event, until the listener channel closes.
func (r *registry) run(key string, e *entry, ch <-chan []byte) {
	r.broadcastSnapshot(e)

	for range ch {
		r.broadcastSnapshot(e)
	}

	// Channel closed. A deliberate teardown clears the callers first, so
	// anyone left is seeing a terminal connectivity failure.
	r.mu.Lock()
	abandoned := len(e.callers) > 0 && e.failed == nil
	r.mu.Unlock()
	if abandoned {
		r.fail(key, e, errStreamClosed)
		r.evict(key, e)
	}
}

// broadcastSnapshot fetches the current result set and delivers it to every
// attached caller.
func (r *registry) broadcastSnapshot(e *entry) {
	docs := r.svc.FetchOnce(context.Background(), e.query)

	r.mu.Lock()
	callers := make([]*caller, 0, len(e.callers))
	for _, c := range e.callers {
		callers = append(callers, c)
	}
	r.mu.Unlock()

	for _, c := range callers {
		if c.onData != nil {
			c.onData(docs)
		}
	}
}

// deliverSnapshot delivers the current result set to a single caller, used
// when a new caller attaches to an already-live entry.
func (r *registry) deliverSnapshot(e *entry, ref int) {
	docs := r.svc.FetchOnce(context.Background(), e.query)

	r.mu.Lock()
	c := e.callers[ref]
	r.mu.Unlock()

	if c != nil && c.onData != nil {
		c.onData(docs)
	}
}

// fail records a terminal error, notifies every attached caller once, and
// evicts the entry when the error is in the stream-exhaustion class so the
// next equal-key subscribe opens a fresh listener. No retry is scheduled
// here; backoff is the caller's concern.
func (r *registry) fail(key string, e *entry, err error) {
	r.mu.Lock()
	if e.failed != nil {
		r.mu.Unlock()
		return
	}
	e.failed = err
	callers := make([]*caller, 0, len(e.callers))
	for _, c := range e.callers {
		callers = append(callers, c)
	}
	r.mu.Unlock()

	r.logger.Warn("feed listener failed", "key", key, "error", err)
	for _, c := range callers {
		if c.onError != nil {
			c.onError(err)
		}
	}

	if isStreamExhausted(err) {
		r.evict(key, e)
	}
}

// evict removes the entry from the registry and cancels its listener, if
// any. Callers keep their (now inert) cancel functions.
func (r *registry) evict(key string, e *entry) {
	r.mu.Lock()
	cancel := e.cancelListener
	e.cancelListener = nil
	if r.entries[key] == e {
		delete(r.entries, key)
	}
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// cancelFunc builds the per-caller cancel. Each caller's cancel detaches
// only that caller; the underlying listener is cancelled at zero references.
// Calling it more than once is a no-op.
func (r *registry) cancelFunc(key string, e *entry, ref int) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(e.callers, ref)
			last := len(e.callers) == 0
			var cancel func()
			if last {
				cancel = e.cancelListener
				e.cancelListener = nil
				if r.entries[key] == e {
					delete(r.entries, key)
				}
			}
			r.mu.Unlock()

			if cancel != nil {
				cancel()
			}
		})
	}
}

// close tears down every live entry.
func (r *registry) close() {
	r.mu.Lock()
	r.closed = true
	var cancels []func()
	for key, e := range r.entries {
		e.callers = make(map[int]*caller)
		if e.cancelListener != nil {
			cancels = append(cancels, e.cancelListener)
			e.cancelListener = nil
		}
		delete(r.entries, key)
	}
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// attach registers a caller and returns its reference. Callers hold r.mu.
func (e *entry) attach(onData func([]*model.Document), onError func(error)) int {
	ref := e.nextRef
	e.nextRef++
	e.callers[ref] = &caller{onData: onData, onError: onError}
	return ref
}

// size reports the number of live entries, for tests.
func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// exhaustionMarkers are the vendor-specific message fragments that identify
// the connection-multiplexing exhaustion error class.
var exhaustionMarkers = []string{
	"too many concurrent streams",
	"maximum subscriptions exceeded",
}

func isStreamExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range exhaustionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
