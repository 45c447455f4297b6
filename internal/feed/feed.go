// Package feed delivers locally sorted views of the document collections,
// either as one-shot reads or as continuously updated subscriptions that
// share one underlying change feed listener per canonical query.
package feed

import (
	"context"
	"log/slog"

	"github.com/fleetdeck/fleetdeck/internal/model"
	"github.com/fleetdeck/fleetdeck/internal/store"
)

// Service is an explicitly constructed feed service. It owns a subscription
// registry; Close tears down every live listener.
type Service struct {
	store    store.Store
	registry *registry
	logger   *slog.Logger
}

// New creates a feed service over the given store and change feed
// subscriber. The subscriber may be nil, in which case Subscribe returns a
// no-op cancel and never calls back.
func New(s store.Store, sub subscriberBackend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		store:  s,
		logger: logger,
	}
	svc.registry = newRegistry(svc, sub, logger)
	return svc
}

// Close cancels every live subscription. Callers' cancel functions remain
// safe to invoke afterwards.
func (s *Service) Close() {
	s.registry.close()
}

// FetchOnce performs a single read of the query's collection. Equality
// filters are applied server-side; ordering and truncation happen here. To
// avoid requiring a composite index for filter-plus-order queries, it
// requests twice the wanted count unordered, sorts descending by the
// normalized creation instant, and truncates.
//
// FetchOnce never fails the caller: when the store is unavailable or the
// read errors, it logs and returns an empty slice.
func (s *Service) FetchOnce(ctx context.Context, q model.Query) []*model.Document {
	if s.store == nil {
		return []*model.Document{}
	}

	fetch := 0
	if q.Limit > 0 {
		fetch = 2 * q.Limit
	}

	docs, err := s.store.List(ctx, q.Collection, q.Filters, fetch)
	if err != nil {
		s.logger.Warn("feed fetch failed", "collection", q.Collection, "error", err)
		return []*model.Document{}
	}

	sortDocumentsDesc(docs)
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	if docs == nil {
		docs = []*model.Document{}
	}
	return docs
}

// Subscribe registers a live subscription for the query. onData receives an
// initial snapshot and then a re-sorted snapshot on every change to the
// query's collection; onError receives at most one terminal error per
// underlying listener. Concurrent subscriptions with byte-equal canonical
// keys share a single listener; each caller holds an independent reference
// and the listener is torn down only when the last caller cancels.
//
// The returned cancel function is idempotent and always safe to call, even
// after the listener has already been torn down.
func (s *Service) Subscribe(q model.Query, onData func([]*model.Document), onError func(error)) func() {
	return s.registry.subscribe(q, onData, onError)
}
