// Package memory provides in-memory store implementations, used by tests,
// the seed command and small single-process installs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/ports"
)

// EventStore is an in-memory implementation of ports.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events []event.Record
}

// NewEventStore creates an empty in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Append stores events.
func (s *EventStore) Append(ctx context.Context, events []event.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// Query returns matching events ordered by occurrence time. The sort is
// stable so equal timestamps keep insertion order, which funnel evaluation
// relies on.
func (s *EventStore) Query(ctx context.Context, f event.Filter) ([]event.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []event.Record
	for _, e := range s.events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out, nil
}

var _ ports.EventStore = (*EventStore)(nil)
