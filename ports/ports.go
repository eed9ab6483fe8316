// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/resurrection"
	"github.com/creatorhub/insight/domain/user"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Source Ports
// -----------------------------------------------------------------------------
//
// The engine is a read-only consumer: it never mutates the event source or
// the user projection. The write methods below exist for ingestion tooling
// (seed command, fixtures), not for the query façade.

// EventStore reads the append-only event source.
type EventStore interface {
	// Query returns events matching the filter, ordered by occurrence time
	// (stable for equal timestamps).
	Query(ctx context.Context, f event.Filter) ([]event.Record, error)

	// Append stores events. Used by ingestion tooling only.
	Append(ctx context.Context, events []event.Record) error
}

// UserStore reads the user projection.
type UserStore interface {
	// List returns users matching the filter.
	List(ctx context.Context, f user.Filter) ([]user.Record, error)

	// Put upserts projection rows. Used by ingestion tooling only.
	Put(ctx context.Context, users []user.Record) error
}

// CampaignStore reads reactivation campaign sends.
type CampaignStore interface {
	// ListSends returns sends in [from, to), any channel. Zero bounds are
	// unbounded.
	ListSends(ctx context.Context, from, to time.Time) ([]resurrection.CampaignSend, error)

	// RecordSends stores sends. Used by ingestion tooling only.
	RecordSends(ctx context.Context, sends []resurrection.CampaignSend) error
}
