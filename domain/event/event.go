// Package event provides the event-source record types and pure helpers.
// All functions are pure - no side effects.
package event

import "time"

// Type identifies the kind of a lifecycle or interaction event.
type Type string

const (
	TypeClick                Type = "click"
	TypeFavorite             Type = "favorite"
	TypeFollow               Type = "follow"
	TypeSession              Type = "session"
	TypeProductCreated       Type = "product_created"
	TypePostCreated          Type = "post_created"
	TypeSubscriptionStarted  Type = "subscription_started"
	TypeSubscriptionCanceled Type = "subscription_canceled"
)

// Record is a single append-only event (immutable value type).
// Value carries an optional numeric payload: click revenue for clicks,
// monthly price in cents for subscription events.
type Record struct {
	ID         string
	UserID     string
	Type       Type
	OccurredAt time.Time
	Value      float64
	Channel    string // acquisition/engagement channel, may be empty
}

// IsActivity reports whether the event counts as qualifying user activity
// for retention, dormancy and stickiness purposes. Subscription lifecycle
// events are billing signals, not activity.
func (r Record) IsActivity() bool {
	switch r.Type {
	case TypeClick, TypeFavorite, TypeFollow, TypeSession, TypeProductCreated, TypePostCreated:
		return true
	}
	return false
}

// ValidTypes maps every recognised event type.
var ValidTypes = map[Type]bool{
	TypeClick:                true,
	TypeFavorite:             true,
	TypeFollow:               true,
	TypeSession:              true,
	TypeProductCreated:       true,
	TypePostCreated:          true,
	TypeSubscriptionStarted:  true,
	TypeSubscriptionCanceled: true,
}

// IsValidType checks whether t names a known event type.
func IsValidType(t Type) bool {
	return ValidTypes[t]
}

// Filter selects events from a store. Zero fields match everything.
type Filter struct {
	From    time.Time // inclusive; zero = unbounded
	To      time.Time // exclusive; zero = unbounded
	UserIDs []string  // nil = all users
	Types   []Type    // nil = all types
}

// Matches reports whether r passes the filter.
// This is a PURE function.
func (f Filter) Matches(r Record) bool {
	if !f.From.IsZero() && r.OccurredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.OccurredAt.Before(f.To) {
		return false
	}
	if f.UserIDs != nil {
		found := false
		for _, id := range f.UserIDs {
			if id == r.UserID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Types != nil {
		found := false
		for _, t := range f.Types {
			if t == r.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ByUser groups events by user ID, preserving input order within each user.
// This is a PURE function.
func ByUser(events []Record) map[string][]Record {
	out := make(map[string][]Record)
	for _, e := range events {
		out[e.UserID] = append(out[e.UserID], e)
	}
	return out
}
