package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/ports"
)

// EventStore implements ports.EventStore using SQLite.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new SQLite event store.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// Append stores events.
func (s *EventStore) Append(ctx context.Context, events []event.Record) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, user_id, type, occurred_at, value, channel)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		// Timestamps are stored in UTC for consistent querying.
		_, err := stmt.ExecContext(ctx, e.ID, e.UserID, string(e.Type), e.OccurredAt.UTC(), e.Value, e.Channel)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Query returns matching events ordered by occurrence time, rowid breaking
// ties so equal timestamps keep insertion order.
func (s *EventStore) Query(ctx context.Context, f event.Filter) ([]event.Record, error) {
	var (
		conds []string
		args  []any
	)
	if !f.From.IsZero() {
		conds = append(conds, "datetime(occurred_at) >= datetime(?)")
		args = append(args, f.From.UTC().Format("2006-01-02 15:04:05"))
	}
	if !f.To.IsZero() {
		conds = append(conds, "datetime(occurred_at) < datetime(?)")
		args = append(args, f.To.UTC().Format("2006-01-02 15:04:05"))
	}
	if f.UserIDs != nil {
		placeholders := make([]string, len(f.UserIDs))
		for i, id := range f.UserIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conds = append(conds, "user_id IN ("+strings.Join(placeholders, ",")+")")
	}
	if f.Types != nil {
		placeholders := make([]string, len(f.Types))
		for i, t := range f.Types {
			placeholders[i] = "?"
			args = append(args, string(t))
		}
		conds = append(conds, "type IN ("+strings.Join(placeholders, ",")+")")
	}

	q := "SELECT id, user_id, type, occurred_at, value, channel FROM events"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY occurred_at, rowid"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []event.Record
	for rows.Next() {
		var (
			e   event.Record
			typ string
			at  time.Time
		)
		if err := rows.Scan(&e.ID, &e.UserID, &typ, &at, &e.Value, &e.Channel); err != nil {
			return nil, err
		}
		e.Type = event.Type(typ)
		e.OccurredAt = at.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ ports.EventStore = (*EventStore)(nil)
