package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/creatorhub/insight/domain/resurrection"
	"github.com/creatorhub/insight/ports"
)

// CampaignStore implements ports.CampaignStore using SQLite.
type CampaignStore struct {
	db *DB
}

// NewCampaignStore creates a new SQLite campaign store.
func NewCampaignStore(db *DB) *CampaignStore {
	return &CampaignStore{db: db}
}

// RecordSends stores sends.
func (s *CampaignStore) RecordSends(ctx context.Context, sends []resurrection.CampaignSend) error {
	if len(sends) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO campaign_sends (id, channel, sent_at) VALUES (?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, send := range sends {
		if _, err := stmt.ExecContext(ctx, send.ID, send.Channel, send.SentAt.UTC()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListSends returns sends in [from, to), oldest first.
func (s *CampaignStore) ListSends(ctx context.Context, from, to time.Time) ([]resurrection.CampaignSend, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "datetime(sent_at) >= datetime(?)")
		args = append(args, from.UTC().Format("2006-01-02 15:04:05"))
	}
	if !to.IsZero() {
		conds = append(conds, "datetime(sent_at) < datetime(?)")
		args = append(args, to.UTC().Format("2006-01-02 15:04:05"))
	}

	q := "SELECT id, channel, sent_at FROM campaign_sends"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY sent_at, rowid"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []resurrection.CampaignSend
	for rows.Next() {
		var send resurrection.CampaignSend
		if err := rows.Scan(&send.ID, &send.Channel, &send.SentAt); err != nil {
			return nil, err
		}
		send.SentAt = send.SentAt.UTC()
		out = append(out, send)
	}
	return out, rows.Err()
}

var _ ports.CampaignStore = (*CampaignStore)(nil)
