package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/creatorhub/insight/domain/user"
	"github.com/creatorhub/insight/ports"
)

// UserStore implements ports.UserStore using SQLite.
type UserStore struct {
	db *DB
}

// NewUserStore creates a new SQLite user store.
func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

// Put upserts projection rows.
func (s *UserStore) Put(ctx context.Context, users []user.Record) error {
	if len(users) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO users (id, signup_at, first_product_at, upgrade_at, role, plan, active_until)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			first_product_at = excluded.first_product_at,
			upgrade_at = excluded.upgrade_at,
			role = excluded.role,
			plan = excluded.plan,
			active_until = excluded.active_until
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, u := range users {
		_, err := stmt.ExecContext(ctx,
			u.ID, u.SignupAt.UTC(), nullTime(u.FirstProductAt), nullTime(u.UpgradeAt),
			string(u.Role), string(u.Plan), u.ActiveUntil.UTC(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List returns users matching the filter, ordered by signup time then ID.
func (s *UserStore) List(ctx context.Context, f user.Filter) ([]user.Record, error) {
	var (
		conds []string
		args  []any
	)
	if f.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, string(f.Role))
	}
	if f.Plan != "" {
		conds = append(conds, "plan = ?")
		args = append(args, string(f.Plan))
	}
	if !f.SignedUpAfter.IsZero() {
		conds = append(conds, "datetime(signup_at) >= datetime(?)")
		args = append(args, f.SignedUpAfter.UTC().Format("2006-01-02 15:04:05"))
	}
	if !f.SignedUpBefore.IsZero() {
		conds = append(conds, "datetime(signup_at) < datetime(?)")
		args = append(args, f.SignedUpBefore.UTC().Format("2006-01-02 15:04:05"))
	}

	q := "SELECT id, signup_at, first_product_at, upgrade_at, role, plan, active_until FROM users"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY signup_at, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.Record
	for rows.Next() {
		var (
			u            user.Record
			role, plan   string
			firstProduct sql.NullTime
			upgrade      sql.NullTime
		)
		if err := rows.Scan(&u.ID, &u.SignupAt, &firstProduct, &upgrade, &role, &plan, &u.ActiveUntil); err != nil {
			return nil, err
		}
		u.SignupAt = u.SignupAt.UTC()
		u.ActiveUntil = u.ActiveUntil.UTC()
		u.Role = user.Role(role)
		u.Plan = user.Plan(plan)
		if firstProduct.Valid {
			t := firstProduct.Time.UTC()
			u.FirstProductAt = &t
		}
		if upgrade.Valid {
			t := upgrade.Time.UTC()
			u.UpgradeAt = &t
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

var _ ports.UserStore = (*UserStore)(nil)
