package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/creatorhub/insight/domain/user"
	"github.com/creatorhub/insight/ports"
)

// UserStore is an in-memory implementation of ports.UserStore.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]user.Record
}

// NewUserStore creates an empty in-memory user projection.
func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]user.Record)}
}

// Put upserts projection rows.
func (s *UserStore) Put(ctx context.Context, users []user.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range users {
		s.users[u.ID] = u
	}
	return nil
}

// List returns users matching the filter, ordered by signup time then ID
// for deterministic output.
func (s *UserStore) List(ctx context.Context, f user.Filter) ([]user.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []user.Record
	for _, u := range s.users {
		if f.Matches(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SignupAt.Equal(out[j].SignupAt) {
			return out[i].SignupAt.Before(out[j].SignupAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

var _ ports.UserStore = (*UserStore)(nil)
