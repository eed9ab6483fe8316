package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/creatorhub/insight/domain/resurrection"
	"github.com/creatorhub/insight/ports"
)

// CampaignStore is an in-memory implementation of ports.CampaignStore.
type CampaignStore struct {
	mu    sync.RWMutex
	sends []resurrection.CampaignSend
}

// NewCampaignStore creates an empty in-memory campaign store.
func NewCampaignStore() *CampaignStore {
	return &CampaignStore{}
}

// RecordSends stores sends.
func (s *CampaignStore) RecordSends(ctx context.Context, sends []resurrection.CampaignSend) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, sends...)
	return nil
}

// ListSends returns sends in [from, to), oldest first. Zero bounds are
// unbounded.
func (s *CampaignStore) ListSends(ctx context.Context, from, to time.Time) ([]resurrection.CampaignSend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []resurrection.CampaignSend
	for _, send := range s.sends {
		if !from.IsZero() && send.SentAt.Before(from) {
			continue
		}
		if !to.IsZero() && !send.SentAt.Before(to) {
			continue
		}
		out = append(out, send)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

var _ ports.CampaignStore = (*CampaignStore)(nil)
