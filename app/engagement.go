package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorhub/insight/domain/engagement"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/user"
)

// engagementDefaultWindow is the activity window scored when the caller
// gives no explicit range.
const engagementDefaultWindow = 30 * 24 * time.Hour

// EngagementMetrics is the engagement dashboard card: the score histogram,
// the top scorers, feature adoption and session analytics, all computed
// over one activity window.
type EngagementMetrics struct {
	Range      query.DateRange
	Population int
	Histogram  []engagement.BucketCount
	Top        []engagement.Score
	Adoption   []engagement.FeatureAdoption
	Sessions   engagement.SessionAnalytics
	Previous   *EngagementMetrics
}

// EngagementMetrics scores the population over the window's events using
// the configured weights and score buckets.
func (s *InsightService) EngagementMetrics(ctx context.Context, q query.Params) (res *EngagementMetrics, err error) {
	start := time.Now()
	defer func() { s.observe("engagement", start, err) }()

	// 1. Validate parameters (PURE)
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := s.getTuning()

	rng := q.Range
	if rng.IsZero() {
		rng = query.DateRange{From: now.Add(-engagementDefaultWindow), To: now}
	}

	// 2. Compute, with the previous window concurrently when requested
	if q.CompareWithPrevious {
		prevRng := rng.Previous()

		var wg sync.WaitGroup
		var prev *EngagementMetrics
		var prevErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev, prevErr = s.engagementMetrics(ctx, prevRng, t, now)
		}()

		cur, curErr := s.engagementMetrics(ctx, rng, t, now)
		wg.Wait()
		if curErr != nil {
			return nil, curErr
		}
		if prevErr != nil {
			return nil, prevErr
		}
		cur.Previous = prev
		return cur, nil
	}

	return s.engagementMetrics(ctx, rng, t, now)
}

func (s *InsightService) engagementMetrics(ctx context.Context, rng query.DateRange, t *Tuning, now time.Time) (*EngagementMetrics, error) {
	key := fmt.Sprintf("engagement|%s", rangeKey(rng))
	if v, ok := s.fromCache("engagement", key, rng, now); ok {
		return v.(*EngagementMetrics), nil
	}

	// The population is everyone who existed before the window closed; the
	// scored events are only those inside the window. (I/O)
	users, err := s.loadUsers(ctx, user.Filter{SignedUpBefore: rng.To})
	if err != nil {
		return nil, err
	}
	events, err := s.loadEvents(ctx, event.Filter{From: rng.From, To: rng.To})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Score and summarise (PURE)
	scores := engagement.Compute(users, events, t.Weights, t.Buckets)

	m := &EngagementMetrics{
		Range:      rng,
		Population: len(users),
		Histogram:  engagement.Histogram(scores, t.Buckets),
		Top:        engagement.TopK(scores, t.TopK),
		Adoption:   engagement.Adoption(users, events),
		Sessions:   engagement.Sessions(users, events),
	}
	s.storeResult(key, m, rng, now)
	return m, nil
}
