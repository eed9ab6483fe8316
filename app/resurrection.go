package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/resurrection"
	"github.com/creatorhub/insight/domain/user"
)

// resurrectionDefaultWindow is the campaign window inspected when the
// caller gives no explicit range.
const resurrectionDefaultWindow = 90 * 24 * time.Hour

// ResurrectionTable is the per-channel dormancy and reactivation summary.
type ResurrectionTable struct {
	Range     query.DateRange
	Threshold time.Duration
	Lookback  time.Duration
	Rows      []resurrection.Row
	Previous  *ResurrectionTable
}

// ResurrectionTable partitions dormant users by last-known channel and
// attributes reactivations to campaign sends inside the window.
func (s *InsightService) ResurrectionTable(ctx context.Context, q query.Params) (res *ResurrectionTable, err error) {
	start := time.Now()
	defer func() { s.observe("resurrection", start, err) }()

	// 1. Validate parameters (PURE)
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := s.getTuning()

	rng := q.Range
	if rng.IsZero() {
		rng = query.DateRange{From: now.Add(-resurrectionDefaultWindow), To: now}
	}

	// 2. Compute, with the previous window concurrently when requested
	if q.CompareWithPrevious {
		prevRng := rng.Previous()

		var wg sync.WaitGroup
		var prev *ResurrectionTable
		var prevErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev, prevErr = s.resurrectionTable(ctx, prevRng, t, now)
		}()

		cur, curErr := s.resurrectionTable(ctx, rng, t, now)
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

	return s.resurrectionTable(ctx, rng, t, now)
}

func (s *InsightService) resurrectionTable(ctx context.Context, rng query.DateRange, t *Tuning, now time.Time) (*ResurrectionTable, error) {
	key := fmt.Sprintf("resurrection|%s", rangeKey(rng))
	if v, ok := s.fromCache("resurrection", key, rng, now); ok {
		return v.(*ResurrectionTable), nil
	}

	// Dormancy classification needs the full activity history; only the
	// campaign sends are bounded by the window. (I/O)
	users, err := s.loadUsers(ctx, user.Filter{})
	if err != nil {
		return nil, err
	}
	events, err := s.loadEvents(ctx, event.Filter{})
	if err != nil {
		return nil, err
	}
	sends, err := s.loadSends(ctx, rng.From, rng.To)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tbl := &ResurrectionTable{
		Range:     rng,
		Threshold: t.DormancyThreshold,
		Lookback:  t.ReactivationLookback,
		Rows:      resurrection.Analyze(users, events, sends, t.DormancyThreshold, t.ReactivationLookback, now),
	}
	s.storeResult(key, tbl, rng, now)
	return tbl, nil
}
