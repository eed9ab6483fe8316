package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorhub/insight/domain/cohort"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/user"
)

// CohortTable is the anchor × metric × period heatmap grid.
type CohortTable struct {
	Anchor   query.Anchor
	Metric   query.Metric
	Period   query.Period
	Range    query.DateRange
	Rows     []cohort.Row
	Previous *CohortTable // set when CompareWithPrevious was requested
}

// CohortTable builds the cohort heatmap. Parameter names arrive as raw
// strings from the dashboard layer and are rejected fast when invalid.
func (s *InsightService) CohortTable(ctx context.Context, anchorName, metricName, periodName string, q query.Params) (res *CohortTable, err error) {
	start := time.Now()
	defer func() { s.observe("cohorts", start, err) }()

	// 1. Validate parameters (PURE)
	anchor, err := query.ParseAnchor(anchorName)
	if err != nil {
		return nil, err
	}
	metric, err := query.ParseMetric(metricName)
	if err != nil {
		return nil, err
	}
	period, err := query.ParsePeriod(periodName)
	if err != nil {
		return nil, err
	}
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := s.getTuning()

	// 2. Resolve the effective window (PURE). The default is the most
	// recent N complete-or-current buckets ending at now.
	rng := q.Range
	if rng.IsZero() {
		starts := cohort.Buckets(now, period, t.CohortWindow)
		rng = query.DateRange{
			From: starts[0],
			To:   cohort.Next(starts[len(starts)-1], period),
		}
	}

	// 3. Compute, with the previous window concurrently when requested
	if q.CompareWithPrevious {
		prevRng := rng.Previous()

		var wg sync.WaitGroup
		var prev *CohortTable
		var prevErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev, prevErr = s.cohortTable(ctx, anchor, metric, period, prevRng, t, now)
		}()

		cur, curErr := s.cohortTable(ctx, anchor, metric, period, rng, t, now)
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

	return s.cohortTable(ctx, anchor, metric, period, rng, t, now)
}

func (s *InsightService) cohortTable(ctx context.Context, anchor query.Anchor, metric query.Metric, period query.Period, rng query.DateRange, t *Tuning, now time.Time) (*CohortTable, error) {
	key := fmt.Sprintf("cohorts|%s|%s|%s|%s", anchor, metric, period, rangeKey(rng))
	if v, ok := s.fromCache("cohorts", key, rng, now); ok {
		return v.(*CohortTable), nil
	}

	// Load the full projection and event history: anchors may predate the
	// window, and subscription intervals span arbitrary periods. (I/O)
	users, err := s.loadUsers(ctx, user.Filter{})
	if err != nil {
		return nil, err
	}
	events, err := s.loadEvents(ctx, event.Filter{})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Bucketize and aggregate (PURE)
	starts := cohort.BucketsInRange(rng.From, rng.To, period, t.CohortWindow)
	cohorts := cohort.Bucketize(users, anchor, period, starts)
	rows := cohort.Aggregate(cohorts, events, metric, period, len(starts), now)

	tbl := &CohortTable{
		Anchor: anchor,
		Metric: metric,
		Period: period,
		Range:  rng,
		Rows:   rows,
	}
	s.storeResult(key, tbl, rng, now)
	return tbl, nil
}
