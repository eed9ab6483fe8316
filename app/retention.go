package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorhub/insight/domain/cohort"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/retention"
	"github.com/creatorhub/insight/domain/user"
)

// retentionCurveCohorts caps how many signup cohorts get a curve; the
// benchmark curve comes on top.
const retentionCurveCohorts = 3

// RetentionMetrics bundles the retention dashboard card: per-cohort curves
// with the configured benchmark overlay, fixed-horizon points, and the
// DAU/MAU stickiness ratio.
type RetentionMetrics struct {
	Role       user.Role
	Plan       user.Plan
	Range      query.DateRange
	Curves     []retention.Curve
	Horizons   []retention.HorizonPoint
	Stickiness retention.Stickiness
	Previous   *RetentionMetrics
}

// RetentionMetrics computes retention over the population selected by the
// optional role and plan filters. An empty filter string matches everything.
func (s *InsightService) RetentionMetrics(ctx context.Context, roleName, planName string, q query.Params) (res *RetentionMetrics, err error) {
	start := time.Now()
	defer func() { s.observe("retention", start, err) }()

	// 1. Validate parameters (PURE)
	role, err := parseRole(roleName)
	if err != nil {
		return nil, err
	}
	plan, err := parsePlan(planName)
	if err != nil {
		return nil, err
	}
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := s.getTuning()

	// 2. Resolve the signup window the curves cover (PURE)
	rng := q.Range
	if rng.IsZero() {
		starts := cohort.Buckets(now, query.PeriodWeekly, retentionCurveCohorts)
		rng = query.DateRange{
			From: starts[0],
			To:   cohort.Next(starts[len(starts)-1], query.PeriodWeekly),
		}
	}

	// 3. Compute, with the previous window concurrently when requested
	if q.CompareWithPrevious {
		prevRng := rng.Previous()

		var wg sync.WaitGroup
		var prev *RetentionMetrics
		var prevErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev, prevErr = s.retentionMetrics(ctx, role, plan, prevRng, t, now)
		}()

		cur, curErr := s.retentionMetrics(ctx, role, plan, rng, t, now)
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

	return s.retentionMetrics(ctx, role, plan, rng, t, now)
}

func (s *InsightService) retentionMetrics(ctx context.Context, role user.Role, plan user.Plan, rng query.DateRange, t *Tuning, now time.Time) (*RetentionMetrics, error) {
	key := fmt.Sprintf("retention|%s|%s|%s", role, plan, rangeKey(rng))
	if v, ok := s.fromCache("retention", key, rng, now); ok {
		return v.(*RetentionMetrics), nil
	}

	// Load the filtered population and only its events, so stickiness and
	// horizons reflect the same slice of users the curves do. (I/O)
	users, err := s.loadUsers(ctx, user.Filter{Role: role, Plan: plan})
	if err != nil {
		return nil, err
	}

	var events []event.Record
	if role == "" && plan == "" {
		events, err = s.loadEvents(ctx, event.Filter{})
	} else if len(users) > 0 {
		events, err = s.loadEvents(ctx, event.Filter{UserIDs: user.IDs(users)})
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Curves for the most recent signup cohorts plus the benchmark (PURE)
	starts := cohort.BucketsInRange(rng.From, rng.To, query.PeriodWeekly, retentionCurveCohorts)
	cohorts := cohort.Bucketize(users, query.AnchorSignup, query.PeriodWeekly, starts)

	anchorOf := make(map[string]time.Time, len(users))
	for _, u := range users {
		anchorOf[u.ID] = u.SignupAt
	}

	curves := retention.Curves(cohorts, anchorOf, events, t.CurveDays, now)
	curves = append(curves, retention.BenchmarkCurve(t.BenchmarkLabel, t.BenchmarkValues, t.CurveDays))

	m := &RetentionMetrics{
		Role:       role,
		Plan:       plan,
		Range:      rng,
		Curves:     curves,
		Horizons:   retention.FixedHorizons(users, events, t.Horizons, now),
		Stickiness: retention.ComputeStickiness(events, now),
	}
	s.storeResult(key, m, rng, now)
	return m, nil
}
