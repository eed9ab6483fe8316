package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/funnel"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/user"
)

// funnelDefaultWindow is the signup window evaluated when the caller gives
// no explicit range.
const funnelDefaultWindow = 90 * 24 * time.Hour

// FunnelReport is the evaluated funnel for one signup window.
type FunnelReport struct {
	ID       string
	Name     string
	Range    query.DateRange
	Steps    []funnel.StepResult
	Previous *FunnelReport
}

// FunnelResult evaluates a predefined funnel over users who signed up in
// the window. Funnels are addressed by their configured id.
func (s *InsightService) FunnelResult(ctx context.Context, funnelID string, q query.Params) (res *FunnelReport, err error) {
	start := time.Now()
	defer func() { s.observe("funnels", start, err) }()

	// 1. Validate parameters (PURE)
	if err := q.Range.Validate(); err != nil {
		return nil, err
	}

	t := s.getTuning()
	def, ok := t.funnelByID(funnelID)
	if !ok {
		return nil, &query.InvalidParameterError{Param: "funnel_id", Value: funnelID, Reason: "no such funnel"}
	}

	now := s.clock.Now()

	rng := q.Range
	if rng.IsZero() {
		rng = query.DateRange{From: now.Add(-funnelDefaultWindow), To: now}
	}

	// 2. Compute, with the previous window concurrently when requested
	if q.CompareWithPrevious {
		prevRng := rng.Previous()

		var wg sync.WaitGroup
		var prev *FunnelReport
		var prevErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev, prevErr = s.funnelReport(ctx, def, prevRng, now)
		}()

		cur, curErr := s.funnelReport(ctx, def, rng, now)
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

	return s.funnelReport(ctx, def, rng, now)
}

func (s *InsightService) funnelReport(ctx context.Context, def funnel.Definition, rng query.DateRange, now time.Time) (*FunnelReport, error) {
	key := fmt.Sprintf("funnels|%s|%s", def.ID, rangeKey(rng))
	if v, ok := s.fromCache("funnels", key, rng, now); ok {
		return v.(*FunnelReport), nil
	}

	// The population is the signup window; their qualifying events may land
	// any time afterwards, so the event history loads unbounded. (I/O)
	users, err := s.loadUsers(ctx, user.Filter{SignedUpAfter: rng.From, SignedUpBefore: rng.To})
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

	rep := &FunnelReport{
		ID:    def.ID,
		Name:  def.Name,
		Range: rng,
		Steps: funnel.Evaluate(def, users, events),
	}
	s.storeResult(key, rep, rng, now)
	return rep, nil
}

// funnelByID finds a configured funnel definition.
func (t *Tuning) funnelByID(id string) (funnel.Definition, bool) {
	for _, d := range t.Funnels {
		if d.ID == id {
			return d, true
		}
	}
	return funnel.Definition{}, false
}
