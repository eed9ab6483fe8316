// Package funnel evaluates ordered conversion funnels over the event
// source. All functions are pure - no side effects.
package funnel

import (
	"sort"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/user"
)

// Step is one funnel milestone. Account marks a user-state predicate ("has
// an account"), satisfied at signup time; otherwise the step is satisfied by
// the first event of the given type at or after the previous step's
// qualifying timestamp.
type Step struct {
	Name    string
	Account bool
	Event   event.Type
}

// Definition is an ordered funnel. A user who skips a step is excluded from
// all later steps; there is no terminal failure state, a user simply stops
// advancing and is counted at the last step reached.
type Definition struct {
	ID    string
	Name  string
	Steps []Step
}

// Validate rejects malformed definitions.
func (d Definition) Validate() error {
	if d.ID == "" {
		return &query.InvalidParameterError{Param: "funnel.id", Reason: "must not be empty"}
	}
	if len(d.Steps) < 2 {
		return &query.InvalidParameterError{Param: "funnel.steps", Value: d.ID, Reason: "needs at least two steps"}
	}
	for i, s := range d.Steps {
		if s.Name == "" {
			return &query.InvalidParameterError{Param: "funnel.steps", Value: d.ID, Reason: "step name must not be empty"}
		}
		if s.Account && i != 0 {
			return &query.InvalidParameterError{Param: "funnel.steps", Value: d.ID, Reason: "account predicate only allowed as first step"}
		}
		if !s.Account && !event.IsValidType(s.Event) {
			return &query.InvalidParameterError{Param: "funnel.steps", Value: d.ID, Reason: "unknown event type " + string(s.Event)}
		}
	}
	return nil
}

// StepResult is the population that reached a step, with conversion fields
// derived from the counts for caller convenience.
type StepResult struct {
	Name            string
	Value           int
	MedianTime      time.Duration // median elapsed from the previous step; 0 for step 0
	StepConversion  float64       // value[i] / value[i-1], percent
	TotalConversion float64       // value[i] / value[0], percent
	DropOff         float64       // 100 - StepConversion
}

// Evaluate runs the funnel over the population. Each user advances through
// states 0..len(steps)-1; the transition into state i fires on the first
// event satisfying step i at a timestamp at or after the timestamp that
// triggered the previous transition. Repeat qualifying events are ignored.
// Step values are non-increasing by construction.
// This is a PURE function.
func Evaluate(def Definition, users []user.Record, events []event.Record) []StepResult {
	byUser := event.ByUser(events)

	counts := make([]int, len(def.Steps))
	elapsed := make([][]time.Duration, len(def.Steps))

	for _, u := range users {
		timeline := sortedByTime(byUser[u.ID])

		var prev time.Time
		for i, step := range def.Steps {
			at, ok := satisfy(step, u, timeline, prev)
			if !ok {
				break
			}
			counts[i]++
			if i > 0 {
				elapsed[i] = append(elapsed[i], at.Sub(prev))
			}
			prev = at
		}
	}

	results := make([]StepResult, len(def.Steps))
	for i, step := range def.Steps {
		r := StepResult{Name: step.Name, Value: counts[i]}
		if i == 0 {
			r.StepConversion = 100.0
			r.TotalConversion = 100.0
		} else {
			r.StepConversion = query.Percent(counts[i], counts[i-1])
			r.TotalConversion = query.Percent(counts[i], counts[0])
			r.DropOff = query.Round1(100.0 - r.StepConversion)
			r.MedianTime = median(elapsed[i])
		}
		results[i] = r
	}
	return results
}

// satisfy returns the qualifying timestamp for a step, scanning for the
// first matching event at or after prev.
func satisfy(step Step, u user.Record, timeline []event.Record, prev time.Time) (time.Time, bool) {
	if step.Account {
		return u.SignupAt, true
	}
	for _, e := range timeline {
		if e.Type == step.Event && !e.OccurredAt.Before(prev) {
			return e.OccurredAt, true
		}
	}
	return time.Time{}, false
}

func sortedByTime(events []event.Record) []event.Record {
	out := make([]event.Record, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.Before(out[j].OccurredAt)
	})
	return out
}

func median(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
