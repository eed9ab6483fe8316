// Package retention computes cohort retention curves, fixed-horizon
// retention points and the DAU/MAU stickiness ratio.
// All functions are pure - no side effects.
package retention

import (
	"time"

	"github.com/creatorhub/insight/domain/cohort"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/user"
)

const day = 24 * time.Hour

// CurvePoint is one (day offset, percentage) sample of a retention curve.
type CurvePoint struct {
	DayOffset int
	Value     float64
}

// Curve is a labelled retention series. Benchmark curves are configuration,
// not derived from data.
type Curve struct {
	Label     string
	Benchmark bool
	Points    []CurvePoint
}

// Curves builds per-day retention curves for the given cohorts. anchorOf
// maps each member to its anchor timestamp; a member only enters a day's
// denominator once that day has fully elapsed for them, so young members
// never deflate mature day offsets. A curve stops at the first day offset
// with no mature members.
// This is a PURE function.
func Curves(cohorts []cohort.Cohort, anchorOf map[string]time.Time, events []event.Record, days int, now time.Time) []Curve {
	byUser := event.ByUser(events)

	out := make([]Curve, 0, len(cohorts))
	for _, c := range cohorts {
		if c.Size == 0 {
			continue
		}
		cur := Curve{Label: c.Key}
		for d := 0; d <= days; d++ {
			mature, active := 0, 0
			for _, id := range c.Members {
				anchor, ok := anchorOf[id]
				if !ok {
					continue
				}
				winStart := anchor.Add(time.Duration(d) * day)
				if winStart.Add(day).After(now) {
					continue
				}
				mature++
				if activeInWindow(byUser[id], winStart, winStart.Add(day)) {
					active++
				}
			}
			if mature == 0 {
				break
			}
			cur.Points = append(cur.Points, CurvePoint{DayOffset: d, Value: query.Percent(active, mature)})
		}
		if len(cur.Points) > 0 {
			out = append(out, cur)
		}
	}
	return out
}

// BenchmarkCurve materialises an injected industry-reference curve. values
// holds one percentage per day offset; the last value is held flat through
// the requested number of days.
// This is a PURE function.
func BenchmarkCurve(label string, values []float64, days int) Curve {
	cur := Curve{Label: label, Benchmark: true}
	if len(values) == 0 {
		return cur
	}
	for d := 0; d <= days; d++ {
		v := values[len(values)-1]
		if d < len(values) {
			v = values[d]
		}
		cur.Points = append(cur.Points, CurvePoint{DayOffset: d, Value: query.Round1(v)})
	}
	return cur
}

// HorizonPoint is retention at a fixed number of days after signup, computed
// over the mature subset of the population. State is CellNoData when no user
// has reached the horizon yet.
type HorizonPoint struct {
	Days   int
	Value  float64
	State  query.CellState
	Mature int // denominator: users old enough for this horizon
}

// FixedHorizons computes D-style retention points (D1, D7, D30, D90 by
// convention) for the given population. A user enters the denominator only
// once their horizon day has fully elapsed, the same maturity rule Curves
// applies, so a half-observed day never deflates the point.
// This is a PURE function.
func FixedHorizons(users []user.Record, events []event.Record, horizons []int, now time.Time) []HorizonPoint {
	byUser := event.ByUser(events)

	out := make([]HorizonPoint, 0, len(horizons))
	for _, h := range horizons {
		mature, active := 0, 0
		for _, u := range users {
			winStart := u.SignupAt.Add(time.Duration(h) * day)
			if winStart.Add(day).After(now) {
				continue
			}
			mature++
			if activeInWindow(byUser[u.ID], winStart, winStart.Add(day)) {
				active++
			}
		}
		p := HorizonPoint{Days: h, Mature: mature}
		if mature == 0 {
			p.State = query.CellNoData
		} else {
			p.State = query.CellPresent
			p.Value = query.Percent(active, mature)
		}
		out = append(out, p)
	}
	return out
}

// Stickiness is the DAU/MAU habitual-usage proxy.
type Stickiness struct {
	DAU   int
	MAU   int
	Ratio float64 // DAU/MAU, 0 when MAU is 0
}

// ComputeStickiness measures distinct active users over the most recent
// complete UTC day (DAU) and the trailing 30-day window ending at that day's
// end (MAU).
// This is a PURE function.
func ComputeStickiness(events []event.Record, now time.Time) Stickiness {
	dayEnd := now.UTC().Truncate(day)
	dayStart := dayEnd.Add(-day)
	monthStart := dayEnd.Add(-30 * day)

	daily := make(map[string]bool)
	monthly := make(map[string]bool)
	for _, e := range events {
		if !e.IsActivity() {
			continue
		}
		if !e.OccurredAt.Before(monthStart) && e.OccurredAt.Before(dayEnd) {
			monthly[e.UserID] = true
			if !e.OccurredAt.Before(dayStart) {
				daily[e.UserID] = true
			}
		}
	}

	s := Stickiness{DAU: len(daily), MAU: len(monthly)}
	if s.MAU > 0 {
		s.Ratio = float64(s.DAU) / float64(s.MAU)
	}
	return s
}

func activeInWindow(events []event.Record, start, end time.Time) bool {
	for _, e := range events {
		if e.IsActivity() && !e.OccurredAt.Before(start) && e.OccurredAt.Before(end) {
			return true
		}
	}
	return false
}
