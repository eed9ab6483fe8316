package cohort

import (
	"sort"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
)

// Cell is one (cohort, offset) metric value. State is CellPending when the
// offset period has not fully elapsed; a pending cell carries no value.
type Cell struct {
	Offset int
	Value  float64
	State  query.CellState
}

// Row pairs a cohort with its metric cells. Empty cohorts carry no cells at
// all: absence, not zero.
type Row struct {
	Cohort Cohort
	Cells  []Cell
}

// Aggregate computes a metric cell for offsets 0..offsets-1 of every
// non-empty cohort. events must cover the cohort members' full history for
// the metric in question (subscription intervals may begin before the
// inspected periods). A cell whose period end is after now is emitted as
// pending.
// This is a PURE function.
func Aggregate(cohorts []Cohort, events []event.Record, metric query.Metric, period query.Period, offsets int, now time.Time) []Row {
	byUser := event.ByUser(events)

	rows := make([]Row, len(cohorts))
	for i, c := range cohorts {
		rows[i] = Row{Cohort: c}
		if c.Size == 0 {
			continue
		}
		rows[i].Cells = cells(c, byUser, metric, period, offsets, now)
	}
	return rows
}

func cells(c Cohort, byUser map[string][]event.Record, metric query.Metric, period query.Period, offsets int, now time.Time) []Cell {
	out := make([]Cell, 0, offsets)
	for off := 0; off < offsets; off++ {
		pStart := Offset(c.Start, period, off)
		pEnd := Next(pStart, period)
		if pEnd.After(now) {
			out = append(out, Cell{Offset: off, State: query.CellPending})
			continue
		}
		out = append(out, Cell{
			Offset: off,
			Value:  metricValue(c, byUser, metric, pStart, pEnd),
			State:  query.CellPresent,
		})
	}
	return out
}

// metricValue dispatches on the closed Metric variant. The switch is
// exhaustive; ParseMetric guarantees no other value reaches here.
func metricValue(c Cohort, byUser map[string][]event.Record, metric query.Metric, pStart, pEnd time.Time) float64 {
	switch metric {
	case query.MetricRetention:
		return retention(c, byUser, pStart, pEnd)
	case query.MetricMRR:
		return mrr(c, byUser, pStart, pEnd)
	case query.MetricClicks:
		return countInPeriod(c, byUser, event.TypeClick, pStart, pEnd)
	case query.MetricProducts:
		return countInPeriod(c, byUser, event.TypeProductCreated, pStart, pEnd)
	}
	return 0
}

// retention is the percentage of cohort members with at least one qualifying
// activity event in [pStart, pEnd), relative to original cohort size.
func retention(c Cohort, byUser map[string][]event.Record, pStart, pEnd time.Time) float64 {
	active := 0
	for _, id := range c.Members {
		for _, e := range byUser[id] {
			if e.IsActivity() && !e.OccurredAt.Before(pStart) && e.OccurredAt.Before(pEnd) {
				active++
				break
			}
		}
	}
	return query.Percent(active, c.Size)
}

// mrr sums monthly subscription revenue (cents) of subscriptions active at
// any point during [pStart, pEnd). A subscription runs from its started
// event until the next canceled event for the same user, or indefinitely.
func mrr(c Cohort, byUser map[string][]event.Record, pStart, pEnd time.Time) float64 {
	var total float64
	for _, id := range c.Members {
		for _, iv := range subscriptionIntervals(byUser[id]) {
			if iv.start.Before(pEnd) && (iv.end.IsZero() || iv.end.After(pStart)) {
				total += iv.price
			}
		}
	}
	return total
}

type subInterval struct {
	start time.Time
	end   time.Time // zero = still active
	price float64
}

// subscriptionIntervals pairs started/canceled events chronologically.
func subscriptionIntervals(events []event.Record) []subInterval {
	var subs []event.Record
	for _, e := range events {
		if e.Type == event.TypeSubscriptionStarted || e.Type == event.TypeSubscriptionCanceled {
			subs = append(subs, e)
		}
	}
	sort.SliceStable(subs, func(i, j int) bool {
		return subs[i].OccurredAt.Before(subs[j].OccurredAt)
	})

	var out []subInterval
	for _, e := range subs {
		switch e.Type {
		case event.TypeSubscriptionStarted:
			out = append(out, subInterval{start: e.OccurredAt, price: e.Value})
		case event.TypeSubscriptionCanceled:
			if len(out) > 0 && out[len(out)-1].end.IsZero() {
				out[len(out)-1].end = e.OccurredAt
			}
		}
	}
	return out
}

func countInPeriod(c Cohort, byUser map[string][]event.Record, t event.Type, pStart, pEnd time.Time) float64 {
	n := 0
	for _, id := range c.Members {
		for _, e := range byUser[id] {
			if e.Type == t && !e.OccurredAt.Before(pStart) && e.OccurredAt.Before(pEnd) {
				n++
			}
		}
	}
	return float64(n)
}
