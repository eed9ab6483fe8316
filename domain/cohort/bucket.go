// Package cohort provides time-bucketed cohort grouping and per-period
// metric aggregation. All functions are pure - no side effects.
package cohort

import (
	"fmt"
	"time"

	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/user"
)

// WeekStart truncates t to the start of its ISO week (Monday 00:00) in UTC.
// This is a PURE function.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	// time.Weekday has Sunday = 0; ISO weeks start Monday.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart truncates t to the first day of its calendar month in UTC.
// This is a PURE function.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// BucketStart maps a timestamp to its bucket start for the granularity.
// This is a PURE function.
func BucketStart(t time.Time, period query.Period) time.Time {
	if period == query.PeriodWeekly {
		return WeekStart(t)
	}
	return MonthStart(t)
}

// Next returns the start of the bucket following the one starting at start.
// This is a PURE function.
func Next(start time.Time, period query.Period) time.Time {
	if period == query.PeriodWeekly {
		return start.AddDate(0, 0, 7)
	}
	return start.AddDate(0, 1, 0)
}

// Offset returns the start of the bucket n periods after start.
// This is a PURE function.
func Offset(start time.Time, period query.Period, n int) time.Time {
	if period == query.PeriodWeekly {
		return start.AddDate(0, 0, 7*n)
	}
	return start.AddDate(0, n, 0)
}

// Label derives the display key for a bucket start: "2024-W05" for weekly
// buckets, "2024-01" for monthly ones.
// This is a PURE function.
func Label(start time.Time, period query.Period) string {
	if period == query.PeriodWeekly {
		year, week := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return start.Format("2006-01")
}

// Buckets returns n consecutive bucket starts ending with the bucket that
// contains ref, oldest first.
// This is a PURE function.
func Buckets(ref time.Time, period query.Period, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, n)
	cur := BucketStart(ref, period)
	for i := n - 1; i >= 0; i-- {
		out[i] = cur
		cur = Offset(cur, period, -1)
	}
	return out
}

// BucketsInRange returns every bucket start whose bucket intersects the
// half-open range [from, to), oldest first, capped at max entries from the
// newest end.
// This is a PURE function.
func BucketsInRange(from, to time.Time, period query.Period, max int) []time.Time {
	if !to.After(from) {
		return nil
	}
	var out []time.Time
	for cur := BucketStart(from, period); cur.Before(to); cur = Next(cur, period) {
		out = append(out, cur)
	}
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}

// Cohort is a set of users sharing an anchor-event bucket. Members holds the
// IDs of the cohort's users; it stays nil for empty cohorts so the heatmap
// grid keeps rectangular rows without fabricating membership.
type Cohort struct {
	Key     string
	Start   time.Time
	Anchor  query.Anchor
	Size    int
	Members []string
}

// AnchorTime returns the timestamp of the user's anchor event, or false when
// the user lacks that anchor (e.g. no product created yet).
// This is a PURE function.
func AnchorTime(u user.Record, anchor query.Anchor) (time.Time, bool) {
	switch anchor {
	case query.AnchorSignup:
		return u.SignupAt, true
	case query.AnchorFirstProduct:
		if u.FirstProductAt == nil {
			return time.Time{}, false
		}
		return *u.FirstProductAt, true
	case query.AnchorUpgrade:
		if u.UpgradeAt == nil {
			return time.Time{}, false
		}
		return *u.UpgradeAt, true
	}
	return time.Time{}, false
}

// Bucketize groups users into the given buckets by their anchor event.
// Users lacking the anchor or falling outside the buckets are skipped.
// Empty cohorts are retained as size-0 rows.
// This is a PURE function.
func Bucketize(users []user.Record, anchor query.Anchor, period query.Period, starts []time.Time) []Cohort {
	cohorts := make([]Cohort, len(starts))
	index := make(map[time.Time]int, len(starts))
	for i, s := range starts {
		cohorts[i] = Cohort{Key: Label(s, period), Start: s, Anchor: anchor}
		index[s] = i
	}

	for _, u := range users {
		at, ok := AnchorTime(u, anchor)
		if !ok {
			continue
		}
		i, ok := index[BucketStart(at, period)]
		if !ok {
			continue
		}
		cohorts[i].Size++
		cohorts[i].Members = append(cohorts[i].Members, u.ID)
	}

	return cohorts
}
