// Package engagement scores user activity with injected weights and
// summarises the population. All functions are pure - no side effects.
package engagement

import (
	"sort"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/user"
)

// Weights configures the composite score. These are product decisions
// injected by the caller, not business law baked into the algorithm.
type Weights struct {
	Product float64
	Post    float64
	Click   float64
}

// Score is one user's weighted engagement score.
type Score struct {
	UserID   string
	SignupAt time.Time
	Products int
	Posts    int
	Clicks   int
	Value    float64
	Bucket   string
}

// Compute scores every user in the population over the given events.
// The caller decides the population (typically the currently active users).
// This is a PURE function.
func Compute(users []user.Record, events []event.Record, w Weights, buckets []BucketSpec) []Score {
	type counts struct{ products, posts, clicks int }
	byUser := make(map[string]*counts, len(users))
	for _, u := range users {
		byUser[u.ID] = &counts{}
	}
	for _, e := range events {
		c, ok := byUser[e.UserID]
		if !ok {
			continue
		}
		switch e.Type {
		case event.TypeProductCreated:
			c.products++
		case event.TypePostCreated:
			c.posts++
		case event.TypeClick:
			c.clicks++
		}
	}

	out := make([]Score, 0, len(users))
	for _, u := range users {
		c := byUser[u.ID]
		s := Score{
			UserID:   u.ID,
			SignupAt: u.SignupAt,
			Products: c.products,
			Posts:    c.posts,
			Clicks:   c.clicks,
		}
		s.Value = float64(c.products)*w.Product + float64(c.posts)*w.Post + float64(c.clicks)*w.Click
		s.Bucket = bucketLabel(s.Value, buckets)
		out = append(out, s)
	}
	return out
}

// BucketSpec is one score-range histogram bucket. Max < 0 marks an
// open-ended top bucket.
type BucketSpec struct {
	Label string
	Min   float64
	Max   float64
}

// BucketCount is one histogram bar.
type BucketCount struct {
	Label string
	Count int
}

func bucketLabel(v float64, buckets []BucketSpec) string {
	for _, b := range buckets {
		if v >= b.Min && (b.Max < 0 || v <= b.Max) {
			return b.Label
		}
	}
	return ""
}

// Histogram counts scores per configured bucket, preserving bucket order and
// keeping empty buckets so the distribution chart stays complete.
// This is a PURE function.
func Histogram(scores []Score, buckets []BucketSpec) []BucketCount {
	out := make([]BucketCount, len(buckets))
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		out[i] = BucketCount{Label: b.Label}
		index[b.Label] = i
	}
	for _, s := range scores {
		if i, ok := index[s.Bucket]; ok {
			out[i].Count++
		}
	}
	return out
}

// TopK returns the k highest scores with stable ordering: ties broken by
// earliest signup, then by user ID.
// This is a PURE function.
func TopK(scores []Score, k int) []Score {
	sorted := make([]Score, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Value != sorted[j].Value {
			return sorted[i].Value > sorted[j].Value
		}
		if !sorted[i].SignupAt.Equal(sorted[j].SignupAt) {
			return sorted[i].SignupAt.Before(sorted[j].SignupAt)
		}
		return sorted[i].UserID < sorted[j].UserID
	})
	if k > 0 && len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// FeatureAdoption is the share of the population that used a feature at
// least once.
type FeatureAdoption struct {
	Feature string
	Users   int
	Percent float64
}

// Adoption measures per-feature adoption over the population.
// This is a PURE function.
func Adoption(users []user.Record, events []event.Record) []FeatureAdoption {
	features := []struct {
		name string
		typ  event.Type
	}{
		{"products", event.TypeProductCreated},
		{"posts", event.TypePostCreated},
		{"favorites", event.TypeFavorite},
		{"follows", event.TypeFollow},
	}

	population := make(map[string]bool, len(users))
	for _, u := range users {
		population[u.ID] = true
	}

	out := make([]FeatureAdoption, 0, len(features))
	for _, f := range features {
		seen := make(map[string]bool)
		for _, e := range events {
			if e.Type == f.typ && population[e.UserID] {
				seen[e.UserID] = true
			}
		}
		out = append(out, FeatureAdoption{
			Feature: f.name,
			Users:   len(seen),
			Percent: query.Percent(len(seen), len(users)),
		})
	}
	return out
}

// SessionAnalytics summarises session events over the population.
type SessionAnalytics struct {
	Sessions     int
	PerUser      float64       // sessions per population member, one decimal
	MedianGap    time.Duration // median gap between a user's consecutive sessions
	UsersWithGap int           // users contributing at least one gap
}

// Sessions computes session frequency and the median inter-session gap.
// This is a PURE function.
func Sessions(users []user.Record, events []event.Record) SessionAnalytics {
	population := make(map[string]bool, len(users))
	for _, u := range users {
		population[u.ID] = true
	}

	perUser := make(map[string][]time.Time)
	total := 0
	for _, e := range events {
		if e.Type == event.TypeSession && population[e.UserID] {
			perUser[e.UserID] = append(perUser[e.UserID], e.OccurredAt)
			total++
		}
	}

	var gaps []time.Duration
	usersWithGap := 0
	for _, times := range perUser {
		if len(times) < 2 {
			continue
		}
		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		usersWithGap++
		for i := 1; i < len(times); i++ {
			gaps = append(gaps, times[i].Sub(times[i-1]))
		}
	}

	a := SessionAnalytics{Sessions: total, UsersWithGap: usersWithGap}
	if len(users) > 0 {
		a.PerUser = query.Round1(float64(total) / float64(len(users)))
	}
	if len(gaps) > 0 {
		sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
		mid := len(gaps) / 2
		if len(gaps)%2 == 1 {
			a.MedianGap = gaps[mid]
		} else {
			a.MedianGap = (gaps[mid-1] + gaps[mid]) / 2
		}
	}
	return a
}
