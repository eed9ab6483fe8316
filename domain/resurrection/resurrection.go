// Package resurrection classifies dormant users and attributes their
// reactivation to campaign channels. All functions are pure - no side
// effects.
package resurrection

import (
	"sort"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/user"
)

// DefaultChannel attributes users whose events carry no channel.
const DefaultChannel = "organic"

// CampaignSend records one reactivation campaign send for a channel.
type CampaignSend struct {
	ID      string
	Channel string
	SentAt  time.Time
}

// Row is the per-channel reactivation summary. Rate is 0, not NaN, when a
// channel has no dormant users.
type Row struct {
	Channel          string
	DormantCount     int
	CampaignsSent    int
	ReactivatedCount int
	Rate             float64
}

// Analyze partitions users into dormant-by-channel and counts reactivations.
// A user is dormant when a gap of at least threshold separates consecutive
// qualifying activity events, or their last activity is older than threshold
// at now. The user is attributed to the channel of their last activity
// before going dormant. A dormant user is reactivated when a campaign send
// for their channel lands during the dormancy and a qualifying activity
// event follows within lookback of the send.
// This is a PURE function.
func Analyze(users []user.Record, events []event.Record, sends []CampaignSend, threshold, lookback time.Duration, now time.Time) []Row {
	byUser := event.ByUser(events)

	sendsByChannel := make(map[string][]CampaignSend)
	for _, s := range sends {
		sendsByChannel[s.Channel] = append(sendsByChannel[s.Channel], s)
	}
	for _, list := range sendsByChannel {
		sort.Slice(list, func(i, j int) bool { return list[i].SentAt.Before(list[j].SentAt) })
	}

	type tally struct {
		dormant     int
		reactivated int
	}
	channels := make(map[string]*tally)
	for ch := range sendsByChannel {
		channels[ch] = &tally{}
	}

	for _, u := range users {
		ch, reactivated, dormant := classify(activityOf(byUser[u.ID]), sendsByChannel, threshold, lookback, now)
		if !dormant {
			continue
		}
		t := channels[ch]
		if t == nil {
			t = &tally{}
			channels[ch] = t
		}
		t.dormant++
		if reactivated {
			t.reactivated++
		}
	}

	rows := make([]Row, 0, len(channels))
	for ch, t := range channels {
		r := Row{
			Channel:          ch,
			DormantCount:     t.dormant,
			CampaignsSent:    len(sendsByChannel[ch]),
			ReactivatedCount: t.reactivated,
		}
		if t.dormant > 0 {
			r.Rate = float64(t.reactivated) / float64(t.dormant)
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Channel < rows[j].Channel })
	return rows
}

// classify walks a user's activity timeline looking for dormancy episodes.
// A reactivated user is attributed to the channel of the episode the
// campaign actually ended; a user who never came back is attributed to the
// channel of their first episode.
func classify(activity []event.Record, sendsByChannel map[string][]CampaignSend, threshold, lookback time.Duration, now time.Time) (string, bool, bool) {
	if len(activity) == 0 {
		return "", false, false
	}

	firstChannel := ""
	dormant := false

	for i := 0; i < len(activity); i++ {
		last := activity[i]
		episodeEnd := now
		var next *event.Record
		if i+1 < len(activity) {
			next = &activity[i+1]
			episodeEnd = next.OccurredAt
		}
		if episodeEnd.Sub(last.OccurredAt) < threshold {
			continue
		}

		ch := channelOf(last)
		if !dormant {
			dormant = true
			firstChannel = ch
		}

		// Reactivation needs a send during the dormancy followed by the
		// next activity within the lookback window.
		if next == nil {
			continue
		}
		dormantFrom := last.OccurredAt.Add(threshold)
		for _, s := range sendsByChannel[ch] {
			if s.SentAt.Before(dormantFrom) || s.SentAt.After(next.OccurredAt) {
				continue
			}
			if next.OccurredAt.Sub(s.SentAt) <= lookback {
				return ch, true, true
			}
		}
	}

	return firstChannel, false, dormant
}

func channelOf(e event.Record) string {
	if e.Channel == "" {
		return DefaultChannel
	}
	return e.Channel
}

func activityOf(events []event.Record) []event.Record {
	var out []event.Record
	for _, e := range events {
		if e.IsActivity() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out
}
