package engagement_test

import (
	"testing"
	"time"

	"github.com/creatorhub/insight/domain/engagement"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/user"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var weights = engagement.Weights{Product: 10, Post: 15, Click: 0.5}

var buckets = []engagement.BucketSpec{
	{Label: "0-50", Min: 0, Max: 50},
	{Label: "51-150", Min: 50.5, Max: 150},
	{Label: "150+", Min: 150.5, Max: -1},
}

func TestCompute(t *testing.T) {
	users := []user.Record{
		{ID: "u1", SignupAt: date(2024, 1, 1)},
		{ID: "u2", SignupAt: date(2024, 1, 2)},
	}
	events := []event.Record{
		{UserID: "u1", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 3)},
		{UserID: "u1", Type: event.TypePostCreated, OccurredAt: date(2024, 1, 4)},
		{UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 5)},
		{UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 6)},
		// Events from users outside the population are ignored.
		{UserID: "ghost", Type: event.TypeClick, OccurredAt: date(2024, 1, 5)},
	}

	scores := engagement.Compute(users, events, weights, buckets)
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	// 1*10 + 1*15 + 2*0.5 = 26
	if scores[0].Value != 26 {
		t.Errorf("u1 score = %v, want 26", scores[0].Value)
	}
	if scores[0].Bucket != "0-50" {
		t.Errorf("u1 bucket = %q, want 0-50", scores[0].Bucket)
	}
	if scores[1].Value != 0 {
		t.Errorf("u2 score = %v, want 0", scores[1].Value)
	}
}

func TestHistogram_KeepsEmptyBuckets(t *testing.T) {
	scores := []engagement.Score{
		{UserID: "u1", Value: 26, Bucket: "0-50"},
		{UserID: "u2", Value: 40, Bucket: "0-50"},
		{UserID: "u3", Value: 200, Bucket: "150+"},
	}

	hist := engagement.Histogram(scores, buckets)
	if len(hist) != 3 {
		t.Fatalf("got %d bars, want 3", len(hist))
	}
	if hist[0].Count != 2 || hist[1].Count != 0 || hist[2].Count != 1 {
		t.Errorf("histogram = %+v, want counts 2,0,1", hist)
	}
}

func TestTopK_TiesByEarliestSignup(t *testing.T) {
	scores := []engagement.Score{
		{UserID: "late", SignupAt: date(2024, 2, 1), Value: 50},
		{UserID: "early", SignupAt: date(2024, 1, 1), Value: 50},
		{UserID: "top", SignupAt: date(2024, 3, 1), Value: 90},
		{UserID: "small", SignupAt: date(2024, 1, 1), Value: 5},
	}

	top := engagement.TopK(scores, 3)
	want := []string{"top", "early", "late"}
	for i, id := range want {
		if top[i].UserID != id {
			t.Errorf("top[%d] = %s, want %s", i, top[i].UserID, id)
		}
	}
}

func TestAdoption(t *testing.T) {
	users := []user.Record{
		{ID: "u1", SignupAt: date(2024, 1, 1)},
		{ID: "u2", SignupAt: date(2024, 1, 1)},
		{ID: "u3", SignupAt: date(2024, 1, 1)},
		{ID: "u4", SignupAt: date(2024, 1, 1)},
	}
	events := []event.Record{
		{UserID: "u1", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 2)},
		{UserID: "u1", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 3)}, // repeat, same user
		{UserID: "u2", Type: event.TypeFavorite, OccurredAt: date(2024, 1, 2)},
		{UserID: "u3", Type: event.TypeFavorite, OccurredAt: date(2024, 1, 2)},
		{UserID: "u4", Type: event.TypeFavorite, OccurredAt: date(2024, 1, 2)},
	}

	adoption := engagement.Adoption(users, events)
	byFeature := map[string]engagement.FeatureAdoption{}
	for _, a := range adoption {
		byFeature[a.Feature] = a
	}
	if got := byFeature["products"]; got.Users != 1 || got.Percent != 25.0 {
		t.Errorf("products adoption = %+v, want 1 user / 25.0%%", got)
	}
	if got := byFeature["favorites"]; got.Users != 3 || got.Percent != 75.0 {
		t.Errorf("favorites adoption = %+v, want 3 users / 75.0%%", got)
	}
}

func TestSessions(t *testing.T) {
	users := []user.Record{
		{ID: "u1", SignupAt: date(2024, 1, 1)},
		{ID: "u2", SignupAt: date(2024, 1, 1)},
	}
	events := []event.Record{
		{UserID: "u1", Type: event.TypeSession, OccurredAt: date(2024, 1, 1)},
		{UserID: "u1", Type: event.TypeSession, OccurredAt: date(2024, 1, 2)},
		{UserID: "u1", Type: event.TypeSession, OccurredAt: date(2024, 1, 4)},
		{UserID: "u2", Type: event.TypeSession, OccurredAt: date(2024, 1, 1)},
	}

	a := engagement.Sessions(users, events)
	if a.Sessions != 4 {
		t.Errorf("sessions = %d, want 4", a.Sessions)
	}
	if a.PerUser != 2.0 {
		t.Errorf("per user = %v, want 2.0", a.PerUser)
	}
	// u1 gaps: 24h and 48h -> median 36h.
	if a.MedianGap != 36*time.Hour {
		t.Errorf("median gap = %v, want 36h", a.MedianGap)
	}
	if a.UsersWithGap != 1 {
		t.Errorf("users with gap = %d, want 1", a.UsersWithGap)
	}
}
