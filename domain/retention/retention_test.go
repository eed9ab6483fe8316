package retention_test

import (
	"testing"
	"time"

	"github.com/creatorhub/insight/domain/cohort"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/retention"
	"github.com/creatorhub/insight/domain/user"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestCurves(t *testing.T) {
	c := cohort.Cohort{
		Key:     "2024-W01",
		Start:   date(2024, 1, 1),
		Anchor:  query.AnchorSignup,
		Size:    2,
		Members: []string{"u1", "u2"},
	}
	anchors := map[string]time.Time{
		"u1": date(2024, 1, 1),
		"u2": date(2024, 1, 2),
	}
	events := []event.Record{
		{UserID: "u1", Type: event.TypeSession, OccurredAt: date(2024, 1, 1).Add(2 * time.Hour)},
		{UserID: "u2", Type: event.TypeSession, OccurredAt: date(2024, 1, 2).Add(3 * time.Hour)},
		{UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 2).Add(1 * time.Hour)}, // u1 day 1
	}

	curves := retention.Curves([]cohort.Cohort{c}, anchors, events, 2, date(2024, 2, 1))
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(curves))
	}
	pts := curves[0].Points
	if len(pts) != 3 {
		t.Fatalf("got %d points, want 3", len(pts))
	}
	if pts[0].Value != 100.0 {
		t.Errorf("day 0 = %v, want 100.0 (both active on their own day 0)", pts[0].Value)
	}
	if pts[1].Value != 50.0 {
		t.Errorf("day 1 = %v, want 50.0 (only u1 returns)", pts[1].Value)
	}
	if pts[2].Value != 0.0 {
		t.Errorf("day 2 = %v, want 0.0", pts[2].Value)
	}
}

func TestCurves_StopAtImmatureDays(t *testing.T) {
	c := cohort.Cohort{
		Key: "2024-W09", Start: date(2024, 2, 26), Anchor: query.AnchorSignup,
		Size: 1, Members: []string{"u1"},
	}
	anchors := map[string]time.Time{"u1": date(2024, 2, 26)}

	// Two complete days have elapsed for u1.
	curves := retention.Curves([]cohort.Cohort{c}, anchors, nil, 30, date(2024, 2, 28))
	if len(curves) != 1 {
		t.Fatalf("got %d curves, want 1", len(curves))
	}
	if got := len(curves[0].Points); got != 2 {
		t.Errorf("curve has %d points, want 2 (days 0 and 1 only)", got)
	}
}

func TestBenchmarkCurve_HoldsLastValue(t *testing.T) {
	cur := retention.BenchmarkCurve("benchmark", []float64{100, 40, 25}, 5)
	if !cur.Benchmark {
		t.Error("Benchmark flag not set")
	}
	if len(cur.Points) != 6 {
		t.Fatalf("got %d points, want 6", len(cur.Points))
	}
	if cur.Points[2].Value != 25 || cur.Points[5].Value != 25 {
		t.Errorf("flat tail not held: %+v", cur.Points)
	}
}

func TestFixedHorizons_ExcludesYoungUsers(t *testing.T) {
	now := date(2024, 3, 1)
	users := []user.Record{
		// 60 days old: mature for D1/D7/D30, not D90.
		{ID: "old1", SignupAt: date(2024, 1, 1)},
		{ID: "old2", SignupAt: date(2024, 1, 1)},
		{ID: "old3", SignupAt: date(2024, 1, 1)},
		// 10 days old: mature for D1/D7 only.
		{ID: "young1", SignupAt: date(2024, 2, 20)},
		{ID: "young2", SignupAt: date(2024, 2, 20)},
	}
	events := []event.Record{
		{UserID: "old1", Type: event.TypeSession, OccurredAt: date(2024, 1, 31).Add(4 * time.Hour)}, // old1 active on day 30
		{UserID: "young1", Type: event.TypeClick, OccurredAt: date(2024, 2, 21).Add(1 * time.Hour)}, // young1 active on day 1
	}

	points := retention.FixedHorizons(users, events, []int{1, 7, 30, 90}, now)
	if len(points) != 4 {
		t.Fatalf("got %d points, want 4", len(points))
	}

	d1 := points[0]
	if d1.Mature != 5 {
		t.Errorf("D1 mature = %d, want 5", d1.Mature)
	}
	if d1.Value != 20.0 { // 1 of 5
		t.Errorf("D1 = %v, want 20.0", d1.Value)
	}

	d30 := points[2]
	if d30.Mature != 3 {
		t.Errorf("D30 denominator = %d, want exactly the 3 mature users", d30.Mature)
	}
	if d30.Value != 33.3 { // 1 of 3, round-half-to-even to one decimal
		t.Errorf("D30 = %v, want 33.3", d30.Value)
	}

	d90 := points[3]
	if d90.State != query.CellNoData {
		t.Errorf("D90 state = %s, want no_data (no user is 90 days old)", d90.State)
	}
}

func TestFixedHorizons_PartialDayIsImmature(t *testing.T) {
	now := date(2024, 3, 10).Add(12 * time.Hour)
	users := []user.Record{
		// Day-1 window [Mar 9, Mar 10) has fully elapsed.
		{ID: "done", SignupAt: date(2024, 3, 8)},
		// Day-1 window [Mar 10, Mar 11) is only half observed at "now".
		{ID: "halfway", SignupAt: date(2024, 3, 9)},
		// Day-1 window starts exactly at "now": empty observation window.
		{ID: "edge", SignupAt: date(2024, 3, 9).Add(12 * time.Hour)},
	}
	events := []event.Record{
		{UserID: "done", Type: event.TypeSession, OccurredAt: date(2024, 3, 9).Add(3 * time.Hour)},
		// Would count if the half-observed window entered the denominator.
		{UserID: "halfway", Type: event.TypeSession, OccurredAt: date(2024, 3, 10).Add(2 * time.Hour)},
	}

	points := retention.FixedHorizons(users, events, []int{1}, now)
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}

	d1 := points[0]
	if d1.Mature != 1 {
		t.Errorf("D1 mature = %d, want only the fully-elapsed user", d1.Mature)
	}
	if d1.Value != 100.0 {
		t.Errorf("D1 = %v, want 100.0", d1.Value)
	}
}

func TestComputeStickiness(t *testing.T) {
	now := date(2024, 3, 1).Add(10 * time.Hour) // most recent complete day: Feb 29
	events := []event.Record{
		{UserID: "u1", Type: event.TypeSession, OccurredAt: date(2024, 2, 29).Add(8 * time.Hour)},
		{UserID: "u2", Type: event.TypeClick, OccurredAt: date(2024, 2, 29).Add(9 * time.Hour)},
		{UserID: "u3", Type: event.TypeClick, OccurredAt: date(2024, 2, 10)},
		{UserID: "u4", Type: event.TypeFollow, OccurredAt: date(2024, 2, 15)},
		// Today's events are outside the complete-day window.
		{UserID: "u5", Type: event.TypeSession, OccurredAt: date(2024, 3, 1).Add(2 * time.Hour)},
	}

	s := retention.ComputeStickiness(events, now)
	if s.DAU != 2 {
		t.Errorf("DAU = %d, want 2", s.DAU)
	}
	if s.MAU != 4 {
		t.Errorf("MAU = %d, want 4", s.MAU)
	}
	if s.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", s.Ratio)
	}
}

func TestComputeStickiness_ZeroMAU(t *testing.T) {
	s := retention.ComputeStickiness(nil, date(2024, 3, 1))
	if s.Ratio != 0 {
		t.Errorf("Ratio = %v, want 0 when MAU is 0", s.Ratio)
	}
}
