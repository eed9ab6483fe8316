package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/creatorhub/insight/adapters/memory"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/resurrection"
	"github.com/creatorhub/insight/domain/user"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEventStore_QueryOrdersByTime(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEventStore()

	if err := s.Append(ctx, []event.Record{
		{ID: "e2", UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 5)},
		{ID: "e1", UserID: "u1", Type: event.TypeSession, OccurredAt: date(2024, 1, 2)},
		{ID: "e3", UserID: "u2", Type: event.TypeClick, OccurredAt: date(2024, 1, 5)},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.Query(ctx, event.Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	if got[0].ID != "e1" {
		t.Errorf("first event = %s, want e1", got[0].ID)
	}
	// Stable: e2 was appended before e3 and shares its timestamp.
	if got[1].ID != "e2" || got[2].ID != "e3" {
		t.Errorf("equal timestamps reordered: %s, %s", got[1].ID, got[2].ID)
	}
}

func TestEventStore_QueryFilters(t *testing.T) {
	ctx := context.Background()
	s := memory.NewEventStore()
	_ = s.Append(ctx, []event.Record{
		{ID: "e1", UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 2)},
		{ID: "e2", UserID: "u2", Type: event.TypeSession, OccurredAt: date(2024, 1, 5)},
		{ID: "e3", UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 2, 1)},
	})

	got, err := s.Query(ctx, event.Filter{
		From:    date(2024, 1, 1),
		To:      date(2024, 2, 1),
		UserIDs: []string{"u1"},
		Types:   []event.Type{event.TypeClick},
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Errorf("got %+v, want only e1", got)
	}
}

func TestEventStore_QueryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := memory.NewEventStore()
	_ = s.Append(context.Background(), []event.Record{
		{ID: "e1", UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 2)},
	})
	cancel()

	if _, err := s.Query(ctx, event.Filter{}); err == nil {
		t.Error("Query on cancelled context should fail")
	}
}

func TestUserStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	s := memory.NewUserStore()
	_ = s.Put(ctx, []user.Record{
		{ID: "u1", SignupAt: date(2024, 1, 1), Role: user.RoleCreator, Plan: user.PlanPro},
		{ID: "u2", SignupAt: date(2024, 1, 2), Role: user.RoleFollower, Plan: user.PlanFree},
		{ID: "u3", SignupAt: date(2024, 1, 3), Role: user.RoleCreator, Plan: user.PlanFree},
	})

	creators, err := s.List(ctx, user.Filter{Role: user.RoleCreator})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(creators) != 2 {
		t.Fatalf("got %d creators, want 2", len(creators))
	}
	if creators[0].ID != "u1" || creators[1].ID != "u3" {
		t.Errorf("order = %s, %s, want u1, u3", creators[0].ID, creators[1].ID)
	}

	free, err := s.List(ctx, user.Filter{Plan: user.PlanFree})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(free) != 2 {
		t.Errorf("got %d free users, want 2", len(free))
	}
}

func TestUserStore_PutUpserts(t *testing.T) {
	ctx := context.Background()
	s := memory.NewUserStore()
	_ = s.Put(ctx, []user.Record{{ID: "u1", SignupAt: date(2024, 1, 1), Plan: user.PlanFree}})
	_ = s.Put(ctx, []user.Record{{ID: "u1", SignupAt: date(2024, 1, 1), Plan: user.PlanPro}})

	all, _ := s.List(ctx, user.Filter{})
	if len(all) != 1 {
		t.Fatalf("got %d users, want 1", len(all))
	}
	if all[0].Plan != user.PlanPro {
		t.Errorf("plan = %s, want pro after upsert", all[0].Plan)
	}
}

func TestCampaignStore_ListSendsWindow(t *testing.T) {
	ctx := context.Background()
	s := memory.NewCampaignStore()
	_ = s.RecordSends(ctx, []resurrection.CampaignSend{
		{ID: "c2", Channel: "email", SentAt: date(2024, 2, 1)},
		{ID: "c1", Channel: "push", SentAt: date(2024, 1, 1)},
		{ID: "c3", Channel: "email", SentAt: date(2024, 3, 1)},
	})

	got, err := s.ListSends(ctx, date(2024, 1, 15), date(2024, 3, 1))
	if err != nil {
		t.Fatalf("ListSends: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c2" {
		t.Errorf("got %+v, want only c2", got)
	}

	all, _ := s.ListSends(ctx, time.Time{}, time.Time{})
	if len(all) != 3 || all[0].ID != "c1" {
		t.Errorf("unbounded ListSends = %+v, want 3 sends oldest first", all)
	}
}
