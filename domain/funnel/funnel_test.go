package funnel_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/funnel"
	"github.com/creatorhub/insight/domain/user"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var activation = funnel.Definition{
	ID:   "creator-activation",
	Name: "Creator activation",
	Steps: []funnel.Step{
		{Name: "Account created", Account: true},
		{Name: "First product", Event: event.TypeProductCreated},
		{Name: "First click", Event: event.TypeClick},
	},
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     funnel.Definition
		wantErr bool
	}{
		{"valid", activation, false},
		{"missing id", funnel.Definition{Steps: activation.Steps}, true},
		{"single step", funnel.Definition{ID: "x", Steps: activation.Steps[:1]}, true},
		{"account mid-funnel", funnel.Definition{ID: "x", Steps: []funnel.Step{
			{Name: "a", Event: event.TypeClick},
			{Name: "b", Account: true},
		}}, true},
		{"unknown event", funnel.Definition{ID: "x", Steps: []funnel.Step{
			{Name: "a", Account: true},
			{Name: "b", Event: "teleport"},
		}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEvaluate_MonotonicCounts(t *testing.T) {
	users := []user.Record{
		{ID: "u1", SignupAt: date(2024, 1, 1)},
		{ID: "u2", SignupAt: date(2024, 1, 2)},
		{ID: "u3", SignupAt: date(2024, 1, 3)},
	}
	events := []event.Record{
		{UserID: "u1", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 5)},
		{UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 6)},
		{UserID: "u2", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 7)},
		// u2 clicked before creating a product: does not count for step 2.
		{UserID: "u2", Type: event.TypeClick, OccurredAt: date(2024, 1, 4)},
	}

	results := funnel.Evaluate(activation, users, events)
	want := []int{3, 2, 1}
	for i, r := range results {
		if r.Value != want[i] {
			t.Errorf("step %d value = %d, want %d", i, r.Value, want[i])
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Value > results[i-1].Value {
			t.Errorf("step %d value %d exceeds previous %d", i, results[i].Value, results[i-1].Value)
		}
	}
}

func TestEvaluate_OrderingWithinFunnel(t *testing.T) {
	// The first qualifying occurrence after the previous step counts; later
	// repeats are ignored.
	users := []user.Record{{ID: "u1", SignupAt: date(2024, 1, 1)}}
	events := []event.Record{
		{UserID: "u1", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 2)},
		{UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 3)},
		{UserID: "u1", Type: event.TypeClick, OccurredAt: date(2024, 1, 10)},
	}

	results := funnel.Evaluate(activation, users, events)
	if results[2].Value != 1 {
		t.Fatalf("step 2 value = %d, want 1", results[2].Value)
	}
	if results[2].MedianTime != 24*time.Hour {
		t.Errorf("step 2 median = %v, want 24h (first click, not the repeat)", results[2].MedianTime)
	}
}

func TestEvaluate_EqualTimestampAdvances(t *testing.T) {
	users := []user.Record{{ID: "u1", SignupAt: date(2024, 1, 1)}}
	events := []event.Record{
		// Same instant as signup: ">= previous timestamp" admits it.
		{UserID: "u1", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 1)},
	}

	results := funnel.Evaluate(activation, users, events)
	if results[1].Value != 1 {
		t.Errorf("step 1 value = %d, want 1", results[1].Value)
	}
}

func TestEvaluate_ConversionPercentages(t *testing.T) {
	// Populations 1000 / 400 / 120 => 40.0%, 30.0%, total 12.0%.
	var users []user.Record
	var events []event.Record
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("u%04d", i)
		users = append(users, user.Record{ID: id, SignupAt: date(2024, 1, 1)})
		if i < 400 {
			events = append(events, event.Record{UserID: id, Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 2)})
		}
		if i < 120 {
			events = append(events, event.Record{UserID: id, Type: event.TypeClick, OccurredAt: date(2024, 1, 3)})
		}
	}

	results := funnel.Evaluate(activation, users, events)
	if results[1].StepConversion != 40.0 {
		t.Errorf("step 1 conversion = %v, want 40.0", results[1].StepConversion)
	}
	if results[2].StepConversion != 30.0 {
		t.Errorf("step 2 conversion = %v, want 30.0", results[2].StepConversion)
	}
	if results[2].TotalConversion != 12.0 {
		t.Errorf("total conversion = %v, want 12.0", results[2].TotalConversion)
	}
	if results[2].DropOff != 70.0 {
		t.Errorf("drop-off = %v, want 70.0", results[2].DropOff)
	}
}

func TestEvaluate_MedianTime(t *testing.T) {
	users := []user.Record{
		{ID: "u1", SignupAt: date(2024, 1, 1)},
		{ID: "u2", SignupAt: date(2024, 1, 1)},
		{ID: "u3", SignupAt: date(2024, 1, 1)},
	}
	events := []event.Record{
		{UserID: "u1", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 2)},  // 1d
		{UserID: "u2", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 4)},  // 3d
		{UserID: "u3", Type: event.TypeProductCreated, OccurredAt: date(2024, 1, 11)}, // 10d
	}

	results := funnel.Evaluate(activation, users, events)
	if results[1].MedianTime != 3*24*time.Hour {
		t.Errorf("median = %v, want 72h", results[1].MedianTime)
	}
	if results[0].MedianTime != 0 {
		t.Errorf("step 0 median = %v, want omitted (zero)", results[0].MedianTime)
	}
}
