package query_test

import (
	"errors"
	"testing"
	"time"

	"github.com/creatorhub/insight/domain/query"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    query.Metric
		wantErr bool
	}{
		{"retention", query.MetricRetention, false},
		{"mrr", query.MetricMRR, false},
		{"clicks", query.MetricClicks, false},
		{"products", query.MetricProducts, false},
		{"revenue", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := query.ParseMetric(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMetric(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMetric(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if err != nil && !query.IsInvalidParameter(err) {
			t.Errorf("ParseMetric(%q) error is not InvalidParameter: %v", tt.in, err)
		}
	}
}

func TestParseAnchorAndPeriod(t *testing.T) {
	if _, err := query.ParseAnchor("first_product"); err != nil {
		t.Errorf("ParseAnchor(first_product) error = %v", err)
	}
	if _, err := query.ParseAnchor("birthday"); !query.IsInvalidParameter(err) {
		t.Errorf("ParseAnchor(birthday) error = %v, want InvalidParameter", err)
	}
	if _, err := query.ParsePeriod("weekly"); err != nil {
		t.Errorf("ParsePeriod(weekly) error = %v", err)
	}
	if _, err := query.ParsePeriod("daily"); !query.IsInvalidParameter(err) {
		t.Errorf("ParsePeriod(daily) error = %v, want InvalidParameter", err)
	}
}

func TestRound1_HalfToEven(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{62.0, 62.0},
		{33.333333, 33.3},
		{0.25, 0.2}, // half rounds to the even neighbour
		{0.75, 0.8},
		{12.25, 12.2},
	}
	for _, tt := range tests {
		if got := query.Round1(tt.in); got != tt.want {
			t.Errorf("Round1(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := query.Percent(31, 50); got != 62.0 {
		t.Errorf("Percent(31, 50) = %v, want 62.0", got)
	}
	if got := query.Percent(5, 0); got != 0 {
		t.Errorf("Percent(5, 0) = %v, want 0, never NaN", got)
	}
	if got := query.Percent(1, 3); got != 33.3 {
		t.Errorf("Percent(1, 3) = %v, want 33.3", got)
	}
}

func TestDateRangePrevious(t *testing.T) {
	r := query.DateRange{
		From: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	prev := r.Previous()
	if !prev.To.Equal(r.From) {
		t.Errorf("previous range must end where the current begins, got %v", prev.To)
	}
	if prev.Duration() != r.Duration() {
		t.Errorf("previous duration = %v, want %v", prev.Duration(), r.Duration())
	}
}

func TestDateRangeValidate(t *testing.T) {
	good := query.DateRange{From: time.Now().Add(-time.Hour), To: time.Now()}
	if err := good.Validate(); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	inverted := query.DateRange{From: good.To, To: good.From}
	if err := inverted.Validate(); !query.IsInvalidParameter(err) {
		t.Errorf("inverted range error = %v, want InvalidParameter", err)
	}
	half := query.DateRange{From: good.From}
	if err := half.Validate(); !query.IsInvalidParameter(err) {
		t.Errorf("half-set range error = %v, want InvalidParameter", err)
	}
}

func TestUnavailable(t *testing.T) {
	base := errors.New("connection refused")
	err := query.Unavailable("events", base)
	if !query.IsDataUnavailable(err) {
		t.Fatalf("err = %v, want DataUnavailable", err)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error lost the cause")
	}
	// Passing through an already-wrapped error must not double-wrap.
	if again := query.Unavailable("users", err); again != err {
		t.Errorf("double wrap: %v", again)
	}
	if query.Unavailable("events", nil) != nil {
		t.Error("nil error must stay nil")
	}
}
