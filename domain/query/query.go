// Package query provides the façade parameter types shared by every
// analytics operation: closed metric/anchor/period variants, explicit date
// ranges, and the error taxonomy. All functions are pure - no side effects.
package query

import (
	"math"
	"time"
)

// Anchor selects the event that assigns a user to a cohort.
type Anchor string

const (
	AnchorSignup       Anchor = "signup"
	AnchorFirstProduct Anchor = "first_product"
	AnchorUpgrade      Anchor = "upgrade"
)

// ParseAnchor validates an anchor name.
func ParseAnchor(s string) (Anchor, error) {
	switch Anchor(s) {
	case AnchorSignup, AnchorFirstProduct, AnchorUpgrade:
		return Anchor(s), nil
	}
	return "", &InvalidParameterError{Param: "anchor", Value: s, Reason: "must be signup, first_product or upgrade"}
}

// Metric is the closed set of per-cell aggregations. Adding a metric means
// adding a constant here and a case to every switch over Metric; the
// compiler finds the switches via the default InvalidParameter branch tests.
type Metric string

const (
	MetricRetention Metric = "retention"
	MetricMRR       Metric = "mrr"
	MetricClicks    Metric = "clicks"
	MetricProducts  Metric = "products"
)

// ParseMetric validates a metric name.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricRetention, MetricMRR, MetricClicks, MetricProducts:
		return Metric(s), nil
	}
	return "", &InvalidParameterError{Param: "metric", Value: s, Reason: "must be retention, mrr, clicks or products"}
}

// Period is the cohort bucketing granularity.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period name.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeekly, PeriodMonthly:
		return Period(s), nil
	}
	return "", &InvalidParameterError{Param: "period", Value: s, Reason: "must be weekly or monthly"}
}

// DateRange is a half-open [From, To) window.
type DateRange struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Duration returns the window length.
func (r DateRange) Duration() time.Duration {
	return r.To.Sub(r.From)
}

// Previous returns the immediately preceding equal-length window.
// This is a PURE function.
func (r DateRange) Previous() DateRange {
	d := r.Duration()
	return DateRange{From: r.From.Add(-d), To: r.From}
}

// Validate rejects inverted or half-set ranges.
func (r DateRange) Validate() error {
	if r.IsZero() {
		return nil
	}
	if r.From.IsZero() || r.To.IsZero() {
		return &InvalidParameterError{Param: "range", Reason: "from and to must both be set"}
	}
	if !r.To.After(r.From) {
		return &InvalidParameterError{Param: "range", Reason: "to must be after from"}
	}
	return nil
}

// Params carries per-call query options. Every façade call receives its own
// Params; there is no ambient "current period" shared between callers.
type Params struct {
	Range               DateRange // zero = operation default rolling window
	CompareWithPrevious bool
}

// CellState distinguishes a present value from the two kinds of absence a
// dashboard must render differently: a period that has not elapsed yet, and
// a horizon no cohort has reached.
type CellState string

const (
	CellPresent CellState = "present"
	CellPending CellState = "pending"
	CellNoData  CellState = "no_data"
)

// Round1 rounds to one decimal place using round-half-to-even.
// This is a PURE function.
func Round1(v float64) float64 {
	return math.RoundToEven(v*10) / 10
}

// Percent computes part/whole as a percentage in [0, 100], rounded to one
// decimal. A zero whole yields 0, never NaN.
// This is a PURE function.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return Round1(float64(part) / float64(whole) * 100)
}
