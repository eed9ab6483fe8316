// Package app provides the query façade that orchestrates the pure
// analytics domain over the data source ports.
package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/creatorhub/insight/adapters/metrics"
	"github.com/creatorhub/insight/domain/engagement"
	"github.com/creatorhub/insight/domain/event"
	"github.com/creatorhub/insight/domain/funnel"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/domain/resurrection"
	"github.com/creatorhub/insight/domain/user"
	"github.com/creatorhub/insight/ports"
)

// InsightService answers dashboard analytics queries. Each operation is
// independent: one failing card never poisons another. All state the
// operations read per call travels in explicit parameters or in the
// hot-swappable Tuning snapshot; there is no ambient "current period".
type InsightService struct {
	events    ports.EventStore
	users     ports.UserStore
	campaigns ports.CampaignStore
	clock     ports.Clock

	logger  zerolog.Logger
	metrics *metrics.Collector // nil disables instrumentation
	cache   *resultCache       // nil disables caching

	// Hot-reloadable analytics tunables
	tuning atomic.Pointer[Tuning]
}

// Tuning contains the hot-reloadable analytics parameters, already
// converted to domain types. Bootstrap maps the config file onto this.
type Tuning struct {
	CohortWindow         int
	CurveDays            int
	Horizons             []int
	TopK                 int
	DormancyThreshold    time.Duration
	ReactivationLookback time.Duration

	Weights         engagement.Weights
	Buckets         []engagement.BucketSpec
	BenchmarkLabel  string
	BenchmarkValues []float64

	Funnels []funnel.Definition
}

// Deps contains dependencies for InsightService.
type Deps struct {
	Events    ports.EventStore
	Users     ports.UserStore
	Campaigns ports.CampaignStore
	Clock     ports.Clock
	Logger    zerolog.Logger
	Metrics   *metrics.Collector
}

// Options contains static service configuration (requires restart).
type Options struct {
	CacheEnabled    bool
	CacheTTL        time.Duration
	CacheMaxEntries int
}

// NewInsightService creates the façade.
func NewInsightService(deps Deps, t Tuning, opts Options) *InsightService {
	s := &InsightService{
		events:    deps.Events,
		users:     deps.Users,
		campaigns: deps.Campaigns,
		clock:     deps.Clock,
		logger:    deps.Logger.With().Str("component", "insight").Logger(),
		metrics:   deps.Metrics,
	}
	if opts.CacheEnabled {
		s.cache = newResultCache(opts.CacheTTL, opts.CacheMaxEntries)
	}
	s.UpdateTuning(t)
	return s
}

// UpdateTuning swaps the analytics tunables. Thread-safe; in-flight queries
// keep the snapshot they started with.
func (s *InsightService) UpdateTuning(t Tuning) {
	s.tuning.Store(&t)
	if s.cache != nil {
		s.cache.clear()
	}
}

func (s *InsightService) getTuning() *Tuning {
	return s.tuning.Load()
}

// observe records the outcome of one operation.
func (s *InsightService) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)

	status := "ok"
	switch {
	case query.IsInvalidParameter(err):
		status = "invalid"
	case query.IsDataUnavailable(err):
		status = "unavailable"
	case err != nil:
		status = "error"
	}

	if s.metrics != nil {
		s.metrics.QueriesTotal.WithLabelValues(op, status).Inc()
		s.metrics.QueryDuration.WithLabelValues(op).Observe(elapsed.Seconds())
		if status != "ok" {
			s.metrics.QueryErrors.WithLabelValues(op, status).Inc()
		}
	}

	ev := s.logger.Debug()
	if err != nil && status != "invalid" {
		ev = s.logger.Warn().Err(err)
	}
	ev.Str("op", op).Dur("elapsed", elapsed).Str("status", status).Msg("query served")
}

// loadUsers reads the user projection, mapping store failures to
// DataUnavailable.
func (s *InsightService) loadUsers(ctx context.Context, f user.Filter) ([]user.Record, error) {
	us, err := s.users.List(ctx, f)
	if err != nil {
		return nil, query.Unavailable("users", err)
	}
	return us, nil
}

// loadEvents reads the event source, mapping store failures to
// DataUnavailable.
func (s *InsightService) loadEvents(ctx context.Context, f event.Filter) ([]event.Record, error) {
	evs, err := s.events.Query(ctx, f)
	if err != nil {
		return nil, query.Unavailable("events", err)
	}
	return evs, nil
}

// loadSends reads campaign sends, mapping store failures to DataUnavailable.
func (s *InsightService) loadSends(ctx context.Context, from, to time.Time) ([]resurrection.CampaignSend, error) {
	sends, err := s.campaigns.ListSends(ctx, from, to)
	if err != nil {
		return nil, query.Unavailable("campaigns", err)
	}
	return sends, nil
}

// parseRole validates an optional role filter ("" = all roles).
func parseRole(s string) (user.Role, error) {
	switch user.Role(s) {
	case "", user.RoleFollower, user.RoleCreator, user.RoleBrand, user.RoleAdmin:
		return user.Role(s), nil
	}
	return "", &query.InvalidParameterError{Param: "role", Value: s, Reason: "must be follower, creator, brand or admin"}
}

// parsePlan validates an optional plan filter ("" = all plans).
func parsePlan(s string) (user.Plan, error) {
	switch user.Plan(s) {
	case "", user.PlanFree, user.PlanPro, user.PlanBrand:
		return user.Plan(s), nil
	}
	return "", &query.InvalidParameterError{Param: "plan", Value: s, Reason: "must be free, pro or brand"}
}
