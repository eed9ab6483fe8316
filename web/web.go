// Package web exposes the analytics façade as a JSON API.
// Stateless design - every request carries its full parameter set.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/creatorhub/insight/app"
	"github.com/creatorhub/insight/domain/query"
	"github.com/creatorhub/insight/pkg/apiresp"
)

// Handler provides the analytics API endpoints.
type Handler struct {
	svc       *app.InsightService
	logger    zerolog.Logger
	startTime time.Time
}

// NewHandler creates the API handler.
func NewHandler(svc *app.InsightService, logger zerolog.Logger) *Handler {
	return &Handler{
		svc:       svc,
		logger:    logger.With().Str("component", "web").Logger(),
		startTime: time.Now(),
	}
}

// Router returns the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)

	r.Route("/api/v1/analytics", func(r chi.Router) {
		r.Get("/cohorts", h.Cohorts)
		r.Get("/retention", h.Retention)
		r.Get("/funnels/{id}", h.Funnel)
		r.Get("/engagement", h.Engagement)
		r.Get("/resurrection", h.Resurrection)
	})

	return r
}

// Health reports liveness and uptime.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	apiresp.WriteData(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// queryParams parses the shared from/to/compare query parameters. Dates
// accept RFC 3339 timestamps or plain dates (interpreted as UTC midnight).
func queryParams(r *http.Request) (query.Params, error) {
	var q query.Params

	from, err := parseTimeParam(r, "from")
	if err != nil {
		return q, err
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		return q, err
	}
	q.Range = query.DateRange{From: from, To: to}
	q.CompareWithPrevious = r.URL.Query().Get("compare") == "true"

	return q, nil
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, &query.InvalidParameterError{
		Param:  name,
		Value:  raw,
		Reason: "must be RFC 3339 or YYYY-MM-DD",
	}
}

// writeErr logs server-side failures and writes the mapped envelope.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	if !query.IsInvalidParameter(err) {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	apiresp.WriteError(w, apiresp.FromError(err))
}
