package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/creatorhub/insight/pkg/apiresp"
)

// Cohorts serves the cohort heatmap.
// GET /api/v1/analytics/cohorts?anchor=&metric=&period=&from=&to=&compare=
func (h *Handler) Cohorts(w http.ResponseWriter, r *http.Request) {
	q, err := queryParams(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	res, err := h.svc.CohortTable(r.Context(),
		r.URL.Query().Get("anchor"),
		r.URL.Query().Get("metric"),
		r.URL.Query().Get("period"),
		q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apiresp.WriteData(w, http.StatusOK, cohortTableView(res))
}

// Retention serves retention curves, fixed horizons and stickiness.
// GET /api/v1/analytics/retention?role=&plan=&from=&to=&compare=
func (h *Handler) Retention(w http.ResponseWriter, r *http.Request) {
	q, err := queryParams(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	res, err := h.svc.RetentionMetrics(r.Context(),
		r.URL.Query().Get("role"),
		r.URL.Query().Get("plan"),
		q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apiresp.WriteData(w, http.StatusOK, retentionView(res))
}

// Funnel serves one predefined funnel.
// GET /api/v1/analytics/funnels/{id}?from=&to=&compare=
func (h *Handler) Funnel(w http.ResponseWriter, r *http.Request) {
	q, err := queryParams(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	res, err := h.svc.FunnelResult(r.Context(), chi.URLParam(r, "id"), q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apiresp.WriteData(w, http.StatusOK, funnelView(res))
}

// Engagement serves the engagement score card.
// GET /api/v1/analytics/engagement?from=&to=&compare=
func (h *Handler) Engagement(w http.ResponseWriter, r *http.Request) {
	q, err := queryParams(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	res, err := h.svc.EngagementMetrics(r.Context(), q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apiresp.WriteData(w, http.StatusOK, engagementView(res))
}

// Resurrection serves the per-channel dormancy and reactivation table.
// GET /api/v1/analytics/resurrection?from=&to=&compare=
func (h *Handler) Resurrection(w http.ResponseWriter, r *http.Request) {
	q, err := queryParams(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	res, err := h.svc.ResurrectionTable(r.Context(), q)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	apiresp.WriteData(w, http.StatusOK, resurrectionView(res))
}
