package web

import (
	"time"

	"github.com/creatorhub/insight/app"
	"github.com/creatorhub/insight/domain/cohort"
	"github.com/creatorhub/insight/domain/query"
)

// Wire views. Domain results carry Go types; these structs fix the JSON
// shape the dashboard consumes, with absent cells rendered as state-only
// objects rather than zeros.

type rangeView struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func newRangeView(r query.DateRange) rangeView {
	return rangeView{From: r.From, To: r.To}
}

type cellView struct {
	Offset int      `json:"offset"`
	Value  *float64 `json:"value,omitempty"`
	State  string   `json:"state"`
}

type cohortRowView struct {
	Cohort string     `json:"cohort"`
	Start  time.Time  `json:"start"`
	Size   int        `json:"size"`
	Cells  []cellView `json:"cells"`
}

type cohortTableDoc struct {
	Anchor   string          `json:"anchor"`
	Metric   string          `json:"metric"`
	Period   string          `json:"period"`
	Range    rangeView       `json:"range"`
	Rows     []cohortRowView `json:"rows"`
	Previous *cohortTableDoc `json:"previous,omitempty"`
}

func cohortTableView(t *app.CohortTable) *cohortTableDoc {
	if t == nil {
		return nil
	}
	doc := &cohortTableDoc{
		Anchor:   string(t.Anchor),
		Metric:   string(t.Metric),
		Period:   string(t.Period),
		Range:    newRangeView(t.Range),
		Rows:     make([]cohortRowView, 0, len(t.Rows)),
		Previous: cohortTableView(t.Previous),
	}
	for _, row := range t.Rows {
		rv := cohortRowView{
			Cohort: cohort.Label(row.Cohort.Start, t.Period),
			Start:  row.Cohort.Start,
			Size:   row.Cohort.Size,
			Cells:  make([]cellView, 0, len(row.Cells)),
		}
		for _, c := range row.Cells {
			cv := cellView{Offset: c.Offset, State: string(c.State)}
			if c.State == query.CellPresent {
				v := c.Value
				cv.Value = &v
			}
			rv.Cells = append(rv.Cells, cv)
		}
		doc.Rows = append(doc.Rows, rv)
	}
	return doc
}

type curvePointView struct {
	Day   int     `json:"day"`
	Value float64 `json:"value"`
}

type curveView struct {
	Label     string           `json:"label"`
	Benchmark bool             `json:"benchmark"`
	Points    []curvePointView `json:"points"`
}

type horizonView struct {
	Days   int      `json:"days"`
	Value  *float64 `json:"value,omitempty"`
	State  string   `json:"state"`
	Mature int      `json:"mature"`
}

type stickinessView struct {
	DAU   int     `json:"dau"`
	MAU   int     `json:"mau"`
	Ratio float64 `json:"ratio"`
}

type retentionDoc struct {
	Role       string         `json:"role,omitempty"`
	Plan       string         `json:"plan,omitempty"`
	Range      rangeView      `json:"range"`
	Curves     []curveView    `json:"curves"`
	Horizons   []horizonView  `json:"horizons"`
	Stickiness stickinessView `json:"stickiness"`
	Previous   *retentionDoc  `json:"previous,omitempty"`
}

func retentionView(m *app.RetentionMetrics) *retentionDoc {
	if m == nil {
		return nil
	}
	doc := &retentionDoc{
		Role:     string(m.Role),
		Plan:     string(m.Plan),
		Range:    newRangeView(m.Range),
		Curves:   make([]curveView, 0, len(m.Curves)),
		Horizons: make([]horizonView, 0, len(m.Horizons)),
		Stickiness: stickinessView{
			DAU:   m.Stickiness.DAU,
			MAU:   m.Stickiness.MAU,
			Ratio: m.Stickiness.Ratio,
		},
		Previous: retentionView(m.Previous),
	}
	for _, c := range m.Curves {
		cv := curveView{Label: c.Label, Benchmark: c.Benchmark, Points: make([]curvePointView, 0, len(c.Points))}
		for _, p := range c.Points {
			cv.Points = append(cv.Points, curvePointView{Day: p.DayOffset, Value: p.Value})
		}
		doc.Curves = append(doc.Curves, cv)
	}
	for _, hp := range m.Horizons {
		hv := horizonView{Days: hp.Days, State: string(hp.State), Mature: hp.Mature}
		if hp.State == query.CellPresent {
			v := hp.Value
			hv.Value = &v
		}
		doc.Horizons = append(doc.Horizons, hv)
	}
	return doc
}

type funnelStepView struct {
	Name            string  `json:"name"`
	Value           int     `json:"value"`
	MedianSeconds   float64 `json:"median_seconds"`
	StepConversion  float64 `json:"step_conversion"`
	TotalConversion float64 `json:"total_conversion"`
	DropOff         float64 `json:"drop_off"`
}

type funnelDoc struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Range    rangeView        `json:"range"`
	Steps    []funnelStepView `json:"steps"`
	Previous *funnelDoc       `json:"previous,omitempty"`
}

func funnelView(r *app.FunnelReport) *funnelDoc {
	if r == nil {
		return nil
	}
	doc := &funnelDoc{
		ID:       r.ID,
		Name:     r.Name,
		Range:    newRangeView(r.Range),
		Steps:    make([]funnelStepView, 0, len(r.Steps)),
		Previous: funnelView(r.Previous),
	}
	for _, s := range r.Steps {
		doc.Steps = append(doc.Steps, funnelStepView{
			Name:            s.Name,
			Value:           s.Value,
			MedianSeconds:   s.MedianTime.Seconds(),
			StepConversion:  s.StepConversion,
			TotalConversion: s.TotalConversion,
			DropOff:         s.DropOff,
		})
	}
	return doc
}

type bucketCountView struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type scoreView struct {
	UserID   string  `json:"user_id"`
	Score    float64 `json:"score"`
	Bucket   string  `json:"bucket"`
	Products int     `json:"products"`
	Posts    int     `json:"posts"`
	Clicks   int     `json:"clicks"`
}

type adoptionView struct {
	Feature string  `json:"feature"`
	Users   int     `json:"users"`
	Percent float64 `json:"percent"`
}

type sessionsView struct {
	Sessions         int     `json:"sessions"`
	PerUser          float64 `json:"per_user"`
	MedianGapSeconds float64 `json:"median_gap_seconds"`
	UsersWithGap     int     `json:"users_with_gap"`
}

type engagementDoc struct {
	Range      rangeView         `json:"range"`
	Population int               `json:"population"`
	Histogram  []bucketCountView `json:"histogram"`
	Top        []scoreView       `json:"top"`
	Adoption   []adoptionView    `json:"adoption"`
	Sessions   sessionsView      `json:"sessions"`
	Previous   *engagementDoc    `json:"previous,omitempty"`
}

func engagementView(m *app.EngagementMetrics) *engagementDoc {
	if m == nil {
		return nil
	}
	doc := &engagementDoc{
		Range:      newRangeView(m.Range),
		Population: m.Population,
		Histogram:  make([]bucketCountView, 0, len(m.Histogram)),
		Top:        make([]scoreView, 0, len(m.Top)),
		Adoption:   make([]adoptionView, 0, len(m.Adoption)),
		Sessions: sessionsView{
			Sessions:         m.Sessions.Sessions,
			PerUser:          m.Sessions.PerUser,
			MedianGapSeconds: m.Sessions.MedianGap.Seconds(),
			UsersWithGap:     m.Sessions.UsersWithGap,
		},
		Previous: engagementView(m.Previous),
	}
	for _, b := range m.Histogram {
		doc.Histogram = append(doc.Histogram, bucketCountView{Label: b.Label, Count: b.Count})
	}
	for _, s := range m.Top {
		doc.Top = append(doc.Top, scoreView{
			UserID:   s.UserID,
			Score:    s.Value,
			Bucket:   s.Bucket,
			Products: s.Products,
			Posts:    s.Posts,
			Clicks:   s.Clicks,
		})
	}
	for _, a := range m.Adoption {
		doc.Adoption = append(doc.Adoption, adoptionView{Feature: a.Feature, Users: a.Users, Percent: a.Percent})
	}
	return doc
}

type resurrectionRowView struct {
	Channel       string  `json:"channel"`
	DormantCount  int     `json:"dormant_count"`
	CampaignsSent int     `json:"campaigns_sent"`
	Reactivated   int     `json:"reactivated_count"`
	Rate          float64 `json:"rate"`
}

type resurrectionDoc struct {
	Range        rangeView             `json:"range"`
	ThresholdDay int                   `json:"dormancy_threshold_days"`
	LookbackDay  int                   `json:"reactivation_lookback_days"`
	Rows         []resurrectionRowView `json:"rows"`
	Previous     *resurrectionDoc      `json:"previous,omitempty"`
}

func resurrectionView(t *app.ResurrectionTable) *resurrectionDoc {
	if t == nil {
		return nil
	}
	doc := &resurrectionDoc{
		Range:        newRangeView(t.Range),
		ThresholdDay: int(t.Threshold.Hours() / 24),
		LookbackDay:  int(t.Lookback.Hours() / 24),
		Rows:         make([]resurrectionRowView, 0, len(t.Rows)),
		Previous:     resurrectionView(t.Previous),
	}
	for _, row := range t.Rows {
		doc.Rows = append(doc.Rows, resurrectionRowView{
			Channel:       row.Channel,
			DormantCount:  row.DormantCount,
			CampaignsSent: row.CampaignsSent,
			Reactivated:   row.ReactivatedCount,
			Rate:          row.Rate,
		})
	}
	return doc
}
