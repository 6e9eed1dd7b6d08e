package dashboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/dashboard"
	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
)

// Records is the read side of the estimate session.
type Records interface {
	Records() []estimate.Record
}

type Handler struct {
	records Records
	loc     *time.Location
	now     func() time.Time
}

func NewHandler(records Records, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}

	return &Handler{records: records, loc: loc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.snapshot)
	r.Get("/shift", h.shift)
}

type recordResponse struct {
	ID           string          `json:"id"`
	EstimateType estimate.Type   `json:"estimate_type"`
	ClaimNumber  string          `json:"claim_number"`
	ClientName   string          `json:"client_name"`
	TaskNumber   string          `json:"task_number"`
	DateReturned string          `json:"date_returned,omitempty"`
	TimeReturned string          `json:"time_returned,omitempty"`
	FinalAmount  string          `json:"final_amount,omitempty"`
	Status       estimate.Status `json:"status"`
	Billed       *bool           `json:"billed"`
}

type countsResponse struct {
	Initial int `json:"initial"`
	Final   int `json:"final"`
	Total   int `json:"total"`
}

type panelResponse struct {
	Anchor    string           `json:"anchor"`
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Estimates []recordResponse `json:"estimates"`
}

type productivityResponse struct {
	WeeklyCount    int     `json:"weekly_count"`
	EffectiveHours float64 `json:"effective_hours"`
	PerHour        float64 `json:"per_hour"`
	PerDay         float64 `json:"per_day"`
}

type snapshotResponse struct {
	Granularity  datewindow.Granularity `json:"granularity"`
	Counter      string                 `json:"counter"`
	Counts       countsResponse         `json:"counts"`
	Unbilled     []recordResponse       `json:"unbilled"`
	Open         []recordResponse       `json:"open"`
	Day          panelResponse          `json:"day"`
	Week         panelResponse          `json:"week"`
	Month        panelResponse          `json:"month"`
	Productivity productivityResponse   `json:"productivity"`
}

type shiftResponse struct {
	Anchor string `json:"anchor"`
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	a, err := h.anchors(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := dashboard.Build(h.records.Records(), a, h.loc)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toSnapshotResponse(snap)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// shift moves an anchor one window back or forward. A missing anchor
// resolves to today.
func (h *Handler) shift(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	g, err := datewindow.ParseGranularity(q.Get("granularity"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	direction, err := strconv.Atoi(q.Get("direction"))
	if err != nil {
		http.Error(w, "direction must be an integer", http.StatusBadRequest)
		return
	}

	anchor := q.Get("anchor")
	if anchor == "" {
		anchor = datewindow.TodayAnchor(g, h.now().In(h.loc))
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(shiftResponse{
		Anchor: datewindow.ShiftAnchorIn(anchor, g, direction, h.loc),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) anchors(r *http.Request) (dashboard.Anchors, error) {
	q := r.URL.Query()
	a := dashboard.DefaultAnchors(h.now().In(h.loc))

	if v := q.Get("granularity"); v != "" {
		g, err := datewindow.ParseGranularity(v)
		if err != nil {
			return a, err
		}

		a.Granularity = g
		a.Counter = datewindow.TodayAnchor(g, h.now().In(h.loc))
	}

	for param, dst := range map[string]*string{
		"counter":   &a.Counter,
		"day":       &a.Day,
		"week":      &a.Week,
		"month":     &a.Month,
		"calc_week": &a.CalcWeek,
	} {
		if v := q.Get(param); v != "" {
			*dst = v
		}
	}

	for param, dst := range map[string]*float64{
		"overtime": &a.OvertimeHours,
		"pto":      &a.PTOHours,
	} {
		v := q.Get(param)
		if v == "" {
			continue
		}

		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return a, fmt.Errorf("%s must be a number", param)
		}

		*dst = f
	}

	return a, nil
}

func toSnapshotResponse(s dashboard.Snapshot) snapshotResponse {
	return snapshotResponse{
		Granularity: s.Anchors.Granularity,
		Counter:     s.Anchors.Counter,
		Counts: countsResponse{
			Initial: s.Counts.Initial,
			Final:   s.Counts.Final,
			Total:   s.Counts.Total,
		},
		Unbilled: toRecordResponses(s.Unbilled),
		Open:     toRecordResponses(s.Open),
		Day:      toPanelResponse(s.Day),
		Week:     toPanelResponse(s.Week),
		Month:    toPanelResponse(s.Month),
		Productivity: productivityResponse{
			WeeklyCount:    s.Productivity.WeeklyCount,
			EffectiveHours: s.Productivity.EffectiveHours,
			PerHour:        s.Productivity.PerHour,
			PerDay:         s.Productivity.PerDay,
		},
	}
}

func toPanelResponse(p dashboard.Panel) panelResponse {
	return panelResponse{
		Anchor:    p.Anchor,
		StartDate: datewindow.FormatDate(p.Start),
		EndDate:   datewindow.FormatDate(p.End.AddDate(0, 0, -1)),
		Estimates: toRecordResponses(p.Records),
	}
}

func toRecordResponses(records []estimate.Record) []recordResponse {
	resp := make([]recordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, recordResponse{
			ID:           r.ID,
			EstimateType: r.EstimateType,
			ClaimNumber:  r.ClaimNumber,
			ClientName:   r.ClientName,
			TaskNumber:   r.TaskNumber,
			DateReturned: r.DateReturned,
			TimeReturned: r.TimeReturned,
			FinalAmount:  r.FinalAmount,
			Status:       r.Status,
			Billed:       r.Billed,
		})
	}

	return resp
}
