package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/datewindow"
	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.metadata)
	r.Post("/download", h.download)
}

type reportRequest struct {
	Granularity datewindow.Granularity `json:"granularity"`
	Anchor      string                 `json:"anchor"`
}

type itemResponse struct {
	ID           string          `json:"id"`
	EstimateType estimate.Type   `json:"estimate_type"`
	ClaimNumber  string          `json:"claim_number"`
	ClientName   string          `json:"client_name"`
	DateReturned string          `json:"date_returned"`
	FinalAmount  string          `json:"final_amount,omitempty"`
	Status       estimate.Status `json:"status"`
	Billed       *bool           `json:"billed"`
}

type reportResponse struct {
	Granularity datewindow.Granularity `json:"granularity"`
	StartDate   string                 `json:"start_date"`
	EndDate     string                 `json:"end_date"`
	Initial     int                    `json:"initial"`
	Final       int                    `json:"final"`
	Total       string                 `json:"total"`
	Unbilled    int                    `json:"unbilled"`
	Items       []itemResponse         `json:"items"`
	Summary     string                 `json:"summary"`
}

func toReportResponse(rep report.Report) reportResponse {
	items := make([]itemResponse, 0, len(rep.Items))
	for _, it := range rep.Items {
		items = append(items, itemResponse{
			ID:           it.ID,
			EstimateType: it.EstimateType,
			ClaimNumber:  it.ClaimNumber,
			ClientName:   it.ClientName,
			DateReturned: it.DateReturned,
			FinalAmount:  it.FinalAmount,
			Status:       it.Status,
			Billed:       it.Billed,
		})
	}

	return reportResponse{
		Granularity: rep.Granularity,
		StartDate:   datewindow.FormatDate(rep.Bounds.Start),
		EndDate:     datewindow.FormatDate(rep.Bounds.End.AddDate(0, 0, -1)),
		Initial:     rep.Counts.Initial,
		Final:       rep.Counts.Final,
		Total:       estimate.FormatUSD(rep.TotalCents),
		Unbilled:    rep.Unbilled,
		Items:       items,
		Summary:     report.SummaryLines(rep.Items),
	}
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) (report.Report, bool) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return report.Report{}, false
	}

	g, err := datewindow.ParseGranularity(string(req.Granularity))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return report.Report{}, false
	}

	rep, err := h.svc.Build(r.Context(), g, req.Anchor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return report.Report{}, false
	}

	return rep, true
}

func (h *Handler) metadata(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toReportResponse(rep)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	rep, ok := h.build(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"report_%s.zip\"", datewindow.FormatDate(rep.Bounds.Start)))

	if err := report.WriteArchive(w, rep); err != nil {
		slog.Error("failed to create zip", "error", err)
	}
}
