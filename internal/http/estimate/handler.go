package estimate

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/estimate/form"
	"github.com/MrJamesThe3rd/tally/internal/importer"
)

type Handler struct {
	svc      *estimate.Service
	importer *importer.Service
	now      func() time.Time
}

func NewHandler(svc *estimate.Service, importSvc *importer.Service) *Handler {
	return &Handler{svc: svc, importer: importSvc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/reload", h.reload)
	r.Post("/seed", h.seed)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/billed", h.markBilled)
	r.Patch("/{id}/status", h.updateStatus)
	r.Patch("/{id}/amount", h.updateAmount)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Query().Get("queue") == "unbilled":
		h.query(w, func() ([]estimate.Record, error) { return h.svc.UnbilledFinal(r.Context()) })
		return
	case r.URL.Query().Has("status"):
		status := estimate.Status(r.URL.Query().Get("status"))
		if !slices.Contains(estimate.Statuses, status) {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}

		h.query(w, func() ([]estimate.Record, error) { return h.svc.ByStatus(r.Context(), status) })

		return
	case r.URL.Query().Has("queue"):
		http.Error(w, "unknown queue", http.StatusBadRequest)
		return
	}

	resp := listResponse{
		Estimates: ToResponseList(h.svc.Records()),
		Loading:   h.svc.Loading(),
	}

	if err := h.svc.Err(); err != nil {
		resp.Error = err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

// query answers straight from the datastore, bypassing the session list.
func (h *Handler) query(w http.ResponseWriter, fetch func() ([]estimate.Record, error)) {
	recs, err := fetch()
	if err != nil {
		slog.Error("failed to query estimates", "error", err)
		http.Error(w, err.Error(), http.StatusBadGateway)

		return
	}

	writeJSON(w, http.StatusOK, listResponse{Estimates: ToResponseList(recs)})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var f form.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	in, err := f.Input(h.now())
	if err != nil {
		WriteError(w, err)
		return
	}

	rec, err := h.svc.Create(r.Context(), in)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ToResponse(rec))
}

func (h *Handler) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Load(r.Context()); err != nil {
		WriteError(w, err)
		return
	}

	h.list(w, r)
}

func (h *Handler) seed(w http.ResponseWriter, r *http.Request) {
	recs, err := h.importer.Seed(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ToResponseList(recs))
}

type updateEstimateRequest struct {
	EstimateType *estimate.Type   `json:"estimate_type,omitempty"`
	ClaimNumber  *string          `json:"claim_number,omitempty"`
	ClientName   *string          `json:"client_name,omitempty"`
	TaskNumber   *string          `json:"task_number,omitempty"`
	DateReceived *string          `json:"date_received,omitempty"`
	TimeReceived *string          `json:"time_received,omitempty"`
	DateReturned *string          `json:"date_returned,omitempty"`
	TimeReturned *string          `json:"time_returned,omitempty"`
	FinalAmount  *string          `json:"final_amount,omitempty"`
	Status       *estimate.Status `json:"status,omitempty"`
	Billed       *bool            `json:"billed,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := chi.URLParam(r, "id")

	current, ok := h.svc.Find(id)
	if !ok {
		WriteError(w, estimate.ErrNotFound)
		return
	}

	patch := estimate.Patch{
		EstimateType: req.EstimateType,
		ClaimNumber:  req.ClaimNumber,
		ClientName:   req.ClientName,
		TaskNumber:   req.TaskNumber,
		DateReceived: req.DateReceived,
		TimeReceived: req.TimeReceived,
		DateReturned: req.DateReturned,
		TimeReturned: req.TimeReturned,
		FinalAmount:  req.FinalAmount,
		Status:       req.Status,
		Billed:       req.Billed,
	}

	if err := form.ValidatePatch(current, patch); err != nil {
		WriteError(w, err)
		return
	}

	rec, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToResponse(rec))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markBilled(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.MarkBilled(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToResponse(rec))
}

type updateStatusRequest struct {
	Status estimate.Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !slices.Contains(estimate.Statuses, req.Status) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "invalid status",
			Fields: map[string]string{"status": form.MsgInvalidValue},
		})

		return
	}

	rec, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToResponse(rec))
}

type updateAmountRequest struct {
	FinalAmount string `json:"final_amount"`
}

func (h *Handler) updateAmount(w http.ResponseWriter, r *http.Request) {
	var req updateAmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rec, err := h.svc.SetFinalAmount(r.Context(), chi.URLParam(r, "id"), req.FinalAmount)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ToResponse(rec))
}
