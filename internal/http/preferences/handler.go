package preferences

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/preferences"
)

type Handler struct {
	svc *preferences.Service
	loc *time.Location
	now func() time.Time
}

func NewHandler(svc *preferences.Service, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}

	return &Handler{svc: svc, loc: loc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/quote", h.quote)
	r.Get("/{key}", h.get)
	r.Put("/{key}", h.set)
}

type preferenceResponse struct {
	Key   preferences.Key `json:"key"`
	Value string          `json:"value"`
}

type setRequest struct {
	Value string `json:"value"`
}

type quoteResponse struct {
	Date  string `json:"date"`
	Quote string `json:"quote"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	key := preferences.Key(chi.URLParam(r, "key"))

	value, err := h.svc.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(preferenceResponse{Key: key, Value: value}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := preferences.Key(chi.URLParam(r, "key"))

	if err := h.svc.Set(r.Context(), key, req.Value); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(preferenceResponse{Key: key, Value: req.Value}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	today := h.now().In(h.loc)

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(quoteResponse{
		Date:  today.Format(time.DateOnly),
		Quote: h.svc.DailyQuote(r.Context(), today),
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, preferences.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, preferences.ErrUnknownKey), errors.Is(err, preferences.ErrInvalidAccent):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
