package estimate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/estimate/form"
)

type estimateResponse struct {
	ID               string          `json:"id"`
	EstimateType     estimate.Type   `json:"estimate_type"`
	ClaimNumber      string          `json:"claim_number"`
	ClientName       string          `json:"client_name"`
	TaskNumber       string          `json:"task_number"`
	DateReceived     string          `json:"date_received"`
	TimeReceived     string          `json:"time_received"`
	DateReturned     string          `json:"date_returned,omitempty"`
	TimeReturned     string          `json:"time_returned,omitempty"`
	FinalAmount      string          `json:"final_amount,omitempty"`
	FinalAmountCents int64           `json:"final_amount_cents"`
	Status           estimate.Status `json:"status"`
	Billed           *bool           `json:"billed"`
	CreatedAt        time.Time       `json:"created_at"`
}

type listResponse struct {
	Estimates []estimateResponse `json:"estimates"`
	Loading   bool               `json:"loading"`
	Error     string             `json:"error,omitempty"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToResponse is shared with the other estimate-returning handlers.
func ToResponse(r estimate.Record) estimateResponse {
	return estimateResponse{
		ID:               r.ID,
		EstimateType:     r.EstimateType,
		ClaimNumber:      r.ClaimNumber,
		ClientName:       r.ClientName,
		TaskNumber:       r.TaskNumber,
		DateReceived:     r.DateReceived,
		TimeReceived:     r.TimeReceived,
		DateReturned:     r.DateReturned,
		TimeReturned:     r.TimeReturned,
		FinalAmount:      r.FinalAmount,
		FinalAmountCents: r.FinalAmountCents,
		Status:           r.Status,
		Billed:           r.Billed,
		CreatedAt:        r.CreatedAt,
	}
}

func ToResponseList(records []estimate.Record) []estimateResponse {
	resp := make([]estimateResponse, len(records))
	for i, r := range records {
		resp[i] = ToResponse(r)
	}

	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteError maps session and validation errors to status codes.
func WriteError(w http.ResponseWriter, err error) {
	var (
		verr *form.ValidationError
		serr *estimate.StoreError
	)

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, estimate.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "estimate not found"})
	case errors.Is(err, estimate.ErrInvalidAmount):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  err.Error(),
			Fields: map[string]string{"final_amount": form.MsgInvalidAmount},
		})
	case errors.Is(err, estimate.ErrEmptyPatch):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.As(err, &serr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: serr.Error()})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
