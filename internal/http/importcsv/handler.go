package importcsv

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/tally/internal/estimate"
	"github.com/MrJamesThe3rd/tally/internal/estimate/form"
	"github.com/MrJamesThe3rd/tally/internal/importer"
)

type Handler struct {
	importSvc *importer.Service
}

func NewHandler(importSvc *importer.Service) *Handler {
	return &Handler{importSvc: importSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type createdResponse struct {
	ID           string          `json:"id"`
	EstimateType estimate.Type   `json:"estimate_type"`
	ClaimNumber  string          `json:"claim_number"`
	ClientName   string          `json:"client_name"`
	Status       estimate.Status `json:"status"`
}

type failedResponse struct {
	Line   int               `json:"line"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type importResponse struct {
	Imported  int               `json:"imported"`
	Estimates []createdResponse `json:"estimates"`
	Failed    []failedResponse  `json:"failed"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	result, err := h.importSvc.Import(r.Context(), file)

	var serr *estimate.StoreError
	if errors.As(err, &serr) {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toImportResponse(result)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func toImportResponse(res importer.Result) importResponse {
	resp := importResponse{
		Imported:  len(res.Created),
		Estimates: make([]createdResponse, 0, len(res.Created)),
		Failed:    make([]failedResponse, 0, len(res.Failed)),
	}

	for _, rec := range res.Created {
		resp.Estimates = append(resp.Estimates, createdResponse{
			ID:           rec.ID,
			EstimateType: rec.EstimateType,
			ClaimNumber:  rec.ClaimNumber,
			ClientName:   rec.ClientName,
			Status:       rec.Status,
		})
	}

	for _, f := range res.Failed {
		fr := failedResponse{Line: f.Line, Error: f.Err.Error()}

		var verr *form.ValidationError
		if errors.As(f.Err, &verr) {
			fr.Fields = verr.Fields
		}

		resp.Failed = append(resp.Failed, fr)
	}

	return resp
}
