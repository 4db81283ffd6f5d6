// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ReportHandler handles requests scoped to a single report.
type ReportHandler struct {
	deps Dependencies
}

// NewReportHandler creates a new single-report handler.
func NewReportHandler(deps Dependencies) *ReportHandler {
	return &ReportHandler{deps: deps}
}

// HandleReport dispatches GET /reports/{id} and POST /reports/{id}/facts.
func (h *ReportHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	// Extract path parameters after /reports/
	path := strings.TrimPrefix(r.URL.Path, "/reports/")
	id, rest, _ := strings.Cut(path, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case rest == "facts" && r.Method == http.MethodPost:
		h.handleConfirmFacts(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleGet handles GET /reports/{id} requests.
func (h *ReportHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.get_report"

	report, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleConfirmFacts handles POST /reports/{id}/facts requests.
func (h *ReportHandler) handleConfirmFacts(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.confirm_facts"

	var req confirmFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	credential := r.Header.Get(credentialHeader)
	if err := h.deps.ConfirmFacts(r.Context(), id, req.Facts, credential, req.Style); err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{ID: id, Status: "accepted"})
}
