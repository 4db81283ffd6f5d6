// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ReportsHandler handles the report collection: submissions and listings.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports collection handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleReports dispatches POST /reports and GET /reports.
func (h *ReportsHandler) HandleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleRecent(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleSubmit handles POST /reports requests.
func (h *ReportsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_report"

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, duplicate, err := h.deps.Submit(r.Context(), Submission{
		RequestID:     req.RequestID,
		Notes:         req.Notes,
		Media:         req.blobs(),
		Style:         req.Style,
		HoldForReview: req.HoldForReview,
		Credential:    r.Header.Get(credentialHeader),
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, ackResponse{ID: id, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{ID: id, Status: "accepted", Duplicate: false})
}

// handleRecent handles GET /reports?limit=N requests.
func (h *ReportsHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_reports"

	limit := h.deps.MaxListLimit()
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.deps.MaxListLimit() {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	summaries, err := h.deps.Recent(r.Context(), limit)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}
