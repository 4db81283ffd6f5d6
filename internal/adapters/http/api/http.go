// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ahadullabaig/Bean/internal/adapters/gemini"
	service "github.com/ahadullabaig/Bean/internal/app"
	"github.com/ahadullabaig/Bean/internal/domain/model"
	"github.com/ahadullabaig/Bean/internal/domain/types"
)

// Submission mirrors the application-level submission shape.
type Submission = service.SubmitRequest

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit accepts a report submission and enqueues the pipeline run.
	// Returns the report ID and whether the request was a duplicate.
	Submit(ctx context.Context, sub Submission) (string, bool, error)

	// ConfirmFacts freezes reviewed facts on a held report and resumes it.
	ConfirmFacts(ctx context.Context, id string, facts model.Facts, credential, style string) error

	// Read operations expose stored report state.
	Get(ctx context.Context, id string) (model.Report, error)
	Recent(ctx context.Context, limit int) ([]types.Summary, error)
	MaxListLimit() int
}

// credentialHeader carries the per-session API key. The value is forwarded
// into the submission and never logged or echoed back.
const credentialHeader = "X-API-Key"

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	reportsHandler *ReportsHandler
	reportHandler  *ReportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		reportsHandler: NewReportsHandler(deps),
		reportHandler:  NewReportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/reports", MetricsMiddleware(s.reportsHandler.HandleReports, "reports"))
	mux.HandleFunc("/reports/", MetricsMiddleware(s.reportHandler.HandleReport, "report"))
}

// mediaPayload is one attachment in a submission. Data is standard base64.
type mediaPayload struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// submitRequest mirrors the request schema for POST /reports.
type submitRequest struct {
	RequestID     string         `json:"request_id,omitempty"`
	Notes         string         `json:"notes"`
	Style         string         `json:"style,omitempty"`
	HoldForReview bool           `json:"hold_for_review,omitempty"`
	Media         []mediaPayload `json:"media,omitempty"`
}

func (s submitRequest) validate() error {
	if strings.TrimSpace(s.Notes) == "" && len(s.Media) == 0 {
		return errors.New("missing notes or media")
	}
	for _, m := range s.Media {
		if strings.TrimSpace(m.MIMEType) == "" {
			return errors.New("media entry missing mime_type")
		}
		if len(m.Data) == 0 {
			return errors.New("media entry missing data")
		}
	}
	return nil
}

func (s submitRequest) blobs() []gemini.Blob {
	if len(s.Media) == 0 {
		return nil
	}
	blobs := make([]gemini.Blob, 0, len(s.Media))
	for _, m := range s.Media {
		blobs = append(blobs, gemini.Blob{MIMEType: m.MIMEType, Data: m.Data})
	}
	return blobs
}

// confirmFactsRequest mirrors the request schema for POST /reports/{id}/facts.
type confirmFactsRequest struct {
	Facts model.Facts `json:"facts"`
	Style string      `json:"style,omitempty"`
}

type ackResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates application errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrMissingCredential):
		writeError(w, http.StatusUnauthorized, "missing_credential", NewKind(op, service.ErrMissingCredential))
	case errors.Is(err, service.ErrEmptySubmission):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	case errors.Is(err, service.ErrNotAwaitingReview):
		writeError(w, http.StatusConflict, "not_awaiting_review", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
