package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"freightpulse/internal/backfill"
	"freightpulse/internal/config"
	apierrors "freightpulse/internal/errors"
	"freightpulse/internal/ingest"
	"freightpulse/internal/risk"
	"freightpulse/pkg/contracts/domain"
)

// StatusHandler serves the pipeline's output documents.
type StatusHandler struct {
	paths     *config.Paths
	riskTable *backfill.Table
	logger    *slog.Logger
}

// NewStatusHandler creates the status API handler.
func NewStatusHandler(paths *config.Paths, riskTable *backfill.Table, logger *slog.Logger) *StatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusHandler{
		paths:     paths,
		riskTable: riskTable,
		logger:    logger.With(slog.String("component", "status_handler")),
	}
}

// Routes returns the API routes.
func (h *StatusHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/risk", h.GetRisk)
	r.Get("/risk/history", h.GetRiskHistory)
	r.Get("/status/{signal}", h.GetSignalStatus)

	return r
}

// GetRisk handles GET /api/risk.
func (h *StatusHandler) GetRisk(w http.ResponseWriter, r *http.Request) {
	snapshot, err := risk.ReadSnapshot(h.paths.SnapshotFile)
	if err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}
	if snapshot == nil {
		h.renderError(w, r, apierrors.ErrSnapshotStale)
		return
	}
	render.JSON(w, r, snapshot)
}

// GetRiskHistory handles GET /api/risk/history.
func (h *StatusHandler) GetRiskHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.riskTable.Load()
	if err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}
	if rows == nil {
		rows = []domain.RiskHistoryRow{}
	}
	render.JSON(w, r, rows)
}

// GetSignalStatus handles GET /api/status/{signal}.
func (h *StatusHandler) GetSignalStatus(w http.ResponseWriter, r *http.Request) {
	var path string
	var doc interface{}

	switch chi.URLParam(r, "signal") {
	case config.SignalRiver:
		path, doc = h.paths.RiverStatusFile, &domain.RiverStatus{}
	case config.SignalRail:
		path, doc = h.paths.RailStatusFile, &domain.RailStatus{}
	case config.SignalBarge:
		path, doc = h.paths.BargeStatusFile, &domain.BargeStatus{}
	default:
		h.renderError(w, r, apierrors.ErrNotFound)
		return
	}

	if err := ingest.ReadDocument(path, doc); err != nil {
		if os.IsNotExist(err) {
			h.renderError(w, r, apierrors.ErrNotFound)
			return
		}
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}
	render.JSON(w, r, doc)
}

func (h *StatusHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if apiErr.StatusCode >= 500 {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path),
			slog.String("error", apiErr.Message))
	}
	if err := render.Render(w, r, apiErr); err != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
