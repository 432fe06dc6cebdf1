package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aaronalt/gcc-lulc/internal/classes"
	"github.com/aaronalt/gcc-lulc/internal/export"
	"github.com/aaronalt/gcc-lulc/internal/pipeline"
	"github.com/aaronalt/gcc-lulc/internal/spectral"
	"github.com/aaronalt/gcc-lulc/internal/store"
)

// RunExecutor runs the pipeline for one request. The pipeline runner
// implements it; tests substitute their own.
type RunExecutor interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	store    *store.Store
	executor RunExecutor
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(st *store.Store, executor RunExecutor, logger *slog.Logger) *Handlers {
	return &Handlers{
		store:    st,
		executor: executor,
		logger:   logger,
	}
}

// runRequest is the POST /v1/runs body.
type runRequest struct {
	AOI        string    `json:"aoi"`
	Sensor     string    `json:"sensor"`
	Collection string    `json:"collection"`
	Start      string    `json:"start"`
	End        string    `json:"end"`
	BBox       []float64 `json:"bbox,omitempty"`
}

// CreateRun executes the full pipeline for an AOI and records the run.
// POST /v1/runs
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if req.AOI == "" {
		WriteInvalidParameter(w, "aoi is required")
		return
	}
	if _, err := spectral.SensorByName(req.Sensor); err != nil {
		WriteInvalidParameter(w, fmt.Sprintf("unknown sensor %q, expected oli or tm", req.Sensor))
		return
	}
	if req.Collection == "" {
		WriteInvalidParameter(w, "collection is required")
		return
	}
	if len(req.BBox) != 0 && len(req.BBox) != 4 {
		WriteInvalidParameter(w, "bbox must have 4 values [west, south, east, north]")
		return
	}

	preq := pipeline.Request{
		AOI:        req.AOI,
		Sensor:     req.Sensor,
		Collection: req.Collection,
		BBox:       req.BBox,
	}
	var err error
	if preq.Start, err = parseDate(req.Start); err != nil {
		WriteInvalidParameter(w, "start: "+err.Error())
		return
	}
	if preq.End, err = parseDate(req.End); err != nil {
		WriteInvalidParameter(w, "end: "+err.Error())
		return
	}

	ctx := r.Context()
	run, err := h.store.CreateRun(ctx, store.Run{
		AOI:        req.AOI,
		Sensor:     req.Sensor,
		Collection: req.Collection,
		Start:      req.Start,
		End:        req.End,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create run",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to create run")
		return
	}

	if err := h.store.UpdateRun(ctx, run.ID, store.StatusRunning, "", 0); err != nil {
		h.logger.ErrorContext(ctx, "failed to mark run running",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()),
		)
	}

	result, err := h.executor.Run(ctx, preq)
	if err != nil {
		h.logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()),
		)
		if uerr := h.store.UpdateRun(ctx, run.ID, store.StatusFailed, err.Error(), 0); uerr != nil {
			h.logger.ErrorContext(ctx, "failed to record run failure",
				slog.String("run_id", run.ID),
				slog.String("error", uerr.Error()),
			)
		}
		WriteUpstreamError(w, "pipeline run failed: "+err.Error())
		return
	}

	if err := h.store.SaveAreas(ctx, run.ID, result.Areas); err != nil {
		h.logger.ErrorContext(ctx, "failed to save areas",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to save run results")
		return
	}
	if err := h.store.UpdateRun(ctx, run.ID, store.StatusCompleted, "", result.SceneCount); err != nil {
		h.logger.ErrorContext(ctx, "failed to complete run",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()),
		)
	}

	run, err = h.store.GetRun(ctx, run.ID)
	if err != nil {
		WriteInternalError(w, "failed to load run")
		return
	}
	WriteJSON(w, http.StatusCreated, run)
}

// ListRuns returns recorded runs, newest first.
// GET /v1/runs
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteInvalidParameter(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list runs",
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// GetRun returns one run.
// GET /v1/runs/{runId}
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	run, err := h.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		WriteNotFound(w, "run not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load run",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to load run")
		return
	}
	WriteJSON(w, http.StatusOK, run)
}

// GetRunAreas returns a run's area table as JSON, or CSV with
// ?format=csv.
// GET /v1/runs/{runId}/areas
func (h *Handlers) GetRunAreas(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	areas, err := h.store.GetAreas(r.Context(), runID)
	if errors.Is(err, store.ErrRunNotFound) {
		WriteNotFound(w, "run not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load areas",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		WriteInternalError(w, "failed to load areas")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		WriteJSON(w, http.StatusOK, map[string]any{"run_id": runID, "areas": areas})
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+"-areas.csv"))
		if err := export.WriteAreaCSV(w, areas); err != nil {
			h.logger.ErrorContext(r.Context(), "failed to write area csv",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
			)
		}
	default:
		WriteInvalidParameter(w, fmt.Sprintf("unknown format %q, expected json or csv", format))
	}
}

// Classes returns the class table.
// GET /v1/classes
func (h *Handlers) Classes(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"classes": classes.All})
}

// Legend returns the rendered class legend.
// GET /v1/legend.png
func (h *Handlers) Legend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := classes.WriteLegendPNG(w); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render legend",
			slog.String("error", err.Error()),
		)
	}
}

// Health returns the health status of the service.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseDate accepts an empty string, a bare date or RFC3339.
func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, fmt.Errorf("bad date %q, expected YYYY-MM-DD or RFC3339", raw)
	}
	t = t.UTC()
	return &t, nil
}
