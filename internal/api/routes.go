package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/density"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/pipeline"
	"github.com/framegrid/framegrid/internal/util"
)

// NewRouter builds the serve-mode HTTP routes.
func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.Global()
	}
	if cfg.Defaults == nil {
		cfg.Defaults = config.NewConfig("", "")
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/healthz", healthHandler(cfg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/mosaics", submitHandler(cfg))
		r.Get("/mosaics", listTasksHandler(cfg))
		r.Get("/mosaics/{id}", getTaskHandler(cfg))
		r.Delete("/mosaics/{id}", cancelTaskHandler(cfg))
		r.Get("/history", historyHandler(cfg))
		r.Get("/metrics", metricsHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func submitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.InputPath == "" {
			WriteError(w, http.StatusBadRequest, "input_path is required", "BAD_REQUEST")
			return
		}
		if info, err := os.Stat(req.InputPath); err != nil || info.IsDir() {
			WriteError(w, http.StatusBadRequest, "input_path is not a readable file", "INVALID_INPUT")
			return
		}
		if !util.IsVideoFile(req.InputPath) {
			WriteError(w, http.StatusBadRequest, "input_path is not a recognized video file", "INVALID_INPUT")
			return
		}

		override, err := buildConfig(cfg.Defaults, req)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_CONFIG")
			return
		}

		task := cfg.Coordinator.Submit(override, pipeline.Request{
			InputPath:  req.InputPath,
			OutputPath: req.OutputPath,
		})
		// Generation outlives the HTTP request; cancellation goes through
		// the coordinator, not the request context.
		cfg.Coordinator.StartAsync(context.Background(), task)

		WriteJSON(w, http.StatusAccepted, SubmitResponse{TaskID: task.ID()})
	}
}

func listTasksHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps := cfg.Coordinator.Snapshots()
		resp := TasksResponse{Tasks: make([]TaskResponse, len(snaps))}
		for i, s := range snaps {
			resp.Tasks[i] = TaskToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getTaskHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		snap, ok := cfg.Coordinator.Task(id)
		if !ok {
			WriteError(w, http.StatusNotFound, "task not found", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, TaskToResponse(snap))
	}
}

func cancelTaskHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if !cfg.Coordinator.Cancel(id) {
			WriteError(w, http.StatusNotFound, "task not found", "NOT_FOUND")
			return
		}
		snap, _ := cfg.Coordinator.Task(id)
		WriteJSON(w, http.StatusAccepted, TaskToResponse(snap))
	}
}

func historyHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.History == nil {
			WriteError(w, http.StatusNotFound, "history is disabled", "NOT_FOUND")
			return
		}

		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 500 {
				WriteError(w, http.StatusBadRequest, "limit must be 1-500", "BAD_REQUEST")
				return
			}
			limit = n
		}

		records, err := cfg.History.Recent(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to read history", "INTERNAL_ERROR")
			return
		}

		resp := HistoryResponse{Generations: make([]GenerationResponse, len(records))}
		for i, rec := range records {
			resp.Generations[i] = GenerationToResponse(rec)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func metricsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := cfg.Coordinator.Metrics()
		WriteJSON(w, http.StatusOK, MetricsResponse{
			Generations:   m.Generations,
			Failures:      m.Failures,
			LastMS:        m.LastDuration.Milliseconds(),
			AverageMS:     m.AverageDuration.Milliseconds(),
			TasksTracked:  len(cfg.Coordinator.Snapshots()),
			TasksRunnable: cfg.Coordinator.Limit(r.Context()),
		})
	}
}

// buildConfig derives a per-request config from the server defaults. It
// returns nil when the request carries no overrides, which makes the
// coordinator fall back to its own default.
func buildConfig(base *config.MosaicConfig, req SubmitRequest) (*config.MosaicConfig, error) {
	if req.Layout == "" && req.Density == "" && req.CanvasWidth == 0 &&
		req.Format == "" && req.Quality == 0 && req.MaxOutputBytes == 0 &&
		!req.CropBars {
		return nil, nil
	}

	cfg := *base
	if req.Layout != "" {
		mode, err := config.ParseLayoutMode(req.Layout)
		if err != nil {
			return nil, err
		}
		cfg.LayoutMode = mode
	}
	if req.Density != "" {
		d, err := density.Parse(req.Density)
		if err != nil {
			return nil, err
		}
		cfg.ApplyDensity(d)
	}
	if req.CanvasWidth != 0 {
		cfg.CanvasWidth = req.CanvasWidth
	}
	if req.Format != "" {
		format, err := config.ParseOutputFormat(req.Format)
		if err != nil {
			return nil, err
		}
		cfg.Format = format
	}
	if req.Quality != 0 {
		cfg.Quality = req.Quality
	}
	if req.MaxOutputBytes != 0 {
		cfg.MaxOutputBytes = req.MaxOutputBytes
	}
	if req.CropBars {
		cfg.CropBars = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
