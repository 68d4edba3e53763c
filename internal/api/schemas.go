package api

import (
	"time"

	"github.com/framegrid/framegrid/internal/batch"
	"github.com/framegrid/framegrid/internal/history"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type SubmitRequest struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path,omitempty"`

	// Optional per-request overrides of the server defaults.
	Layout         string  `json:"layout,omitempty"`
	Density        string  `json:"density,omitempty"`
	CanvasWidth    int     `json:"canvas_width,omitempty"`
	Format         string  `json:"format,omitempty"`
	Quality        float64 `json:"quality,omitempty"`
	MaxOutputBytes int64   `json:"max_output_bytes,omitempty"`
	CropBars       bool    `json:"crop_bars,omitempty"`
}

type SubmitResponse struct {
	TaskID string `json:"task_id"`
}

type TaskResponse struct {
	ID         string  `json:"id"`
	InputPath  string  `json:"input_path"`
	OutputPath string  `json:"output_path,omitempty"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	Error      string  `json:"error,omitempty"`
}

type TasksResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

type MetricsResponse struct {
	Generations   int   `json:"generations"`
	Failures      int   `json:"failures"`
	LastMS        int64 `json:"last_duration_ms"`
	AverageMS     int64 `json:"average_duration_ms"`
	TasksTracked  int   `json:"tasks_tracked"`
	TasksRunnable int   `json:"task_limit"`
}

type GenerationResponse struct {
	ID           string `json:"id"`
	InputPath    string `json:"input_path"`
	OutputPath   string `json:"output_path,omitempty"`
	LayoutMode   string `json:"layout_mode,omitempty"`
	FrameCount   int    `json:"frame_count"`
	Placeholders int    `json:"placeholders,omitempty"`
	CanvasWidth  int    `json:"canvas_width"`
	CanvasHeight int    `json:"canvas_height"`
	OutputSize   uint64 `json:"output_size"`
	ElapsedMS    int64  `json:"elapsed_ms"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type HistoryResponse struct {
	Generations []GenerationResponse `json:"generations"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func TaskToResponse(s batch.Snapshot) TaskResponse {
	return TaskResponse{
		ID:         s.ID,
		InputPath:  s.InputPath,
		OutputPath: s.OutputPath,
		Status:     string(s.Status),
		Progress:   s.Progress,
		Error:      s.Error,
	}
}

func GenerationToResponse(rec history.Record) GenerationResponse {
	resp := GenerationResponse{
		ID:           rec.ID,
		InputPath:    rec.InputPath,
		OutputPath:   rec.OutputPath,
		LayoutMode:   rec.LayoutMode,
		FrameCount:   rec.FrameCount,
		Placeholders: rec.Placeholders,
		CanvasWidth:  rec.CanvasWidth,
		CanvasHeight: rec.CanvasHeight,
		OutputSize:   rec.OutputSize,
		ElapsedMS:    rec.Elapsed.Milliseconds(),
		Status:       rec.Status,
		Error:        rec.Error,
	}
	if !rec.CreatedAt.IsZero() {
		resp.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
