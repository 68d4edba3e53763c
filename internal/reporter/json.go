package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// JSONReporter outputs NDJSON events for machine consumers.
type JSONReporter struct {
	writer             io.Writer
	mu                 sync.Mutex
	lastProgressBucket int
	lastProgressTime   time.Time
}

// NewJSONReporter creates a new JSON reporter that writes to stdout.
func NewJSONReporter() *JSONReporter {
	return NewJSONReporterWithWriter(os.Stdout)
}

// NewJSONReporterWithWriter creates a JSON reporter with a custom writer.
func NewJSONReporterWithWriter(w io.Writer) *JSONReporter {
	return &JSONReporter{
		writer:             w,
		lastProgressBucket: -1,
	}
}

func (r *JSONReporter) timestamp() int64 {
	return time.Now().Unix()
}

func (r *JSONReporter) write(v interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintln(r.writer, string(data))
}

func (r *JSONReporter) Hardware(summary HardwareSummary) {
	r.write(map[string]interface{}{
		"type":         "hardware",
		"hostname":     summary.Hostname,
		"cores":        summary.Cores,
		"memory_bytes": summary.MemoryBytes,
		"task_limit":   summary.TaskLimit,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) Initialization(summary InitializationSummary) {
	r.write(map[string]interface{}{
		"type":        "initialization",
		"input_file":  summary.InputFile,
		"output_file": summary.OutputFile,
		"duration":    summary.Duration,
		"resolution":  summary.Resolution,
		"frame_rate":  summary.FrameRate,
		"codec":       summary.Codec,
		"file_size":   summary.FileSize,
		"hdr":         summary.IsHDR,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) LayoutComputed(summary LayoutSummary) {
	event := map[string]interface{}{
		"type":        "layout_computed",
		"mode":        summary.Mode,
		"grid":        summary.Grid,
		"thumb_size":  summary.ThumbSize,
		"canvas_size": summary.CanvasSize,
		"frame_count": summary.FrameCount,
		"timestamp":   r.timestamp(),
	}
	if summary.ReducedFrom > 0 {
		event["reduced_from"] = summary.ReducedFrom
	}
	if summary.Crop != "" {
		event["crop"] = summary.Crop
	}
	r.write(event)
}

func (r *JSONReporter) StageProgress(update StageProgress) {
	event := map[string]interface{}{
		"type":      "stage_progress",
		"stage":     update.Stage,
		"percent":   update.Percent,
		"message":   update.Message,
		"timestamp": r.timestamp(),
	}
	if update.ETA != nil {
		event["eta_seconds"] = int64(update.ETA.Seconds())
	}
	r.write(event)
}

func (r *JSONReporter) ExtractionStarted(totalFrames int) {
	r.mu.Lock()
	r.lastProgressBucket = -1
	r.lastProgressTime = time.Time{}
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":         "extraction_started",
		"total_frames": totalFrames,
		"timestamp":    r.timestamp(),
	})
}

// ExtractionProgress emits throttled progress: at most one event per
// percent bucket unless a minimum interval has elapsed, so slow videos
// still produce a heartbeat.
func (r *JSONReporter) ExtractionProgress(progress ExtractionSnapshot) {
	const progressBucketSize = 5
	const minInterval = 5 * time.Second

	bucket := int(progress.Percent) / progressBucketSize
	now := time.Now()

	r.mu.Lock()
	intervalElapsed := r.lastProgressTime.IsZero() || now.Sub(r.lastProgressTime) >= minInterval
	shouldEmit := bucket > r.lastProgressBucket || intervalElapsed || progress.Percent >= 99.0

	if !shouldEmit {
		r.mu.Unlock()
		return
	}

	if bucket > r.lastProgressBucket {
		r.lastProgressBucket = bucket
	}
	r.lastProgressTime = now
	r.mu.Unlock()

	r.write(map[string]interface{}{
		"type":         "extraction_progress",
		"stage":        "extraction",
		"done_frames":  progress.Done,
		"total_frames": progress.Total,
		"percent":      progress.Percent,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) ExtractionDegraded(info DegradedInfo) {
	r.write(map[string]interface{}{
		"type":         "extraction_degraded",
		"placeholders": info.Placeholders,
		"total_frames": info.Total,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) ValidationComplete(summary ValidationSummary) {
	steps := make([]map[string]interface{}, len(summary.Steps))
	for i, step := range summary.Steps {
		steps[i] = map[string]interface{}{
			"step":    step.Name,
			"passed":  step.Passed,
			"details": step.Details,
		}
	}

	r.write(map[string]interface{}{
		"type":              "validation_complete",
		"validation_passed": summary.Passed,
		"validation_steps":  steps,
		"timestamp":         r.timestamp(),
	})
}

func (r *JSONReporter) GenerationComplete(summary GenerationOutcome) {
	r.write(map[string]interface{}{
		"type":             "generation_complete",
		"input_file":       summary.InputFile,
		"output_file":      summary.OutputFile,
		"output_path":      summary.OutputPath,
		"output_size":      summary.OutputSize,
		"canvas_size":      summary.CanvasSize,
		"frame_count":      summary.FrameCount,
		"placeholders":     summary.Placeholders,
		"duration_seconds": int64(summary.TotalTime.Seconds()),
		"timestamp":        r.timestamp(),
	})
}

func (r *JSONReporter) Warning(message string) {
	r.write(map[string]interface{}{
		"type":      "warning",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) Error(err ReporterError) {
	r.write(map[string]interface{}{
		"type":       "error",
		"title":      err.Title,
		"message":    err.Message,
		"context":    err.Context,
		"suggestion": err.Suggestion,
		"timestamp":  r.timestamp(),
	})
}

func (r *JSONReporter) OperationComplete(message string) {
	r.write(map[string]interface{}{
		"type":      "operation_complete",
		"message":   message,
		"timestamp": r.timestamp(),
	})
}

func (r *JSONReporter) BatchStarted(info BatchStartInfo) {
	r.write(map[string]interface{}{
		"type":        "batch_started",
		"total_files": info.TotalFiles,
		"file_list":   info.FileList,
		"output_dir":  info.OutputDir,
		"timestamp":   r.timestamp(),
	})
}

func (r *JSONReporter) FileProgress(context FileProgressContext) {
	r.write(map[string]interface{}{
		"type":         "file_progress",
		"current_file": context.CurrentFile,
		"total_files":  context.TotalFiles,
		"timestamp":    r.timestamp(),
	})
}

func (r *JSONReporter) BatchComplete(summary BatchSummary) {
	results := make([]map[string]interface{}, len(summary.FileResults))
	for i, fr := range summary.FileResults {
		results[i] = map[string]interface{}{
			"filename":    fr.Filename,
			"output_size": fr.OutputSize,
			"frame_count": fr.FrameCount,
		}
	}

	r.write(map[string]interface{}{
		"type":                    "batch_complete",
		"successful_count":        summary.SuccessfulCount,
		"failed_count":            summary.FailedCount,
		"total_files":             summary.TotalFiles,
		"total_output_size":       summary.TotalOutputSize,
		"total_duration_seconds":  int64(summary.TotalDuration.Seconds()),
		"file_results":            results,
		"validation_passed_count": summary.ValidationPassedCount,
		"validation_failed_count": summary.ValidationFailedCount,
		"timestamp":               r.timestamp(),
	})
}
