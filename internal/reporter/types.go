// Package reporter provides progress reporting interfaces and implementations.
package reporter

import "time"

// HardwareSummary contains host information and the derived task limit.
type HardwareSummary struct {
	Hostname    string
	Cores       int
	MemoryBytes uint64
	TaskLimit   int
}

// InitializationSummary describes the current video before generation.
type InitializationSummary struct {
	InputFile  string
	OutputFile string
	Duration   string
	Resolution string
	FrameRate  string
	Codec      string
	FileSize   string
	IsHDR      bool
}

// LayoutSummary describes the computed mosaic geometry.
type LayoutSummary struct {
	Mode        string
	Grid        string
	ThumbSize   string
	CanvasSize  string
	FrameCount  int
	ReducedFrom int    // 0 when the requested count was kept
	Crop        string // cropped source note, "" when frames stay whole
}

// StageProgress represents a generic stage update.
type StageProgress struct {
	Stage   string
	Percent float32
	Message string
	ETA     *time.Duration
}

// ExtractionSnapshot contains frame extraction progress.
type ExtractionSnapshot struct {
	Done    int
	Total   int
	Percent float32
}

// DegradedInfo reports placeholder substitution after failed extractions.
type DegradedInfo struct {
	Placeholders int
	Total        int
}

// ValidationSummary contains validation results.
type ValidationSummary struct {
	Passed bool
	Steps  []ValidationStep
}

// ValidationStep represents a single validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// GenerationOutcome contains final generation results for one video.
type GenerationOutcome struct {
	InputFile    string
	OutputFile   string
	OutputPath   string
	OutputSize   uint64
	CanvasSize   string
	FrameCount   int
	Placeholders int
	TotalTime    time.Duration
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// BatchStartInfo contains batch start metadata.
type BatchStartInfo struct {
	TotalFiles int
	FileList   []string
	OutputDir  string
}

// FileProgressContext contains current file index within a batch.
type FileProgressContext struct {
	CurrentFile int
	TotalFiles  int
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	SuccessfulCount       int
	FailedCount           int
	TotalFiles            int
	TotalOutputSize       uint64
	TotalDuration         time.Duration
	FileResults           []FileResult
	ValidationPassedCount int
	ValidationFailedCount int
}

// FileResult contains per-file generation result.
type FileResult struct {
	Filename   string
	OutputSize uint64
	FrameCount int
}
