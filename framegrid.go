// Package framegrid provides a Go library for generating video mosaic
// contact sheets.
//
// Framegrid samples frames across a video's timeline, arranges them with
// one of several layout strategies, and composes them onto a single
// canvas with timestamp labels, styled borders and an optional metadata
// header.
//
// Basic usage:
//
//	gen, err := framegrid.New(
//	    framegrid.WithDensity(framegrid.DensityHigh),
//	    framegrid.WithFormat(framegrid.FormatPNG),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := gen.Generate(ctx, "movie.mkv", "mosaics/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Generated: %s (%d frames)\n",
//	    result.OutputFile, result.FrameCount)
package framegrid

import (
	"context"
	"fmt"
	"time"

	"github.com/framegrid/framegrid/internal/batch"
	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/density"
	"github.com/framegrid/framegrid/internal/discovery"
	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/history"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/pipeline"
	"github.com/framegrid/framegrid/internal/reporter"
	"github.com/framegrid/framegrid/internal/resource"
	"github.com/framegrid/framegrid/internal/util"
)

// Re-export density, layout and format types
type Density = density.Density

// Named density presets, from sparsest to densest.
var (
	DensityMinimal  = density.Minimal
	DensityLow      = density.Low
	DensityReduced  = density.Reduced
	DensityStandard = density.Standard
	DensityHigh     = density.High
	DensityDense    = density.Dense
	DensityMaximum  = density.Maximum
)

// ParseDensity resolves a preset name or a numeric custom factor.
// Valid presets are "minimal", "low", "reduced", "standard", "high",
// "dense" and "maximum" (case-insensitive).
func ParseDensity(s string) (Density, error) {
	return density.Parse(s)
}

// DensityPresets returns the named density presets in ascending order.
func DensityPresets() []Density {
	return density.Presets()
}

type LayoutMode = config.LayoutMode

const (
	LayoutCustom          = config.LayoutCustom
	LayoutClassic         = config.LayoutClassic
	LayoutAuto            = config.LayoutAuto
	LayoutDynamic         = config.LayoutDynamic
	LayoutCompactVertical = config.LayoutCompactVertical
)

// ParseLayoutMode converts a layout mode string to a LayoutMode value.
func ParseLayoutMode(s string) (LayoutMode, error) {
	return config.ParseLayoutMode(s)
}

type OutputFormat = config.OutputFormat

const (
	FormatWebP = config.FormatWebP
	FormatPNG  = config.FormatPNG
	FormatJPEG = config.FormatJPEG
)

// ParseOutputFormat converts an output format string to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	return config.ParseOutputFormat(s)
}

// Generator is the main entry point for mosaic generation.
type Generator struct {
	config      *config.MosaicConfig
	coordinator *batch.Coordinator
	history     *history.Store

	rep         reporter.Reporter
	backends    pipeline.Backends
	probe       resource.Probe
	historyPath string
}

// Result contains the result of a single mosaic generation.
type Result struct {
	OutputFile   string
	OutputSize   uint64
	CanvasWidth  int
	CanvasHeight int
	FrameCount   int
	Placeholders int
	Elapsed      time.Duration

	ValidationPassed bool
}

// BatchResult contains the result of a batch generation.
type BatchResult struct {
	Results         []Result
	SuccessfulCount int

	// FailedCount counts hard failures. Generations cancelled mid-batch
	// are counted by neither field.
	FailedCount int

	TotalFiles            int
	TotalOutputSize       uint64
	ValidationPassedCount int
}

// Metrics summarizes the generator's completed work. Durations cover
// successful generations only.
type Metrics struct {
	Generations     int
	Failures        int
	LastDuration    time.Duration
	AverageDuration time.Duration
}

// TaskStatus is a point-in-time view of one tracked generation.
type TaskStatus struct {
	ID         string
	InputPath  string
	OutputPath string
	Status     string
	Progress   float64
	Error      string
}

// Option configures the generator.
type Option func(*Generator)

// New creates a new Generator with the given options.
func New(opts ...Option) (*Generator, error) {
	g := &Generator{config: config.NewConfig(".", "")}

	for _, opt := range opts {
		opt(g)
	}

	if err := g.config.Validate(); err != nil {
		return nil, err
	}

	g.coordinator = batch.NewCoordinator(g.config, g.backends, g.probe, g.rep)

	if g.historyPath != "" {
		store, err := history.Open(g.historyPath)
		if err != nil {
			return nil, err
		}
		g.history = store
		g.coordinator.SetOnFinish(g.recordHistory)
	}

	return g, nil
}

// Close releases resources held by the generator. It is needed only
// when history recording is enabled.
func (g *Generator) Close() error {
	if g.history != nil {
		return g.history.Close()
	}
	return nil
}

// WithDensity sets the frame sampling density.
func WithDensity(d Density) Option {
	return func(g *Generator) {
		g.config.ApplyDensity(d)
	}
}

// WithLayoutMode sets the layout strategy.
func WithLayoutMode(m LayoutMode) Option {
	return func(g *Generator) {
		g.config.LayoutMode = m
	}
}

// WithCanvasWidth sets the mosaic canvas width in pixels.
func WithCanvasWidth(width int) Option {
	return func(g *Generator) {
		g.config.CanvasWidth = width
	}
}

// WithAspectRatio sets the target canvas aspect ratio.
func WithAspectRatio(ratio float64) Option {
	return func(g *Generator) {
		g.config.AspectRatio = ratio
	}
}

// WithSpacing sets the gap between thumbnails in pixels.
func WithSpacing(px int) Option {
	return func(g *Generator) {
		g.config.Spacing = px
	}
}

// WithMetadataHeader enables the metadata header band above the grid.
func WithMetadataHeader() Option {
	return func(g *Generator) {
		g.config.IncludeMetadata = true
	}
}

// WithAccurateTimestamps enables exact frame seeking. Extraction is
// slower but thumbnails land on the requested timestamps precisely.
func WithAccurateTimestamps() Option {
	return func(g *Generator) {
		g.config.AccurateTimestamps = true
	}
}

// WithCropDetection trims letterbox and pillarbox bars from extracted
// frames. Detection adds a sampling pass over the input before
// extraction starts.
func WithCropDetection() Option {
	return func(g *Generator) {
		g.config.CropBars = true
	}
}

// WithFormat sets the output image format.
func WithFormat(f OutputFormat) Option {
	return func(g *Generator) {
		g.config.Format = f
	}
}

// WithQuality sets the output compression quality in (0, 1].
func WithQuality(q float64) Option {
	return func(g *Generator) {
		g.config.Quality = q
	}
}

// WithMaxOutputSize caps the exported image size in bytes. Lossy formats
// are re-encoded at reduced quality until they fit; when even the lowest
// quality stays over, the smallest result is kept and a warning emitted.
func WithMaxOutputSize(bytes int64) Option {
	return func(g *Generator) {
		g.config.MaxOutputBytes = bytes
	}
}

// WithConcurrency sets the per-video frame extraction pool size.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		g.config.ExtractionConcurrency = n
	}
}

// WithMaxTasks caps the number of videos generated concurrently.
// Zero derives the cap from host memory and CPU count.
func WithMaxTasks(n int) Option {
	return func(g *Generator) {
		g.config.MaxConcurrentTasks = n
	}
}

// WithEventHandler registers a handler for generation events.
func WithEventHandler(handler EventHandler) Option {
	return func(g *Generator) {
		if handler != nil {
			g.rep = newEventReporter(handler)
		}
	}
}

// WithHistory enables recording of finished generations to a SQLite
// database at the given path.
func WithHistory(dbPath string) Option {
	return func(g *Generator) {
		g.historyPath = dbPath
	}
}

// withBackends swaps the probe, extraction and render implementations.
func withBackends(b pipeline.Backends) Option {
	return func(g *Generator) {
		g.backends = b
	}
}

// withProbe swaps the host resource probe.
func withProbe(p resource.Probe) Option {
	return func(g *Generator) {
		g.probe = p
	}
}

// Generate produces a mosaic for a single video file. An empty
// outputDir uses the generator's configured output directory.
func (g *Generator) Generate(ctx context.Context, input, outputDir string) (*Result, error) {
	cfg, err := g.callConfig(outputDir)
	if err != nil {
		return nil, err
	}

	t := g.coordinator.Submit(cfg, pipeline.Request{InputPath: input})
	outcomes := g.coordinator.RunTasks(ctx, []*batch.Task{t})

	o := outcomes[0]
	if o.Err != nil {
		return nil, o.Err
	}
	return toResult(o.Result), nil
}

// GenerateBatch produces mosaics for multiple video files. Directory
// arguments are expanded to the video files they contain. Results are
// in input order with failed generations elided. When ctx is cancelled
// mid-batch the partial result is returned together with ctx's error.
func (g *Generator) GenerateBatch(ctx context.Context, inputs []string, outputDir string) (*BatchResult, error) {
	files, err := discovery.ExpandInputs(inputs)
	if err != nil {
		return nil, err
	}
	cfg, err := g.callConfig(outputDir)
	if err != nil {
		return nil, err
	}

	tasks := make([]*batch.Task, len(files))
	for i, input := range files {
		tasks[i] = g.coordinator.Submit(cfg, pipeline.Request{InputPath: input})
	}
	outcomes := g.coordinator.RunTasks(ctx, tasks)

	br := &BatchResult{TotalFiles: len(files)}
	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			if o.Err != nil && !errors.IsCancelled(o.Err) {
				br.FailedCount++
			}
			continue
		}
		r := *toResult(o.Result)
		br.Results = append(br.Results, r)
		br.SuccessfulCount++
		br.TotalOutputSize += r.OutputSize
		if r.ValidationPassed {
			br.ValidationPassedCount++
		}
	}

	return br, ctx.Err()
}

// Tasks returns the status of every generation the generator has seen,
// in submission order.
func (g *Generator) Tasks() []TaskStatus {
	snaps := g.coordinator.Snapshots()
	statuses := make([]TaskStatus, len(snaps))
	for i, s := range snaps {
		statuses[i] = TaskStatus{
			ID:         s.ID,
			InputPath:  s.InputPath,
			OutputPath: s.OutputPath,
			Status:     string(s.Status),
			Progress:   s.Progress,
			Error:      s.Error,
		}
	}
	return statuses
}

// Cancel requests cancellation of one generation by task id. It returns
// false when the id is unknown.
func (g *Generator) Cancel(id string) bool {
	return g.coordinator.Cancel(id)
}

// CancelAll requests cancellation of every generation in flight.
func (g *Generator) CancelAll() {
	g.coordinator.CancelAll()
}

// Metrics returns counters for the generator's completed work.
func (g *Generator) Metrics() Metrics {
	m := g.coordinator.Metrics()
	return Metrics{
		Generations:     m.Generations,
		Failures:        m.Failures,
		LastDuration:    m.LastDuration,
		AverageDuration: m.AverageDuration,
	}
}

// callConfig copies the generator's config for one call, overriding the
// output directory when set.
func (g *Generator) callConfig(outputDir string) (*config.MosaicConfig, error) {
	cfg := *g.config
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}

	if err := util.EnsureDirectory(cfg.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &cfg, nil
}

func (g *Generator) recordHistory(t *batch.Task) {
	result, genErr := t.Outcome()
	rec := history.RecordFor(t.InputPath(), t.Config().LayoutMode.String(), result, genErr)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := g.history.Add(ctx, rec); err != nil {
		logging.Warn("failed to record generation history", "path", t.InputPath(), "error", err)
	}
}

func toResult(r *pipeline.Result) *Result {
	return &Result{
		OutputFile:       r.OutputPath,
		OutputSize:       r.OutputSize,
		CanvasWidth:      r.CanvasWidth,
		CanvasHeight:     r.CanvasHeight,
		FrameCount:       r.FrameCount,
		Placeholders:     r.Placeholders,
		Elapsed:          r.Elapsed,
		ValidationPassed: r.ValidationPassed,
	}
}

// FindVideos finds video files in a directory.
func FindVideos(dir string) ([]string, error) {
	return discovery.FindVideoFiles(dir)
}

// CheckTools verifies that the external tools generation shells out to
// are installed and on PATH.
func CheckTools() error {
	return pipeline.CheckTools()
}

// IsCancelled reports whether err is the result of a cancelled
// generation rather than a failure.
func IsCancelled(err error) bool {
	return errors.IsCancelled(err)
}

// eventReporter adapts EventHandler to the internal reporter interface.
type eventReporter struct {
	handler EventHandler
}

func newEventReporter(handler EventHandler) *eventReporter {
	return &eventReporter{handler: handler}
}

func (r *eventReporter) Hardware(reporter.HardwareSummary)             {}
func (r *eventReporter) Initialization(reporter.InitializationSummary) {}
func (r *eventReporter) LayoutComputed(reporter.LayoutSummary)         {}
func (r *eventReporter) ExtractionStarted(int)                         {}

func (r *eventReporter) StageProgress(u reporter.StageProgress) {
	_ = r.handler(GenerationProgressEvent{
		BaseEvent: BaseEvent{EventType: EventTypeGenerationProgress, Time: NewTimestamp()},
		Stage:     u.Stage,
		Percent:   u.Percent,
		Message:   u.Message,
	})
}

func (r *eventReporter) ExtractionProgress(p reporter.ExtractionSnapshot) {
	_ = r.handler(ExtractionProgressEvent{
		BaseEvent: BaseEvent{EventType: EventTypeExtractionProgress, Time: NewTimestamp()},
		Done:      p.Done,
		Total:     p.Total,
		Percent:   p.Percent,
	})
}

func (r *eventReporter) ExtractionDegraded(info reporter.DegradedInfo) {
	_ = r.handler(ExtractionDegradedEvent{
		BaseEvent:    BaseEvent{EventType: EventTypeExtractionDegraded, Time: NewTimestamp()},
		Placeholders: info.Placeholders,
		Total:        info.Total,
	})
}

func (r *eventReporter) ValidationComplete(s reporter.ValidationSummary) {
	steps := make([]ValidationStep, len(s.Steps))
	for i, step := range s.Steps {
		steps[i] = ValidationStep{
			Step:    step.Name,
			Passed:  step.Passed,
			Details: step.Details,
		}
	}
	_ = r.handler(ValidationCompleteEvent{
		BaseEvent:        BaseEvent{EventType: EventTypeValidationComplete, Time: NewTimestamp()},
		ValidationPassed: s.Passed,
		ValidationSteps:  steps,
	})
}

func (r *eventReporter) GenerationComplete(s reporter.GenerationOutcome) {
	_ = r.handler(GenerationCompleteEvent{
		BaseEvent:    BaseEvent{EventType: EventTypeGenerationComplete, Time: NewTimestamp()},
		OutputFile:   s.OutputPath,
		OutputSize:   s.OutputSize,
		FrameCount:   s.FrameCount,
		Placeholders: s.Placeholders,
		ElapsedMS:    s.TotalTime.Milliseconds(),
	})
}

func (r *eventReporter) Warning(message string) {
	_ = r.handler(WarningEvent{
		BaseEvent: BaseEvent{EventType: EventTypeWarning, Time: NewTimestamp()},
		Message:   message,
	})
}

func (r *eventReporter) Error(e reporter.ReporterError) {
	_ = r.handler(ErrorEvent{
		BaseEvent:  BaseEvent{EventType: EventTypeError, Time: NewTimestamp()},
		Title:      e.Title,
		Message:    e.Message,
		Context:    e.Context,
		Suggestion: e.Suggestion,
	})
}

func (r *eventReporter) OperationComplete(string)                  {}
func (r *eventReporter) BatchStarted(reporter.BatchStartInfo)      {}
func (r *eventReporter) FileProgress(reporter.FileProgressContext) {}

func (r *eventReporter) BatchComplete(s reporter.BatchSummary) {
	_ = r.handler(BatchCompleteEvent{
		BaseEvent:       BaseEvent{EventType: EventTypeBatchComplete, Time: NewTimestamp()},
		SuccessfulCount: s.SuccessfulCount,
		FailedCount:     s.FailedCount,
		TotalFiles:      s.TotalFiles,
		TotalOutputSize: s.TotalOutputSize,
	})
}
