// Package pipeline runs one video through the full mosaic generation
// sequence: probe, density, layout, extraction, composition, export,
// validation.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/framegrid/framegrid/internal/compose"
	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/cropdetect"
	"github.com/framegrid/framegrid/internal/errors"
	"github.com/framegrid/framegrid/internal/ffmpeg"
	"github.com/framegrid/framegrid/internal/ffprobe"
	"github.com/framegrid/framegrid/internal/layout"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/render"
	"github.com/framegrid/framegrid/internal/reporter"
	"github.com/framegrid/framegrid/internal/sampler"
	"github.com/framegrid/framegrid/internal/util"
	"github.com/framegrid/framegrid/internal/validation"
)

// Completion fractions at each stage boundary. Extraction dominates the
// wall clock, so it gets the widest band.
const (
	progressLayout  = 0.10
	progressExtract = 0.70
	progressCompose = 0.95
	progressDone    = 1.0
)

// Prober supplies stream metadata for an input video.
type Prober interface {
	Probe(ctx context.Context, inputPath string) (*ffprobe.VideoInfo, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, inputPath string) (*ffprobe.VideoInfo, error)

func (f ProberFunc) Probe(ctx context.Context, inputPath string) (*ffprobe.VideoInfo, error) {
	return f(ctx, inputPath)
}

// Backends bundles the capability implementations a generation run draws
// frames from and renders onto. Zero-value fields are filled with the
// production implementations, so tests can swap in a single fake without
// building the rest.
type Backends struct {
	// Prober reads stream metadata from the input file.
	Prober Prober

	// NewFrameSource builds the frame source extraction decodes through.
	NewFrameSource func(spec SourceSpec) sampler.FrameSource

	// DetectCrop finds letterbox bars ahead of sampling. Only consulted
	// when the config asks for cropping.
	DetectCrop func(ctx context.Context, inputPath string, info *ffprobe.VideoInfo) cropdetect.Result

	// Canvas renders surfaces and exports them.
	Canvas compose.Canvas
}

// SourceSpec describes how extracted frames are decoded.
type SourceSpec struct {
	// ScaleWidth downscales decoded frames to roughly this width.
	// Zero keeps the source size.
	ScaleWidth int

	// Tonemap maps HDR input down to BT.709 before composition.
	Tonemap bool

	// CropFilter is an ffmpeg crop applied before scaling, empty for
	// none.
	CropFilter string
}

// DefaultBackends returns the production backends: ffprobe metadata,
// ffmpeg frame extraction, CPU canvas rendering.
func DefaultBackends() Backends {
	return Backends{
		Prober: ProberFunc(ffprobe.Probe),
		NewFrameSource: func(spec SourceSpec) sampler.FrameSource {
			return ffmpeg.NewSource(spec.ScaleWidth, spec.Tonemap, spec.CropFilter)
		},
		DetectCrop: cropdetect.Detect,
		Canvas:     render.NewCanvas(0),
	}
}

func (b Backends) withDefaults() Backends {
	defaults := DefaultBackends()
	if b.Prober == nil {
		b.Prober = defaults.Prober
	}
	if b.NewFrameSource == nil {
		b.NewFrameSource = defaults.NewFrameSource
	}
	if b.DetectCrop == nil {
		b.DetectCrop = defaults.DetectCrop
	}
	if b.Canvas == nil {
		b.Canvas = defaults.Canvas
	}
	return b
}

// CheckTools verifies the external tools the default backends shell out
// to are on PATH.
func CheckTools() error {
	if err := ffprobe.Available(); err != nil {
		return err
	}
	return ffmpeg.Available()
}

// Request is one video's generation order.
type Request struct {
	InputPath string

	// OutputPath overrides the derived output location. Empty derives
	// <stem><ext> under the configured output directory.
	OutputPath string

	// OnProgress receives the overall completion fraction in [0, 1].
	// Calls are serial and non-decreasing.
	OnProgress func(fraction float64)
}

// Result captures one finished generation.
type Result struct {
	InputPath    string
	OutputPath   string
	Elapsed      time.Duration
	OutputSize   uint64
	CanvasWidth  int
	CanvasHeight int
	FrameCount   int
	Placeholders int

	ValidationPassed bool
	ValidationSteps  []validation.ValidationStep
}

// Generate produces one mosaic. It emits lifecycle events through the
// reporter as stages complete and returns the first hard failure;
// individual frame extraction failures degrade to placeholders instead
// of failing the run. An existing output file is replaced atomically.
func Generate(ctx context.Context, cfg *config.MosaicConfig, backends Backends, req Request, rep reporter.Reporter) (*Result, error) {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	backends = backends.withDefaults()

	if ctx.Err() != nil {
		return nil, errors.NewCancelledError()
	}

	startTime := time.Now()

	progress := func(fraction float64) {
		if req.OnProgress != nil {
			req.OnProgress(fraction)
		}
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = util.ResolveOutputPath(req.InputPath, cfg.OutputDir, "", cfg.Format.Ext())
	}

	info, err := backends.Prober.Probe(ctx, req.InputPath)
	if err != nil {
		return nil, err
	}

	rep.Initialization(reporter.InitializationSummary{
		InputFile:  util.GetFilename(req.InputPath),
		OutputFile: util.GetFilename(outputPath),
		Duration:   util.FormatDuration(info.DurationSecs),
		Resolution: fmt.Sprintf("%dx%d", info.Width, info.Height),
		FrameRate:  formatFrameRate(info.FrameRate),
		Codec:      info.Codec,
		FileSize:   util.FormatBytes(info.SizeBytes),
		IsHDR:      info.IsHDR,
	})

	srcWidth, srcHeight := info.Width, info.Height
	cropFilter := ""
	if cfg.CropBars {
		crop := backends.DetectCrop(ctx, req.InputPath, info)
		if ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}
		if crop.Required {
			cropFilter = crop.Filter
			srcWidth, srcHeight = crop.Width, crop.Height
			logging.Info("trimming black bars",
				"input", req.InputPath, "crop", crop.Filter)
		}
	}
	videoAspect := info.AspectRatio()
	if cropFilter != "" && srcHeight > 0 {
		videoAspect = float64(srcWidth) / float64(srcHeight)
	}

	targetCount, err := cfg.Density.TargetCount(info.DurationSecs, cfg.CanvasWidth)
	if err != nil {
		return nil, err
	}

	grid, err := layout.Compute(layout.Params{
		VideoAspectRatio:  videoAspect,
		TargetAspectRatio: cfg.AspectRatio,
		Count:             targetCount,
		CanvasWidth:       cfg.CanvasWidth,
		Spacing:           cfg.Spacing,
		Mode:              cfg.LayoutMode,
		DisplayWidth:      cfg.DisplayWidth,
		DisplayHeight:     cfg.DisplayHeight,
	})
	if err != nil {
		return nil, err
	}

	headerHeight := 0
	if cfg.IncludeMetadata {
		headerHeight = compose.HeaderHeight(grid.ThumbSize.Height)
	}
	outWidth := grid.CanvasSize.Width
	outHeight := grid.CanvasSize.Height + headerHeight

	reducedFrom := 0
	if grid.Count() < targetCount {
		reducedFrom = targetCount
	}
	cropNote := ""
	if cropFilter != "" {
		cropNote = fmt.Sprintf("%dx%d of %dx%d", srcWidth, srcHeight, info.Width, info.Height)
	}
	rep.LayoutComputed(reporter.LayoutSummary{
		Mode:        cfg.LayoutMode.String(),
		Grid:        fmt.Sprintf("%dx%d", grid.Cols, grid.Rows),
		ThumbSize:   fmt.Sprintf("%dx%d", grid.ThumbSize.Width, grid.ThumbSize.Height),
		CanvasSize:  fmt.Sprintf("%dx%d", outWidth, outHeight),
		FrameCount:  grid.Count(),
		ReducedFrom: reducedFrom,
		Crop:        cropNote,
	})
	progress(progressLayout)

	samples := sampler.Schedule(info.DurationSecs, grid.Count())
	scaleWidth := extractionScaleWidth(grid)
	logging.Debug("scheduled extraction",
		"samples", len(samples), "scaleWidth", scaleWidth, "input", req.InputPath)

	rep.ExtractionStarted(len(samples))
	frames, placeholders, err := sampler.ExtractAll(ctx, backends.NewFrameSource(SourceSpec{
		ScaleWidth: scaleWidth,
		Tonemap:    info.IsHDR,
		CropFilter: cropFilter,
	}), req.InputPath, samples, sampler.Options{
		Concurrency: cfg.ExtractionConcurrency,
		Accurate:    cfg.AccurateTimestamps,
		Sizes:       grid.ThumbSizes,
		Label:       render.Label,
		OnProgress: func(done, total int) {
			fraction := float64(done) / float64(total)
			rep.ExtractionProgress(reporter.ExtractionSnapshot{
				Done:    done,
				Total:   total,
				Percent: float32(fraction * 100),
			})
			progress(progressLayout + (progressExtract-progressLayout)*fraction)
		},
	})
	if err != nil {
		return nil, err
	}
	if placeholders > 0 {
		rep.ExtractionDegraded(reporter.DegradedInfo{
			Placeholders: placeholders,
			Total:        len(samples),
		})
	}

	rep.StageProgress(reporter.StageProgress{
		Stage:   "compose",
		Percent: float32(progressExtract * 100),
		Message: fmt.Sprintf("Compositing %d frames onto %dx%d canvas", grid.Count(), outWidth, outHeight),
	})

	surface, err := compose.Compose(ctx, backends.Canvas, grid, frames, compose.Options{
		Visual:        cfg.Visual,
		IncludeHeader: cfg.IncludeMetadata,
		Dominant:      render.DominantColor,
		Header: func(width, height int) image.Image {
			return render.Header(width, height, headerLines(req.InputPath, info))
		},
	})
	if err != nil {
		return nil, err
	}
	progress(progressCompose)

	rep.StageProgress(reporter.StageProgress{
		Stage:   "export",
		Percent: float32(progressCompose * 100),
		Message: fmt.Sprintf("Encoding %s", strings.ToUpper(cfg.Format.String())),
	})

	data, err := backends.Canvas.Export(surface, cfg.Format, cfg.Quality)
	if err != nil {
		return nil, errors.NewImageGenerationError("exporting surface", err)
	}
	if cfg.MaxOutputBytes > 0 && int64(len(data)) > cfg.MaxOutputBytes {
		data, err = fitOutputBudget(ctx, backends.Canvas, surface, cfg, data, rep)
		if err != nil {
			return nil, err
		}
	}

	if err := saveOutput(outputPath, data); err != nil {
		return nil, err
	}
	progress(progressDone)

	actualWidth, actualHeight := surface.Size()
	vres := validation.ValidateOutputImage(outputPath, validation.Options{
		ExpectedFormat: cfg.Format,
		ExpectedWidth:  actualWidth,
		ExpectedHeight: actualHeight,
	})

	var steps []reporter.ValidationStep
	for _, s := range vres.GetValidationSteps() {
		steps = append(steps, reporter.ValidationStep{
			Name:    s.Name,
			Passed:  s.Passed,
			Details: s.Details,
		})
	}
	rep.ValidationComplete(reporter.ValidationSummary{
		Passed: vres.IsValid(),
		Steps:  steps,
	})

	outputSize, _ := util.GetFileSize(outputPath)
	elapsed := time.Since(startTime)

	rep.GenerationComplete(reporter.GenerationOutcome{
		InputFile:    util.GetFilename(req.InputPath),
		OutputFile:   util.GetFilename(outputPath),
		OutputPath:   outputPath,
		OutputSize:   outputSize,
		CanvasSize:   fmt.Sprintf("%dx%d", actualWidth, actualHeight),
		FrameCount:   grid.Count(),
		Placeholders: placeholders,
		TotalTime:    elapsed,
	})

	return &Result{
		InputPath:        req.InputPath,
		OutputPath:       outputPath,
		Elapsed:          elapsed,
		OutputSize:       outputSize,
		CanvasWidth:      actualWidth,
		CanvasHeight:     actualHeight,
		FrameCount:       grid.Count(),
		Placeholders:     placeholders,
		ValidationPassed: vres.IsValid(),
		ValidationSteps:  vres.GetValidationSteps(),
	}, nil
}

// saveOutput writes the encoded image atomically: the data lands in a
// temp file that is fsynced and renamed over the target, so a crash
// mid-write never leaves a truncated mosaic behind.
func saveOutput(path string, data []byte) error {
	if err := util.EnsureDirectory(filepath.Dir(path)); err != nil {
		return errors.NewSaveError(path, err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.NewSaveError(path, err)
	}
	return nil
}

// extractionScaleWidth picks the decode width for extracted frames: the
// widest thumbnail the grid places. Decoding full-resolution frames just
// to scale them down wastes memory on 4K sources.
func extractionScaleWidth(grid *layout.Grid) int {
	width := grid.ThumbSize.Width
	for _, sz := range grid.ThumbSizes {
		if sz.Width > width {
			width = sz.Width
		}
	}
	return width
}

// headerLines builds the metadata band content: filename on top, stream
// details below.
func headerLines(inputPath string, info *ffprobe.VideoInfo) []string {
	details := []string{
		fmt.Sprintf("Duration %s", util.FormatDuration(info.DurationSecs)),
		fmt.Sprintf("%dx%d", info.Width, info.Height),
	}
	if info.FrameRate > 0 {
		details = append(details, formatFrameRate(info.FrameRate))
	}
	if info.Codec != "" {
		details = append(details, info.Codec)
	}
	if info.IsHDR {
		details = append(details, "HDR")
	}
	if info.SizeBytes > 0 {
		details = append(details, util.FormatBytes(info.SizeBytes))
	}
	return []string{
		util.GetFilename(inputPath),
		strings.Join(details, "  |  "),
	}
}

func formatFrameRate(fps float64) string {
	if fps <= 0 {
		return "unknown"
	}
	return fmt.Sprintf("%.4g fps", fps)
}
