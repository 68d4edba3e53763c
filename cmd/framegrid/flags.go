package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/framegrid/framegrid/internal/config"
	"github.com/framegrid/framegrid/internal/density"
	"github.com/framegrid/framegrid/internal/logging"
	"github.com/framegrid/framegrid/internal/reporter"
	"github.com/framegrid/framegrid/internal/util"
)

// configArgs holds the mosaic configuration flags shared by the generate,
// serve and watch commands. Values only reach the config when the flag was
// explicitly set, so the precedence is defaults, then config file, then flags.
type configArgs struct {
	configFile string

	density       string
	layout        string
	width         int
	aspectRatio   float64
	spacing       int
	displayWidth  int
	displayHeight int

	metadata bool
	accurate bool
	cropBars bool

	format        string
	quality       float64
	maxOutputSize string

	concurrency int
	maxTasks    int

	borderWidth     int
	borderColor     string
	shadow          bool
	shadowOffset    int
	background      string
	backgroundColor string
}

// addConfigFlags registers the shared mosaic flags on cmd. The flag defaults
// shown in help mirror the config defaults but are never applied directly;
// applyConfigFlags only copies values the user actually set.
func addConfigFlags(cmd *cobra.Command, ca *configArgs) {
	fs := cmd.Flags()

	fs.StringVar(&ca.configFile, "config", "", "YAML configuration file")

	fs.StringVarP(&ca.density, "density", "d", density.Standard.Name,
		"sampling density: minimal, low, reduced, standard, high, dense, maximum")
	fs.StringVar(&ca.layout, "layout", config.LayoutCustom.String(),
		"layout mode: custom, classic, auto, dynamic, compact-vertical")
	fs.IntVarP(&ca.width, "width", "w", config.DefaultCanvasWidth, "canvas width in pixels")
	fs.Float64Var(&ca.aspectRatio, "aspect-ratio", config.DefaultAspectRatio, "target canvas aspect ratio")
	fs.IntVar(&ca.spacing, "spacing", config.DefaultSpacing, "gap between thumbnails in pixels")
	fs.IntVar(&ca.displayWidth, "display-width", 0, "display width hint for the auto layout")
	fs.IntVar(&ca.displayHeight, "display-height", 0, "display height hint for the auto layout")

	fs.BoolVar(&ca.metadata, "metadata", false, "render a metadata header above the grid")
	fs.BoolVar(&ca.accurate, "accurate", false, "seek precisely to sampled timestamps (slower)")
	fs.BoolVar(&ca.cropBars, "crop", false, "detect and trim letterbox bars before sampling")

	fs.StringVarP(&ca.format, "format", "f", config.FormatWebP.String(), "output format: webp, png, jpeg")
	fs.Float64VarP(&ca.quality, "quality", "q", config.DefaultQuality, "encoding quality from 0 to 1 for webp and jpeg")
	fs.StringVar(&ca.maxOutputSize, "max-output-size", "",
		"cap the output image size (e.g. 2MB); lossy formats re-encode to fit")

	fs.IntVar(&ca.concurrency, "concurrency", config.DefaultExtractionConcurrency,
		"parallel frame extractions per video")
	fs.IntVar(&ca.maxTasks, "max-tasks", 0, "parallel video tasks (0 derives from host resources)")

	fs.IntVar(&ca.borderWidth, "border-width", 0, "thumbnail border width in pixels")
	fs.StringVar(&ca.borderColor, "border-color", "#ffffff", "thumbnail border color as hex")
	fs.BoolVar(&ca.shadow, "shadow", false, "draw drop shadows under thumbnails")
	fs.IntVar(&ca.shadowOffset, "shadow-offset", config.DefaultShadowOffset, "shadow offset in pixels")
	fs.StringVar(&ca.background, "background", string(config.BackgroundGradient), "background style: gradient, flat")
	fs.StringVar(&ca.backgroundColor, "background-color", "#202020", "background color as hex for the flat style")
}

// applyConfigFlags copies explicitly set flags onto cfg. It runs after the
// config file has been applied, so flags win.
func applyConfigFlags(cmd *cobra.Command, ca *configArgs, cfg *config.MosaicConfig) error {
	fs := cmd.Flags()

	if fs.Changed("density") {
		d, err := density.Parse(ca.density)
		if err != nil {
			return err
		}
		cfg.Density = d
	}
	if fs.Changed("layout") {
		mode, err := config.ParseLayoutMode(ca.layout)
		if err != nil {
			return err
		}
		cfg.LayoutMode = mode
	}
	if fs.Changed("width") {
		cfg.CanvasWidth = ca.width
	}
	if fs.Changed("aspect-ratio") {
		cfg.AspectRatio = ca.aspectRatio
	}
	if fs.Changed("spacing") {
		cfg.Spacing = ca.spacing
	}
	if fs.Changed("display-width") {
		cfg.DisplayWidth = ca.displayWidth
	}
	if fs.Changed("display-height") {
		cfg.DisplayHeight = ca.displayHeight
	}
	if fs.Changed("metadata") {
		cfg.IncludeMetadata = ca.metadata
	}
	if fs.Changed("accurate") {
		cfg.AccurateTimestamps = ca.accurate
	}
	if fs.Changed("crop") {
		cfg.CropBars = ca.cropBars
	}
	if fs.Changed("format") {
		f, err := config.ParseOutputFormat(ca.format)
		if err != nil {
			return err
		}
		cfg.Format = f
	}
	if fs.Changed("quality") {
		cfg.Quality = ca.quality
	}
	if fs.Changed("max-output-size") {
		n, err := util.ParseByteSize(ca.maxOutputSize)
		if err != nil {
			return err
		}
		cfg.MaxOutputBytes = n
	}
	if fs.Changed("concurrency") {
		cfg.ExtractionConcurrency = ca.concurrency
	}
	if fs.Changed("max-tasks") {
		cfg.MaxConcurrentTasks = ca.maxTasks
	}
	if fs.Changed("border-width") {
		cfg.Visual.BorderWidth = ca.borderWidth
	}
	if fs.Changed("border-color") {
		c, err := config.ParseHexColor(ca.borderColor)
		if err != nil {
			return err
		}
		cfg.Visual.BorderColor = c
	}
	if fs.Changed("shadow") {
		cfg.Visual.ShadowEnabled = ca.shadow
	}
	if fs.Changed("shadow-offset") {
		cfg.Visual.ShadowOffset = ca.shadowOffset
	}
	if fs.Changed("background") {
		switch config.BackgroundStyle(ca.background) {
		case config.BackgroundGradient, config.BackgroundFlat:
			cfg.Visual.Background = config.BackgroundStyle(ca.background)
		default:
			return fmt.Errorf("invalid background style %q, valid options: gradient, flat", ca.background)
		}
	}
	if fs.Changed("background-color") {
		c, err := config.ParseHexColor(ca.backgroundColor)
		if err != nil {
			return err
		}
		cfg.Visual.BackgroundColor = c
	}
	return nil
}

// buildConfig assembles the effective configuration: defaults, then the
// config file, then explicitly set flags. outputDir and logDir come from
// command flags and override the file when non-empty.
func buildConfig(cmd *cobra.Command, ca *configArgs, outputDir, logDir string) (*config.MosaicConfig, error) {
	cfg := config.NewConfig(".", "")

	if ca.configFile != "" {
		fc, err := config.LoadFile(ca.configFile)
		if err != nil {
			return nil, err
		}
		if err := fc.Apply(cfg); err != nil {
			return nil, err
		}
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if logDir != "" {
		cfg.LogDir = logDir
	}

	if err := applyConfigFlags(cmd, ca, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initSlog points the global structured logger at the run log file, or at
// stderr when file logging is disabled.
func initSlog(runLog *logging.RunLog, verbose bool) {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	if runLog != nil {
		logging.Init(level, runLog.Writer())
		return
	}
	if !verbose {
		level = logging.LevelWarn
	}
	logging.Init(level, os.Stderr)
}

// newCLIReporter picks the progress reporter for a terminal run.
func newCLIReporter(ndjson bool) reporter.Reporter {
	if ndjson {
		return reporter.NewJSONReporter()
	}
	return reporter.NewTerminalReporter()
}
